package resolver

import (
	"path/filepath"

	"github.com/esmresolve/modresolve/internal/manifest"
)

// resolveDeepImport implements spec.md §4.5: resolve a subpath within a
// package (id is "." + subpath, e.g. "./sub" or "./sub?raw") via `exports`
// or a `browser` object remap, then probe the filesystem. Memoized per
// (id, targetWeb). Grounded on esm.sh's build_resolver.go resolveDeepImport.
func (r *Resolver) resolveDeepImport(id string, pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	if cached, ok := pkg.GetResolvedCache(id, targetWeb); ok {
		return cached, nil
	}

	unlock := r.deepMu.Lock(pkg.Dir + "\x00" + id + "\x00" + boolKey(targetWeb))
	defer unlock()

	if cached, ok := pkg.GetResolvedCache(id, targetWeb); ok {
		return cached, nil
	}

	resolved, err := r.doResolveDeepImport(id, pkg, targetWeb, opts)
	if err != nil {
		return "", err
	}
	pkg.SetResolvedCache(id, resolved, targetWeb)
	return resolved, nil
}

func (r *Resolver) doResolveDeepImport(id string, pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	data := pkg.Data
	file, postfix := splitFileAndPostfix(id)
	hasExports := data.Exports.Len() > 0

	if hasExports {
		conditions := buildConditionSet(targetWeb, opts.IsRequire, opts.Dev, opts.Conditions)
		resolved, ok := resolveExportsSubpath(data.Exports, file, conditions)
		if !ok {
			return "", &ErrSubpathNotExposed{Subpath: file, ManifestDir: pkg.Dir}
		}
		file = resolved
	} else if targetWeb && data.Browser.Len() > 0 {
		res := mapWithBrowserField(data.Browser, file)
		if res.matched {
			if res.external {
				return BrowserExternalID, nil
			}
			file = res.remap
		}
	}

	relativeId := filepath.Join(pkg.Dir, file)
	return r.tryFsResolve(relativeId+postfix, opts, !hasExports, targetWeb)
}
