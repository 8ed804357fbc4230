package resolver

import (
	"path/filepath"
	"strings"

	"github.com/esmresolve/modresolve/internal/manifest"
)

// resolveSubpathImport implements Node's subpath-imports feature: a
// specifier beginning with "#" resolves against the importing package's
// own `imports` map, the same conditions/wildcard algorithm `exports`
// uses (spec.md's "imports field" supplement, added as a thin extension
// of resolveDeepImport). Memoized per (specifier, targetWeb) the same way
// resolveDeepImport is. Grounded on esm.sh's build_resolver.go use of
// PackageJSON.Imports as a sub-module lookup, generalized to the standard
// per-package `#specifier` resolution esm.sh's own usage only
// approximates.
func (r *Resolver) resolveSubpathImport(specifier string, pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	if cached, ok := pkg.GetResolvedCache(specifier, targetWeb); ok {
		return cached, nil
	}

	unlock := r.deepMu.Lock(pkg.Dir + "\x00" + specifier + "\x00" + boolKey(targetWeb))
	defer unlock()

	if cached, ok := pkg.GetResolvedCache(specifier, targetWeb); ok {
		return cached, nil
	}

	resolved, err := r.doResolveSubpathImport(specifier, pkg, targetWeb, opts)
	if err != nil {
		return "", err
	}
	pkg.SetResolvedCache(specifier, resolved, targetWeb)
	return resolved, nil
}

// doResolveSubpathImport has no browser-field fallback branch: unlike
// `exports`, Node's `imports` field is never remapped by `browser`.
func (r *Resolver) doResolveSubpathImport(specifier string, pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	data := pkg.Data
	if data.Imports.Len() == 0 {
		return "", &ErrSubpathNotExposed{Subpath: specifier, ManifestDir: pkg.Dir}
	}

	// The leading '#' names the import, not a hash postfix: split after it.
	file, postfix := splitFileAndPostfix(strings.TrimPrefix(specifier, "#"))
	file = "#" + file
	conditions := buildConditionSet(targetWeb, opts.IsRequire, opts.Dev, opts.Conditions)
	resolved, ok := resolveExportsSubpath(data.Imports, file, conditions)
	if !ok || !strings.HasPrefix(resolved, ".") {
		// A target outside the owning package (a bare specifier the
		// `imports` map redirects to) is out of scope for this thin
		// extension; only package-relative targets are resolved.
		return "", &ErrSubpathNotExposed{Subpath: file, ManifestDir: pkg.Dir}
	}

	relativeId := filepath.Join(pkg.Dir, resolved)
	return r.tryFsResolve(relativeId+postfix, opts, false, targetWeb)
}
