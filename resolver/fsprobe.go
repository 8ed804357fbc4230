package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// tsExtensionCandidates maps a JS-family extension to the TypeScript
// source extensions that could have emitted it, in try-order. Grounded on
// spec.md §4.2's isFromTsImporter fallback table.
var tsExtensionCandidates = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// tryFsResolve implements spec.md §4.2: probe fsPath as a literal file, as
// a file with each configured extension appended, then (postfix-aware)
// allow directory-index behavior. Returns "" when nothing was found.
func (r *Resolver) tryFsResolve(fsPath string, opts Options, tryIndex bool, targetWeb bool) (string, error) {
	file, postfix := splitFileAndPostfix(fsPath)

	// Step 1: the postfix might be part of the actual filename (#4703).
	if postfix != "" {
		if res, err := r.tryResolveFile(fsPath, "", opts, false, targetWeb); res != "" || err != nil {
			return res, err
		}
	}

	// Step 2: try `file` as a file, no directory index.
	if res, err := r.tryResolveFile(file, postfix, opts, false, targetWeb); res != "" || err != nil {
		return res, err
	}

	// Step 3: try each configured extension.
	for _, ext := range opts.Extensions {
		if postfix != "" {
			if res, err := r.tryResolveFile(fsPath+ext, "", opts, false, targetWeb); res != "" || err != nil {
				return res, err
			}
		}
		if res, err := r.tryResolveFile(file+ext, postfix, opts, false, targetWeb); res != "" || err != nil {
			return res, err
		}
	}

	if !tryIndex {
		return "", nil
	}

	// Step 4: literal fsPath again, now allowing directory-index behavior.
	if postfix != "" {
		if res, err := r.tryResolveFile(fsPath, "", opts, true, targetWeb); res != "" || err != nil {
			return res, err
		}
	}

	// Step 5: `file` allowing directory-index behavior.
	return r.tryResolveFile(file, postfix, opts, true, targetWeb)
}

// tryResolveFile implements spec.md §4.2's tryResolveFile: a plain file
// wins outright; a directory recurses into its package.json entry point
// or its "/index" fallback; a TS-emit candidate is tried when the
// importer is TypeScript; a configured prefix is retried once, without
// the TS-extension fallback (§9 open question: this omission is
// preserved deliberately, matching the documented source quirk).
func (r *Resolver) tryResolveFile(file, postfix string, opts Options, tryIndex bool, targetWeb bool) (string, error) {
	if isFile(file) {
		resolved := file
		if !opts.PreserveSymlinks {
			resolved = realpath(file)
		}
		return resolved + postfix, nil
	}

	if isDir(file) && tryIndex {
		if !opts.SkipPackageJSON {
			manifestPath := filepath.Join(file, "package.json")
			if isFile(manifestPath) {
				pkg, err := r.manifest.LoadPackageData(manifestPath, opts.PreserveSymlinks)
				if err != nil {
					if !os.IsNotExist(err) {
						return "", err
					}
				} else {
					entry, err := r.resolvePackageEntry(pkg, targetWeb, opts)
					if err != nil {
						return "", err
					}
					if entry != "" {
						return entry + postfix, nil
					}
				}
			}
		}
		return r.tryFsResolve(filepath.Join(file, "index")+postfix, opts, false, targetWeb)
	}

	if opts.IsFromTsImporter {
		ext := filepath.Ext(file)
		if candidates, ok := tsExtensionCandidates[ext]; ok {
			base := strings.TrimSuffix(file, ext)
			for _, tsExt := range candidates {
				if isFile(base + tsExt) {
					resolved := base + tsExt
					if !opts.PreserveSymlinks {
						resolved = realpath(resolved)
					}
					return resolved + postfix, nil
				}
			}
			return "", nil
		}
	}

	if opts.TryPrefix != "" {
		dir, base := filepath.Split(file)
		prefixed := filepath.Join(dir, opts.TryPrefix+base)
		prefixedOpts := opts
		prefixedOpts.TryPrefix = ""
		prefixedOpts.IsFromTsImporter = false
		return r.tryResolveFile(prefixed, postfix, prefixedOpts, tryIndex, targetWeb)
	}

	return "", nil
}
