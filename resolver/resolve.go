package resolver

import (
	"path/filepath"
	"strings"
)

// nodeBuiltins is a closed set of specifiers that name a Node.js builtin
// module, consulted by §4.1 step 11e. Grounded on esm.sh's own builtin
// awareness (server/module.go's nodeBuiltinModules set), trimmed to the
// names relevant to a browser/SSR resolver.
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "cluster": true,
	"crypto": true, "dgram": true, "dns": true, "events": true, "fs": true,
	"http": true, "http2": true, "https": true, "net": true, "os": true,
	"path": true, "perf_hooks": true, "process": true, "querystring": true,
	"readline": true, "stream": true, "string_decoder": true, "sys": true,
	"timers": true, "tls": true, "tty": true, "url": true, "util": true,
	"v8": true, "vm": true, "worker_threads": true, "zlib": true,
}

func isBuiltin(id string) bool {
	return nodeBuiltins[strings.TrimPrefix(id, "node:")]
}

// ResolveID is the dispatch orchestrator: spec.md §4.1's dispatch
// orchestrator, "the public entry that classifies the specifier and
// routes to the appropriate leaf, honoring a documented precedence
// order, and produces the plugin-host result object." Grounded on
// esm.sh's build_resolver.go resolveImportModule / dev_server.go
// resolveRequest dispatch and Vite's tryFsResolve-centered resolveId.
func (r *Resolver) ResolveID(specifier, importer string, opts Options) (*ResolutionResult, error) {
	opts = opts.withDefaults()
	targetWeb := opts.targetWeb()

	kind := classify(specifier, opts.AsSrc)

	switch kind {
	case KindBrowserExternal:
		return idResult(specifier), nil

	case KindCommonJSProxy:
		return nil, nil
	}

	if opts.AsSrc && opts.Optimizer != nil && opts.Optimizer.IsOptimizedDepURL(specifier) {
		normalized := specifier
		if strings.HasPrefix(normalized, FsEscapePrefix) {
			normalized = strings.TrimPrefix(normalized, FsEscapePrefix)
			if !filepath.IsAbs(normalized) {
				normalized = "/" + normalized
			}
		} else {
			normalized = filepath.Join(opts.Root, normalized)
		}
		return idResult(normalizeSlashes(normalized)), nil
	}

	if opts.AsSrc && kind == KindFsEscape {
		stripped := strings.TrimPrefix(specifier, FsEscapePrefix)
		if !filepath.IsAbs(stripped) {
			stripped = "/" + stripped
		}
		resolved, err := r.tryFsResolve(stripped, opts, true, targetWeb)
		if err != nil {
			return nil, err
		}
		if resolved != "" {
			return idResult(resolved), nil
		}
		return idResult(normalizeSlashes(stripped)), nil
	}

	if opts.AsSrc && kind == KindRootURL {
		resolved, err := r.tryFsResolve(filepath.Join(opts.Root, specifier), opts, true, targetWeb)
		if err != nil {
			return nil, err
		}
		if resolved != "" {
			return idResult(resolved), nil
		}
	}

	if kind == KindRelative {
		basedir := opts.Root
		if importer != "" {
			if file, _ := splitFileAndPostfix(importer); filepath.IsAbs(file) {
				basedir = dirname(file)
			}
		}
		fsPath := joinAndClean(basedir, specifier)

		if opts.Optimizer != nil && opts.Optimizer.IsOptimizedDepFile(fsPath) {
			if !strings.Contains(fsPath, "v=") {
				return idResult(injectVersionQuery(fsPath, r.browserHash)), nil
			}
			return idResult(fsPath), nil
		}

		nodeModulesPrefix := normalizeSlashes(basedir) + "/node_modules/"
		if strings.HasPrefix(normalizeSlashes(fsPath), nodeModulesPrefix) {
			tail := strings.TrimPrefix(normalizeSlashes(fsPath), nodeModulesPrefix)
			result, err := r.tryNodeResolve(tail, importer, opts.ShouldExternalize != nil && opts.ShouldExternalize(tail), opts)
			if err != nil {
				return nil, err
			}
			if result != nil && !result.Null && strings.HasPrefix(result.ID, fsPath) {
				return result, nil
			}
		}

		if targetWeb {
			pkg, ok := r.lookupPackage(importer)
			if ok && pkg.Data.Browser.Len() > 0 {
				rel := toRelativeBrowserKey(pkg.Dir, fsPath)
				res := mapWithBrowserField(pkg.Data.Browser, rel)
				if res.matched {
					if res.external {
						return idResult(BrowserExternalID), nil
					}
					return idResult(filepath.Join(pkg.Dir, res.remap)), nil
				}
			}
		}

		resolved, err := r.tryFsResolve(fsPath, opts, true, targetWeb)
		if err != nil {
			return nil, err
		}
		if resolved != "" {
			result := idResult(resolved)
			if pkg, ok := r.lookupPackage(importer); ok {
				se := pkg.HasSideEffects(resolved)
				result.ModuleSideEffects = &se
			}
			return result, nil
		}
	}

	if kind == KindSubpathImport {
		pkg, ok := r.lookupPackage(importer)
		if !ok {
			return nil, nil
		}
		resolved, err := r.resolveSubpathImport(specifier, pkg, targetWeb, opts)
		if err != nil {
			return nil, err
		}
		if resolved != "" {
			se := pkg.HasSideEffects(resolved)
			return &ResolutionResult{ID: resolved, ModuleSideEffects: &se}, nil
		}
		return nil, nil
	}

	if kind == KindAbsolute {
		resolved, err := r.tryFsResolve(specifier, opts, true, targetWeb)
		if err != nil {
			return nil, err
		}
		if resolved != "" {
			return idResult(resolved), nil
		}
	}

	if kind == KindExternalURL {
		return externalResult(specifier, nil), nil
	}

	if kind == KindDataURL {
		return nullResult(), nil
	}

	if kind == KindBare {
		externalize := opts.ShouldExternalize != nil && opts.ShouldExternalize(specifier)

		if opts.AsSrc && !opts.Scan && opts.Optimizer != nil {
			if id, ok := tryOptimizedResolve(opts.Optimizer, opts.SSR, specifier, importer); ok {
				return idResult(id), nil
			}
		}

		if targetWeb {
			pkg, ok := r.lookupPackage(importer)
			if ok && pkg.Data.Browser.Len() > 0 {
				res := mapWithBrowserField(pkg.Data.Browser, specifier)
				if res.matched {
					if res.external {
						return idResult(BrowserExternalID), nil
					}
					resolved, err := r.tryFsResolve(filepath.Join(pkg.Dir, res.remap), opts, true, targetWeb)
					if err != nil {
						return nil, err
					}
					if resolved != "" {
						return idResult(resolved), nil
					}
				}
			}
		}

		result, err := r.tryNodeResolve(specifier, importer, externalize, opts)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		if isBuiltin(specifier) {
			if opts.SSR {
				if opts.SSRNoExternal {
					return nil, &ErrBuiltinForbidden{Specifier: specifier, Importer: importer}
				}
				return externalResult(specifier, nil), nil
			}
			if opts.Dev {
				return idResult(BrowserExternalID + ":" + specifier), nil
			}
			return idResult(BrowserExternalID), nil
		}
	}

	return nil, nil
}
