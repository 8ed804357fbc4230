package resolver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/esmresolve/modresolve/internal/manifest"
)

// defaultEntryCandidates are tried, in order, when nothing else names an
// entry file (spec.md §4.4 step 5).
var defaultEntryCandidates = []string{"./index.js", "./index.json", "./index.node"}

// umdExportsPattern sniffs a browser-field entry for the CommonJS/UMD
// export idioms that mean "this build still assumes a require() runtime",
// so a conflicting ESM `module` field should be preferred instead: both
// `typeof exports ==` and `typeof module ==` (in either order), or a
// `module.exports =` assignment. Grounded on esm.sh's build_resolver.go
// hasUMDExports / Vite's own OPTIMIZABLE_ENTRY UMD sniff.
var umdExportsPattern = regexp.MustCompile(`typeof exports\s*==[\s\S]*typeof module\s*==|typeof module\s*==[\s\S]*typeof exports\s*==|module\.exports\s*=`)

// resolvePackageEntry implements spec.md §4.4: resolve a package's own
// entry point ("."), consulting `exports`, the `browser` field (with its
// UMD-vs-ESM tie-break), the configured main-fields walk, `main`, and
// finally the index.js/index.json/index.node defaults. Grounded on esm.sh's
// build_resolver.go resolveEntry/resolveConditionExportEntry/isBrowserTarget.
func (r *Resolver) resolvePackageEntry(pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	if cached, ok := pkg.GetResolvedCache(".", targetWeb); ok {
		return cached, nil
	}

	unlock := r.entryMu.Lock(pkg.Dir + "\x00" + boolKey(targetWeb))
	defer unlock()

	if cached, ok := pkg.GetResolvedCache(".", targetWeb); ok {
		return cached, nil
	}

	resolved, err := r.doResolvePackageEntry(pkg, targetWeb, opts)
	if err != nil {
		return "", err
	}
	pkg.SetResolvedCache(".", resolved, targetWeb)
	return resolved, nil
}

func boolKey(b bool) string {
	if b {
		return "web"
	}
	return "node"
}

func (r *Resolver) doResolvePackageEntry(pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	data := pkg.Data
	entry := ""
	skipPackageJSON := false

	if data.Exports.Len() > 0 {
		conditions := buildConditionSet(targetWeb, opts.IsRequire, opts.Dev, opts.Conditions)
		if s, ok := resolveExportsSubpath(data.Exports, ".", conditions); ok {
			entry = s
		}
	}

	if targetWeb && (entry == "" || strings.HasSuffix(entry, ".mjs")) {
		browserEntry := ""
		if v, ok := data.Browser.Get("."); ok {
			if s, ok := v.(string); ok {
				browserEntry = s
			}
		}
		if browserEntry != "" {
			if data.Module != "" && data.Module != browserEntry && !opts.IsRequire {
				if preferModuleOverUMD(pkg.Dir, browserEntry) {
					entry = data.Module
				} else {
					entry = browserEntry
				}
			} else {
				entry = browserEntry
			}
		}
	}

	if entry == "" || strings.HasSuffix(entry, ".mjs") {
	mainFieldsLoop:
		for _, field := range opts.MainFields {
			switch field {
			case "module":
				if data.Module != "" {
					entry = data.Module
					break mainFieldsLoop
				}
			case "main":
				if data.Main != "" {
					entry = data.Main
					break mainFieldsLoop
				}
			}
		}
	}

	if len(opts.MainFields) > 0 && opts.MainFields[0] == "sass" {
		ext := filepath.Ext(entry)
		if entry != "" && !extensionAllowed(ext, opts.Extensions) {
			return "", nil
		}
	}

	if entry == "" {
		entry = data.Main
	}

	candidates := []string{}
	if entry != "" {
		candidates = []string{normalizeEntryPath(entry)}
	} else if !skipPackageJSON {
		candidates = defaultEntryCandidates
	}

	var lastErr error
	for _, candidate := range candidates {
		probe := candidate
		if targetWeb && data.Browser.Len() > 0 {
			if res := mapWithBrowserField(data.Browser, candidate); res.matched {
				if res.external {
					return BrowserExternalID, nil
				}
				probe = res.remap
			}
		}
		resolved, err := r.tryFsResolve(filepath.Join(pkg.Dir, probe), opts, true, targetWeb)
		if err != nil {
			lastErr = err
			continue
		}
		if resolved != "" {
			return resolved, nil
		}
	}

	return "", &ErrEntryResolutionFailed{PkgID: data.Name, Cause: lastErr}
}

// preferModuleOverUMD reads browserEntry's source and reports whether it
// looks like a UMD/CommonJS bundle (spec.md §4.4's exact tie-break: prefer
// the ESM `module` field over a `browser` entry that still assumes
// require()/module.exports).
func preferModuleOverUMD(pkgDir, browserEntry string) bool {
	content, err := os.ReadFile(filepath.Join(pkgDir, browserEntry))
	if err != nil {
		return false
	}
	return umdExportsPattern.Match(content)
}

func extensionAllowed(ext string, extensions []string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
