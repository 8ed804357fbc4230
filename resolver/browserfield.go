package resolver

import (
	"strings"

	"github.com/esmresolve/modresolve/internal/npm"
)

// browserFieldResult is the outcome of mapping a path through a package's
// `browser` field: a remap string, an external marker (false), or "no
// match" (matched=false).
type browserFieldResult struct {
	remap    string
	external bool
	matched  bool
}

// mapWithBrowserField implements spec.md §4.6: for each key in the
// browser map, compare posix-normalized forms of key and p three ways —
// exact equality, equality after stripping a trailing ".js" from the key,
// equality after stripping a trailing "/index.js" from the key — and
// return the first match. Grounded on Vite's own mapWithBrowserField,
// reimplemented against esm.sh's ordered npm.JSONObject so iteration
// order (and therefore tie-breaking, per spec.md §8) is deterministic.
func mapWithBrowserField(browser npm.JSONObject, p string) browserFieldResult {
	normalizedPath := toPosix(p)
	for _, key := range browser.Keys() {
		v, _ := browser.Get(key)
		normalizedKey := toPosix(key)
		matched := normalizedKey == normalizedPath
		if !matched && strings.HasSuffix(normalizedKey, ".js") {
			matched = strings.TrimSuffix(normalizedKey, ".js") == normalizedPath
		}
		if !matched && strings.HasSuffix(normalizedKey, "/index.js") {
			matched = strings.TrimSuffix(normalizedKey, "/index.js") == normalizedPath
		}
		if !matched {
			continue
		}
		switch val := v.(type) {
		case string:
			return browserFieldResult{remap: val, matched: true}
		case bool:
			if !val {
				return browserFieldResult{external: true, matched: true}
			}
			return browserFieldResult{matched: false}
		}
	}
	return browserFieldResult{matched: false}
}

// toRelativeBrowserKey prepends "./" to a package-relative file path, the
// shape the browser map's keys use when the caller is operating in
// file-path mode (§4.6: "when the caller is operating in file-path mode,
// prepend `./` and use the relative path from the package directory").
func toRelativeBrowserKey(pkgDir, file string) string {
	rel := strings.TrimPrefix(normalizeSlashes(file), normalizeSlashes(pkgDir))
	rel = strings.TrimPrefix(rel, "/")
	return "./" + rel
}

// stripEntryModuleExt removes a module extension a deep-import specifier
// might carry (e.g. "foo.js" -> "foo"), used when comparing a nested path
// against the optimizer's exclude list. Grounded on esm.sh's server/path.go
// stripEntryModuleExt.
func stripEntryModuleExt(s string) string {
	for _, ext := range moduleExtensions {
		if strings.HasSuffix(s, ext) {
			return strings.TrimSuffix(s, ext)
		}
	}
	return s
}

var moduleExtensions = []string{".mjs", ".cjs", ".js", ".mts", ".cts", ".ts", ".jsx", ".tsx", ".json"}

// matchAsteriskExport matches a name against an `exports` map key
// containing a single `*` wildcard, returning the wildcard's capture.
// Grounded on esm.sh's build_resolver.go matchAsteriskExport.
func matchAsteriskExport(pattern, name string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", false
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	if len(name) < len(prefix)+len(suffix) {
		return "", false
	}
	return name[len(prefix) : len(name)-len(suffix)], true
}

// normalizeEntryPath ensures an entry path from package.json begins with
// "./", matching spec.md's invariant that probed paths are package-relative.
func normalizeEntryPath(p string) string {
	if p == "" {
		return p
	}
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		return p
	}
	return "./" + strings.TrimPrefix(p, "/")
}
