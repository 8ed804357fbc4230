package resolver

import (
	"strings"

	"github.com/esmresolve/modresolve/internal/npm"
)

// buildConditionSet assembles the active `exports` conditions for one
// resolution, per spec.md §4.4: "conditions {browser: targetWeb, require:
// isRequire, conditions: [production|development, module (unless
// require), ...options.conditions]}", plus the built-in `import`/`require`
// and `default` conditions every Node-style exports resolver honors.
func buildConditionSet(targetWeb, isRequire, dev bool, extra []string) map[string]bool {
	set := make(map[string]bool, 8+len(extra))
	if targetWeb {
		set["browser"] = true
	}
	if isRequire {
		set["require"] = true
	} else {
		set["import"] = true
		set["module"] = true
	}
	if dev {
		set["development"] = true
	} else {
		set["production"] = true
	}
	for _, c := range extra {
		set[c] = true
	}
	set["default"] = true
	return set
}

// resolveExportsValue implements the condition-matching half of Node's
// "exports" resolution algorithm (spec.md §4.1, §4.4, §4.5): a string
// value is the answer; an array tries each element in turn; an object is
// walked in source key order, picking the first key present in the
// active condition set. Grounded on esm.sh's build_resolver.go
// resolveConditionExportEntry, generalized to the single-subpath shape
// this resolver needs (esm.sh's version additionally special-cases
// `types`, out of scope here per SPEC_FULL.md).
func resolveExportsValue(v any, conditions map[string]bool) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []any:
		for _, item := range val {
			if s, ok := resolveExportsValue(item, conditions); ok {
				return s, true
			}
		}
		return "", false
	case npm.JSONObject:
		for _, key := range val.Keys() {
			if !conditions[key] {
				continue
			}
			inner, _ := val.Get(key)
			if s, ok := resolveExportsValue(inner, conditions); ok {
				return s, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// resolveExportsSubpath resolves subpath (e.g. "." or "./sub") against a
// package's `exports` map, applying exact matches and single-`*`-wildcard
// matches (spec.md §4.1, §4.5). ok is false when exports doesn't define
// the subpath at all, which callers turn into ErrSubpathNotExposed.
func resolveExportsSubpath(exports npm.JSONObject, subpath string, conditions map[string]bool) (string, bool) {
	if v, ok := exports.Get(subpath); ok {
		return resolveExportsValue(v, conditions)
	}
	if subpath == "." && isConditionsSugar(exports) {
		return resolveExportsValue(exports, conditions)
	}
	for _, key := range exports.Keys() {
		v, _ := exports.Get(key)
		if diff, ok := matchAsteriskExport(key, subpath); ok {
			s, ok := resolveExportsValue(v, conditions)
			if !ok {
				continue
			}
			return strings.ReplaceAll(s, "*", diff), true
		}
	}
	return "", false
}

// isConditionsSugar reports whether exports uses the root-export sugar
// Node allows for a package whose only export is its own entry point —
// {"import": "./x.mjs", "require": "./x.cjs"} — with no explicit "."/
// "./x" subpath keys. Distinguished from a subpath map by checking that
// no top-level key begins with ".".
func isConditionsSugar(exports npm.JSONObject) bool {
	if exports.Len() == 0 {
		return false
	}
	for _, key := range exports.Keys() {
		if strings.HasPrefix(key, ".") {
			return false
		}
	}
	return true
}
