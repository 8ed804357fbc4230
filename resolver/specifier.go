package resolver

import "strings"

// SpecifierKind tags the shape of an import specifier so the orchestrator
// can dispatch on a single computed value instead of re-deriving it at
// every precedence step. Grounded on spec.md §9 "Dynamic dispatch on
// specifier shape" and on the duck-typed checks esm.sh's build_resolver.go
// and cli/dev_server.go perform inline (isRelPathSpecifier,
// isAbsPathSpecifier, isHttpSepcifier, bare-import regex).
type SpecifierKind int

const (
	KindUnresolvable SpecifierKind = iota
	KindBrowserExternal
	KindCommonJSProxy
	KindOptimizedURL
	KindFsEscape
	KindRootURL
	KindRelative
	KindAbsolute
	KindExternalURL
	KindDataURL
	KindBare
	KindSubpathImport
)

// BrowserExternalID is the sentinel returned for specifiers the resolver
// has decided not to ship to the browser. Grounded on Vite's own
// `__vite-browser-external`, renamed for this module.
const BrowserExternalID = "__browser-external"

// FsEscapePrefix lets a specifier name an absolute filesystem path even
// when AsSrc rewrites would otherwise treat a leading `/` as root-relative.
const FsEscapePrefix = "/@fs/"

// CommonJSHelpersPath is the synthetic module path the commonjs-interop
// plugin owns; the resolver defers to it unconditionally (§4.1 step 2).
const CommonJSHelpersPath = "commonjsHelpers.js"

var bareImportPrefix = func(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '@'
}

// classify computes the SpecifierKind for s, given whether the resolver is
// operating in AsSrc (dev-server) mode. It does not consult the
// filesystem or any collaborator — it is a pure string classification,
// the first step of resolveId (§4.1).
func classify(s string, asSrc bool) SpecifierKind {
	switch {
	case s == BrowserExternalID || strings.HasPrefix(s, BrowserExternalID+":"):
		return KindBrowserExternal
	case strings.Contains(s, "?commonjs") || s == CommonJSHelpersPath:
		return KindCommonJSProxy
	case asSrc && strings.HasPrefix(s, FsEscapePrefix):
		return KindFsEscape
	case asSrc && strings.HasPrefix(s, "/"):
		return KindRootURL
	case isRelativeSpecifier(s):
		return KindRelative
	case isAbsoluteSpecifier(s):
		return KindAbsolute
	case isExternalURL(s):
		return KindExternalURL
	case strings.HasPrefix(s, "data:"):
		return KindDataURL
	case strings.HasPrefix(s, "#"):
		return KindSubpathImport
	case bareImportPrefix(s):
		return KindBare
	default:
		return KindUnresolvable
	}
}

func isRelativeSpecifier(s string) bool {
	return s == "." || s == ".." || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}

func isAbsoluteSpecifier(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	// Windows drive-letter absolute path, e.g. "C:\foo" or "C:/foo".
	if len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		c := s[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}

// isExternalURL reports whether s carries a URL scheme (`proto://` or a
// protocol-relative `//`), matching esm.sh's isHttpSepcifier generalized to
// any scheme per spec.md's glossary entry for "external url".
func isExternalURL(s string) bool {
	if strings.HasPrefix(s, "//") {
		return true
	}
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for _, c := range s[:i] {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}
