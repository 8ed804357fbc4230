package resolver

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ije/gox/utils"
)

// splitFileAndPostfix splits "file?query#hash" into the file part and the
// postfix (everything from the first `?` or `#`, whichever appears first
// and is present). Grounded on spec.md §4.2 step 1 and esm.sh's
// build_resolver.go handling of query/hash suffixes on resolved paths.
//
// Invariant (spec.md §8): file + postfix == s, and postfix is either empty
// or begins with '?' or '#'.
func splitFileAndPostfix(s string) (file string, postfix string) {
	qi := strings.IndexByte(s, '?')
	hi := strings.IndexByte(s, '#')
	cut := -1
	switch {
	case qi == -1:
		cut = hi
	case hi == -1:
		cut = qi
	case qi < hi:
		cut = qi
	default:
		cut = hi
	}
	if cut == -1 {
		return s, ""
	}
	return s[:cut], s[cut:]
}

// normalizeSlashes converts backslashes to forward slashes, the way
// esm.sh's server/path.go and build outputs normalize Windows paths
// before comparison or embedding in a URL.
func normalizeSlashes(p string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(p, "\\", "/")
	}
	return p
}

// toPosix normalizes a path for the browser-field mapper's comparisons:
// forward slashes, no leading "./".
func toPosix(p string) string {
	p = normalizeSlashes(p)
	return path.Clean("/" + p)[1:]
}

// isReadable performs a non-throwing stat, avoiding the catastrophic
// slowdown noted in spec.md §4.2 ("Readability is checked via a
// non-throwing stat to avoid the ... slowdown observed on directories
// without read permission").
func isReadable(p string) (fi os.FileInfo, ok bool) {
	fi, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	return fi, true
}

// isFile reports whether p is a readable regular file.
func isFile(p string) bool {
	fi, ok := isReadable(p)
	return ok && fi.Mode().IsRegular()
}

// isDir reports whether p is a readable directory.
func isDir(p string) bool {
	fi, ok := isReadable(p)
	return ok && fi.IsDir()
}

// realpath resolves p through any symlinks. On failure it returns p
// unchanged — callers only call this once isFile/isDir has already
// confirmed the path exists.
func realpath(p string) string {
	rp, err := filepath.EvalSymlinks(p)
	if err != nil {
		return p
	}
	return normalizeSlashes(rp)
}

// dirname wraps filepath.Dir with forward-slash normalization, since resolved
// ids are always compared and stored as POSIX-style paths even on Windows
// (spec.md §3 invariant: returned ids are platform-normalized).
func dirname(p string) string {
	return normalizeSlashes(filepath.Dir(p))
}

// joinAndClean resolves specifier relative to basedir and normalizes the
// result the way esm.sh's resolve-relative-import step does
// (filepath.Join + normalizeSlashes in build_resolver.go / dev_server.go).
func joinAndClean(basedir, specifier string) string {
	if filepath.IsAbs(specifier) {
		return normalizeSlashes(filepath.Clean(specifier))
	}
	return normalizeSlashes(filepath.Join(basedir, specifier))
}

// splitByLastByte re-exports esm.sh's gox/utils helper under the name the
// bare-import decomposer (§4.7) uses for the "A > B > C" nested-selection
// split.
func splitByLastByte(s string, c byte) (string, string) {
	return utils.SplitByLastByte(s, c)
}
