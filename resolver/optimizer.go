package resolver

import "strings"

// DepInfo describes one pre-bundled dependency entry as reported by the
// optimizer collaborator (spec.md §6 "Optimizer interface consumed").
type DepInfo struct {
	// ID is the original specifier the optimizer pre-bundled (e.g. "react"
	// or a nested id like "react-dom/client").
	ID string
	// Src is the resolved on-disk source file the optimizer bundled from,
	// used by §4.8's nested-dependency match.
	Src string
	// File is the on-disk location of the pre-bundled artifact.
	File string
}

// OptimizerMetadata is the snapshot returned by Optimizer.Metadata.
type OptimizerMetadata struct {
	BrowserHash string
	DepInfoList []DepInfo
}

// Optimizer is the dependency-optimizer collaborator described in
// spec.md §6: "the dev-time component that pre-bundles third-party
// packages and serves them under versioned URLs." The resolver only
// consumes this view; spec.md §1 places the optimizer itself out of
// scope for the core algorithm. internal/optimizer provides a concrete,
// ristretto-backed implementation.
type Optimizer interface {
	// IsOptimizedDepURL reports whether id names an already-optimized
	// dependency url (spec.md §4.1 step 4).
	IsOptimizedDepURL(id string) bool
	// IsOptimizedDepFile reports whether path is a file the optimizer
	// produced under its cache directory (spec.md §4.1 step 7, example 5).
	IsOptimizedDepFile(path string) bool
	// Metadata returns the current snapshot for the given ssr mode, and
	// false when no scan has completed yet.
	Metadata(ssr bool) (OptimizerMetadata, bool)
	// Exclude lists package/nested ids excluded from optimization
	// (spec.md §4.7 post-processing, "optimizer excludes pkgId/nestedPath").
	Exclude() []string
	// RegisterMissingImport records a dependency discovered outside the
	// initial scan and returns its assigned DepInfo (spec.md §4.7
	// post-processing, last branch).
	RegisterMissingImport(id, resolved string, ssr bool) (DepInfo, error)
	// GetOptimizedDepID returns the url a consumer should import in place
	// of info's original specifier.
	GetOptimizedDepID(info DepInfo) string
	// Done returns a channel that is closed once the optimizer's initial
	// dependency scan has completed; tryOptimizedResolve blocks on it
	// until then (spec.md §4.8 "await optimizer.scanProcessing").
	Done() <-chan struct{}
}

// tryOptimizedResolve implements spec.md §4.8: wait for the optimizer's
// scan, then look up id directly or as a nested-dependency suffix match.
// Grounded on Vite's own tryOptimizedResolve; the teacher (esm.sh) has no
// direct analogue since it serves pre-built CDN artifacts rather than
// dev-time pre-bundling, so this is built fresh against the optimizer
// interface spec.md §6 describes.
func tryOptimizedResolve(optimizer Optimizer, ssr bool, id string, importer string) (string, bool) {
	if optimizer == nil {
		return "", false
	}
	<-optimizer.Done()

	meta, ok := optimizer.Metadata(ssr)
	if !ok {
		return "", false
	}

	for _, info := range meta.DepInfoList {
		if info.ID == id {
			return optimizer.GetOptimizedDepID(info), true
		}
	}

	for _, info := range meta.DepInfoList {
		if !strings.HasSuffix(info.ID, id) {
			continue
		}
		resolvedSrc, ok := resolveFromBestEffort(id, dirname(importer))
		if !ok {
			continue
		}
		if info.Src == resolvedSrc {
			return optimizer.GetOptimizedDepID(info), true
		}
	}

	return "", false
}

// resolveFromBestEffort approximates a node-style require.resolve(id) from
// baseDir for the sole purpose of §4.8's nested-dependency disambiguation.
// Errors are swallowed per spec.md §7 "Optimizer resolveFrom failure:
// silent; best-effort".
func resolveFromBestEffort(id, baseDir string) (string, bool) {
	if id == "" || baseDir == "" {
		return "", false
	}
	candidate := joinAndClean(baseDir, id)
	if isFile(candidate) {
		return realpath(candidate), true
	}
	for _, ext := range defaultExtensions {
		if isFile(candidate + ext) {
			return realpath(candidate + ext), true
		}
	}
	return "", false
}
