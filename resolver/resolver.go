package resolver

import (
	"sync"

	"github.com/esmresolve/modresolve/internal/manifest"
	"github.com/esmresolve/modresolve/internal/registry"
	syncx "github.com/ije/gox/sync"
)

// Resolver owns all process-lifetime resolver state: the package-manifest
// loader, the idToPkgMap, and the memoization locks for entry-point and
// deep-import resolution. spec.md §9 calls for exactly this: "A clean
// reimplementation injects a resolver instance owning this map; tests
// receive a fresh instance" — replacing esm.sh's (and Vite's) process-wide
// globals with an explicit, per-instance struct.
type Resolver struct {
	manifest *manifest.Loader

	// registry verifies a deduped package's installed version against the
	// importing package's declared dependency range before §4.7 step 3
	// forces basedir to root. See chooseDedupedBasedir in bareimport.go.
	registry *registry.Registry

	// idToPkgMap is spec.md §3's process-wide mapping from a resolved
	// file path to the PackageData that produced it, so that subsequent
	// relative-import resolutions originating from inside that file can
	// consult its package's `browser` field and `sideEffects` predicate.
	// Insert-only for the Resolver's lifetime (§3, §5).
	idToPkgMap sync.Map // string -> *manifest.PackageData

	entryMu syncx.KeyedMutex // guards resolvePackageEntry memoization
	deepMu  syncx.KeyedMutex // guards resolveDeepImport memoization

	// browserHash is the optimizer's current cache-bust value, injected
	// into urls per §4.1 step 4/7 and §4.7's version-query injection.
	browserHash string
}

// New creates a Resolver with empty caches, matching esm.sh's pattern of
// constructing one *NpmRC / manifest cache per server instance rather
// than relying on package-level globals.
func New() *Resolver {
	loader := manifest.NewLoader()
	return &Resolver{manifest: loader, registry: registry.New(loader)}
}

// SetBrowserHash updates the cache-busting hash injected into optimized
// and linked-dependency urls (§4.1 step 4, §4.7 "Excluded from
// optimization" branch). The optimizer's own metadata hash is not read:
// the hash stays empty, and no version query is injected, until a caller
// sets it here.
func (r *Resolver) SetBrowserHash(hash string) {
	r.browserHash = hash
}

func (r *Resolver) rememberPackage(resolvedFile string, pkg *manifest.PackageData) {
	r.idToPkgMap.Store(resolvedFile, pkg)
}

func (r *Resolver) lookupPackage(resolvedFile string) (*manifest.PackageData, bool) {
	v, ok := r.idToPkgMap.Load(resolvedFile)
	if !ok {
		return nil, false
	}
	return v.(*manifest.PackageData), true
}
