// Package optimizer is a concrete, ristretto-backed implementation of the
// resolver.Optimizer collaborator described in spec.md §6. spec.md places
// the dependency-optimizer itself out of scope for the core resolution
// algorithm ("we only consume its isOptimized*, registerMissing, and
// getOptimizedDepId views"), but SPEC_FULL.md's DOMAIN STACK wires
// dgraph-io/ristretto into exactly this collaborator's missing-import
// registry, grounded on esm.sh's server/storage/cache_memory_lru.go use of
// the same library for a cost-free, TTL-less in-memory cache.
package optimizer

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto"

	"github.com/esmresolve/modresolve/resolver"
)

// Optimizer pre-bundles bare-import dependencies the way a dev server's
// dependency optimizer does: an initial scan populates DepInfoList per
// ssr/client target, and imports discovered afterwards are registered
// on the fly and assigned a stable cache-relative id.
type Optimizer struct {
	cacheDir string
	exclude  []string

	mu          sync.RWMutex
	browserHash map[bool]string     // keyed by ssr
	depList     map[bool][]resolver.DepInfo
	scanned     map[bool]bool

	registry *ristretto.Cache // specifier -> resolver.DepInfo, coalesces concurrent registrations

	done     chan struct{}
	doneOnce sync.Once
}

// New creates an Optimizer whose optimized artifacts are addressed under
// cacheDir (e.g. "node_modules/.modresolve/deps").
func New(cacheDir string, exclude []string) (*Optimizer, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		cacheDir:    filepath.ToSlash(cacheDir),
		exclude:     exclude,
		browserHash: make(map[bool]string),
		depList:     make(map[bool][]resolver.DepInfo),
		scanned:     make(map[bool]bool),
		registry:    cache,
		done:        make(chan struct{}),
	}, nil
}

var _ resolver.Optimizer = (*Optimizer)(nil)

// SetScanResult installs the dependency list an initial scan discovered
// for the given ssr target, and marks that target ready for lookups.
func (o *Optimizer) SetScanResult(ssr bool, browserHash string, deps []resolver.DepInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.browserHash[ssr] = browserHash
	o.depList[ssr] = deps
	o.scanned[ssr] = true
}

// MarkScanComplete unblocks every tryOptimizedResolve call waiting on
// Done. Idempotent.
func (o *Optimizer) MarkScanComplete() {
	o.doneOnce.Do(func() { close(o.done) })
}

// Done implements resolver.Optimizer.
func (o *Optimizer) Done() <-chan struct{} {
	return o.done
}

// IsOptimizedDepURL implements resolver.Optimizer.
func (o *Optimizer) IsOptimizedDepURL(id string) bool {
	return strings.Contains(id, o.cacheDir)
}

// IsOptimizedDepFile implements resolver.Optimizer.
func (o *Optimizer) IsOptimizedDepFile(path string) bool {
	return strings.Contains(filepath.ToSlash(path), o.cacheDir)
}

// Metadata implements resolver.Optimizer.
func (o *Optimizer) Metadata(ssr bool) (resolver.OptimizerMetadata, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.scanned[ssr] {
		return resolver.OptimizerMetadata{}, false
	}
	return resolver.OptimizerMetadata{
		BrowserHash: o.browserHash[ssr],
		DepInfoList: o.depList[ssr],
	}, true
}

// Exclude implements resolver.Optimizer.
func (o *Optimizer) Exclude() []string {
	return o.exclude
}

// RegisterMissingImport implements resolver.Optimizer. Concurrent
// registrations of the same id coalesce through the ristretto registry,
// matching esm.sh's storage.mLRUCache.Set discipline of waiting for the
// write to land before it is considered visible.
func (o *Optimizer) RegisterMissingImport(id, resolvedPath string, ssr bool) (resolver.DepInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := registryKey(id, ssr)
	if v, ok := o.registry.Get(key); ok {
		return v.(resolver.DepInfo), nil
	}

	info := resolver.DepInfo{
		ID:   id,
		Src:  resolvedPath,
		File: filepath.Join(o.cacheDir, sanitizeDepID(id)+".js"),
	}
	o.registry.SetWithTTL(key, info, 1, 0)
	o.registry.Wait()

	o.depList[ssr] = append(o.depList[ssr], info)

	return info, nil
}

// GetOptimizedDepID implements resolver.Optimizer.
func (o *Optimizer) GetOptimizedDepID(info resolver.DepInfo) string {
	return info.File
}

func registryKey(id string, ssr bool) string {
	if ssr {
		return "ssr:" + id
	}
	return "web:" + id
}

func sanitizeDepID(id string) string {
	return strings.NewReplacer("/", "_", "@", "", ">", "_").Replace(id)
}
