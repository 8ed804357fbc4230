// Package manifest loads and caches package.json manifests, and walks
// ancestor node_modules directories to find the manifest that owns a
// given package id. It plays the "package-manifest resolver" collaborator
// role described in spec.md §4.3.
//
// Grounded on esm.sh's server/npmrc.go (which caches package metadata
// behind a github.com/ije/gox/sync.KeyedMutex so concurrent dev-server
// requests for the same package coalesce into one filesystem read) and on
// esm.sh's internal/npm package.json decoder.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/esmresolve/modresolve/internal/npm"
	syncx "github.com/ije/gox/sync"
)

// PackageData is the resolver-facing handle for one package.json: its
// directory, its parsed manifest, a per-package memo of resolved subpath
// results (partitioned by targetWeb), and a sideEffects predicate.
// Grounded on spec.md §3 "PackageData".
type PackageData struct {
	Dir  string
	Data *npm.PackageJSON

	mu                  sync.RWMutex
	webResolvedImports  map[string]string
	nodeResolvedImports map[string]string
}

func newPackageData(dir string, data *npm.PackageJSON) *PackageData {
	return &PackageData{
		Dir:                 dir,
		Data:                data,
		webResolvedImports:  make(map[string]string),
		nodeResolvedImports: make(map[string]string),
	}
}

// GetResolvedCache returns a memoized resolution for key (e.g. a subpath
// or "."), partitioned by targetWeb.
func (p *PackageData) GetResolvedCache(key string, targetWeb bool) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m := p.nodeResolvedImports
	if targetWeb {
		m = p.webResolvedImports
	}
	v, ok := m[key]
	return v, ok
}

// SetResolvedCache stores a memoized resolution. Entries are never
// removed: spec.md §3 describes the per-package memo as monotone for the
// resolver's lifetime.
func (p *PackageData) SetResolvedCache(key, value string, targetWeb bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.nodeResolvedImports
	if targetWeb {
		m = p.webResolvedImports
	}
	m[key] = value
}

// HasSideEffects implements the `sideEffects` predicate from package.json:
// an exact relative-path entry or a glob. Grounded on esm.sh's
// internal/npm PackageJSON.SideEffects set, extended with path.Match glob
// support per SPEC_FULL.md's "sideEffects array-of-globs" supplement.
func (p *PackageData) HasSideEffects(file string) bool {
	if p.Data.SideEffectsFalse {
		rel := p.relFile(file)
		for _, pattern := range p.Data.SideEffects.Values() {
			if matchGlob(pattern, rel) {
				return true
			}
		}
		return false
	}
	return true
}

func (p *PackageData) relFile(file string) string {
	rel, err := filepath.Rel(p.Dir, file)
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}

func matchGlob(pattern, name string) bool {
	pattern = strings.TrimPrefix(pattern, "./")
	name = strings.TrimPrefix(name, "./")
	if pattern == name {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// Loader loads package.json manifests from disk and caches them by
// absolute manifest path, and resolves a bare package id to its owning
// PackageData by walking ancestor node_modules directories. Grounded on
// esm.sh's server/npmrc.go caching discipline (installMutex
// syncx.KeyedMutex guarding a shared cache so duplicate concurrent loads
// of the same manifest coalesce).
type Loader struct {
	mu    syncx.KeyedMutex
	cache sync.Map // manifestPath -> *PackageData
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadPackageData loads and parses manifestPath (a package.json file),
// caching the result under the directory it lives in. preserveSymlinks
// controls whether the directory is realpath'd before use as a cache key
// and as PackageData.Dir.
func (l *Loader) LoadPackageData(manifestPath string, preserveSymlinks bool) (*PackageData, error) {
	dir := filepath.Dir(manifestPath)
	if !preserveSymlinks {
		if rp, err := filepath.EvalSymlinks(dir); err == nil {
			dir = rp
		}
	}
	dir = filepath.ToSlash(dir)

	if v, ok := l.cache.Load(dir); ok {
		return v.(*PackageData), nil
	}

	unlock := l.mu.Lock(dir)
	defer unlock()

	if v, ok := l.cache.Load(dir); ok {
		return v.(*PackageData), nil
	}

	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, err
	}

	var pkgJSON npm.PackageJSON
	if err := pkgJSON.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", manifestPath, err)
	}

	pd := newPackageData(dir, &pkgJSON)
	l.cache.Store(dir, pd)
	return pd, nil
}

// ResolvePackageData walks basedir's ancestor node_modules directories
// looking for pkgID, the way Node's module resolution algorithm walks
// node_modules looking for a bare import's owning package. Grounded on
// spec.md §4.3's collaborator contract
// `resolvePackageData(pkgId, basedir, preserveSymlinks, cache)`.
func (l *Loader) ResolvePackageData(pkgID, basedir string, preserveSymlinks bool) (*PackageData, error) {
	dir := basedir
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(pkgID), "package.json")
		if _, err := os.Stat(candidate); err == nil {
			return l.LoadPackageData(candidate, preserveSymlinks)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("manifest: package %q not found above %s", pkgID, basedir)
		}
		dir = parent
	}
}
