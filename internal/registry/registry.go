// Package registry answers "where does a package's manifest come from" for
// the bare-import resolver's `dedupe` handling: given a package id already
// located on disk by internal/manifest, it checks the installed version
// against an npm-style semver range. spec.md places network fetch and the
// package-manifest loader's origin out of scope for the core algorithm
// (§1 Non-goals, §4.3); this package supersedes the teacher's CDN tarball
// registry (internal/fetch, internal/storage, server/npmrc.go's remote
// install path) with a local-disk-only replacement, per SPEC_FULL.md's
// "Dropped teacher deps" note.
package registry

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/esmresolve/modresolve/internal/manifest"
)

// Registry resolves installed package versions against semver constraints
// without performing any network I/O.
type Registry struct {
	manifest *manifest.Loader
}

// New creates a Registry backed by loader's manifest cache.
func New(loader *manifest.Loader) *Registry {
	return &Registry{manifest: loader}
}

// Satisfies reports whether pkg's installed version satisfies constraint,
// an npm-style semver range (e.g. "^1.2.0", "~2", "*"). An empty
// constraint always satisfies. Grounded on esm.sh's server/npmrc.go
// version-range checks, reimplemented without the dist-tag/network
// resolution esm.sh performs against the npm registry.
func (r *Registry) Satisfies(pkg *manifest.PackageData, constraint string) (bool, error) {
	if constraint == "" || constraint == "*" || constraint == "latest" {
		return true, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("registry: invalid version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(pkg.Data.Version)
	if err != nil {
		return false, fmt.Errorf("registry: package %q has unparsable version %q: %w", pkg.Data.Name, pkg.Data.Version, err)
	}
	return c.Check(v), nil
}

// ResolveDeduped locates pkgID under root's node_modules (the dedupe
// target directory, per spec.md §4.7 example 4) and verifies its version
// satisfies constraint. Returns an error naming the mismatch when the
// installed copy doesn't satisfy constraint, so a caller can decide
// whether to fall back to a nested, non-deduped copy instead.
func (r *Registry) ResolveDeduped(pkgID, root, constraint string, preserveSymlinks bool) (*manifest.PackageData, error) {
	pkg, err := r.manifest.ResolvePackageData(pkgID, root, preserveSymlinks)
	if err != nil {
		return nil, err
	}
	ok, err := r.Satisfies(pkg, constraint)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("registry: deduped package %q at %s (version %s) does not satisfy %q", pkgID, pkg.Dir, pkg.Data.Version, constraint)
	}
	return pkg, nil
}
