package resolver

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/esmresolve/modresolve/internal/manifest"
	"github.com/esmresolve/modresolve/internal/npm"
)

// optimizableEntryRE matches the JS-family extensions the optimizer
// pre-bundles (spec.md §4.7 post-processing "isJsType").
var optimizableEntryRE = regexp.MustCompile(`\.(c|m)?jsx?$`)

// splitNestedSelection implements spec.md §4.7 step 1: "A > B > C" means
// "C as resolved from B as resolved from A". Splits on the last '>'.
func splitNestedSelection(specifier string) (nestedRoot, nestedPath string) {
	if !strings.ContainsRune(specifier, '>') {
		return "", strings.TrimSpace(specifier)
	}
	root, path := splitByLastByte(specifier, '>')
	return strings.TrimSpace(root), strings.TrimSpace(path)
}

// hasFilenameExtension reports whether s looks like it names a file
// rather than a package-id path segment.
func hasFilenameExtension(s string) bool {
	return filepath.Ext(s) != ""
}

// possiblePkgIds implements spec.md §4.7 step 2 and the §8 testable
// property: walk nestedPath's "/"-separated prefixes, keeping the leading
// "@scope/name" pair together, and stop extending once a segment (or the
// baseline name itself) carries a filename extension.
func possiblePkgIds(nestedPath string) []string {
	parts := strings.Split(nestedPath, "/")
	if len(parts) == 0 || parts[0] == "" {
		return nil
	}

	var current, lastPart string
	startIdx := 1
	if strings.HasPrefix(parts[0], "@") && len(parts) > 1 {
		current = parts[0] + "/" + parts[1]
		lastPart = parts[1]
		startIdx = 2
	} else {
		current = parts[0]
		lastPart = parts[0]
	}

	ids := []string{current}
	if hasFilenameExtension(lastPart) {
		return ids
	}

	for i := startIdx; i < len(parts); i++ {
		part := parts[i]
		if part == "" || hasFilenameExtension(part) {
			break
		}
		current = current + "/" + part
		ids = append(ids, current)
	}
	return ids
}

// chooseBasedir implements spec.md §4.7 step 3.
func chooseBasedir(possibleIds, dedupe []string, importer, root string) string {
	for _, id := range possibleIds {
		for _, d := range dedupe {
			if id == d {
				return root
			}
		}
	}
	return importerBasedir(importer, root)
}

// importerBasedir is the non-deduped fallback basedir spec.md §4.7 step 3
// names: importer's own directory when it's a readable absolute file, else
// root.
func importerBasedir(importer, root string) string {
	if importer != "" {
		file, _ := splitFileAndPostfix(importer)
		if filepath.IsAbs(file) {
			if _, ok := isReadable(file); ok {
				return dirname(file)
			}
		}
	}
	return root
}

// matchDedupe reports the first possibleIds entry found in dedupe, the
// same match chooseBasedir makes to force basedir to root.
func matchDedupe(possibleIds, dedupe []string) (string, bool) {
	for _, id := range possibleIds {
		for _, d := range dedupe {
			if id == d {
				return id, true
			}
		}
	}
	return "", false
}

// chooseDedupedBasedir strengthens spec.md §4.7 step 3's "dedupe forces
// root" rule with a real version-compatibility check: SPEC_FULL.md's
// domain-stack commitment to github.com/Masterminds/semver/v3 wires into
// this exact path. When the nested importer's own package.json declares a
// dependency/peerDependency range for the deduped package id, the root
// copy must satisfy it or resolution falls back to the nested,
// non-deduped basedir — avoiding silently handing a nested importer an
// incompatible root-level copy just because dedupe named the package.
func (r *Resolver) chooseDedupedBasedir(possibleIds []string, importer string, opts Options) string {
	basedir := chooseBasedir(possibleIds, opts.Dedupe, importer, opts.Root)
	if r.registry == nil {
		return basedir
	}
	dedupeID, matched := matchDedupe(possibleIds, opts.Dedupe)
	if !matched {
		return basedir
	}
	constraint := r.dedupeConstraint(dedupeID, importer)
	if _, err := r.registry.ResolveDeduped(dedupeID, opts.Root, constraint, opts.PreserveSymlinks); err != nil {
		return importerBasedir(importer, opts.Root)
	}
	return basedir
}

// dedupeConstraint looks up the version range the importer's own package
// declares for id, in its dependencies or peerDependencies, falling back
// to "" (always-satisfies, per Registry.Satisfies) when the importer's
// package isn't known or names no such dependency.
func (r *Resolver) dedupeConstraint(id, importer string) string {
	pkg, ok := r.lookupPackage(importer)
	if !ok {
		return ""
	}
	if c, ok := pkg.Data.Dependencies[id]; ok {
		return c
	}
	if c, ok := pkg.Data.PeerDependencies[id]; ok {
		return c
	}
	return ""
}

// tryNodeResolve implements spec.md §4.7: decompose specifier into
// candidate package ids (including scoped packages and explicit nested
// "A > B > C" selection), locate the owning package, delegate to the
// entry-point or deep-import resolver, then apply post-processing
// (externalization, build/optimizer hand-off, version-query injection).
// Grounded on esm.sh's build_resolver.go resolveImportModule bare-import
// branch and Vite's own tryNodeResolve.
func (r *Resolver) tryNodeResolve(specifier, importer string, externalize bool, opts Options) (*ResolutionResult, error) {
	targetWeb := opts.targetWeb()
	nestedRoot, nestedPath := splitNestedSelection(specifier)

	possibleIds := possiblePkgIds(nestedPath)
	if len(possibleIds) == 0 {
		return nil, nil
	}
	if !npm.ValidatePackageName(possibleIds[0]) {
		return nil, nil
	}

	basedir := r.chooseDedupedBasedir(possibleIds, importer, opts)

	if nestedRoot != "" {
		for _, tok := range strings.Split(nestedRoot, ">") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			pkg, err := r.manifest.ResolvePackageData(tok, basedir, opts.PreserveSymlinks)
			if err != nil {
				return nil, nil
			}
			basedir = pkg.Dir
		}
	}

	var pkgID string
	var pkg *manifest.PackageData
	for i := len(possibleIds) - 1; i >= 0; i-- {
		candidate := possibleIds[i]
		p, err := r.manifest.ResolvePackageData(candidate, basedir, opts.PreserveSymlinks)
		if err == nil && p != nil {
			pkgID = candidate
			pkg = p
			break
		}
	}
	if pkg == nil {
		return nil, nil
	}

	resolved, err := r.resolvePackageOrDeepImport(pkgID, nestedPath, pkg, targetWeb, opts)
	if err != nil {
		if opts.TryEsmOnly {
			retryOpts := opts
			retryOpts.IsRequire = false
			retryOpts.MainFields = defaultMainFields
			retryOpts.Extensions = defaultExtensions
			retryOpts.TryEsmOnly = false
			resolved, err = r.resolvePackageOrDeepImport(pkgID, nestedPath, pkg, targetWeb, retryOpts)
		}
		if err != nil {
			return nil, err
		}
	}
	if resolved == "" {
		return nil, nil
	}

	r.rememberPackage(resolved, pkg)

	return r.postProcessBareImport(specifier, importer, resolved, pkgID, nestedPath, pkg, externalize, opts)
}

func (r *Resolver) resolvePackageOrDeepImport(pkgID, nestedPath string, pkg *manifest.PackageData, targetWeb bool, opts Options) (string, error) {
	if pkgID == nestedPath {
		return r.resolvePackageEntry(pkg, targetWeb, opts)
	}
	subpath := "." + nestedPath[len(pkgID):]
	return r.resolveDeepImport(subpath, pkg, targetWeb, opts)
}

// postProcessBareImport implements spec.md §4.7's post-processing branches.
func (r *Resolver) postProcessBareImport(specifier, importer, resolved, pkgID, nestedPath string, pkg *manifest.PackageData, externalize bool, opts Options) (*ResolutionResult, error) {
	isBuild := !opts.AsSrc
	sideEffects := pkg.HasSideEffects(resolved)

	if externalize {
		patched := specifier
		specExt := filepath.Ext(specifier)
		if specExt == "" && pkg.Data.Exports.Len() == 0 {
			patched = specifier + filepath.Ext(resolved)
		}
		return externalResult(patched, &sideEffects), nil
	}

	if isBuild && opts.Optimizer == nil {
		return &ResolutionResult{ID: resolved, ModuleSideEffects: &sideEffects}, nil
	}

	if !isUnderNodeModules(resolved) || opts.Optimizer == nil || opts.Scan {
		return idResult(resolved), nil
	}

	isJsType := optimizableEntryRE.MatchString(resolved)
	importerInNodeModules := isUnderNodeModules(importer)
	excluded := false
	strippedNestedPath := stripEntryModuleExt(nestedPath)
	for _, ex := range opts.Optimizer.Exclude() {
		if ex == pkgID || ex == nestedPath || ex == strippedNestedPath {
			excluded = true
			break
		}
	}
	_, postfix := splitFileAndPostfix(resolved)
	hasSpecialQuery := postfix != ""

	if !isJsType || importerInNodeModules || excluded || hasSpecialQuery || (!isBuild && opts.SSR) {
		if !isBuild && isJsType {
			return idResult(injectVersionQuery(resolved, r.browserHash)), nil
		}
		return idResult(resolved), nil
	}

	info, err := opts.Optimizer.RegisterMissingImport(specifier, resolved, opts.SSR)
	if err != nil {
		return idResult(resolved), nil
	}
	result := idResult(opts.Optimizer.GetOptimizedDepID(info))
	if isBuild {
		result.ModuleSideEffects = &sideEffects
	}
	return result, nil
}

func isUnderNodeModules(p string) bool {
	return strings.Contains(normalizeSlashes(p), "/node_modules/")
}

// injectVersionQuery appends (or merges into an existing query) the
// optimizer's cache-bust hash, per spec.md §4.1 step 7 and §4.7's final
// "excluded from optimization" branch.
func injectVersionQuery(id, hash string) string {
	if hash == "" {
		return id
	}
	if strings.Contains(id, "?") {
		return id + "&v=" + hash
	}
	return id + "?v=" + hash
}
