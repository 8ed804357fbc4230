package resolver

import (
	"path/filepath"
	"testing"
)

func TestResolveSubpathImport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/pkg/package.json"),
		`{"name":"pkg","version":"1.0.0","imports":{"#utils":"./src/utils.js","#feature/*":"./src/feature/*.js"}}`)
	writeFile(t, filepath.Join(root, "node_modules/pkg/src/utils.js"), "export default 1;")
	writeFile(t, filepath.Join(root, "node_modules/pkg/src/feature/a.js"), "export default 2;")

	r := New()
	opts := Options{Root: root}.withDefaults()
	pkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/pkg/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := r.resolveSubpathImport("#utils", pkg, true, opts)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "node_modules/pkg/src/utils.js"); resolved != want {
		t.Errorf("resolveSubpathImport(#utils) = %q, want %q", resolved, want)
	}

	resolved, err = r.resolveSubpathImport("#feature/a", pkg, true, opts)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "node_modules/pkg/src/feature/a.js"); resolved != want {
		t.Errorf("resolveSubpathImport(#feature/a) = %q, want %q", resolved, want)
	}
}

func TestResolveSubpathImportNotExposed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/pkg/package.json"),
		`{"name":"pkg","version":"1.0.0","imports":{"#utils":"./src/utils.js"}}`)
	writeFile(t, filepath.Join(root, "node_modules/pkg/src/utils.js"), "export default 1;")

	r := New()
	opts := Options{Root: root}.withDefaults()
	pkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/pkg/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.resolveSubpathImport("#missing", pkg, true, opts); err == nil {
		t.Error("expected ErrSubpathNotExposed for an undeclared #specifier, got nil")
	}
}

func TestResolveSubpathImportBareTargetNotExposed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/pkg/package.json"),
		`{"name":"pkg","version":"1.0.0","imports":{"#dep":"other-pkg"}}`)

	r := New()
	opts := Options{Root: root}.withDefaults()
	pkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/pkg/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.resolveSubpathImport("#dep", pkg, true, opts); err == nil {
		t.Error("expected a bare-specifier imports target to be rejected as not exposed, got nil")
	}
}

func TestResolveIDSubpathImport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/pkg/package.json"),
		`{"name":"pkg","version":"1.0.0","imports":{"#utils":"./src/utils.js"}}`)
	writeFile(t, filepath.Join(root, "node_modules/pkg/src/utils.js"), "export default 1;")
	writeFile(t, filepath.Join(root, "node_modules/pkg/index.js"), "import '#utils';")

	r := New()
	opts := Options{Root: root}
	importerFile := filepath.Join(root, "node_modules/pkg/index.js")

	pkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/pkg/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}
	r.rememberPackage(importerFile, pkg)

	result, err := r.ResolveID("#utils", importerFile, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("ResolveID(#utils) = nil, want a result")
	}
	if want := filepath.Join(root, "node_modules/pkg/src/utils.js"); result.ID != want {
		t.Errorf("ResolveID(#utils).ID = %q, want %q", result.ID, want)
	}
}

func TestResolveIDSubpathImportUnknownImporterFallsThrough(t *testing.T) {
	root := t.TempDir()

	r := New()
	result, err := r.ResolveID("#utils", filepath.Join(root, "src/main.js"), Options{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Errorf("ResolveID(#utils) with unrecorded importer = %+v, want nil", result)
	}
}
