package resolver

import (
	"path/filepath"
	"testing"
)

func TestResolveDeepImportViaBrowserField(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/pkg/package.json"),
		`{"name":"pkg","version":"1.0.0","browser":{"./lib/node.js":"./lib/browser.js"}}`)
	writeFile(t, filepath.Join(root, "node_modules/pkg/lib/browser.js"), "export default 1;")

	r := New()
	opts := Options{Root: root}.withDefaults()
	pkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/pkg/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := r.resolveDeepImport("./lib/node.js", pkg, true, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "node_modules/pkg/lib/browser.js")
	if resolved != want {
		t.Errorf("resolveDeepImport = %q, want %q", resolved, want)
	}
}

func TestResolveDeepImportMemoizedPerSubpath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/pkg/package.json"), `{"name":"pkg","version":"1.0.0"}`)
	writeFile(t, filepath.Join(root, "node_modules/pkg/feature.js"), "export default 1;")

	r := New()
	opts := Options{Root: root}.withDefaults()
	pkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/pkg/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := r.resolveDeepImport("./feature.js", pkg, true, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "node_modules/pkg/feature.js")
	if resolved != want {
		t.Fatalf("resolveDeepImport = %q, want %q", resolved, want)
	}

	if cached, ok := pkg.GetResolvedCache("./feature.js", true); !ok || cached != want {
		t.Errorf("expected memoized deep-import entry, got (%q, %v)", cached, ok)
	}
}
