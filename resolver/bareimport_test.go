package resolver

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestPossiblePkgIds(t *testing.T) {
	tests := []struct {
		nestedPath string
		want       []string
	}{
		{"@scope/a/b/c.js", []string{"@scope/a", "@scope/a/b"}},
		{"a/b/c.js", []string{"a", "a/b"}},
		{"a.b/c", []string{"a.b"}},
		{"react", []string{"react"}},
		{"@scope/name", []string{"@scope/name"}},
	}
	for _, tt := range tests {
		got := possiblePkgIds(tt.nestedPath)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("possiblePkgIds(%q) = %v, want %v", tt.nestedPath, got, tt.want)
		}
	}
}

func TestSplitNestedSelection(t *testing.T) {
	tests := []struct {
		specifier              string
		nestedRoot, nestedPath string
	}{
		{"lodash", "", "lodash"},
		{"a > b > lodash", "a > b", "lodash"},
		{"react-dom/server", "", "react-dom/server"},
	}
	for _, tt := range tests {
		root, path := splitNestedSelection(tt.specifier)
		if root != tt.nestedRoot || path != tt.nestedPath {
			t.Errorf("splitNestedSelection(%q) = (%q, %q), want (%q, %q)",
				tt.specifier, root, path, tt.nestedRoot, tt.nestedPath)
		}
	}
}

func TestChooseBasedir(t *testing.T) {
	root := "/p"
	t.Run("dedupe match uses root", func(t *testing.T) {
		got := chooseBasedir([]string{"react"}, []string{"react"}, "/p/node_modules/app/index.js", root)
		if got != root {
			t.Errorf("chooseBasedir = %q, want %q", got, root)
		}
	})
	t.Run("no dedupe match with no importer falls back to root", func(t *testing.T) {
		got := chooseBasedir([]string{"lodash"}, nil, "", root)
		if got != root {
			t.Errorf("chooseBasedir = %q, want %q", got, root)
		}
	})
}

func TestChooseDedupedBasedirFallsBackOnVersionMismatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/react/package.json"), `{"name":"react","version":"18.0.0"}`)
	nestedDir := filepath.Join(root, "node_modules/app/node_modules/react")
	writeFile(t, filepath.Join(nestedDir, "package.json"), `{"name":"react","version":"17.0.0"}`)
	writeFile(t, filepath.Join(root, "node_modules/app/package.json"),
		`{"name":"app","version":"1.0.0","dependencies":{"react":"^17.0.0"}}`)
	importer := filepath.Join(root, "node_modules/app/index.js")
	writeFile(t, importer, "import 'react';")

	r := New()
	appPkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/app/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}
	r.rememberPackage(importer, appPkg)

	opts := Options{Root: root, Dedupe: []string{"react"}}.withDefaults()

	got := r.chooseDedupedBasedir([]string{"react"}, importer, opts)
	want := filepath.Join(root, "node_modules/app")
	if got != want {
		t.Errorf("chooseDedupedBasedir = %q, want %q (nested, version-incompatible root copy)", got, want)
	}
}

func TestChooseDedupedBasedirUsesRootWhenCompatible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules/react/package.json"), `{"name":"react","version":"18.2.0"}`)
	writeFile(t, filepath.Join(root, "node_modules/app/package.json"),
		`{"name":"app","version":"1.0.0","dependencies":{"react":"^18.0.0"}}`)

	r := New()
	importer := filepath.Join(root, "node_modules/app/index.js")
	appPkg, err := r.manifest.LoadPackageData(filepath.Join(root, "node_modules/app/package.json"), false)
	if err != nil {
		t.Fatal(err)
	}
	r.rememberPackage(importer, appPkg)

	opts := Options{Root: root, Dedupe: []string{"react"}}.withDefaults()

	got := r.chooseDedupedBasedir([]string{"react"}, importer, opts)
	if got != root {
		t.Errorf("chooseDedupedBasedir = %q, want %q (compatible root copy)", got, root)
	}
}
