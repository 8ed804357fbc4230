package npm

import "encoding/json"

import "testing"

func TestPackageJSONParse(t *testing.T) {
	var p PackageJSON
	err := json.Unmarshal([]byte(`{
		"name": "foo",
		"version": "1.0.0",
		"main": "index.js",
		"module": "index.mjs",
		"sideEffects": false
	}`), &p)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "foo" {
		t.Fatal("invalid name")
	}
	if p.Version != "1.0.0" {
		t.Fatal("invalid version")
	}
	if p.Main != "index.js" {
		t.Fatal("invalid main")
	}
	if p.Module != "index.mjs" {
		t.Fatal("invalid module")
	}
	if !p.SideEffectsFalse {
		t.Fatal("invalid sideEffects")
	}
}

func TestPackageJSONModuleFallback(t *testing.T) {
	var p PackageJSON
	err := json.Unmarshal([]byte(`{"name":"foo","version":"1.0.0","main":"index.mjs"}`), &p)
	if err != nil {
		t.Fatal(err)
	}
	if p.Module != "index.mjs" || p.Main != "" {
		t.Fatalf("expected .mjs main to become module entry, got module=%q main=%q", p.Module, p.Main)
	}
}

func TestPackageJSONExportsOrder(t *testing.T) {
	var p PackageJSON
	err := json.Unmarshal([]byte(`{
		"name": "foo",
		"version": "1.0.0",
		"exports": {
			".": "./index.js",
			"./sub": "./lib/sub.js"
		}
	}`), &p)
	if err != nil {
		t.Fatal(err)
	}
	if p.Exports.Len() != 2 {
		t.Fatalf("expected 2 export keys, got %d", p.Exports.Len())
	}
	if got := p.Exports.Keys(); got[0] != "." || got[1] != "./sub" {
		t.Fatalf("expected keys in source order, got %v", got)
	}
}

func TestJSONObjectOrderPreserved(t *testing.T) {
	var obj JSONObject
	err := obj.UnmarshalJSON([]byte(`{"z": 1, "a": 2, "m": 3}`))
	if err != nil {
		t.Fatal(err)
	}
	keys := obj.Keys()
	want := []string{"z", "a", "m"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("expected key order %v, got %v", want, keys)
		}
	}
}
