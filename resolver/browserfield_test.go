package resolver

import (
	"testing"

	"github.com/esmresolve/modresolve/internal/npm"
)

func TestMapWithBrowserFieldRemap(t *testing.T) {
	browser := npm.NewJSONObject(
		[]string{"./lib/node.js"},
		map[string]any{"./lib/node.js": "./lib/browser.js"},
	)
	res := mapWithBrowserField(browser, "./lib/node.js")
	if !res.matched || res.external || res.remap != "./lib/browser.js" {
		t.Errorf("mapWithBrowserField = %+v, want remap ./lib/browser.js", res)
	}
}

func TestMapWithBrowserFieldExternal(t *testing.T) {
	browser := npm.NewJSONObject(
		[]string{"fs"},
		map[string]any{"fs": false},
	)
	res := mapWithBrowserField(browser, "fs")
	if !res.matched || !res.external {
		t.Errorf("mapWithBrowserField = %+v, want external=true", res)
	}
}

func TestMapWithBrowserFieldJsSuffixTolerance(t *testing.T) {
	browser := npm.NewJSONObject(
		[]string{"./index.js"},
		map[string]any{"./index.js": "./index.browser.js"},
	)
	res := mapWithBrowserField(browser, "./index")
	if !res.matched || res.remap != "./index.browser.js" {
		t.Errorf("mapWithBrowserField(./index) = %+v, want remap via .js-suffix tolerance", res)
	}
}

func TestMapWithBrowserFieldNoMatch(t *testing.T) {
	browser := npm.NewJSONObject([]string{"./a.js"}, map[string]any{"./a.js": "./b.js"})
	res := mapWithBrowserField(browser, "./c.js")
	if res.matched {
		t.Errorf("mapWithBrowserField(./c.js) = %+v, want no match", res)
	}
}

func TestMatchAsteriskExport(t *testing.T) {
	tests := []struct {
		pattern, name, want string
		ok                  bool
	}{
		{"./feature/*.js", "./feature/a.js", "a", true},
		{"./feature/*.js", "./other/a.js", "", false},
		{"./*", "./a/b", "a/b", true},
		{"./fixed", "./fixed", "", false},
	}
	for _, tt := range tests {
		got, ok := matchAsteriskExport(tt.pattern, tt.name)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("matchAsteriskExport(%q, %q) = (%q, %v), want (%q, %v)", tt.pattern, tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
