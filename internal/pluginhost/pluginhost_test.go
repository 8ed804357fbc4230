package pluginhost

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/esmresolve/modresolve/resolver"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOnResolveTranslatesFileResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/util.js"), "export default 1;")
	r := resolver.New()
	opts := resolver.Options{Root: root}

	res, err := onResolve(r, opts, api.OnResolveArgs{Path: "./util", Importer: filepath.Join(root, "src/main.js")})
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "src/util.js")
	if res.Path != want {
		t.Errorf("onResolve path = %q, want %q", res.Path, want)
	}
}

func TestOnResolveBrowserExternalUsesNamespace(t *testing.T) {
	root := t.TempDir()
	r := resolver.New()
	opts := resolver.Options{Root: root}

	res, err := onResolve(r, opts, api.OnResolveArgs{Path: "fs"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Namespace != externalNamespace {
		t.Errorf("onResolve(fs) namespace = %q, want %q", res.Namespace, externalNamespace)
	}
	if res.Path != resolver.BrowserExternalID {
		t.Errorf("onResolve(fs) path = %q, want %q", res.Path, resolver.BrowserExternalID)
	}
}

func TestOnResolveExternalURLPassthrough(t *testing.T) {
	root := t.TempDir()
	r := resolver.New()
	opts := resolver.Options{Root: root}

	res, err := onResolve(r, opts, api.OnResolveArgs{Path: "https://esm.sh/react"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.External || res.Path != "https://esm.sh/react" {
		t.Errorf("onResolve external url = %+v, want External passthrough", res)
	}
}

func TestOnLoadExternalProduction(t *testing.T) {
	result, err := onLoadExternal(api.OnLoadArgs{Path: resolver.BrowserExternalID}, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Contents == nil || strings.TrimSpace(*result.Contents) != "export default {}" {
		t.Errorf("onLoadExternal production = %q, want `export default {}`", *result.Contents)
	}
}

func TestOnLoadExternalDevelopmentThrowsOnAccess(t *testing.T) {
	result, err := onLoadExternal(api.OnLoadArgs{Path: resolver.BrowserExternalID + ":fs"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Contents == nil {
		t.Fatal("expected non-nil contents")
	}
	contents := *result.Contents
	if !strings.Contains(contents, `Module "fs" has been externalized for browser compatibility.`) {
		t.Errorf("onLoadExternal dev contents missing expected message: %s", contents)
	}
	if !strings.Contains(contents, "new Proxy") {
		t.Errorf("onLoadExternal dev contents should use a Proxy stub: %s", contents)
	}
}
