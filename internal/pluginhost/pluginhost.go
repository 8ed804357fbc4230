// Package pluginhost adapts a *resolver.Resolver to the evanw/esbuild
// plugin interface: an OnResolve hook that calls ResolveID and translates
// its *resolver.ResolutionResult into an api.OnResolveResult, and an
// OnLoad hook that serves the browser-external stub module spec.md §6
// describes. Grounded on esm.sh's server/build-esm.go resolverPlugin,
// which wires a resolve function into the same two esbuild hooks.
package pluginhost

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/esmresolve/modresolve/resolver"
)

// externalNamespace is the esbuild namespace OnLoad watches for
// browser-external stub modules, kept distinct from the default
// namespace so unrelated OnLoad hooks never see these paths.
const externalNamespace = "modresolve-browser-external"

// New builds the esbuild plugin wrapping r. dev selects which of the two
// §6 `load` behaviors OnLoad serves for browser-external ids: production
// returns `export default {}`, development returns a proxy stub that
// throws on property access.
func New(r *resolver.Resolver, opts resolver.Options, dev bool) api.Plugin {
	return api.Plugin{
		Name: "modresolve",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return onResolve(r, opts, args)
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: externalNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				return onLoadExternal(args, dev)
			})
		},
	}
}

func onResolve(r *resolver.Resolver, opts resolver.Options, args api.OnResolveArgs) (api.OnResolveResult, error) {
	result, err := r.ResolveID(args.Path, args.Importer, opts)
	if err != nil {
		return api.OnResolveResult{}, err
	}
	if result == nil {
		// Unresolved: let esbuild's default resolution (or another
		// plugin) take over, per the orchestrator's own "no match"
		// return value (spec.md §4.1).
		return api.OnResolveResult{}, nil
	}
	if result.Null {
		// A data: URL resolves to "no module" (§4.1 step 9); the
		// closest esbuild equivalent is an empty, external result so
		// nothing downstream tries to load it as a file.
		return api.OnResolveResult{External: true}, nil
	}

	id := result.ID
	if isBrowserExternal(id) {
		return api.OnResolveResult{Path: id, Namespace: externalNamespace}, nil
	}

	res := api.OnResolveResult{Path: id, External: result.External}
	if result.ModuleSideEffects != nil && !*result.ModuleSideEffects {
		res.SideEffects = api.SideEffectsFalse
	}
	return res, nil
}

func isBrowserExternal(id string) bool {
	return id == resolver.BrowserExternalID || strings.HasPrefix(id, resolver.BrowserExternalID+":")
}

// onLoadExternal implements spec.md §6's `load(id) → source | undefined`
// contract for browser-external ids.
func onLoadExternal(args api.OnLoadArgs, dev bool) (api.OnLoadResult, error) {
	originalID := strings.TrimPrefix(args.Path, resolver.BrowserExternalID+":")

	var contents string
	if dev {
		contents = devExternalStub(originalID)
	} else {
		contents = "export default {}"
	}
	return api.OnLoadResult{
		Contents: &contents,
		Loader:   api.LoaderJS,
	}, nil
}

// devExternalStub renders a module whose default export is a Proxy that
// throws on any property access, naming originalID in the thrown message
// exactly as spec.md §6 specifies.
func devExternalStub(originalID string) string {
	return fmt.Sprintf(`export default new Proxy({}, {
  get(_, key) {
    throw new Error(
      %s
    );
  }
});
`, backtickMessage(originalID))
}

func backtickMessage(originalID string) string {
	escaped := strings.ReplaceAll(originalID, "`", "\\`")
	return fmt.Sprintf("`Module \"%s\" has been externalized for browser compatibility. Cannot access \"%s.${String(key)}\" in client code.`", escaped, escaped)
}
