package resolver

import (
	"github.com/ije/gox/log"
)

// Options carries every piece of caller intent the resolver consults.
// Grounded on spec.md §3 "ResolveOptions" and esm.sh's own config-object
// style (server/config.go), collapsed into a single struct the way
// spec.md §9 "Config-object proliferation" recommends.
type Options struct {
	// Root is the project root, the default search base directory.
	Root string

	// MainFields is the ordered list of legacy entry fields consulted
	// after `exports`/`browser`. Defaults to ["module", "jsnext:main", "jsnext"].
	// Only the names "module" and "main" are looked up; "module" also
	// covers `es2015` and `jsnext:main`, which the manifest parser folds
	// into it. Any other name in the list is skipped.
	MainFields []string

	// Conditions are extra `exports` conditions merged with the built-in
	// "production"|"development" and (unless IsRequire) "module".
	Conditions []string

	// Extensions is the ordered list of extensions tried by the
	// filesystem probe. Defaults to defaultExtensions.
	Extensions []string

	// Dedupe lists package ids that must always resolve against Root,
	// even when the importer lives in a nested node_modules.
	Dedupe []string

	// PreserveSymlinks disables the final realpath pass.
	PreserveSymlinks bool

	// AsSrc is true when serving source for a dev client: it enables
	// root-absolute url and optimized-dep resolution. False in build mode.
	AsSrc bool

	// TryPrefix and SkipPackageJSON are probe-policy flags consulted by
	// tryResolveFile. TryIndex is not read: tryFsResolve takes its
	// directory-index policy as an argument from each caller.
	TryIndex        bool
	TryPrefix       string
	SkipPackageJSON bool

	// IsRequire, IsFromTsImporter, TryEsmOnly and Scan carry caller intent
	// through the pipeline.
	IsRequire        bool
	IsFromTsImporter bool
	TryEsmOnly       bool
	Scan             bool

	// SSR and SSRTarget determine targetWeb (spec.md §3): targetWeb =
	// !SSR || SSRTarget == "webworker".
	SSR       bool
	SSRTarget string

	// Dev selects the "development" vs "production" exports condition
	// (§4.4), and whether a browser-externalized builtin resolves to the
	// bare sentinel or to "<sentinel>:<id>" (§4.1 step 11e).
	Dev bool

	// SSRNoExternal, when true, turns a Node built-in import under SSR
	// into a fatal error instead of an external passthrough (§7).
	SSRNoExternal bool

	// Optimizer and ShouldExternalize are the late-bound collaborators
	// described in spec.md §6.
	Optimizer         Optimizer
	ShouldExternalize func(id string) bool

	// Logger receives resolver diagnostics. A nil Logger is replaced with
	// a logger writing to stdout, matching esm.sh's server.Serve wiring of
	// github.com/ije/gox/log but without a package-level global (spec.md
	// §9: "a clean reimplementation injects a resolver instance").
	Logger *log.Logger
}

var defaultExtensions = []string{".mjs", ".js", ".mts", ".ts", ".jsx", ".tsx", ".json"}
var defaultMainFields = []string{"module", "jsnext:main", "jsnext"}

// withDefaults returns a copy of opts with zero-valued fields replaced by
// the spec.md §3 defaults.
func (opts Options) withDefaults() Options {
	if opts.Extensions == nil {
		opts.Extensions = defaultExtensions
	}
	if opts.MainFields == nil {
		opts.MainFields = defaultMainFields
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Logger == nil {
		opts.Logger, _ = log.New("stdout")
	}
	return opts
}

// targetWeb implements spec.md §3's invariant: targetWeb = !ssr || ssrTarget == "webworker".
func (opts Options) targetWeb() bool {
	return !opts.SSR || opts.SSRTarget == "webworker"
}
