package resolver

// ResolutionResult is the value resolveId (and its leaf helpers) hand back
// to the plugin host, per spec.md §3: "undefined (fall through), null
// (explicit no-op), a bare string id, or a structured record". Go has no
// natural three-state "absent/null/value", so this package represents
// "undefined" as a nil *ResolutionResult with a nil error, and "null" as a
// non-nil *ResolutionResult with Null set.
type ResolutionResult struct {
	ID                string
	External          bool
	Null              bool
	ModuleSideEffects *bool
}

func idResult(id string) *ResolutionResult {
	return &ResolutionResult{ID: id}
}

func externalResult(id string, moduleSideEffects *bool) *ResolutionResult {
	return &ResolutionResult{ID: id, External: true, ModuleSideEffects: moduleSideEffects}
}

func nullResult() *ResolutionResult {
	return &ResolutionResult{Null: true}
}
