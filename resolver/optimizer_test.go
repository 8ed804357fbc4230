package resolver

import "testing"

type fakeOptimizer struct {
	done    chan struct{}
	meta    map[bool]OptimizerMetadata
	scanned map[bool]bool
}

func newFakeOptimizer() *fakeOptimizer {
	done := make(chan struct{})
	close(done)
	return &fakeOptimizer{
		done:    done,
		meta:    make(map[bool]OptimizerMetadata),
		scanned: make(map[bool]bool),
	}
}

func (f *fakeOptimizer) IsOptimizedDepURL(string) bool  { return false }
func (f *fakeOptimizer) IsOptimizedDepFile(string) bool { return false }
func (f *fakeOptimizer) Metadata(ssr bool) (OptimizerMetadata, bool) {
	m, ok := f.meta[ssr]
	return m, ok
}
func (f *fakeOptimizer) Exclude() []string { return nil }
func (f *fakeOptimizer) RegisterMissingImport(id, resolved string, ssr bool) (DepInfo, error) {
	return DepInfo{}, nil
}
func (f *fakeOptimizer) GetOptimizedDepID(info DepInfo) string { return info.File }
func (f *fakeOptimizer) Done() <-chan struct{}                 { return f.done }

func TestTryOptimizedResolveDirectMatch(t *testing.T) {
	opt := newFakeOptimizer()
	opt.meta[false] = OptimizerMetadata{
		BrowserHash: "abc",
		DepInfoList: []DepInfo{{ID: "react", Src: "/p/node_modules/react/index.js", File: "/p/.deps/react.js"}},
	}

	id, ok := tryOptimizedResolve(opt, false, "react", "")
	if !ok || id != "/p/.deps/react.js" {
		t.Errorf("tryOptimizedResolve = (%q, %v), want (/p/.deps/react.js, true)", id, ok)
	}
}

func TestTryOptimizedResolveNoMetadata(t *testing.T) {
	opt := newFakeOptimizer()
	id, ok := tryOptimizedResolve(opt, false, "react", "")
	if ok {
		t.Errorf("tryOptimizedResolve = (%q, %v), want ok=false when no scan completed", id, ok)
	}
}

func TestTryOptimizedResolveNilOptimizer(t *testing.T) {
	id, ok := tryOptimizedResolve(nil, false, "react", "")
	if ok {
		t.Errorf("tryOptimizedResolve(nil, ...) = (%q, %v), want ok=false", id, ok)
	}
}
