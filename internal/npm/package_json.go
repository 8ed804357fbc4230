package npm

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ije/gox/set"
)

// PackageJSONRaw is the wire shape of package.json, decoded field-by-field
// so that fields with multiple legal shapes (string or object) can be
// normalized afterwards. Grounded on esm.sh's internal/npm.PackageJSONRaw.
type PackageJSONRaw struct {
	Name             string          `json:"name"`
	Version          string          `json:"version"`
	Type             string          `json:"type"`
	Main             JSONAny         `json:"main"`
	Module           JSONAny         `json:"module"`
	ES2015           JSONAny         `json:"es2015"`
	JsNextMain       JSONAny         `json:"jsnext:main"`
	Browser          JSONAny         `json:"browser"`
	SideEffects      any             `json:"sideEffects"`
	Imports          json.RawMessage `json:"imports"`
	Exports          json.RawMessage `json:"exports"`
	Dependencies     any             `json:"dependencies"`
	PeerDependencies any             `json:"peerDependencies"`
}

// PackageJSON is the normalized, resolver-facing view of a package.json.
type PackageJSON struct {
	Name             string
	Version          string
	Type             string
	Main             string
	Module           string
	Browser          JSONObject
	SideEffectsFalse bool
	SideEffects      set.ReadOnlySet[string]
	Imports          JSONObject
	Exports          JSONObject
	Dependencies     map[string]string
	PeerDependencies map[string]string
}

// ToPackageJSON normalizes a PackageJSONRaw into a PackageJSON.
// Grounded on esm.sh's internal/npm.PackageJSONRaw.ToNpmPackage, trimmed to
// the fields the resolver's entry/deep-import/browser-field algorithms use.
func (a *PackageJSONRaw) ToPackageJSON() *PackageJSON {
	browser := JSONObject{}
	if a.Browser.Str != "" && isModule(a.Browser.Str) {
		browser.keys = append(browser.keys, ".")
		browser.values = map[string]any{".": a.Browser.Str}
	}
	if a.Browser.Obj.Len() > 0 {
		browser = a.Browser.Obj
	}

	sideEffects := set.New[string]()
	sideEffectsFalse := false
	if a.SideEffects != nil {
		switch v := a.SideEffects.(type) {
		case string:
			if v == "false" {
				sideEffectsFalse = true
			} else if isModule(v) {
				sideEffects.Add(v)
			}
		case bool:
			sideEffectsFalse = !v
		case []any:
			sideEffectsFalse = true
			for _, item := range v {
				if name, ok := item.(string); ok {
					sideEffects.Add(name)
				}
			}
		}
	}

	exports := JSONObject{}
	if rawExports := a.Exports; len(rawExports) > 0 {
		var s string
		if json.Unmarshal(rawExports, &s) == nil {
			if len(s) > 0 {
				exports = JSONObject{keys: []string{"."}, values: map[string]any{".": s}}
			}
		} else {
			exports.UnmarshalJSON(rawExports)
		}
	}

	imports := JSONObject{}
	if rawImports := a.Imports; len(rawImports) > 0 {
		imports.UnmarshalJSON(rawImports)
	}

	p := &PackageJSON{
		Name:             a.Name,
		Version:          a.Version,
		Type:             a.Type,
		Main:             a.Main.MainString(),
		Module:           a.Module.MainString(),
		Browser:          browser,
		SideEffectsFalse: sideEffectsFalse,
		SideEffects:      *sideEffects.ReadOnly(),
		Imports:          imports,
		Exports:          exports,
		Dependencies:     toStringMap(a.Dependencies),
		PeerDependencies: toStringMap(a.PeerDependencies),
	}

	// normalize the `module` field the way esm.sh's entry resolver does:
	// fall back to `es2015`/`jsnext:main`, then treat an ESM-flavored
	// `main` as the module entry when no `module` field is present.
	if p.Module == "" {
		if es2015 := a.ES2015.MainString(); es2015 != "" {
			p.Module = es2015
		} else if jsNextMain := a.JsNextMain.MainString(); jsNextMain != "" {
			p.Module = jsNextMain
		} else if p.Main != "" && (p.Type == "module" || strings.HasSuffix(p.Main, ".mjs")) {
			p.Module = p.Main
			p.Main = ""
		}
	}

	return p
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *PackageJSON) UnmarshalJSON(b []byte) error {
	var raw PackageJSONRaw
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = *raw.ToPackageJSON()
	return nil
}

// JSONObject is a read-only JSON object that preserves source key order.
// The browser-field mapper (§4.6) and the `exports` subpath matcher need
// insertion order to break ties deterministically, which Go's native
// map[string]any cannot provide — see spec.md §9 "Implementations must use
// an ordered map". Grounded on esm.sh's internal/npm.JSONObject.
type JSONObject struct {
	keys   []string
	values map[string]any
}

// NewJSONObject creates a JSONObject from parallel key/value slices.
func NewJSONObject(keys []string, values map[string]any) JSONObject {
	return JSONObject{keys: keys, values: values}
}

// Len returns the number of keys.
func (obj *JSONObject) Len() int {
	return len(obj.keys)
}

// Keys returns the object's keys in source order.
func (obj *JSONObject) Keys() []string {
	return obj.keys
}

// Get returns the value stored under key, and whether it was present.
func (obj *JSONObject) Get(key string) (any, bool) {
	v, ok := obj.values[key]
	return v, ok
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (obj *JSONObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("npm: expected JSON object open with '{'")
	}

	if err := obj.parse(dec); err != nil {
		return err
	}

	if t, err = dec.Token(); err != io.EOF {
		return fmt.Errorf("npm: expected end of JSON object but got more token: %T: %v or err: %v", t, t, err)
	}
	return nil
}

func (obj *JSONObject) parse(dec *json.Decoder) error {
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("npm: expected JSON key to be a string, got %T: %v", t, t)
		}

		t, err = dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		value, err := handleDelim(t, dec)
		if err != nil {
			return err
		}

		obj.keys = append(obj.keys, key)
		if obj.values == nil {
			obj.values = make(map[string]any)
		}
		obj.values[key] = value
	}

	t, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '}' {
		return fmt.Errorf("npm: expected JSON object close with '}'")
	}
	return nil
}

func parseArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		value, err := handleDelim(t, dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := t.(json.Delim); !ok || delim != ']' {
		return nil, fmt.Errorf("npm: expected JSON array close with ']'")
	}
	return arr, nil
}

func handleDelim(t json.Token, dec *json.Decoder) (any, error) {
	if delim, ok := t.(json.Delim); ok {
		switch delim {
		case '{':
			obj := JSONObject{values: make(map[string]any)}
			if err := obj.parse(dec); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("npm: unexpected delimiter: %q", delim)
		}
	}
	return t, nil
}

// JSONAny decodes a package.json field that may be a bare string or an
// object keyed by subpath (e.g. `browser: {"./a.js": "./a.browser.js"}`).
// Grounded on esm.sh's internal/npm.JSONAny.
type JSONAny struct {
	Str string
	Obj JSONObject
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *JSONAny) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		a.Str = s
		return nil
	}
	return a.Obj.UnmarshalJSON(b)
}

// MainString returns the field's string value, or its "." entry when the
// field is an object, or "" when neither applies.
func (a *JSONAny) MainString() string {
	if a.Str != "" {
		return a.Str
	}
	if v, ok := a.Obj.Get("."); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// isModule reports whether s names a JS/TS-family source file.
func isModule(s string) bool {
	switch path.Ext(s) {
	case ".js", ".ts", ".mjs", ".mts", ".jsx", ".tsx", ".cjs", ".cts":
		return true
	default:
		return false
	}
}

// toStringMap normalizes a `dependencies`/`peerDependencies` field (decoded
// as `any` since some packages carry malformed non-object values) into a
// name-to-range map, dropping any non-string entries. Grounded on esm.sh's
// internal/npm.PackageJSONRaw.ToNpmPackage dependency-map normalization.
func toStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok && k != "" && s != "" {
			out[k] = s
		}
	}
	return out
}
