package npm

import "testing"

func TestValidatePackageName(t *testing.T) {
	cases := map[string]bool{
		"react":        true,
		"react-dom":    true,
		"@scope/name":  true,
		"@scope":       false,
		"@scope/":      false,
		"":             false,
		"has space":    false,
		"UPPER_case.1": true,
	}
	for name, want := range cases {
		if got := ValidatePackageName(name); got != want {
			t.Errorf("ValidatePackageName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsExactVersion(t *testing.T) {
	cases := map[string]bool{
		"1.2.3":       true,
		"1.2.3-beta1": true,
		"^1.2.3":      false,
		"latest":      false,
		"1.2":         false,
		"":            false,
	}
	for v, want := range cases {
		if got := IsExactVersion(v); got != want {
			t.Errorf("IsExactVersion(%q) = %v, want %v", v, got, want)
		}
	}
}

func TestSplitPackageSpecifier(t *testing.T) {
	tests := []struct {
		specifier              string
		name, version, subpath string
	}{
		{"react", "react", "", ""},
		{"react@18.2.0", "react", "18.2.0", ""},
		{"react-dom@18.2.0/server", "react-dom", "18.2.0", "server"},
		{"@scope/name@1.0.0/lib/x", "@scope/name", "1.0.0", "lib/x"},
		{"@scope/name", "@scope/name", "", ""},
	}
	for _, tt := range tests {
		name, version, subpath := SplitPackageSpecifier(tt.specifier)
		if name != tt.name || version != tt.version || subpath != tt.subpath {
			t.Errorf("SplitPackageSpecifier(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.specifier, name, version, subpath, tt.name, tt.version, tt.subpath)
		}
	}
}
