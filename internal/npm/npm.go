// Package npm provides the subset of npm package-naming and versioning
// rules the resolver needs: package-name validation for the bare-import
// resolver, plus exact-version detection and "name@version/subpath"
// splitting, which no resolver path calls.
package npm

import (
	"strings"

	"github.com/ije/gox/utils"
	"github.com/ije/gox/valid"
)

var (
	Naming     = valid.Validator{valid.Range{'a', 'z'}, valid.Range{'A', 'Z'}, valid.Range{'0', '9'}, valid.Eq('_'), valid.Eq('.'), valid.Eq('-'), valid.Eq('+'), valid.Eq('!'), valid.Eq('~')}
	Versioning = valid.Validator{valid.Range{'a', 'z'}, valid.Range{'A', 'Z'}, valid.Range{'0', '9'}, valid.Eq('_'), valid.Eq('.'), valid.Eq('-'), valid.Eq('+')}
)

// ValidatePackageName validates an npm package name, scoped or unscoped.
// Grounded on esm.sh's internal/npm.ValidatePackageName.
func ValidatePackageName(pkgName string) bool {
	if l := len(pkgName); l == 0 || l > 214 {
		return false
	}
	if strings.HasPrefix(pkgName, "@") {
		scope, name := utils.SplitByFirstByte(pkgName, '/')
		if len(scope) < 2 || name == "" {
			return false
		}
		return Naming.Match(scope[1:]) && Naming.Match(name)
	}
	return Naming.Match(pkgName)
}

// IsExactVersion reports whether version is a fully-qualified semver
// triple (no range, no dist-tag). Grounded on esm.sh's internal/npm.IsExactVersion.
func IsExactVersion(version string) bool {
	a := strings.SplitN(version, ".", 3)
	if len(a) != 3 {
		return false
	}
	if len(a[0]) == 0 || !isNumericString(a[0]) || len(a[1]) == 0 || !isNumericString(a[1]) {
		return false
	}
	p := a[2]
	if len(p) == 0 {
		return false
	}
	patchEnd := false
	for i, c := range p {
		if !patchEnd {
			if c == '-' || c == '+' {
				if i == 0 || i == len(p)-1 {
					return false
				}
				patchEnd = true
			} else if c < '0' || c > '9' {
				return false
			}
		} else if !(c == '.' || c == '_' || c == '-' || c == '+' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func isNumericString(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SplitPackageSpecifier splits "name@version/subpath" (or scoped
// "@scope/name@version/subpath") into its name, version and subpath parts.
// Grounded on esm.sh's server/path.go splitEsmPath.
func SplitPackageSpecifier(specifier string) (pkgName string, version string, subpath string) {
	a := strings.Split(strings.TrimPrefix(specifier, "/"), "/")
	nameAndVersion := ""
	if strings.HasPrefix(a[0], "@") && len(a) > 1 {
		nameAndVersion = a[0] + "/" + a[1]
		subpath = strings.Join(a[2:], "/")
	} else {
		nameAndVersion = a[0]
		subpath = strings.Join(a[1:], "/")
	}
	if len(nameAndVersion) > 0 && nameAndVersion[0] == '@' {
		pkgName, version = utils.SplitByFirstByte(nameAndVersion[1:], '@')
		pkgName = "@" + pkgName
	} else {
		pkgName, version = utils.SplitByFirstByte(nameAndVersion, '@')
	}
	return pkgName, strings.TrimSpace(version), subpath
}
