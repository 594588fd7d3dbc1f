package services

import (
	"fmt"
	"regexp"
)

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidateModuleName checks that name is a dotted import path the
// interpreter can import, e.g. "openfhe" or "package.sub"
func ValidateModuleName(name string) error {
	if !moduleNamePattern.MatchString(name) {
		return fmt.Errorf("invalid module name %q (distribution names such as foo-bar are not importable; use the import name)", name)
	}
	return nil
}
