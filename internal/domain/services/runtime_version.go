package services

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// ExtractRuntimeVersion pulls the numeric version out of an interpreter's
// version banner ("Python 3.11.4" -> "3.11.4"). Returns "" if none is found.
func ExtractRuntimeVersion(raw string) string {
	return versionPattern.FindString(raw)
}

// CheckVersionConstraint reports whether version satisfies constraint.
// An empty constraint is always satisfied.
func CheckVersionConstraint(version, constraint string) (bool, error) {
	if constraint == "" {
		return true, nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	if version == "" {
		return false, fmt.Errorf("runtime version unknown")
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid runtime version %q: %w", version, err)
	}

	return c.Check(v), nil
}

// ValidateVersionConstraint checks that constraint is well formed
func ValidateVersionConstraint(constraint string) error {
	if constraint == "" {
		return nil
	}
	if _, err := semver.NewConstraint(constraint); err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	return nil
}
