// Package services implements domain business logic and use cases.
package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ochairo/preflight/internal/domain/entities"
)

var (
	// name[extra1,extra2] followed by an optional specifier list
	requirementPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(?:\[([A-Za-z0-9._,\s-]*)\])?\s*(.*)$`)
	specifierPattern   = regexp.MustCompile(`^(===|==|>=|<=|~=|!=|>|<)\s*[A-Za-z0-9.*+!_-]+$`)
	directRefPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*(?:\[[^\]]*\])?\s*@\s*\S`)
	commentPattern     = regexp.MustCompile(`(?:^|\s)#.*$`)
)

// ParseManifestFile reads and parses the requirements file at path
func ParseManifestFile(path string) (*entities.Manifest, error) {
	//nolint:gosec // G304: manifest path comes from launcher configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	manifest, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	manifest.Path = path
	return manifest, nil
}

// ParseManifest parses a flat requirements list: one package identifier
// per line, optionally version-pinned. Blank lines and comments are ignored,
// option lines ("-r other.txt", "--index-url ...") are kept verbatim.
func ParseManifest(r io.Reader) (*entities.Manifest, error) {
	manifest := &entities.Manifest{
		Requirements: make([]entities.Requirement, 0),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if isPassThrough(line) {
			manifest.Options = append(manifest.Options, line)
			continue
		}

		req, err := parseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		req.Line = lineNo
		manifest.Requirements = append(manifest.Requirements, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return manifest, nil
}

func parseRequirement(line string) (entities.Requirement, error) {
	// Environment markers ("; python_version < '3.8'") do not affect the identifier
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}

	m := requirementPattern.FindStringSubmatch(line)
	if m == nil {
		return entities.Requirement{}, fmt.Errorf("invalid requirement %q", line)
	}

	req := entities.Requirement{Name: m[1]}

	if m[2] != "" {
		for _, extra := range strings.Split(m[2], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}

	version := strings.TrimSpace(m[3])
	if version == "" {
		return req, nil
	}

	// Direct reference: "name @ https://..."
	if strings.HasPrefix(version, "@") {
		req.Specifier = version
		return req, nil
	}

	parts := strings.Split(version, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if !specifierPattern.MatchString(part) {
			return entities.Requirement{}, fmt.Errorf("invalid version specifier %q for %s", part, req.Name)
		}
		parts[i] = strings.ReplaceAll(part, " ", "")
	}
	req.Specifier = strings.Join(parts, ",")

	return req, nil
}

// isPassThrough reports lines the installer handles itself: options,
// local paths and VCS/URL references.
func isPassThrough(line string) bool {
	return strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, ".") ||
		strings.HasPrefix(line, "/") ||
		(strings.Contains(line, "://") && !directRefPattern.MatchString(line))
}

func stripComment(line string) string {
	return strings.TrimSpace(commentPattern.ReplaceAllString(line, ""))
}
