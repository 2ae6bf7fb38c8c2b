package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ParseRequirements reads a requirements manifest in either the bare list
// form or the roles/collections mapping form.
func ParseRequirements(path string) (*Requirements, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return parseRequirements(data, path)
}

func parseRequirements(data []byte, path string) (*Requirements, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing requirements %s: %w", path, err)
	}

	// Empty file.
	if len(doc.Content) == 0 {
		return &Requirements{}, nil
	}

	root := doc.Content[0]
	var reqs Requirements
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&reqs.Roles); err != nil {
			return nil, fmt.Errorf("parsing requirements %s: %w", path, err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&reqs); err != nil {
			return nil, fmt.Errorf("parsing requirements %s: %w", path, err)
		}
	case yaml.ScalarNode:
		if root.Tag == "!!null" || root.Value == "" {
			return &Requirements{}, nil
		}
		return nil, fmt.Errorf("parsing requirements %s: expected a list or a mapping", path)
	default:
		return nil, fmt.Errorf("parsing requirements %s: expected a list or a mapping", path)
	}
	return &reqs, nil
}

// ParseRoleMeta reads a role's meta/main.yml.
func ParseRoleMeta(path string) (*RoleMeta, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var m RoleMeta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing role metadata %s: %w", path, err)
	}
	return &m, nil
}

// RoleNameFromDir returns galaxy_info.role_name from roleDir/meta/main.yml,
// falling back to the directory's base name when the file or key is
// missing. Malformed metadata is an error.
func RoleNameFromDir(roleDir string) (string, error) {
	fallback := filepath.Base(roleDir)
	metaPath := filepath.Join(roleDir, MetaDir, MetaFile)
	if _, err := os.Stat(metaPath); err != nil {
		return fallback, nil
	}
	m, err := ParseRoleMeta(metaPath)
	if err != nil {
		return "", err
	}
	if m.GalaxyInfo.RoleName != "" {
		return m.GalaxyInfo.RoleName, nil
	}
	return fallback, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
