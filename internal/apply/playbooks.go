package apply

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// Bundled playbook names.
const (
	RolePlaybook  = "role-all.yml"
	TasksPlaybook = "tasks.yml"
)

//go:embed playbooks/*.yml
var bundled embed.FS

// BundledPlaybook returns the embedded content of name.
func BundledPlaybook(name string) ([]byte, error) {
	data, err := bundled.ReadFile("playbooks/" + name)
	if err != nil {
		return nil, fmt.Errorf("bundled playbook %s: %w", name, err)
	}
	return data, nil
}

// Materialize writes the bundled playbook name into dir and returns its
// path. The file is only rewritten when its content differs.
func Materialize(dir, name string) (string, error) {
	data, err := BundledPlaybook(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating playbook directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing playbook %s: %w", path, err)
	}
	return path, nil
}
