package manifest

import (
	"fmt"

	"github.com/yourlabs/bigsudo/internal/source"
	"go.yaml.in/yaml/v3"
)

// Requirement is one entry of a requirements manifest or of a role's
// meta dependencies. Entries may be plain strings, which are stored in Src.
type Requirement struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Src     string `yaml:"src,omitempty" json:"src,omitempty"`
	Role    string `yaml:"role,omitempty" json:"role,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Scm     string `yaml:"scm,omitempty" json:"scm,omitempty"`
}

// UnmarshalYAML accepts either a scalar or a mapping.
func (r *Requirement) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Src = node.Value
		return nil
	case yaml.MappingNode:
		type plain Requirement
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*r = Requirement(p)
		return nil
	default:
		return fmt.Errorf("line %d: requirement must be a string or a mapping", node.Line)
	}
}

// RoleName returns the directory name Galaxy installs the requirement
// under: the explicit name, else the role key, else the display name of
// the source.
func (r Requirement) RoleName() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Role != "":
		return r.Role
	default:
		return source.DisplayName(r.Src)
	}
}

// Requirements is a parsed requirements manifest.
type Requirements struct {
	Roles       []Requirement `yaml:"roles,omitempty"`
	Collections []Requirement `yaml:"collections,omitempty"`
}

// RoleMeta is the subset of meta/main.yml bigsudo reads.
type RoleMeta struct {
	GalaxyInfo   GalaxyInfo    `yaml:"galaxy_info"`
	Dependencies []Requirement `yaml:"dependencies,omitempty"`
}

// GalaxyInfo is the galaxy_info block of a role's metadata.
type GalaxyInfo struct {
	RoleName          string `yaml:"role_name,omitempty"`
	Namespace         string `yaml:"namespace,omitempty"`
	Author            string `yaml:"author,omitempty"`
	Description       string `yaml:"description,omitempty"`
	MinAnsibleVersion string `yaml:"min_ansible_version,omitempty"`
}

// File names inside a role directory.
const (
	RequirementsFile = "requirements.yml"
	MetaDir          = "meta"
	MetaFile         = "main.yml"
)
