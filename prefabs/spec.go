package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SceneSpec describes a scene graph of bodies, memberships and joints.
// Nodes are listed parents first.
type SceneSpec struct {
	Name    string     `yaml:"name"`
	Gravity float64    `yaml:"gravity"`
	Script  string     `yaml:"script"`
	Nodes   []NodeSpec `yaml:"nodes"`
}

type NodeSpec struct {
	Name       string         `yaml:"name"`
	Parent     string         `yaml:"parent"`
	Components map[string]any `yaml:"components"`
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

func LoadSceneSpec(filename string) (SceneSpec, error) {
	spec, err := LoadSpec[SceneSpec](filename)
	if err != nil {
		return SceneSpec{}, err
	}
	return spec, spec.Validate()
}

// DecodeSceneSpec parses a scene from raw YAML.
func DecodeSceneSpec(data []byte) (SceneSpec, error) {
	var spec SceneSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return SceneSpec{}, fmt.Errorf("prefabs: unmarshal scene: %w", err)
	}
	return spec, spec.Validate()
}

// Validate checks that node names are unique and that every parent is
// declared before its children.
func (s SceneSpec) Validate() error {
	seen := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.Name == "" {
			return fmt.Errorf("prefabs: scene %q: node %d has no name", s.Name, i)
		}
		if seen[n.Name] {
			return fmt.Errorf("prefabs: scene %q: duplicate node %q", s.Name, n.Name)
		}
		if n.Parent != "" && !seen[n.Parent] {
			return fmt.Errorf("prefabs: scene %q: node %q has undeclared parent %q", s.Name, n.Name, n.Parent)
		}
		seen[n.Name] = true
	}
	return nil
}
