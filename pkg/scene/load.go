package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScene is returned when a snapshot references data it does not contain.
var ErrInvalidScene = errors.New("invalid scene snapshot")

// Load reads a YAML (or JSON) snapshot from disk. Relative texture paths
// resolve against the snapshot's directory.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return Parse(data, abs)
}

// Parse decodes and validates a snapshot.
func Parse(data []byte, baseDir string) (*Scene, error) {
	s := &Scene{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	s.BaseDir = baseDir
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the references a reader would otherwise index out of range on.
func (s *Scene) Validate() error {
	if err := uniqueNames("object", len(s.Objects), func(i int) string { return s.Objects[i].Name }); err != nil {
		return err
	}
	if err := uniqueNames("mesh", len(s.Meshes), func(i int) string { return s.Meshes[i].Name }); err != nil {
		return err
	}
	if err := uniqueNames("material", len(s.Materials), func(i int) string { return s.Materials[i].Name }); err != nil {
		return err
	}
	if err := uniqueNames("armature", len(s.Armatures), func(i int) string { return s.Armatures[i].Name }); err != nil {
		return err
	}
	if err := uniqueNames("action", len(s.Actions), func(i int) string { return s.Actions[i].Name }); err != nil {
		return err
	}

	for _, a := range s.Armatures {
		bones := a.BoneList
		if err := uniqueNames("bone", len(bones), func(i int) string { return bones[i].Name }); err != nil {
			return fmt.Errorf("armature %q: %w", a.Name, err)
		}
	}

	for _, m := range s.Meshes {
		for fi, p := range m.Polygons {
			for li, l := range p.Loops {
				if l.Vertex < 0 || l.Vertex >= len(m.Vertices) {
					return fmt.Errorf("%w: mesh %q face %d loop %d: vertex %d out of range", ErrInvalidScene, m.Name, fi, li, l.Vertex)
				}
				if len(l.UV) != len(m.UVLayers) {
					return fmt.Errorf("%w: mesh %q face %d loop %d: %d uv values for %d layers", ErrInvalidScene, m.Name, fi, li, len(l.UV), len(m.UVLayers))
				}
			}
		}
	}

	for _, o := range s.Objects {
		if o.Type != TypeMesh {
			continue
		}
		if _, err := s.MeshSource(o); err != nil {
			return err
		}
		if _, err := s.ArmatureSource(o); err != nil {
			return err
		}
	}
	return nil
}

func uniqueNames(kind string, n int, name func(int) string) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		nm := name(i)
		if nm == "" {
			return fmt.Errorf("%w: %s %d has no name", ErrInvalidScene, kind, i)
		}
		if seen[nm] {
			return fmt.Errorf("%w: duplicate %s name %q", ErrInvalidScene, kind, nm)
		}
		seen[nm] = true
	}
	return nil
}

// Save writes the snapshot as YAML.
func (s *Scene) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
