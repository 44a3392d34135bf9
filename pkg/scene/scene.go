// Package scene describes the read-only host scene snapshot the exporter
// consumes: mesh objects, materials, armatures and keyframe actions.
//
// The exporter core depends only on the capability interfaces declared here
// (MeshSource, ArmatureSource, ActionSource). Scene and its element types are
// the concrete snapshot used by the YAML loader and the glTF adapter.
package scene

import "strings"

// Object types.
const (
	TypeMesh     = "MESH"
	TypeArmature = "ARMATURE"
	TypeEmpty    = "EMPTY"
)

// HelperPrefix marks rig helper/widget objects that are never exported.
const HelperPrefix = "WGT"

// Scene is a snapshot of everything one export reads.
type Scene struct {
	Objects   []*Object   `yaml:"objects"`
	Meshes    []*Mesh     `yaml:"meshes"`
	Materials []*Material `yaml:"materials"`
	Armatures []*Armature `yaml:"armatures"`
	Actions   []*Action   `yaml:"actions"`

	// BaseDir resolves relative and "//"-prefixed texture paths.
	BaseDir string `yaml:"-"`
}

// Object is a scene object referencing its data blocks by name.
type Object struct {
	Name          string   `yaml:"name"`
	Type          string   `yaml:"type"`
	Users         int      `yaml:"users"`
	Selected      bool     `yaml:"selected"`
	Mesh          string   `yaml:"mesh,omitempty"`
	Armature      string   `yaml:"armature,omitempty"`       // armature deforming this object
	MaterialSlots []string `yaml:"material_slots,omitempty"` // material names, "" for an empty slot
	VertexGroups  []string `yaml:"vertex_groups,omitempty"`  // group names, indexed by GroupWeight.Group
}

// Mesh holds polygon data in object space.
type Mesh struct {
	Name     string    `yaml:"name"`
	Vertices []Vertex  `yaml:"vertices"`
	Polygons []Polygon `yaml:"polygons"`
	UVLayers []UVLayer `yaml:"uv_layers,omitempty"`
}

// Vertex is a mesh vertex shared by the loops of adjacent polygons.
type Vertex struct {
	Co     [3]float64    `yaml:"co"`
	Normal [3]float64    `yaml:"normal"`
	Groups []GroupWeight `yaml:"groups,omitempty"`
}

// GroupWeight is a vertex-group membership.
type GroupWeight struct {
	Group  int     `yaml:"group"`
	Weight float64 `yaml:"weight"`
}

// Polygon is an n-gon face. Normal may be left zero; it is then computed
// from the loop positions.
type Polygon struct {
	Loops    []Loop     `yaml:"loops"`
	Smooth   bool       `yaml:"smooth"`
	Normal   [3]float64 `yaml:"normal,omitempty"`
	Material int        `yaml:"material"`
}

// Loop is a polygon corner. UV holds one coordinate per mesh UV layer.
type Loop struct {
	Vertex int          `yaml:"vertex"`
	UV     [][2]float64 `yaml:"uv,omitempty"`
}

// UVLayer names a texture coordinate channel.
type UVLayer struct {
	Name   string `yaml:"name"`
	Active bool   `yaml:"active,omitempty"`
}

// Material carries the texture bindings searched during role resolution.
type Material struct {
	Name         string        `yaml:"name"`
	Users        int           `yaml:"users"`
	TextureSlots []TextureSlot `yaml:"texture_slots,omitempty"`
}

// TextureSlot binds an image file under a slot name.
type TextureSlot struct {
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
}

// Armature is a bone list in host enumeration order.
type Armature struct {
	Name     string `yaml:"name"`
	BoneList []Bone `yaml:"bones"`
}

// Bone is a bind-pose bone. Matrix is the armature-space bind matrix in
// row-major order.
type Bone struct {
	Name   string        `yaml:"name"`
	Parent string        `yaml:"parent,omitempty"`
	Matrix [4][4]float64 `yaml:"matrix"`
}

// Action is a named set of keyframe curves.
type Action struct {
	Name    string     `yaml:"name"`
	Range   [2]float64 `yaml:"frame_range"` // declared start and end frame
	FCurves []Curve    `yaml:"curves"`
}

// Curve animates one scalar component of one property.
type Curve struct {
	DataPath   string       `yaml:"data_path"`
	ArrayIndex int          `yaml:"array_index"`
	Keyframes  [][2]float64 `yaml:"keyframes"` // (frame, value)
}

// Object lookup by name; nil when absent.
func (s *Scene) Object(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Mesh lookup by name; nil when absent.
func (s *Scene) Mesh(name string) *Mesh {
	for _, m := range s.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Material lookup by name; nil when absent.
func (s *Scene) Material(name string) *Material {
	for _, m := range s.Materials {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Armature lookup by name; nil when absent.
func (s *Scene) Armature(name string) *Armature {
	for _, a := range s.Armatures {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Exportable returns the mesh objects an export should visit, in scene
// order: type MESH, referenced at least once, not a helper widget and,
// when selectedOnly is set, selected.
func (s *Scene) Exportable(selectedOnly bool) []*Object {
	var out []*Object
	for _, o := range s.Objects {
		if o.Type != TypeMesh || o.Users <= 0 {
			continue
		}
		if strings.HasPrefix(o.Name, HelperPrefix) {
			continue
		}
		if selectedOnly && !o.Selected {
			continue
		}
		out = append(out, o)
	}
	return out
}
