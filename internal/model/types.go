// Package model holds the engine-ready model document produced by an export
// and its on-disk encoding.
package model

// Texture roles resolved for every submesh.
const (
	RoleDiffuse  = "diffuse"
	RoleNormal   = "normal"
	RoleMaterial = "material"
)

// Roles lists the texture roles in resolution order.
var Roles = []string{RoleDiffuse, RoleNormal, RoleMaterial}

// Document maps exported object names to their models.
type Document map[string]*Model

// Model is the export of one mesh object. Skeleton, Hierarchy and
// Animations are set only for skinned objects.
type Model struct {
	Skeleton   Skeleton
	Hierarchy  Hierarchy
	Animations map[string]*Animation
	Vertices   []Vertex
	Submeshes  map[string]*Submesh
}

// Skinned reports whether the model carries a skeleton.
func (m *Model) Skinned() bool {
	return m.Skeleton != nil
}

// Vertex is one entry of the deduplicated vertex buffer.
type Vertex struct {
	Position [3]float64 `json:"position"`
	Texcoord [2]float64 `json:"texcoord"`
	Normal   [3]float64 `json:"normal"`
	Indices  []int      `json:"indices,omitempty"`
	Weights  []float64  `json:"weights,omitempty"`
}

// Submesh is the triangle subset sharing one material.
type Submesh struct {
	Indices  [][3]int `json:"indices"`
	Textures Textures `json:"textures"`
}

// Textures holds resolved absolute texture paths, "" when unresolved.
type Textures struct {
	Diffuse  string `json:"diffuse"`
	Normal   string `json:"normal"`
	Material string `json:"material"`
}

// Set stores path under role. Unknown roles are ignored.
func (t *Textures) Set(role, path string) {
	switch role {
	case RoleDiffuse:
		t.Diffuse = path
	case RoleNormal:
		t.Normal = path
	case RoleMaterial:
		t.Material = path
	}
}

// Get returns the path stored under role.
func (t Textures) Get(role string) string {
	switch role {
	case RoleDiffuse:
		return t.Diffuse
	case RoleNormal:
		return t.Normal
	case RoleMaterial:
		return t.Material
	}
	return ""
}

// Bone is a bind-pose bone relative to its parent (identity for roots).
type Bone struct {
	Name        string     `json:"-"`
	ID          int        `json:"id"`
	Parent      *int       `json:"parent"`
	Rotation    [4]float64 `json:"rotation"` // w, x, y, z
	Translation [3]float64 `json:"translation"`
	Scale       [3]float64 `json:"scale"`
}

// Skeleton lists bones in ascending id order.
type Skeleton []Bone

// Lookup returns the bone with the given id.
func (s Skeleton) Lookup(id int) (Bone, bool) {
	for _, b := range s {
		if b.ID == id {
			return b, true
		}
	}
	return Bone{}, false
}

// HierarchyEntry lists the direct children of one bone in host order.
type HierarchyEntry struct {
	ID       int
	Children []int
}

// Hierarchy lists every bone's children in ascending id order.
type Hierarchy []HierarchyEntry

// Children returns the children of id.
func (h Hierarchy) Children(id int) []int {
	for _, e := range h {
		if e.ID == id {
			return e.Children
		}
	}
	return nil
}

// Animation is one action's reconstructed tracks keyed by bone name.
type Animation struct {
	Length float64           `json:"length"`
	Tracks map[string]*Track `json:"tracks"`
}

// Track holds a bone's keyframes per transform property.
type Track struct {
	ID          int        `json:"id"`
	Rotation    []Keyframe `json:"rotation,omitempty"`
	Translation []Keyframe `json:"translation,omitempty"`
	Scale       []Keyframe `json:"scale,omitempty"`
}

// Keyframe is one multi-component sample at a frame relative to the
// animation start.
type Keyframe struct {
	Frame float64   `json:"frame"`
	Data  []float64 `json:"data"`
}
