package scene

import "fmt"

// MeshSource is the mesh capability the exporter consumes.
type MeshSource interface {
	MeshName() string
	Vertices() []Vertex
	Polygons() []Polygon
	// ActiveUV returns the index of the active UV layer.
	ActiveUV() (int, bool)
	// MaterialSlots returns one entry per object slot; nil marks an empty slot.
	MaterialSlots() []*Material
	VertexGroups() []string
}

// ArmatureSource is the armature capability the exporter consumes.
type ArmatureSource interface {
	ArmatureName() string
	// BindBones returns bones in host enumeration order.
	BindBones() []Bone
}

// ActionSource is the action capability the exporter consumes.
type ActionSource interface {
	ActionName() string
	// FrameRange returns the declared range. Implementations may fall back
	// to the keyframe span when the declared range is zero-width; the
	// snapshot Action does.
	FrameRange() (start, end float64)
	Curves() []Curve
}

// ArmatureName implements ArmatureSource.
func (a *Armature) ArmatureName() string { return a.Name }

// BindBones implements ArmatureSource.
func (a *Armature) BindBones() []Bone { return a.BoneList }

// ActionName implements ActionSource.
func (a *Action) ActionName() string { return a.Name }

// FrameRange implements ActionSource. An action without a declared range
// (start == end) spans its keyframes, the way the host derives it.
func (a *Action) FrameRange() (start, end float64) {
	if a.Range[0] != a.Range[1] {
		return a.Range[0], a.Range[1]
	}
	first := true
	for _, c := range a.FCurves {
		for _, k := range c.Keyframes {
			if first || k[0] < start {
				start = k[0]
			}
			if first || k[0] > end {
				end = k[0]
			}
			first = false
		}
	}
	if first {
		return a.Range[0], a.Range[1]
	}
	return start, end
}

// Curves implements ActionSource.
func (a *Action) Curves() []Curve { return a.FCurves }

// objectMesh binds a mesh data block to the object using it; vertex groups
// and material slots belong to the object, geometry to the mesh.
type objectMesh struct {
	obj   *Object
	mesh  *Mesh
	slots []*Material
}

func (m *objectMesh) MeshName() string           { return m.mesh.Name }
func (m *objectMesh) Vertices() []Vertex         { return m.mesh.Vertices }
func (m *objectMesh) Polygons() []Polygon        { return m.mesh.Polygons }
func (m *objectMesh) MaterialSlots() []*Material { return m.slots }
func (m *objectMesh) VertexGroups() []string     { return m.obj.VertexGroups }

// ActiveUV returns the layer flagged active, else the first layer.
func (m *objectMesh) ActiveUV() (int, bool) {
	if len(m.mesh.UVLayers) == 0 {
		return 0, false
	}
	for i, l := range m.mesh.UVLayers {
		if l.Active {
			return i, true
		}
	}
	return 0, true
}

// MeshSource returns the mesh capability of a MESH object.
func (s *Scene) MeshSource(o *Object) (MeshSource, error) {
	mesh := s.Mesh(o.Mesh)
	if mesh == nil {
		return nil, fmt.Errorf("%w: object %q references unknown mesh %q", ErrInvalidScene, o.Name, o.Mesh)
	}
	slots := make([]*Material, len(o.MaterialSlots))
	for i, name := range o.MaterialSlots {
		if name == "" {
			continue
		}
		mat := s.Material(name)
		if mat == nil {
			return nil, fmt.Errorf("%w: object %q slot %d references unknown material %q", ErrInvalidScene, o.Name, i, name)
		}
		slots[i] = mat
	}
	return &objectMesh{obj: o, mesh: mesh, slots: slots}, nil
}

// ArmatureSource returns the armature deforming o, or nil when o is static.
func (s *Scene) ArmatureSource(o *Object) (ArmatureSource, error) {
	if o.Armature == "" {
		return nil, nil
	}
	arm := s.Armature(o.Armature)
	if arm == nil {
		return nil, fmt.Errorf("%w: object %q references unknown armature %q", ErrInvalidScene, o.Name, o.Armature)
	}
	return arm, nil
}

// ActionsFor returns the actions animating at least one bone of arm, in
// scene order.
func (s *Scene) ActionsFor(arm ArmatureSource) []ActionSource {
	bones := make(map[string]bool)
	for _, b := range arm.BindBones() {
		bones[b.Name] = true
	}

	var out []ActionSource
	for _, a := range s.Actions {
		for _, c := range a.FCurves {
			bone, _, err := ParseDataPath(c.DataPath)
			if err == nil && bones[bone] {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
