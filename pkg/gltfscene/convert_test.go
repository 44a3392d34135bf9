package gltfscene

import (
	gomath "math"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/zmdl/pkg/math"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// riggedDocument is a skinned quad with a two-joint skin and one animation
// rotating the tip joint.
func riggedDocument() *gltf.Document {
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0.25}, {0, 0}})
	joints := modeler.WriteJoints(doc, [][4]uint16{{0, 0, 0, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{1, 0, 0, 0}, {0.5, 0.5, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -2, 0, 1}},
	})

	doc.Images = []*gltf.Image{{URI: "textures/skin.png"}, {URI: "skin%20n.png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}, {Source: gltf.Index(1)}}
	doc.Materials = []*gltf.Material{{
		Name: "Skin",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
		NormalTexture: &gltf.NormalTexture{Index: gltf.Index(1)},
	}}

	doc.Meshes = []*gltf.Mesh{{
		Name: "Body",
		Primitives: []*gltf.Primitive{{
			Indices:  gltf.Index(indices),
			Material: gltf.Index(0),
			Attributes: map[string]uint32{
				gltf.POSITION:   pos,
				gltf.NORMAL:     nrm,
				gltf.TEXCOORD_0: uv,
				gltf.JOINTS_0:   joints,
				gltf.WEIGHTS_0:  weights,
			},
		}},
	}}

	doc.Nodes = []*gltf.Node{
		{Name: "Hero", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
		{Name: "root", Children: []uint32{2}},
		{Name: "tip"},
	}
	doc.Scenes[0].Nodes = []uint32{0, 1}
	doc.Skins = []*gltf.Skin{{
		Name:                "Rig",
		Joints:              []uint32{1, 2},
		InverseBindMatrices: gltf.Index(ibm),
	}}

	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 0.5})
	rot := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{{0, 0, 0, 1}, {0, 0, 0.6, 0.8}})
	doc.Animations = []*gltf.Animation{{
		Name:     "Wave",
		Samplers: []*gltf.AnimationSampler{{Input: gltf.Index(times), Output: gltf.Index(rot)}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(2), Path: gltf.TRSRotation},
		}},
	}}
	return doc
}

func TestConvert(t *testing.T) {
	s, err := Convert(riggedDocument(), Options{BaseDir: "/assets"})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("converted scene invalid: %v", err)
	}

	hero := s.Object("Hero")
	if hero == nil {
		t.Fatal("missing Hero object")
	}
	if hero.Type != scene.TypeMesh || hero.Users != 1 || !hero.Selected {
		t.Errorf("Hero = %+v", hero)
	}
	if hero.Armature != "Rig" {
		t.Errorf("Hero armature = %q, want Rig", hero.Armature)
	}
	if len(hero.VertexGroups) != 2 || hero.VertexGroups[0] != "root" || hero.VertexGroups[1] != "tip" {
		t.Errorf("vertex groups = %v", hero.VertexGroups)
	}
	if len(s.Objects) != 1 {
		t.Errorf("objects = %d, want only mesh nodes", len(s.Objects))
	}
}

func TestConvertMesh(t *testing.T) {
	s, err := Convert(riggedDocument(), Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	m := s.Mesh("Body")
	if m == nil {
		t.Fatal("missing Body mesh")
	}
	if len(m.Vertices) != 4 || len(m.Polygons) != 2 {
		t.Fatalf("mesh has %d vertices, %d polygons", len(m.Vertices), len(m.Polygons))
	}
	if len(m.UVLayers) != 1 || !m.UVLayers[0].Active {
		t.Errorf("uv layers = %+v", m.UVLayers)
	}
	for _, p := range m.Polygons {
		if !p.Smooth {
			t.Error("polygon with vertex normals is not smooth")
		}
	}

	// Vertex 2 has v = 0.25 in glTF.
	loop := m.Polygons[0].Loops[2]
	if loop.Vertex != 2 || loop.UV[0] != [2]float64{1, 0.75} {
		t.Errorf("loop = %+v, want vertex 2 uv [1 0.75]", loop)
	}

	groups := m.Vertices[1].Groups
	if len(groups) != 2 || groups[0].Group != 0 || groups[1].Group != 1 || groups[1].Weight != 0.5 {
		t.Errorf("vertex 1 groups = %+v", groups)
	}
	if len(m.Vertices[0].Groups) != 1 {
		t.Errorf("zero weights became memberships: %+v", m.Vertices[0].Groups)
	}
}

func TestConvertMaterials(t *testing.T) {
	s, err := Convert(riggedDocument(), Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	mat := s.Material("Skin")
	if mat == nil {
		t.Fatal("missing Skin material")
	}
	want := []scene.TextureSlot{
		{Name: "diffuse", Image: "//textures/skin.png"},
		{Name: "normal", Image: "//skin n.png"},
	}
	if len(mat.TextureSlots) != len(want) {
		t.Fatalf("slots = %+v, want %+v", mat.TextureSlots, want)
	}
	for i := range want {
		if mat.TextureSlots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, mat.TextureSlots[i], want[i])
		}
	}
	if got := s.Object("Hero").MaterialSlots; len(got) != 1 || got[0] != "Skin" {
		t.Errorf("material slots = %v", got)
	}
}

func TestConvertSkin(t *testing.T) {
	s, err := Convert(riggedDocument(), Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	arm := s.Armature("Rig")
	if arm == nil || len(arm.BoneList) != 2 {
		t.Fatalf("armature = %+v", arm)
	}
	root, tip := arm.BoneList[0], arm.BoneList[1]
	if root.Name != "root" || root.Parent != "" {
		t.Errorf("root = %q parent %q", root.Name, root.Parent)
	}
	if tip.Name != "tip" || tip.Parent != "root" {
		t.Errorf("tip = %q parent %q", tip.Name, tip.Parent)
	}
	want := math.FromRows([4][4]float64{{1, 0, 0, 0}, {0, 1, 0, 2}, {0, 0, 1, 0}, {0, 0, 0, 1}})
	if !math.ApproxEqual(math.FromRows(tip.Matrix), want, 1e-6) {
		t.Errorf("tip bind = %v, want translation (0, 2, 0)", tip.Matrix)
	}
}

func TestConvertAnimation(t *testing.T) {
	s, err := Convert(riggedDocument(), Options{FPS: 24})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(s.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(s.Actions))
	}
	action := s.Actions[0]
	if action.Name != "Wave" || action.Range != [2]float64{0, 12} {
		t.Errorf("action = %q range %v", action.Name, action.Range)
	}
	if len(action.FCurves) != 4 {
		t.Fatalf("curves = %d, want 4", len(action.FCurves))
	}

	// Curves sorted by index: w, x, y, z.
	wantLast := []float64{0.8, 0, 0, 0.6}
	for i, c := range action.FCurves {
		bone, prop, err := scene.ParseDataPath(c.DataPath)
		if err != nil || bone != "tip" || prop != "rotation_quaternion" {
			t.Errorf("curve %d path = %q", i, c.DataPath)
		}
		if c.ArrayIndex != i {
			t.Errorf("curve %d index = %d", i, c.ArrayIndex)
		}
		if len(c.Keyframes) != 2 || c.Keyframes[1][0] != 12 {
			t.Fatalf("curve %d keyframes = %v", i, c.Keyframes)
		}
		if gomath.Abs(c.Keyframes[1][1]-wantLast[i]) > 1e-6 {
			t.Errorf("curve %d last value = %v, want %v", i, c.Keyframes[1][1], wantLast[i])
		}
	}
	if got := s.ActionsFor(s.Armature("Rig")); len(got) != 1 {
		t.Errorf("ActionsFor = %d actions, want 1", len(got))
	}
}

func TestConvertStatic(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Attributes: map[string]uint32{gltf.POSITION: pos},
	}}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}

	s, err := Convert(doc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	o := s.Objects[0]
	if o.Name != "node_0" || o.Armature != "" || o.MaterialSlots != nil {
		t.Errorf("object = %+v", o)
	}
	m := s.Mesh(o.Mesh)
	if len(m.Polygons) != 1 || m.Polygons[0].Smooth || m.UVLayers != nil {
		t.Errorf("mesh = %+v", m)
	}
}

func TestConvertRejectsLines(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Mode:       gltf.PrimitiveLines,
		Attributes: map[string]uint32{gltf.POSITION: pos},
	}}}}
	doc.Nodes = []*gltf.Node{{Name: "Wire", Mesh: gltf.Index(0)}}

	_, err := Convert(doc, Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.glb")
	if err := gltf.SaveBinary(riggedDocument(), path); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}

	s, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", s.BaseDir, dir)
	}
	if s.Object("Hero") == nil || s.Armature("Rig") == nil || len(s.Actions) != 1 {
		t.Errorf("loaded scene incomplete: %d objects, %d actions", len(s.Objects), len(s.Actions))
	}
}
