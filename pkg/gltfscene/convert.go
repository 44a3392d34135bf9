// Package gltfscene converts glTF 2.0 documents into scene snapshots so they
// can be exported like any other scene.
package gltfscene

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/zmdl/pkg/math"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// DefaultFPS converts keyframe times to frames when Options.FPS is unset.
const DefaultFPS = 24

// Texture slot names; they carry the texture role they feed.
const (
	slotDiffuse  = "diffuse"
	slotNormal   = "normal"
	slotMaterial = "material"
)

const uvLayerName = "UVMap"

// ErrUnsupported marks glTF content the converter cannot represent.
var ErrUnsupported = errors.New("unsupported glTF content")

// Options controls conversion.
type Options struct {
	FPS     float64
	BaseDir string
}

// Load opens a .gltf or .glb file and converts it. Image URIs are resolved
// against the file's directory.
func Load(path string, opts Options) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read gltf %s", path)
	}
	if opts.BaseDir == "" {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		opts.BaseDir = dir
	}
	return Convert(doc, opts)
}

type converter struct {
	doc   *gltf.Document
	opts  Options
	s     *scene.Scene
	names []string // unique node names
	// parent of each node, -1 for roots
	parent []int
	// armature name per skin
	armatures []string
	materials []string
}

// Convert builds a scene snapshot from doc.
//
// Every node with a mesh becomes a selected MESH object. Skins become
// armatures whose bones are the skin's joints, and animation channels that
// target joints become pose-bone curves.
func Convert(doc *gltf.Document, opts Options) (*scene.Scene, error) {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	c := &converter{
		doc:  doc,
		opts: opts,
		s:    &scene.Scene{BaseDir: opts.BaseDir},
	}
	c.indexNodes()

	c.convertMaterials()
	if err := c.convertSkins(); err != nil {
		return nil, err
	}
	if err := c.convertMeshes(); err != nil {
		return nil, err
	}
	if err := c.convertAnimations(); err != nil {
		return nil, err
	}
	return c.s, nil
}

// uniqueName returns name, or name with a numeric suffix when taken.
func uniqueName(name string, taken map[string]bool) string {
	out := name
	for i := 1; taken[out]; i++ {
		out = fmt.Sprintf("%s.%03d", name, i)
	}
	taken[out] = true
	return out
}

func (c *converter) indexNodes() {
	taken := make(map[string]bool)
	c.names = make([]string, len(c.doc.Nodes))
	c.parent = make([]int, len(c.doc.Nodes))
	for i := range c.parent {
		c.parent[i] = -1
	}
	for i, n := range c.doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		c.names[i] = uniqueName(name, taken)
		for _, child := range n.Children {
			if int(child) < len(c.parent) {
				c.parent[child] = i
			}
		}
	}
}

func (c *converter) convertMaterials() {
	taken := make(map[string]bool)
	c.materials = make([]string, len(c.doc.Materials))
	for i, m := range c.doc.Materials {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		mat := &scene.Material{Name: uniqueName(name, taken), Users: 1}
		c.materials[i] = mat.Name

		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorTexture != nil {
				c.addSlot(mat, slotDiffuse, pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				c.addSlot(mat, slotMaterial, pbr.MetallicRoughnessTexture.Index)
			}
		}
		if m.NormalTexture != nil && m.NormalTexture.Index != nil {
			c.addSlot(mat, slotNormal, *m.NormalTexture.Index)
		}
		c.s.Materials = append(c.s.Materials, mat)
	}
}

// addSlot adds a texture slot for an external image. Embedded images have
// no path and are skipped.
func (c *converter) addSlot(mat *scene.Material, name string, texture uint32) {
	if int(texture) >= len(c.doc.Textures) {
		return
	}
	src := c.doc.Textures[texture].Source
	if src == nil || int(*src) >= len(c.doc.Images) {
		return
	}
	uri := c.doc.Images[*src].URI
	if uri == "" || strings.HasPrefix(uri, "data:") {
		return
	}
	if unescaped, err := url.PathUnescape(uri); err == nil {
		uri = unescaped
	}
	if !filepath.IsAbs(uri) {
		uri = "//" + uri
	}
	mat.TextureSlots = append(mat.TextureSlots, scene.TextureSlot{Name: name, Image: uri})
}

func (c *converter) convertSkins() error {
	taken := make(map[string]bool)
	c.armatures = make([]string, len(c.doc.Skins))
	for si, skin := range c.doc.Skins {
		name := skin.Name
		if name == "" {
			name = fmt.Sprintf("armature_%d", si)
		}
		arm := &scene.Armature{Name: uniqueName(name, taken)}
		c.armatures[si] = arm.Name

		var ibms [][4][4]float32
		if skin.InverseBindMatrices != nil {
			data, err := c.readAccessor(*skin.InverseBindMatrices)
			if err != nil {
				return errors.Wrapf(err, "Failed to read skin %q inverse bind matrices", arm.Name)
			}
			m, ok := data.([][4][4]float32)
			if !ok || len(m) < len(skin.Joints) {
				return errors.Wrapf(ErrUnsupported, "skin %q: inverse bind matrices do not match joints", arm.Name)
			}
			ibms = m
		}

		joints := make(map[int]bool, len(skin.Joints))
		for _, j := range skin.Joints {
			joints[int(j)] = true
		}

		for ji, j := range skin.Joints {
			if int(j) >= len(c.doc.Nodes) {
				return errors.Wrapf(ErrUnsupported, "skin %q: joint %d references missing node %d", arm.Name, ji, j)
			}
			bind := mgl64.Ident4()
			if ibms != nil {
				bind = columnMajor(ibms[ji]).Inv()
			}
			bone := scene.Bone{Name: c.names[j], Matrix: math.ToRows(bind)}
			for p := c.parent[j]; p >= 0; p = c.parent[p] {
				if joints[p] {
					bone.Parent = c.names[p]
					break
				}
			}
			arm.BoneList = append(arm.BoneList, bone)
		}
		c.s.Armatures = append(c.s.Armatures, arm)
	}
	return nil
}

// columnMajor converts a glTF MAT4 element, stored column by column.
func columnMajor(m [4][4]float32) mgl64.Mat4 {
	var out mgl64.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] = float64(m[col][row])
		}
	}
	return out
}

func (c *converter) readAccessor(index uint32) (interface{}, error) {
	if int(index) >= len(c.doc.Accessors) {
		return nil, errors.Wrapf(ErrUnsupported, "accessor %d out of range", index)
	}
	return modeler.ReadAccessor(c.doc, c.doc.Accessors[index], nil)
}

func (c *converter) convertMeshes() error {
	meshNames := make(map[uint32]string)
	taken := make(map[string]bool)

	for ni, node := range c.doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		if int(*node.Mesh) >= len(c.doc.Meshes) {
			return errors.Wrapf(ErrUnsupported, "node %q references missing mesh %d", c.names[ni], *node.Mesh)
		}
		gm := c.doc.Meshes[*node.Mesh]

		obj := &scene.Object{
			Name:     c.names[ni],
			Type:     scene.TypeMesh,
			Users:    1,
			Selected: true,
		}
		if node.Skin != nil && int(*node.Skin) < len(c.doc.Skins) {
			obj.Armature = c.armatures[*node.Skin]
			for _, j := range c.doc.Skins[*node.Skin].Joints {
				obj.VertexGroups = append(obj.VertexGroups, c.names[j])
			}
		}
		obj.MaterialSlots = c.materialSlots(gm)

		name, ok := meshNames[*node.Mesh]
		if !ok {
			mesh, err := c.convertMesh(gm, obj.MaterialSlots, taken)
			if err != nil {
				return errors.Wrapf(err, "mesh of node %q", obj.Name)
			}
			c.s.Meshes = append(c.s.Meshes, mesh)
			name = mesh.Name
			meshNames[*node.Mesh] = name
		}
		obj.Mesh = name
		c.s.Objects = append(c.s.Objects, obj)
	}
	return nil
}

// materialSlots lists the materials of gm's primitives in first-use order.
// Primitives without a material share a slot holding an untextured
// fallback material, added only when another primitive has one.
func (c *converter) materialSlots(gm *gltf.Mesh) []string {
	var slots []string
	seen := make(map[string]bool)
	hasMaterial := false
	for _, p := range gm.Primitives {
		if p.Material != nil && int(*p.Material) < len(c.materials) {
			hasMaterial = true
		}
	}
	if !hasMaterial {
		return nil
	}
	for _, p := range gm.Primitives {
		name := c.primitiveMaterial(p)
		if !seen[name] {
			seen[name] = true
			slots = append(slots, name)
		}
	}
	return slots
}

const fallbackMaterial = "default"

func (c *converter) primitiveMaterial(p *gltf.Primitive) string {
	if p.Material != nil && int(*p.Material) < len(c.materials) {
		return c.materials[*p.Material]
	}
	if c.s.Material(fallbackMaterial) == nil {
		c.s.Materials = append(c.s.Materials, &scene.Material{Name: fallbackMaterial, Users: 1})
	}
	return fallbackMaterial
}

func (c *converter) convertMesh(gm *gltf.Mesh, slots []string, taken map[string]bool) (*scene.Mesh, error) {
	name := gm.Name
	if name == "" {
		name = "mesh"
	}
	mesh := &scene.Mesh{Name: uniqueName(name, taken)}

	hasUV := false
	for _, p := range gm.Primitives {
		if _, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
			hasUV = true
		}
	}
	if hasUV {
		mesh.UVLayers = []scene.UVLayer{{Name: uvLayerName, Active: true}}
	}

	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return nil, errors.Wrapf(ErrUnsupported, "primitive %d: mode %v is not triangles", pi, p.Mode)
		}
		material := 0
		if slots != nil {
			name := c.primitiveMaterial(p)
			for i, s := range slots {
				if s == name {
					material = i
				}
			}
		}
		if err := c.appendPrimitive(mesh, p, material, hasUV); err != nil {
			return nil, errors.Wrapf(err, "primitive %d", pi)
		}
	}
	return mesh, nil
}

func (c *converter) appendPrimitive(mesh *scene.Mesh, p *gltf.Primitive, material int, hasUV bool) error {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok || int(posIdx) >= len(c.doc.Accessors) {
		return errors.Wrap(ErrUnsupported, "no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(c.doc, c.doc.Accessors[posIdx], nil)
	if err != nil {
		return errors.Wrapf(err, "Failed to read positions")
	}

	var normals [][3]float32
	if idx, ok := p.Attributes[gltf.NORMAL]; ok && int(idx) < len(c.doc.Accessors) {
		if normals, err = modeler.ReadNormal(c.doc, c.doc.Accessors[idx], nil); err != nil {
			return errors.Wrapf(err, "Failed to read normals")
		}
	}
	var uvs [][2]float32
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok && int(idx) < len(c.doc.Accessors) {
		if uvs, err = modeler.ReadTextureCoord(c.doc, c.doc.Accessors[idx], nil); err != nil {
			return errors.Wrapf(err, "Failed to read texture coordinates")
		}
	}
	var joints [][4]uint16
	var weights [][4]float32
	if ji, ok := p.Attributes[gltf.JOINTS_0]; ok && int(ji) < len(c.doc.Accessors) {
		wi, ok := p.Attributes[gltf.WEIGHTS_0]
		if !ok || int(wi) >= len(c.doc.Accessors) {
			return errors.Wrap(ErrUnsupported, "JOINTS_0 without WEIGHTS_0")
		}
		if joints, err = modeler.ReadJoints(c.doc, c.doc.Accessors[ji], nil); err != nil {
			return errors.Wrapf(err, "Failed to read joints")
		}
		if weights, err = modeler.ReadWeights(c.doc, c.doc.Accessors[wi], nil); err != nil {
			return errors.Wrapf(err, "Failed to read weights")
		}
	}

	offset := len(mesh.Vertices)
	for i, pos := range positions {
		v := scene.Vertex{Co: [3]float64{float64(pos[0]), float64(pos[1]), float64(pos[2])}}
		if i < len(normals) {
			v.Normal = [3]float64{float64(normals[i][0]), float64(normals[i][1]), float64(normals[i][2])}
		}
		if i < len(joints) && i < len(weights) {
			for k := 0; k < 4; k++ {
				if weights[i][k] > 0 {
					v.Groups = append(v.Groups, scene.GroupWeight{Group: int(joints[i][k]), Weight: float64(weights[i][k])})
				}
			}
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	var indices []uint32
	if p.Indices != nil && int(*p.Indices) < len(c.doc.Accessors) {
		if indices, err = modeler.ReadIndices(c.doc, c.doc.Accessors[*p.Indices], nil); err != nil {
			return errors.Wrapf(err, "Failed to read indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return errors.Wrapf(ErrUnsupported, "%d indices do not form triangles", len(indices))
	}

	for t := 0; t < len(indices); t += 3 {
		poly := scene.Polygon{Material: material, Smooth: normals != nil}
		for _, idx := range indices[t : t+3] {
			if int(idx) >= len(positions) {
				return errors.Wrapf(ErrUnsupported, "index %d out of range", idx)
			}
			l := scene.Loop{Vertex: offset + int(idx)}
			if hasUV {
				var uv [2]float64
				if int(idx) < len(uvs) {
					// glTF texcoords run top-down; scenes store them bottom-up.
					uv = [2]float64{float64(uvs[idx][0]), 1 - float64(uvs[idx][1])}
				}
				l.UV = [][2]float64{uv}
			}
			poly.Loops = append(poly.Loops, l)
		}
		mesh.Polygons = append(mesh.Polygons, poly)
	}
	return nil
}

// jointNames maps every node used as a joint to its bone name.
func (c *converter) jointNames() map[uint32]string {
	out := make(map[uint32]string)
	for _, skin := range c.doc.Skins {
		for _, j := range skin.Joints {
			if int(j) < len(c.names) {
				out[j] = c.names[j]
			}
		}
	}
	return out
}

func (c *converter) convertAnimations() error {
	joints := c.jointNames()
	taken := make(map[string]bool)

	for ai, anim := range c.doc.Animations {
		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("action_%d", ai)
		}
		action := &scene.Action{Name: uniqueName(name, taken)}

		first := true
		for ci, ch := range anim.Channels {
			if ch.Target.Node == nil || ch.Sampler == nil {
				continue
			}
			bone, ok := joints[*ch.Target.Node]
			if !ok {
				continue
			}
			property, order, ok := channelProperty(ch.Target.Path)
			if !ok {
				continue
			}
			if int(*ch.Sampler) >= len(anim.Samplers) {
				return errors.Wrapf(ErrUnsupported, "animation %q channel %d: missing sampler", action.Name, ci)
			}
			curves, err := c.channelCurves(anim.Samplers[*ch.Sampler], bone, property, order)
			if err != nil {
				return errors.Wrapf(err, "animation %q channel %d", action.Name, ci)
			}
			for _, cv := range curves {
				for _, k := range cv.Keyframes {
					if first || k[0] < action.Range[0] {
						action.Range[0] = k[0]
					}
					if first || k[0] > action.Range[1] {
						action.Range[1] = k[0]
					}
					first = false
				}
			}
			action.FCurves = append(action.FCurves, curves...)
		}
		if len(action.FCurves) == 0 {
			continue
		}
		sort.SliceStable(action.FCurves, func(i, j int) bool {
			if action.FCurves[i].DataPath != action.FCurves[j].DataPath {
				return action.FCurves[i].DataPath < action.FCurves[j].DataPath
			}
			return action.FCurves[i].ArrayIndex < action.FCurves[j].ArrayIndex
		})
		c.s.Actions = append(c.s.Actions, action)
	}
	return nil
}

// channelProperty maps a glTF target path to the pose-bone property and
// the array index of each glTF component.
func channelProperty(path gltf.TRSProperty) (string, []int, bool) {
	switch path {
	case gltf.TRSTranslation:
		return "location", []int{0, 1, 2}, true
	case gltf.TRSRotation:
		// glTF stores x, y, z, w; pose bones w, x, y, z.
		return "rotation_quaternion", []int{1, 2, 3, 0}, true
	case gltf.TRSScale:
		return "scale", []int{0, 1, 2}, true
	}
	return "", nil, false
}

func (c *converter) channelCurves(s *gltf.AnimationSampler, bone, property string, order []int) ([]scene.Curve, error) {
	if s.Input == nil || s.Output == nil {
		return nil, errors.Wrap(ErrUnsupported, "sampler without input or output")
	}
	in, err := c.readAccessor(*s.Input)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read sampler input")
	}
	times, ok := in.([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "sampler input is %T", in)
	}
	out, err := c.readAccessor(*s.Output)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read sampler output")
	}

	var values [][]float32
	switch v := out.(type) {
	case [][3]float32:
		for i := range v {
			values = append(values, v[i][:])
		}
	case [][4]float32:
		for i := range v {
			values = append(values, v[i][:])
		}
	default:
		return nil, errors.Wrapf(ErrUnsupported, "sampler output is %T", out)
	}

	// Cubic spline samples are (in-tangent, value, out-tangent) triples.
	stride, mid := 1, 0
	if s.Interpolation == gltf.InterpolationCubicSpline {
		stride, mid = 3, 1
	}
	if len(values) < len(times)*stride {
		return nil, errors.Wrapf(ErrUnsupported, "%d outputs for %d inputs", len(values), len(times))
	}

	path := scene.PoseBonePath(bone, property)
	curves := make([]scene.Curve, len(order))
	for comp, index := range order {
		curves[comp] = scene.Curve{DataPath: path, ArrayIndex: index}
	}
	for i, t := range times {
		frame := float64(t) * c.opts.FPS
		value := values[i*stride+mid]
		for comp := range order {
			if comp >= len(value) {
				return nil, errors.Wrapf(ErrUnsupported, "%s output has %d components", property, len(value))
			}
			curves[comp].Keyframes = append(curves[comp].Keyframes, [2]float64{frame, float64(value[comp])})
		}
	}
	return curves, nil
}
