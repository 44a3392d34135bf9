package mesh

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/zmdl/internal/geometry"
	"github.com/Faultbox/zmdl/internal/logger"
	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/math"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// Options controls one mesh build.
type Options struct {
	// Object names the exported object in logs and errors.
	Object string
	// BaseDir resolves scene-relative texture paths.
	BaseDir string
	// Bones enables skinning. Nil for static objects.
	Bones BoneLookup
}

// Result is the geometry of one exported object.
type Result struct {
	Vertices  []model.Vertex
	Submeshes map[string]*model.Submesh
	Triangles int
	Skipped   int
}

// Build triangulates every face of src, deduplicates its corners into a
// vertex buffer, binds skin weights when opts.Bones is set, and sorts the
// triangles into per-material submeshes.
func Build(src scene.MeshSource, opts Options) (*Result, error) {
	uvLayer, ok := src.ActiveUV()
	if !ok {
		return nil, errors.Wrapf(model.ErrConfiguration, "mesh %q has no active UV layer", src.MeshName())
	}

	slots := src.MaterialSlots()
	submeshes, slotKeys := partition(opts.Object, slots, opts.BaseDir)
	groups := src.VertexGroups()
	skinned := opts.Bones != nil

	dedup := NewDeduplicator()
	vertices := src.Vertices()
	res := &Result{Submeshes: submeshes}

	for fi, poly := range src.Polygons() {
		key := DefaultSubmesh
		if len(slots) > 0 {
			if poly.Material < 0 || poly.Material >= len(slotKeys) {
				return nil, errors.Wrapf(model.ErrDataIntegrity,
					"face %d: material index %d out of range (%d slots)", fi, poly.Material, len(slotKeys))
			}
			key = slotKeys[poly.Material]
			if key == "" {
				logger.Warn("skipping face with unused material slot",
					zap.String("object", opts.Object),
					zap.Int("face", fi),
					zap.Int("slot", poly.Material))
				res.Skipped++
				continue
			}
		}

		points := make([]math.Vec3, len(poly.Loops))
		for i, l := range poly.Loops {
			if l.Vertex < 0 || l.Vertex >= len(vertices) {
				return nil, errors.Wrapf(model.ErrDataIntegrity,
					"face %d: loop %d references vertex %d of %d", fi, i, l.Vertex, len(vertices))
			}
			points[i] = math.Vec3(vertices[l.Vertex].Co)
		}
		tris, err := geometry.Triangulate(points)
		if err != nil {
			return nil, errors.Wrapf(err, "face %d", fi)
		}
		flat := faceNormal(poly, points)

		sm := submeshes[key]
		for _, tri := range tris {
			var out [3]int
			for c, li := range tri {
				loop := poly.Loops[li]
				hv := vertices[loop.Vertex]
				if uvLayer >= len(loop.UV) {
					return nil, errors.Wrapf(model.ErrDataIntegrity,
						"face %d: loop %d has no UV for layer %d", fi, li, uvLayer)
				}
				uv := loop.UV[uvLayer]

				v := model.Vertex{
					Position: hv.Co,
					Texcoord: [2]float64{uv[0], 1 - uv[1]},
					Normal:   flat,
				}
				if poly.Smooth {
					v.Normal = hv.Normal
				}

				idx, fresh := dedup.Add(v)
				if skinned {
					indices, weights, err := BindSkin(hv, groups, opts.Bones)
					if err != nil {
						return nil, errors.Wrapf(err, "face %d vertex %d", fi, loop.Vertex)
					}
					if fresh {
						dedup.SetSkin(idx, indices, weights)
					}
				}
				out[c] = idx
			}
			sm.Indices = append(sm.Indices, out)
			res.Triangles++
		}
	}

	res.Vertices = dedup.Vertices()
	return res, nil
}

// faceNormal returns the host face normal, or the Newell normal of the
// corners when the host left it unset.
func faceNormal(poly scene.Polygon, points []math.Vec3) [3]float64 {
	if poly.Normal != ([3]float64{}) {
		return poly.Normal
	}
	return math.NewellNormal(points)
}
