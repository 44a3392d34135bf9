package mesh

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// MaxInfluences is the number of bones one vertex may be bound to.
const MaxInfluences = 4

// DefaultBone receives vertices that belong to no vertex group.
const DefaultBone = 0

// BoneLookup resolves vertex-group names to bone ids. Lookups never
// allocate ids; the skeleton is built first.
type BoneLookup interface {
	Lookup(name string) (int, bool)
}

// BindSkin returns the (bone id, weight) pairs of a vertex. Weights are
// copied as authored, without renormalization. A vertex with no groups is
// bound to DefaultBone with full weight.
func BindSkin(v scene.Vertex, groups []string, bones BoneLookup) ([]int, []float64, error) {
	if len(v.Groups) > MaxInfluences {
		return nil, nil, errors.Wrapf(model.ErrDataIntegrity,
			"vertex assigned to too many vertex groups (%d, max %d)", len(v.Groups), MaxInfluences)
	}
	if len(v.Groups) == 0 {
		return []int{DefaultBone}, []float64{1.0}, nil
	}

	indices := make([]int, 0, len(v.Groups))
	weights := make([]float64, 0, len(v.Groups))
	for _, g := range v.Groups {
		if g.Group < 0 || g.Group >= len(groups) {
			return nil, nil, errors.Wrapf(model.ErrDataIntegrity,
				"vertex group index %d out of range (%d groups)", g.Group, len(groups))
		}
		id, ok := bones.Lookup(groups[g.Group])
		if !ok {
			return nil, nil, errors.Wrapf(model.ErrDataIntegrity,
				"vertex group %q has no matching bone", groups[g.Group])
		}
		indices = append(indices, id)
		weights = append(weights, g.Weight)
	}
	return indices, weights, nil
}
