package skeleton

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/math"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// Build converts the bind pose of arm into parent-relative bones.
//
// Bones are visited in host order. Each visit assigns the bone's id and
// then its parent's, so a parent listed after its child still gets the
// larger id. Roots keep their armature-space transform.
func Build(arm scene.ArmatureSource, ids *IDs) (model.Skeleton, model.Hierarchy, error) {
	bones := arm.BindBones()
	byName := make(map[string]*scene.Bone, len(bones))
	for i := range bones {
		byName[bones[i].Name] = &bones[i]
	}

	skel := make(model.Skeleton, 0, len(bones))
	children := make(map[int][]int, len(bones))

	for _, b := range bones {
		id := ids.Assign(b.Name)
		bind := math.FromRows(b.Matrix)
		local := bind

		var parentID *int
		if b.Parent != "" {
			parent, ok := byName[b.Parent]
			if !ok {
				return nil, nil, errors.Wrapf(model.ErrDataIntegrity,
					"armature %q: bone %q has unknown parent %q", arm.ArmatureName(), b.Name, b.Parent)
			}
			pid := ids.Assign(parent.Name)
			parentID = &pid
			children[pid] = append(children[pid], id)
			local = math.Relative(math.FromRows(parent.Matrix), bind)
		}

		t := math.Decompose(local)
		skel = append(skel, model.Bone{
			Name:        b.Name,
			ID:          id,
			Parent:      parentID,
			Rotation:    math.QuatWXYZ(t.Rotation),
			Translation: t.Translation,
			Scale:       t.Scale,
		})
	}

	sort.Slice(skel, func(i, j int) bool { return skel[i].ID < skel[j].ID })

	hier := make(model.Hierarchy, 0, len(skel))
	for _, b := range skel {
		kids := children[b.ID]
		if kids == nil {
			kids = []int{}
		}
		hier = append(hier, model.HierarchyEntry{ID: b.ID, Children: kids})
	}
	return skel, hier, nil
}
