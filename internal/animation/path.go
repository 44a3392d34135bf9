// Package animation rebuilds per-bone keyframe tracks from an action's
// single-component curves.
package animation

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// Property is a bone transform property that can be animated.
type Property int

const (
	Rotation Property = iota
	Translation
	Scale
)

// Host property names.
const (
	hostRotation    = "rotation_quaternion"
	hostTranslation = "location"
	hostScale       = "scale"
)

// Channels returns the number of components of p. Rotation components are
// ordered w, x, y, z.
func (p Property) Channels() int {
	if p == Rotation {
		return 4
	}
	return 3
}

func (p Property) String() string {
	switch p {
	case Rotation:
		return "rotation"
	case Translation:
		return "translation"
	case Scale:
		return "scale"
	}
	return "unknown"
}

// ParsePath splits a pose-bone curve path into the bone name and the
// animated property.
func ParsePath(path string) (string, Property, error) {
	bone, prop, err := scene.ParseDataPath(path)
	if err != nil {
		return "", 0, errors.Wrapf(model.ErrDataIntegrity, "%v", err)
	}
	switch prop {
	case hostRotation:
		return bone, Rotation, nil
	case hostTranslation:
		return bone, Translation, nil
	case hostScale:
		return bone, Scale, nil
	}
	return "", 0, errors.Wrapf(model.ErrDataIntegrity, "curve %q animates unsupported property %q", path, prop)
}
