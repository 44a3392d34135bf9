package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3D vector.
type Vec3 = mgl64.Vec3

// NewellNormal returns the unit normal of a planar or near-planar polygon
// using Newell's method. Degenerate polygons yield the zero vector.
func NewellNormal(points []Vec3) Vec3 {
	var n Vec3
	for i := range points {
		cur := points[i]
		next := points[(i+1)%len(points)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	l := n.Len()
	if l == 0 {
		return Vec3{}
	}
	return n.Mul(1 / l)
}

// DominantAxis returns the index of the component with the largest magnitude.
func DominantAxis(v Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[axis]) {
			axis = i
		}
	}
	return axis
}

// Project2D drops the given axis, keeping a right-handed orientation when
// the normal points along the positive axis.
func Project2D(p Vec3, axis int) mgl64.Vec2 {
	switch axis {
	case 0:
		return mgl64.Vec2{p[1], p[2]}
	case 1:
		return mgl64.Vec2{p[2], p[0]}
	default:
		return mgl64.Vec2{p[0], p[1]}
	}
}
