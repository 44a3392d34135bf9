// Package geometry splits polygon faces into triangles.
package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/math"
)

const epsilon = 1e-12

// Triangulate splits the polygon with the given corner positions into
// triangles, returned as corner-index triples. Triangles keep the polygon's
// winding, so per-corner attributes can be looked up by index afterwards.
//
// Ears are clipped on the projection onto the polygon's dominant plane.
// When no ear can be found (self-intersecting or degenerate input) the
// remaining corners are fanned.
func Triangulate(points []math.Vec3) ([][3]int, error) {
	n := len(points)
	if n < 3 {
		return nil, errors.Wrapf(model.ErrDataIntegrity, "face has %d corners, need at least 3", n)
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}, nil
	}

	tris := make([][3]int, 0, n-2)
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	normal := math.NewellNormal(points)
	if normal.Len() > 0 {
		axis := math.DominantAxis(normal)
		flat := make([]mgl64.Vec2, n)
		for i, p := range points {
			flat[i] = math.Project2D(p, axis)
		}
		sign := 1.0
		if signedArea(flat) < 0 {
			sign = -1
		}
		tris, remaining = clipEars(flat, sign, tris, remaining)
	}

	for i := 1; i+1 < len(remaining); i++ {
		tris = append(tris, [3]int{remaining[0], remaining[i], remaining[i+1]})
	}
	return tris, nil
}

// clipEars removes ears until three corners remain or no ear is found.
// Searching starts at the second corner so convex quads split along the
// 0-2 diagonal, the same split a fan produces.
func clipEars(flat []mgl64.Vec2, sign float64, tris [][3]int, remaining []int) ([][3]int, []int) {
	for len(remaining) > 3 {
		m := len(remaining)
		clipped := false
		for k := 1; k <= m; k++ {
			i := k % m
			a, b, c := remaining[(i-1+m)%m], remaining[i], remaining[(i+1)%m]
			if !isEar(flat, sign, a, b, c, remaining) {
				continue
			}
			tris = append(tris, [3]int{a, b, c})
			next := make([]int, 0, m-1)
			next = append(next, remaining[:i]...)
			remaining = append(next, remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break
		}
	}
	return tris, remaining
}

func isEar(flat []mgl64.Vec2, sign float64, a, b, c int, remaining []int) bool {
	pa, pb, pc := flat[a], flat[b], flat[c]
	if sign*cross(pa, pb, pc) <= epsilon {
		return false
	}
	for _, v := range remaining {
		if v == a || v == b || v == c {
			continue
		}
		p := flat[v]
		if p == pa || p == pb || p == pc {
			continue
		}
		if sign*cross(pa, pb, p) >= 0 && sign*cross(pb, pc, p) >= 0 && sign*cross(pc, pa, p) >= 0 {
			return false
		}
	}
	return true
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c mgl64.Vec2) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// signedArea returns twice the signed area, positive for counter-clockwise.
func signedArea(flat []mgl64.Vec2) float64 {
	var area float64
	for i := range flat {
		j := (i + 1) % len(flat)
		area += flat[i][0]*flat[j][1] - flat[j][0]*flat[i][1]
	}
	return area
}
