// Package math provides the matrix, quaternion and vector helpers the exporter
// uses to turn armature-space bind matrices into parent-relative transforms.
// Types are aliases of go-gl/mathgl's float64 variants so values flow freely
// between this package and mgl64.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 = mgl64.Mat4

// Identity returns an identity matrix.
func Identity() Mat4 {
	return mgl64.Ident4()
}

// FromRows builds a matrix from row-major nested arrays, the layout scene
// snapshots use (m[row][col], translation in the last column).
func FromRows(rows [4][4]float64) Mat4 {
	var m Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[col*4+row] = rows[row][col]
		}
	}
	return m
}

// ToRows is the inverse of FromRows.
func ToRows(m Mat4) [4][4]float64 {
	var rows [4][4]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			rows[row][col] = m[col*4+row]
		}
	}
	return rows
}

// Transform is an affine transform split into its components.
type Transform struct {
	Rotation    Quat
	Translation Vec3
	Scale       Vec3
}

// IdentityTransform returns the transform of the identity matrix.
func IdentityTransform() Transform {
	return Transform{
		Rotation: QuatIdentity(),
		Scale:    Vec3{1, 1, 1},
	}
}

// Decompose splits an affine matrix into rotation, translation and scale.
// Scale is the length of each basis column; a mirrored basis (negative
// determinant) negates all three scale factors so the remaining rotation
// stays proper. The rotation is normalized and canonicalized to W >= 0.
func Decompose(m Mat4) Transform {
	cols := [3]Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	scale := Vec3{cols[0].Len(), cols[1].Len(), cols[2].Len()}
	if m.Mat3().Det() < 0 {
		scale = scale.Mul(-1)
	}

	rot := Identity()
	for i, col := range cols {
		if math.Abs(scale[i]) < 1e-12 {
			continue
		}
		col = col.Mul(1 / scale[i])
		rot[i*4+0] = col[0]
		rot[i*4+1] = col[1]
		rot[i*4+2] = col[2]
	}

	return Transform{
		Rotation:    CanonicalQuat(mgl64.Mat4ToQuat(rot)),
		Translation: m.Col(3).Vec3(),
		Scale:       scale,
	}
}

// Compose rebuilds the matrix T * R * S of a decomposed transform.
func Compose(t Transform) Mat4 {
	return mgl64.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Relative returns inverse(parent) * child, the child's transform expressed
// in the parent's space.
func Relative(parent, child Mat4) Mat4 {
	return parent.Inv().Mul4(child)
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
func ApproxEqual(a, b Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
