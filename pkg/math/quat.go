package math

import "github.com/go-gl/mathgl/mgl64"

// Quat is a rotation quaternion; W is the scalar part.
type Quat = mgl64.Quat

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return mgl64.QuatIdent()
}

// CanonicalQuat normalizes q and flips its sign so W is non-negative.
// q and -q describe the same rotation; picking one keeps output stable.
func CanonicalQuat(q Quat) Quat {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return q
}

// QuatWXYZ returns the components in w, x, y, z order.
func QuatWXYZ(q Quat) [4]float64 {
	return [4]float64{q.W, q.V[0], q.V[1], q.V[2]}
}

// QuatFromWXYZ builds a quaternion from w, x, y, z components.
func QuatFromWXYZ(c [4]float64) Quat {
	return Quat{W: c[0], V: Vec3{c[1], c[2], c[3]}}
}
