package vmath

import "math"

// Quat is a unit quaternion representing an orientation.
type Quat struct {
	W, X, Y, Z float64
}

func QuatIdentity() Quat { return Quat{W: 1} }

// QuatLookDir builds an orientation whose forward axis points along dir
// projected onto the horizontal plane. Zero dir yields identity.
func QuatLookDir(dir Vec3) Quat {
	flat := Vec2{dir.X, dir.Y}
	if flat.IsZero() {
		return QuatIdentity()
	}
	// Yaw around +Z; forward is +Y.
	yaw := math.Atan2(-flat.X, flat.Y)
	half := yaw / 2
	return Quat{W: math.Cos(half), Z: math.Sin(half)}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

func (q Quat) Dot(o Quat) float64 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

func (q Quat) Normalized() Quat {
	m := math.Sqrt(q.Dot(q))
	if m == 0 {
		return QuatIdentity()
	}
	return Quat{q.W / m, q.X / m, q.Y / m, q.Z / m}
}

// Forward rotates the canonical forward axis (+Y) by q.
func (q Quat) Forward() Vec3 {
	return q.RotateVec(Vec3{Y: 1})
}

// RotateVec applies the rotation to v.
func (q Quat) RotateVec(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	s := q.W
	return u.Scale(2 * u.Dot(v)).
		Add(v.Scale(s*s - u.Dot(u))).
		Add(u.Cross(v).Scale(2 * s))
}

// Slerp spherically interpolates from q to o by t in [0,1].
func (q Quat) Slerp(o Quat, t float64) Quat {
	d := q.Dot(o)
	if d < 0 {
		o = Quat{-o.W, -o.X, -o.Y, -o.Z}
		d = -d
	}
	if d > 0.9995 {
		// Nearly parallel, lerp and renormalize.
		return Quat{
			q.W + t*(o.W-q.W),
			q.X + t*(o.X-q.X),
			q.Y + t*(o.Y-q.Y),
			q.Z + t*(o.Z-q.Z),
		}.Normalized()
	}
	theta := math.Acos(d)
	sin := math.Sin(theta)
	a := math.Sin((1-t)*theta) / sin
	b := math.Sin(t*theta) / sin
	return Quat{
		a*q.W + b*o.W,
		a*q.X + b*o.X,
		a*q.Y + b*o.Y,
		a*q.Z + b*o.Z,
	}
}
