package vmath

import "math"

// Vec2 is a 2D float vector, used for planar movement input and grid math.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D float vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64     { return v.X*o.X + v.Y*o.Y }
func (v Vec2) MagnitudeSq() float64   { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Magnitude() float64     { return math.Sqrt(v.MagnitudeSq()) }
func (v Vec2) IsZero() bool           { return v.X == 0 && v.Y == 0 }
func (v Vec2) WithZ(z float64) Vec3   { return Vec3{v.X, v.Y, z} }
func (v Vec2) Distance(o Vec2) float64 { return v.Sub(o).Magnitude() }

// Normalized returns the unit vector, zero-safe.
func (v Vec2) Normalized() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Scale(1 / m)
}

// ClampMagnitude limits the vector to maxMag while preserving direction.
func (v Vec2) ClampMagnitude(maxMag float64) Vec2 {
	m := v.Magnitude()
	if m <= maxMag || m == 0 {
		return v
	}
	return v.Scale(maxMag / m)
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) MagnitudeSq() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec3) Magnitude() float64   { return math.Sqrt(v.MagnitudeSq()) }
func (v Vec3) IsZero() bool         { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) XY() Vec2             { return Vec2{v.X, v.Y} }
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Magnitude() }

func (v Vec3) Normalized() Vec3 {
	m := v.Magnitude()
	if m == 0 {
		return Vec3{}
	}
	return v.Scale(1 / m)
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Lerp interpolates component-wise between v and o by t in [0,1].
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
