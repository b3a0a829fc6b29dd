package vmath

import (
	"math"
	"testing"
)

func TestVec2Normalized(t *testing.T) {
	v := Vec2{3, 4}.Normalized()
	if math.Abs(v.Magnitude()-1) > 1e-9 {
		t.Fatalf("expected unit vector, got magnitude %v", v.Magnitude())
	}
	if z := (Vec2{}).Normalized(); !z.IsZero() {
		t.Fatalf("zero vector should normalize to zero, got %v", z)
	}
}

func TestVec2ClampMagnitude(t *testing.T) {
	v := Vec2{10, 0}.ClampMagnitude(3)
	if math.Abs(v.Magnitude()-3) > 1e-9 {
		t.Fatalf("clamped magnitude = %v, want 3", v.Magnitude())
	}
	small := Vec2{1, 1}
	if got := small.ClampMagnitude(5); got != small {
		t.Fatalf("vector under the cap should pass through, got %v", got)
	}
}

func TestQuatLookDirForward(t *testing.T) {
	dirs := []Vec3{
		{X: 1}, {Y: 1}, {X: -1}, {Y: -1},
		{X: 1, Y: 1}, {X: -0.3, Y: 0.8},
	}
	for _, d := range dirs {
		q := QuatLookDir(d)
		fwd := q.Forward()
		want := Vec2{d.X, d.Y}.Normalized()
		if math.Abs(fwd.X-want.X) > 1e-9 || math.Abs(fwd.Y-want.Y) > 1e-9 {
			t.Errorf("QuatLookDir(%v).Forward() = %v, want (%v,%v)", d, fwd, want.X, want.Y)
		}
	}
}

func TestQuatSlerpEndpoints(t *testing.T) {
	a := QuatLookDir(Vec3{X: 1})
	b := QuatLookDir(Vec3{Y: 1})
	if got := a.Slerp(b, 0); math.Abs(got.Dot(a))< 0.9999 {
		t.Fatalf("slerp(0) should equal start, got %+v", got)
	}
	if got := a.Slerp(b, 1); math.Abs(got.Dot(b)) < 0.9999 {
		t.Fatalf("slerp(1) should equal end, got %+v", got)
	}
	mid := a.Slerp(b, 0.5)
	if math.Abs(math.Sqrt(mid.Dot(mid))-1) > 1e-9 {
		t.Fatalf("slerp result not unit length")
	}
}
