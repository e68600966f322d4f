package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	if math.Abs(float64(n.Length()-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", n.Length())
	}

	if got := (Quat{}).Normalize(); got != QuatIdentity() {
		t.Errorf("zero quaternion should normalize to identity, got %v", got)
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	result0 := q1.Slerp(q2, 0)
	if math.Abs(float64(result0.W-q1.W)) > 0.001 {
		t.Errorf("Slerp at t=0 should equal q1")
	}

	result1 := q1.Slerp(q2, 1)
	if math.Abs(float64(result1.W-q2.W)) > 0.001 {
		t.Errorf("Slerp at t=1 should equal q2")
	}

	// For 90 degree rotation, halfway should be 45 degrees
	result5 := q1.Slerp(q2, 0.5)
	expectedW := float32(math.Cos(float64(math.Pi / 8)))
	if math.Abs(float64(result5.W-expectedW)) > 0.01 {
		t.Errorf("Slerp at t=0.5: expected W ~%v, got %v", expectedW, result5.W)
	}
}

func TestQuatSlerpMatchesMathgl(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{1, 0, 0}, 0.3)
	b := QuatFromAxisAngle(Vec3{0, 0.6, 0.8}, 2.1)

	ma := mgl32.Quat{W: a.W, V: mgl32.Vec3{a.X, a.Y, a.Z}}
	mb := mgl32.Quat{W: b.W, V: mgl32.Vec3{b.X, b.Y, b.Z}}

	for _, step := range []float32{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		got := a.Slerp(b, step).Normalize()
		w := mgl32.QuatSlerp(ma, mb, step).Normalize()
		want := Quat{X: w.V[0], Y: w.V[1], Z: w.V[2], W: w.W}

		if !got.SameRotation(want, 1e-4) {
			t.Errorf("Slerp(%v) = %v, mathgl = %v", step, got, want)
		}
	}
}

func TestQuatSlerpShortestPath(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.2)
	b := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.6).Neg()

	mid := a.Slerp(b, 0.5).Normalize()
	want := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.4)
	if !mid.SameRotation(want, 1e-5) {
		t.Errorf("Slerp should take the short arc: got %v want %v", mid, want)
	}
}

func TestQuatToMat4(t *testing.T) {
	q := QuatIdentity()
	m := q.ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatToMat4RotatesPoint(t *testing.T) {
	// 90 degrees about Y maps +X to -Z
	m := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi/2)).ToMat4()
	p := m.TransformPoint([3]float32{1, 0, 0})

	if abs(p[0]) > 0.001 || abs(p[1]) > 0.001 || abs(p[2]+1) > 0.001 {
		t.Errorf("rotate 90 about Y: got %v, want (0, 0, -1)", p)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatFromArray(t *testing.T) {
	q := QuatFromArray([4]float32{0.1, 0.2, 0.3, 0.9})
	if q.X != 0.1 || q.Y != 0.2 || q.Z != 0.3 || q.W != 0.9 {
		t.Errorf("QuatFromArray = %v, want xyzw order", q)
	}
}

func TestQuatSameRotation(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 0, 0}, 1)
	if !q.SameRotation(q.Neg(), 1e-6) {
		t.Error("q and -q encode the same rotation")
	}
	if q.SameRotation(QuatIdentity(), 1e-3) {
		t.Error("distinct rotations reported equal")
	}
}
