package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector should stay zero, got %v", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 20, 30}

	tests := []struct {
		t    float32
		want Vec3
	}{
		{0, a},
		{1, b},
		{0.5, Vec3{5, 10, 15}},
		{0.25, Vec3{2.5, 5, 7.5}},
	}
	for _, tt := range tests {
		if got := a.Lerp(b, tt.t); got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestVec3ArrayRoundTrip(t *testing.T) {
	v := Vec3FromArray([3]float32{1, 2, 3})
	if v != (Vec3{1, 2, 3}) {
		t.Errorf("Vec3FromArray = %v", v)
	}
	if v.Array() != [3]float32{1, 2, 3} {
		t.Errorf("Array = %v", v.Array())
	}
}
