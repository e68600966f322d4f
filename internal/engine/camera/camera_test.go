package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/skinview/pkg/math"
)

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-5, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-5, "z")
}

func TestFlyCameraDefaults(t *testing.T) {
	c := NewFlyCamera(math.Vec3{Z: 3}, 45)
	assertVec(t, math.Vec3{Z: -1}, c.Front())
	assertVec(t, math.Vec3{X: 1}, c.RightVector())

	// The view matrix maps the camera position to the origin.
	p := c.ViewMatrix().TransformPoint([3]float32{0, 0, 3})
	assert.InDelta(t, 0, p[2], 1e-5)
}

func TestFlyCameraUpdate(t *testing.T) {
	c := NewFlyCamera(math.Vec3{}, 45)
	c.MoveSpeed = 2

	c.Update(Movement{Forward: true}, 0.5)
	assertVec(t, math.Vec3{Z: -1}, c.Pos)

	c.Update(Movement{Right: true, Up: true}, 1)
	assertVec(t, math.Vec3{X: 2, Y: 2, Z: -1}, c.Pos)

	c.Update(Movement{Forward: true, Backward: true}, 1)
	assertVec(t, math.Vec3{X: 2, Y: 2, Z: -1}, c.Pos)

	c.TurnSpeed = 90
	c.Update(Movement{TurnRight: true}, 1)
	assert.InDelta(t, 0, c.Yaw, 1e-5)
	assertVec(t, math.Vec3{X: 1}, c.Front())
}

func TestFlyCameraLookClampsPitch(t *testing.T) {
	c := NewFlyCamera(math.Vec3{}, 45)
	c.HandleLook(100, -10000)
	assert.Equal(t, float32(89), c.Pitch)
	assert.InDelta(t, -80, c.Yaw, 1e-5)

	c.HandleLook(0, 10000)
	assert.Equal(t, float32(-89), c.Pitch)
}

func TestFlyCameraZoom(t *testing.T) {
	c := NewFlyCamera(math.Vec3{}, 45)
	c.HandleZoom(10)
	assert.Equal(t, float32(35), c.Zoom)
	c.HandleZoom(100)
	assert.Equal(t, c.MinZoom, c.Zoom)
	c.HandleZoom(-100)
	assert.Equal(t, c.MaxZoom, c.Zoom)
}

func TestFlyCameraFitToBounds(t *testing.T) {
	c := NewFlyCamera(math.Vec3{}, 90)
	c.Pitch = 30
	c.FitToBounds([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})

	assert.Zero(t, c.Pitch)
	assert.InDelta(t, 0, c.Pos.X, 1e-5)
	assert.InDelta(t, 1, c.Pos.Y, 1e-5)
	assert.InDelta(t, 1.7320508, c.Pos.Z, 1e-5, "radius / tan(45deg)")
}

func TestOrbitCamera(t *testing.T) {
	c := NewOrbitCamera(60)
	c.RotationX = 0
	c.Distance = 4
	c.Center = math.Vec3{X: 1}
	assertVec(t, math.Vec3{X: 1, Z: 4}, c.Position())

	c.HandleDrag(0, 1e6)
	assert.Equal(t, c.MaxPitch, c.RotationX)

	c.HandleZoom(1e6)
	assert.Equal(t, c.MinDistance, c.Distance)

	c.FitToBounds([3]float32{0, 0, 0}, [3]float32{2, 2, 2})
	assertVec(t, math.Vec3{X: 1, Y: 1, Z: 1}, c.Center)
	assert.Greater(t, c.Distance, float32(1.7))
}

func TestCamerasImplementInterface(t *testing.T) {
	var cams []Camera = []Camera{NewFlyCamera(math.Vec3{}, 45), NewOrbitCamera(45)}
	for _, c := range cams {
		assert.False(t, c.ProjectionMatrix(16.0/9.0, 0.1, 100).IsIdentity())
	}
}
