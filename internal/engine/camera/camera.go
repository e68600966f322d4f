// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/skinview/pkg/math"
)

// Camera produces view and projection matrices for a frame.
type Camera interface {
	ViewMatrix() math.Mat4
	ProjectionMatrix(aspect, near, far float32) math.Mat4
	Position() math.Vec3
	HandleZoom(delta float32)
}

// Movement is a set of fly camera movement directions held this frame.
type Movement struct {
	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool
	TurnLeft          bool
	TurnRight         bool
}

// FlyCamera moves freely, looking along yaw/pitch angles in degrees.
type FlyCamera struct {
	Pos   math.Vec3
	Yaw   float32 // Degrees; -90 looks down -Z
	Pitch float32 // Degrees, clamped to MaxPitch
	Zoom  float32 // Vertical field of view in degrees

	MoveSpeed   float32 // Units per second
	TurnSpeed   float32 // Degrees per second for TurnLeft/TurnRight
	Sensitivity float32 // Degrees per pixel of mouse motion

	MinZoom  float32
	MaxZoom  float32
	MaxPitch float32
}

// NewFlyCamera creates a fly camera at pos looking down -Z.
func NewFlyCamera(pos math.Vec3, fov float32) *FlyCamera {
	return &FlyCamera{
		Pos:         pos,
		Yaw:         -90,
		Pitch:       0,
		Zoom:        fov,
		MoveSpeed:   5,
		TurnSpeed:   90,
		Sensitivity: 0.1,
		MinZoom:     1,
		MaxZoom:     fov,
		MaxPitch:    89,
	}
}

// Position returns the camera position in world space.
func (c *FlyCamera) Position() math.Vec3 {
	return c.Pos
}

// Front returns the unit view direction.
func (c *FlyCamera) Front() math.Vec3 {
	yaw := radians(c.Yaw)
	pitch := radians(c.Pitch)
	return math.Vec3{
		X: float32(gomath.Cos(yaw) * gomath.Cos(pitch)),
		Y: float32(gomath.Sin(pitch)),
		Z: float32(gomath.Sin(yaw) * gomath.Cos(pitch)),
	}.Normalize()
}

// RightVector returns the unit right direction on the horizon.
func (c *FlyCamera) RightVector() math.Vec3 {
	return c.Front().Cross(worldUp).Normalize()
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	front := c.Front()
	return math.LookAt(c.Pos, c.Pos.Add(front), worldUp)
}

// ProjectionMatrix returns a perspective projection using Zoom as the field of view.
func (c *FlyCamera) ProjectionMatrix(aspect, near, far float32) math.Mat4 {
	return math.Perspective(float32(radians(c.Zoom)), aspect, near, far)
}

// Update applies held movement keys over dt seconds.
func (c *FlyCamera) Update(m Movement, dt float32) {
	if m.TurnLeft {
		c.Yaw -= c.TurnSpeed * dt
	}
	if m.TurnRight {
		c.Yaw += c.TurnSpeed * dt
	}

	front := c.Front()
	right := c.RightVector()
	step := c.MoveSpeed * dt

	var dir math.Vec3
	if m.Forward {
		dir = dir.Add(front)
	}
	if m.Backward {
		dir = dir.Sub(front)
	}
	if m.Right {
		dir = dir.Add(right)
	}
	if m.Left {
		dir = dir.Sub(right)
	}
	if m.Up {
		dir = dir.Add(worldUp)
	}
	if m.Down {
		dir = dir.Sub(worldUp)
	}
	c.Pos = c.Pos.Add(dir.Scale(step))
}

// HandleLook turns the camera from a mouse motion delta in pixels.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw += deltaX * c.Sensitivity
	c.Pitch -= deltaY * c.Sensitivity

	// Clamp pitch so the view never flips over the pole
	c.Pitch = clamp(c.Pitch, -c.MaxPitch, c.MaxPitch)
}

// HandleZoom narrows the field of view on scroll up.
func (c *FlyCamera) HandleZoom(delta float32) {
	c.Zoom = clamp(c.Zoom-delta, c.MinZoom, c.MaxZoom)
}

// FitToBounds places the camera in front of the box, looking at its center.
func (c *FlyCamera) FitToBounds(min, max [3]float32) {
	center := math.Vec3{X: (min[0] + max[0]) / 2, Y: (min[1] + max[1]) / 2, Z: (min[2] + max[2]) / 2}
	radius := math.Vec3FromArray(max).Distance(math.Vec3FromArray(min)) / 2
	if radius == 0 {
		radius = 1
	}

	distance := radius / float32(gomath.Tan(radians(c.Zoom)/2))
	c.Pos = center.Add(math.Vec3{Z: distance})
	c.Yaw = -90
	c.Pitch = 0
	c.MoveSpeed = radius
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)
	FOV       float32 // Degrees

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera(fov float32) *OrbitCamera {
	return &OrbitCamera{
		Distance:        5.0,
		RotationX:       0.3,
		RotationY:       0.0,
		FOV:             fov,
		MinDistance:     0.5,
		MaxDistance:     500.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, worldUp)
}

// ProjectionMatrix returns a perspective projection with the camera's field of view.
func (c *OrbitCamera) ProjectionMatrix(aspect, near, far float32) math.Mat4 {
	return math.Perspective(float32(radians(c.FOV)), aspect, near, far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the orbit on the box at a distance that shows all of it.
func (c *OrbitCamera) FitToBounds(min, max [3]float32) {
	c.Center = math.Vec3{X: (min[0] + max[0]) / 2, Y: (min[1] + max[1]) / 2, Z: (min[2] + max[2]) / 2}
	radius := math.Vec3FromArray(max).Distance(math.Vec3FromArray(min)) / 2
	if radius == 0 {
		radius = 1
	}

	c.Distance = clamp(radius/float32(gomath.Tan(radians(c.FOV)/2)), c.MinDistance, c.MaxDistance)
	c.RotationX = 0.3
	c.RotationY = 0.0
}

var worldUp = math.Vec3{Y: 1}

func radians(deg float32) float64 {
	return float64(deg) * gomath.Pi / 180
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
