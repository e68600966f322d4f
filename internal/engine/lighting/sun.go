// Package lighting provides lighting utilities for 3D rendering.
package lighting

import "math"

// SunDirection converts azimuth/elevation angles in degrees to the direction
// the light travels. Azimuth is rotation around the Y axis, elevation is the
// angle above the horizon. The result is normalized and points away from the sun.
func SunDirection(azimuth, elevation float32) [3]float32 {
	azRad := float64(azimuth) * math.Pi / 180.0
	elRad := float64(elevation) * math.Pi / 180.0

	// Spherical to Cartesian, then flip so the vector leaves the sun
	x := math.Cos(elRad) * math.Sin(azRad)
	y := math.Sin(elRad)
	z := math.Cos(elRad) * math.Cos(azRad)

	return [3]float32{float32(-x), float32(-y), float32(-z)}
}

// Clamp limits an elevation to [0, 90] so the light never comes from below.
func Clamp(elevation float32) float32 {
	switch {
	case elevation < 0:
		return 0
	case elevation > 90:
		return 90
	}
	return elevation
}
