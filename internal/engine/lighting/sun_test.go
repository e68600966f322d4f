package lighting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func length(v [3]float32) float64 {
	return math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]))
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name               string
		azimuth, elevation float32
		want               [3]float32
	}{
		{"overhead", 0, 90, [3]float32{0, -1, 0}},
		{"horizon south", 0, 0, [3]float32{0, 0, -1}},
		{"horizon east", 90, 0, [3]float32{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.azimuth, tt.elevation)
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}

	assert.InDelta(t, 1.0, length(SunDirection(37, 52)), 1e-6)
	assert.Less(t, SunDirection(120, 45)[1], float32(0), "light travels downwards")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(0), Clamp(-10))
	assert.Equal(t, float32(45), Clamp(45))
	assert.Equal(t, float32(90), Clamp(120))
}
