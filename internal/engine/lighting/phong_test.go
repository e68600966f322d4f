package lighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhongShade(t *testing.T) {
	p := DefaultPhong()
	up := [3]float32{0, 1, 0}
	down := [3]float32{0, -1, 0}

	base, highlight := p.Shade(up, down, up)
	assert.InDelta(t, 1.0, base, 1e-6, "ambient plus full diffuse")
	assert.InDelta(t, 0.25, highlight, 1e-6, "mirror view sees the full highlight")

	base, highlight = p.Shade(down, down, up)
	assert.InDelta(t, 0.35, base, 1e-6, "back faces keep the ambient term")
	assert.Zero(t, highlight)

	_, grazing := p.Shade(up, down, [3]float32{1, 0.01, 0})
	assert.Less(t, grazing, float32(0.1), "highlight falls off away from the mirror direction")
}

func TestPhongShadeWithoutSpecular(t *testing.T) {
	p := Phong{Ambient: 0.2, Diffuse: 0.5}
	base, highlight := p.Shade([3]float32{0, 0, 2}, [3]float32{0, 0, -1}, [3]float32{0, 0, 1})
	assert.InDelta(t, 0.7, base, 1e-6)
	assert.Zero(t, highlight)
}
