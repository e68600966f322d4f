package lighting

import "math"

// Phong holds the Blinn-Phong terms of the model shader.
type Phong struct {
	Ambient   float32
	Diffuse   float32
	Specular  float32
	Shininess float32
}

// DefaultPhong matches the viewer's out of the box look.
func DefaultPhong() Phong {
	return Phong{Ambient: 0.35, Diffuse: 0.65, Specular: 0.25, Shininess: 32}
}

// Shade returns the base color factor and the specular highlight for a
// surface with normal n lit by light travelling along lightDir and seen from
// viewDir (surface towards eye). It mirrors model.frag.
func (p Phong) Shade(n, lightDir, viewDir [3]float32) (base, highlight float32) {
	n = normalize(n)
	toLight := normalize([3]float32{-lightDir[0], -lightDir[1], -lightDir[2]})
	diff := max(dot(n, toLight), 0)
	base = p.Ambient + p.Diffuse*diff
	if diff <= 0 || p.Specular <= 0 {
		return base, 0
	}

	v := normalize(viewDir)
	h := normalize([3]float32{toLight[0] + v[0], toLight[1] + v[1], toLight[2] + v[2]})
	spec := math.Pow(float64(max(dot(n, h), 0)), float64(max(p.Shininess, 1)))
	return base, p.Specular * float32(spec)
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(dot(v, v))))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
