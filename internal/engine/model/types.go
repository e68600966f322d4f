// Package model builds CPU-side meshes from imported scenes and feeds skin
// data into the bone binding table.
package model

import (
	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/pkg/formats"
)

// MaxBoneInfluence is the number of bones that may affect one vertex.
// It must match the vertex shader's ivec4/vec4 bone attributes.
const MaxBoneInfluence = 4

// Vertex is a mesh vertex. Unused bone slots hold id -1 and weight 0.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	BoneIDs  [MaxBoneInfluence]int32
	Weights  [MaxBoneInfluence]float32
}

// Mesh holds one triangle list ready for GPU upload.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Texture  *formats.TextureRef
	Bounds   Bounds
	// Skinned is true when at least one vertex carries a bone weight.
	Skinned bool
}

// Model is a set of meshes loaded from one file.
type Model struct {
	Name   string
	Meshes []Mesh
	Bounds Bounds

	// Scene is kept for building animation clips against the same node tree.
	Scene *formats.Scene
	// Bindings is the table the skin data was registered in. Nil for static models.
	Bindings *skeletal.BindingTable
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// EmptyBounds returns inverted bounds that any point will extend.
func EmptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

// Valid reports whether at least one point was added.
func (b Bounds) Valid() bool {
	return b.Min[0] <= b.Max[0]
}

// Center returns the box center.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the box extent on each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Union returns bounds covering both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	if !o.Valid() {
		return b
	}
	b.extend(o.Min)
	b.extend(o.Max)
	return b
}

func (b *Bounds) extend(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
