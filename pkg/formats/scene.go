// Package formats provides the importer-side scene description and the
// loaders that produce it.
//
// The types here mirror what a general scene importer hands to the engine:
// a node tree with local transforms, meshes carrying per-bone skin weights,
// and animations made of per-node keyframe channels. Nothing in this package
// depends on the renderer or on the animation core.
package formats

// Scene is an imported model: hierarchy, meshes and animations.
type Scene struct {
	Name       string
	Root       *Node
	Meshes     []Mesh
	Animations []Animation
}

// Node is one element of the imported scene graph.
type Node struct {
	Name string
	// Matrix is the local transform in column-major order.
	Matrix   [16]float64
	Children []*Node
}

// Mesh is one triangle list with optional skin data.
type Mesh struct {
	Name string
	// Node names the scene node that instantiates this mesh.
	Node      string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Indices   []uint32
	// Bones is empty for static meshes.
	Bones   []MeshBone
	Texture *TextureRef
}

// Skinned reports whether the mesh carries bone weights.
func (m *Mesh) Skinned() bool {
	return len(m.Bones) > 0
}

// MeshBone is a bone influencing a mesh, with its inverse-bind (offset) matrix.
type MeshBone struct {
	Name string
	// Offset maps model space to bone space at bind time, column-major.
	Offset  [16]float32
	Weights []VertexWeight
}

// VertexWeight is a single bone influence on a vertex.
type VertexWeight struct {
	Vertex uint32
	Weight float32
}

// TextureRef points at the base color image of a mesh.
// Exactly one of Path or Data is set.
type TextureRef struct {
	Path     string
	Data     []byte
	MimeType string
}

// Animation is one named clip of the scene.
type Animation struct {
	Name string
	// Duration is in ticks.
	Duration       float32
	TicksPerSecond float32
	Channels       []Channel
}

// Channel holds the keyframes targeting one node.
type Channel struct {
	Node      string
	Positions []VectorKey
	Rotations []QuatKey
	Scales    []VectorKey
}

// VectorKey is a position or scale keyframe.
type VectorKey struct {
	Time  float32
	Value [3]float32
}

// QuatKey is a rotation keyframe, value in (x, y, z, w) order.
type QuatKey struct {
	Time  float32
	Value [4]float32
}

// Find returns the first node named name in depth-first order, or nil.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// AnimationByName returns the animation with the given name, or nil.
func (s *Scene) AnimationByName(name string) *Animation {
	for i := range s.Animations {
		if s.Animations[i].Name == name {
			return &s.Animations[i]
		}
	}
	return nil
}

// IdentityMatrix is the column-major identity used for untransformed nodes.
var IdentityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}
