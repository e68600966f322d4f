package model

import (
	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

// NodeTransforms returns the bind-pose global transform of every node,
// keyed by node name: parent_global * local, starting from identity.
func NodeTransforms(root *formats.Node) map[string]math.Mat4 {
	out := make(map[string]math.Mat4)
	if root == nil {
		return out
	}
	visited := make(map[*formats.Node]bool)
	buildNodeTransforms(root, math.Identity(), 0, visited, out)
	return out
}

func buildNodeTransforms(node *formats.Node, parent math.Mat4, depth int, visited map[*formats.Node]bool, out map[string]math.Mat4) {
	// Prevent infinite recursion on malformed trees
	if visited[node] || depth > skeletal.MaxHierarchyDepth {
		return
	}
	visited[node] = true

	global := parent.Mul(math.FromColumnMajor64(node.Matrix))
	if _, seen := out[node.Name]; !seen {
		out[node.Name] = global
	}

	for _, c := range node.Children {
		if c != nil {
			buildNodeTransforms(c, global, depth+1, visited, out)
		}
	}
}

// bakeTransform moves vertices from node space into model space.
// Normals use the inverse transpose so non-uniform scale stays correct.
func bakeTransform(vertices []Vertex, m math.Mat4) {
	if m.IsIdentity() {
		return
	}
	normalMatrix := m.WithoutTranslation().Inverse().Transpose()
	for i := range vertices {
		v := &vertices[i]
		v.Position = m.TransformPoint(v.Position)
		n := normalMatrix.TransformVec3(math.Vec3FromArray(v.Normal))
		v.Normal = Normalize(n.Array())
	}
}
