package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

// Mesh building errors.
var (
	ErrEmptyModel   = errors.New("model: scene has no meshes")
	ErrIndexRange   = errors.New("model: index out of range")
	ErrNotTriangles = errors.New("model: index count is not a multiple of 3")
)

// LoadSkinned loads a glTF file and registers its skin data in table.
func LoadSkinned(path string, table *skeletal.BindingTable) (*Model, error) {
	scene, err := formats.LoadGLTF(path)
	if err != nil {
		return nil, err
	}
	return BuildSkinned(scene, table)
}

// BuildSkinned converts every mesh of scene. Each bone influencing a mesh is
// registered in table with its offset matrix, and each vertex keeps the ids
// and weights of its first MaxBoneInfluence bones. Meshes without bones are
// baked into model space.
func BuildSkinned(scene *formats.Scene, table *skeletal.BindingTable) (*Model, error) {
	m, err := build(scene, table)
	if err != nil {
		return nil, err
	}
	logger.Info("skinned model loaded",
		zap.String("model", m.Name),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("bones", table.Len()),
		zap.Int("animations", len(scene.Animations)))
	return m, nil
}

// BuildStatic converts every mesh of scene, ignoring skin data.
func BuildStatic(scene *formats.Scene) (*Model, error) {
	m, err := build(scene, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("static model loaded",
		zap.String("model", m.Name),
		zap.Int("meshes", len(m.Meshes)))
	return m, nil
}

func build(scene *formats.Scene, table *skeletal.BindingTable) (*Model, error) {
	if len(scene.Meshes) == 0 {
		return nil, ErrEmptyModel
	}

	m := &Model{
		Name:     scene.Name,
		Scene:    scene,
		Bindings: table,
		Bounds:   EmptyBounds(),
	}
	globals := NodeTransforms(scene.Root)

	for i := range scene.Meshes {
		src := &scene.Meshes[i]

		mesh, err := buildMesh(src)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", src.Name, err)
		}

		if table != nil && src.Skinned() {
			if err := applySkin(&mesh, src, table); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", src.Name, err)
			}
		} else if global, ok := globals[src.Node]; ok {
			bakeTransform(mesh.Vertices, global)
		}

		mesh.Bounds = vertexBounds(mesh.Vertices)
		m.Bounds = m.Bounds.Union(mesh.Bounds)
		m.Meshes = append(m.Meshes, mesh)
	}
	return m, nil
}

func buildMesh(src *formats.Mesh) (Mesh, error) {
	mesh := Mesh{
		Name:     src.Name,
		Vertices: make([]Vertex, len(src.Positions)),
		Indices:  append([]uint32(nil), src.Indices...),
		Texture:  src.Texture,
	}

	if len(mesh.Indices)%3 != 0 {
		return mesh, fmt.Errorf("%d indices: %w", len(mesh.Indices), ErrNotTriangles)
	}
	for _, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Vertices) {
			return mesh, fmt.Errorf("vertex %d of %d: %w", idx, len(mesh.Vertices), ErrIndexRange)
		}
	}

	hasNormals := len(src.Normals) == len(src.Positions)
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		v.Position = src.Positions[i]
		if hasNormals {
			v.Normal = src.Normals[i]
		}
		if i < len(src.TexCoords) {
			v.TexCoord = src.TexCoords[i]
		}
		for k := range v.BoneIDs {
			v.BoneIDs[k] = -1
		}
	}

	if !hasNormals {
		GenerateNormals(mesh.Vertices, mesh.Indices)
		SmoothNormals(mesh.Vertices)
	}
	return mesh, nil
}

// applySkin registers every bone of src in table and writes its influences
// into the mesh vertices.
func applySkin(mesh *Mesh, src *formats.Mesh, table *skeletal.BindingTable) error {
	dropped := 0
	for _, bone := range src.Bones {
		id := table.Register(bone.Name, math.Mat4(bone.Offset))

		for _, w := range bone.Weights {
			if int(w.Vertex) >= len(mesh.Vertices) {
				return fmt.Errorf("bone %q weight on vertex %d of %d: %w",
					bone.Name, w.Vertex, len(mesh.Vertices), ErrIndexRange)
			}
			if SetVertexBone(&mesh.Vertices[w.Vertex], int32(id), w.Weight) {
				mesh.Skinned = true
			} else {
				dropped++
			}
		}
	}

	if dropped > 0 {
		logger.Debug("bone influences beyond limit dropped",
			zap.String("mesh", mesh.Name),
			zap.Int("dropped", dropped),
			zap.Int("max_per_vertex", MaxBoneInfluence))
	}
	return nil
}

// SetVertexBone stores a bone influence in the first free slot of v.
// It returns false when all slots are taken.
func SetVertexBone(v *Vertex, id int32, weight float32) bool {
	for k := range v.BoneIDs {
		if v.BoneIDs[k] < 0 {
			v.BoneIDs[k] = id
			v.Weights[k] = weight
			return true
		}
	}
	return false
}

// GenerateNormals computes area-weighted vertex normals from triangles.
func GenerateNormals(vertices []Vertex, indices []uint32) {
	sums := make([][3]float32, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		n := Cross(
			sub(vertices[b].Position, vertices[a].Position),
			sub(vertices[c].Position, vertices[a].Position),
		)
		for _, idx := range [3]uint32{a, b, c} {
			sums[idx][0] += n[0]
			sums[idx][1] += n[1]
			sums[idx][2] += n[2]
		}
	}
	for i := range vertices {
		vertices[i].Normal = Normalize(sums[i])
	}
}

// SmoothNormals averages normals at shared vertex positions.
// This hides seams where a mesh duplicates vertices for UV splits.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		key := [3]int32{
			int32(vertices[i].Position[0] / epsilon),
			int32(vertices[i].Position[1] / epsilon),
			int32(vertices[i].Position[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}

		var sum [3]float32
		for _, idx := range idxs {
			sum[0] += vertices[idx].Normal[0]
			sum[1] += vertices[idx].Normal[1]
			sum[2] += vertices[idx].Normal[2]
		}

		avg := Normalize(sum)
		for _, idx := range idxs {
			vertices[idx].Normal = avg
		}
	}
}

func vertexBounds(vertices []Vertex) Bounds {
	b := EmptyBounds()
	for i := range vertices {
		b.extend(vertices[i].Position)
	}
	return b
}
