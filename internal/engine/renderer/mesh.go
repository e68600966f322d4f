package renderer

import (
	"image"
	"image/color"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/engine/model"
	"github.com/Faultbox/skinview/internal/engine/texture"
	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/formats"
)

// Attribute locations shared with model.vert.
const (
	attribPosition = 0
	attribNormal   = 1
	attribTexCoord = 2
	attribBoneIDs  = 3
	attribWeights  = 4
)

// gpuMesh is one uploaded triangle list.
type gpuMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	texture    uint32
	skinned    bool
}

// GPUModel holds the GL resources of a model.
type GPUModel struct {
	Name     string
	meshes   []gpuMesh
	textures []uint32
}

// Upload creates buffers and textures for every mesh of m. Textures that fail
// to decode are logged and replaced by the renderer's white texture.
func (r *Renderer) Upload(m *model.Model) *GPUModel {
	g := &GPUModel{Name: m.Name}
	cache := make(map[*formats.TextureRef]uint32)

	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
			continue
		}

		gm := gpuMesh{skinned: mesh.Skinned}
		uploadMesh(&gm, mesh.Vertices, mesh.Indices)

		if mesh.Texture != nil {
			tex, ok := cache[mesh.Texture]
			if !ok {
				tex = loadMeshTexture(m.Name, mesh.Texture)
				cache[mesh.Texture] = tex
				if tex != 0 {
					g.textures = append(g.textures, tex)
				}
			}
			gm.texture = tex
		}
		g.meshes = append(g.meshes, gm)
	}

	logger.Debug("model uploaded",
		zap.String("model", m.Name),
		zap.Int("meshes", len(g.meshes)),
		zap.Int("textures", len(g.textures)))
	return g
}

func uploadMesh(gm *gpuMesh, vertices []model.Vertex, indices []uint32) {
	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	stride := int32(vertexSize)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*vertexSize, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(attribPosition, 3, gl.FLOAT, false, stride, offsetPosition)
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribPointerWithOffset(attribNormal, 3, gl.FLOAT, false, stride, offsetNormal)
	gl.EnableVertexAttribArray(attribNormal)
	gl.VertexAttribPointerWithOffset(attribTexCoord, 2, gl.FLOAT, false, stride, offsetTexCoord)
	gl.EnableVertexAttribArray(attribTexCoord)
	// Bone ids are integers in the shader
	gl.VertexAttribIPointerWithOffset(attribBoneIDs, model.MaxBoneInfluence, gl.INT, stride, offsetBoneIDs)
	gl.EnableVertexAttribArray(attribBoneIDs)
	gl.VertexAttribPointerWithOffset(attribWeights, model.MaxBoneInfluence, gl.FLOAT, false, stride, offsetWeights)
	gl.EnableVertexAttribArray(attribWeights)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gm.indexCount = int32(len(indices))
	gl.BindVertexArray(0)
}

// Vertex layout of model.Vertex.
var (
	vertexSize     = int(unsafe.Sizeof(model.Vertex{}))
	offsetPosition = unsafe.Offsetof(model.Vertex{}.Position)
	offsetNormal   = unsafe.Offsetof(model.Vertex{}.Normal)
	offsetTexCoord = unsafe.Offsetof(model.Vertex{}.TexCoord)
	offsetBoneIDs  = unsafe.Offsetof(model.Vertex{}.BoneIDs)
	offsetWeights  = unsafe.Offsetof(model.Vertex{}.Weights)
)

func loadMeshTexture(modelName string, ref *formats.TextureRef) uint32 {
	var (
		img *image.RGBA
		err error
	)
	if len(ref.Data) > 0 {
		img, err = texture.Decode(ref.Data, ref.MimeType)
	} else {
		img, err = texture.Load(ref.Path)
	}
	if err != nil {
		logger.Warn("failed to load texture",
			zap.String("model", modelName),
			zap.String("path", ref.Path),
			zap.Error(err))
		return 0
	}
	return uploadTexture(img)
}

func uploadTexture(img *image.RGBA) uint32 {
	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	return texID
}

func whitePixel() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

// Destroy releases all GL resources of the model.
func (g *GPUModel) Destroy() {
	for i := range g.meshes {
		m := &g.meshes[i]
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	for i := range g.textures {
		gl.DeleteTextures(1, &g.textures[i])
	}
	g.meshes = nil
	g.textures = nil
}
