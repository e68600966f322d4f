// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/engine/lighting"
	"github.com/Faultbox/skinview/internal/engine/renderer/shaders"
	"github.com/Faultbox/skinview/internal/engine/shader"
	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// MaxBones sizes the bone matrix array of the model shader. It should be
	// the length of the frozen binding table.
	MaxBones int
	// LightDir and LightColor drive the single directional light.
	LightDir   [3]float32
	LightColor [3]float32
	Phong      lighting.Phong
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	modelProgram uint32
	skyProgram   uint32

	// Model uniform locations
	locModel      int32
	locView       int32
	locProjection int32
	locSkinned    int32
	locBones      int32
	locTexture    int32
	locLightDir   int32
	locLightColor int32
	locViewPos    int32
	locAmbient    int32
	locDiffuse    int32
	locSpecular   int32
	locShininess  int32

	// Skybox uniform locations
	locSkyView       int32
	locSkyProjection int32
	locSkySampler    int32

	// 1x1 white texture for untextured meshes
	whiteTex uint32

	view       math.Mat4
	projection math.Mat4
	eye        math.Vec3
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:     cfg,
		view:       math.Identity(),
		projection: math.Identity(),
	}

	// Initialize OpenGL
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	// Log OpenGL info
	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	// Setup default OpenGL state
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0) // Dark blue-gray background
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	if err := r.createPrograms(); err != nil {
		r.Close()
		return nil, err
	}
	r.whiteTex = uploadTexture(whitePixel())

	return r, nil
}

func (r *Renderer) createPrograms() error {
	bones := BoneArraySize(r.config.MaxBones)
	vert := shader.WithDefines(shaders.ModelVertexShader, map[string]string{
		"MAX_BONES": strconv.Itoa(bones),
	})

	var err error
	r.modelProgram, err = shader.CompileProgram(vert, shaders.ModelFragmentShader)
	if err != nil {
		return fmt.Errorf("model shader: %w", err)
	}
	r.locModel = shader.GetUniform(r.modelProgram, "uModel")
	r.locView = shader.GetUniform(r.modelProgram, "uView")
	r.locProjection = shader.GetUniform(r.modelProgram, "uProjection")
	r.locSkinned = shader.GetUniform(r.modelProgram, "uSkinned")
	r.locBones = shader.GetUniform(r.modelProgram, shader.BoneUniformName(0))
	r.locTexture = shader.GetUniform(r.modelProgram, "uTexture")
	r.locLightDir = shader.GetUniform(r.modelProgram, "uLightDir")
	r.locLightColor = shader.GetUniform(r.modelProgram, "uLightColor")
	r.locViewPos = shader.GetUniform(r.modelProgram, "uViewPos")
	r.locAmbient = shader.GetUniform(r.modelProgram, "uAmbient")
	r.locDiffuse = shader.GetUniform(r.modelProgram, "uDiffuse")
	r.locSpecular = shader.GetUniform(r.modelProgram, "uSpecular")
	r.locShininess = shader.GetUniform(r.modelProgram, "uShininess")

	r.skyProgram, err = shader.CompileProgram(shaders.SkyboxVertexShader, shaders.SkyboxFragmentShader)
	if err != nil {
		return fmt.Errorf("skybox shader: %w", err)
	}
	r.locSkyView = shader.MustGetUniform(r.skyProgram, "uView")
	r.locSkyProjection = shader.MustGetUniform(r.skyProgram, "uProjection")
	r.locSkySampler = shader.MustGetUniform(r.skyProgram, "uSkybox")

	logger.Debug("shader programs created",
		zap.Uint32("model", r.modelProgram),
		zap.Uint32("skybox", r.skyProgram),
		zap.Int("bone_array", bones),
	)
	return nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Debug("closing renderer")
	if r.whiteTex != 0 {
		gl.DeleteTextures(1, &r.whiteTex)
	}
	if r.modelProgram != 0 {
		gl.DeleteProgram(r.modelProgram)
	}
	if r.skyProgram != 0 {
		gl.DeleteProgram(r.skyProgram)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// SetLightColor changes the directional light color.
func (r *Renderer) SetLightColor(c [3]float32) {
	r.config.LightColor = c
}

// Begin starts a new frame with the given camera matrices.
func (r *Renderer) Begin(view, projection math.Mat4) {
	r.view = view
	r.projection = projection
	r.eye = EyePosition(view)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// DrawModel draws every mesh of m with the given model matrix. bones holds
// the final bone matrices for skinned meshes and is ignored otherwise.
func (r *Renderer) DrawModel(m *GPUModel, transform math.Mat4, bones []math.Mat4) {
	if m == nil || len(m.meshes) == 0 {
		return
	}

	gl.UseProgram(r.modelProgram)
	shader.SetMat4(r.locModel, transform)
	shader.SetMat4(r.locView, r.view)
	shader.SetMat4(r.locProjection, r.projection)
	shader.SetVec3(r.locLightDir, r.config.LightDir)
	shader.SetVec3(r.locLightColor, r.config.LightColor)
	shader.SetVec3(r.locViewPos, r.eye.Array())
	gl.Uniform1f(r.locAmbient, r.config.Phong.Ambient)
	gl.Uniform1f(r.locDiffuse, r.config.Phong.Diffuse)
	gl.Uniform1f(r.locSpecular, r.config.Phong.Specular)
	gl.Uniform1f(r.locShininess, r.config.Phong.Shininess)

	if n := min(len(bones), BoneArraySize(r.config.MaxBones)); n > 0 {
		shader.SetMat4Array(r.locBones, bones[:n])
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(r.locTexture, 0)

	for i := range m.meshes {
		mesh := &m.meshes[i]
		skinned := int32(0)
		if mesh.skinned && len(bones) > 0 {
			skinned = 1
		}
		gl.Uniform1i(r.locSkinned, skinned)

		tex := r.whiteTex
		if mesh.texture != 0 {
			tex = mesh.texture
		}
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.BindVertexArray(mesh.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_INT, 0)
	}
	gl.BindVertexArray(0)
}

// DrawSkybox draws the cube map behind everything drawn so far.
func (r *Renderer) DrawSkybox(s *Skybox) {
	if s == nil || s.vao == 0 {
		return
	}

	gl.DepthFunc(gl.LEQUAL)
	gl.UseProgram(r.skyProgram)
	shader.SetMat4(r.locSkyView, r.view.WithoutTranslation())
	shader.SetMat4(r.locSkyProjection, r.projection)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, s.texture)
	gl.Uniform1i(r.locSkySampler, 0)

	gl.BindVertexArray(s.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(skyboxVertices)/3))
	gl.BindVertexArray(0)
	gl.DepthFunc(gl.LESS)
}

// ReadPixels returns the RGBA contents of the back buffer, bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

// EyePosition returns the world space camera position encoded in a view matrix.
func EyePosition(view math.Mat4) math.Vec3 {
	return view.Inverse().Translation()
}

// BoneArraySize returns the bone matrix array length for a table of n bones.
// GLSL arrays cannot be empty, so the result is at least 1.
func BoneArraySize(n int) int {
	return max(n, 1)
}
