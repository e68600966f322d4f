// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ModelVertexShader transforms static and skinned vertices. The bone array
// size comes from a MAX_BONES define injected at compile time.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader applies the base color texture with a Blinn-Phong directional light.
//
//go:embed model.frag
var ModelFragmentShader string

// SkyboxVertexShader is the vertex shader for the skybox cube.
//
//go:embed skybox.vert
var SkyboxVertexShader string

// SkyboxFragmentShader samples the skybox cube map.
//
//go:embed skybox.frag
var SkyboxFragmentShader string
