// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/skinview/internal/engine/lighting"
	"github.com/Faultbox/skinview/internal/engine/skeletal"
)

// Config holds all viewer settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Scene     SceneConfig     `yaml:"scene"`
	Animation AnimationConfig `yaml:"animation"`
	Camera    CameraConfig    `yaml:"camera"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`

	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or webp
}

// SceneConfig holds asset paths.
type SceneConfig struct {
	Model      string     `yaml:"model"`       // Skinned, animated character
	House      string     `yaml:"house"`       // Static environment model, optional
	Skybox     string     `yaml:"skybox"`      // Directory holding the six face images, optional
	HouseScale float32    `yaml:"house_scale"` // Uniform scale applied to the house
	LightColor [3]float32 `yaml:"light_color"`

	LightAzimuth   float32 `yaml:"light_azimuth"`   // Degrees around the Y axis
	LightElevation float32 `yaml:"light_elevation"` // Degrees above the horizon, 0-90

	Ambient   float32 `yaml:"ambient"`
	Diffuse   float32 `yaml:"diffuse"`
	Specular  float32 `yaml:"specular"`
	Shininess float32 `yaml:"shininess"` // Blinn-Phong exponent
}

// AnimationConfig holds clip selection and playback settings.
type AnimationConfig struct {
	MaxBones  int     `yaml:"max_bones"`
	Clip      string  `yaml:"clip"`       // Clip name; takes priority over ClipIndex
	ClipIndex int     `yaml:"clip_index"` // Clip index when Clip is empty
	Speed     float32 `yaml:"speed"`      // Playback rate multiplier
}

// CameraConfig holds fly camera settings.
type CameraConfig struct {
	FOV         float32    `yaml:"fov"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	MoveSpeed   float32    `yaml:"move_speed"`   // Units per second
	TurnSpeed   float32    `yaml:"turn_speed"`   // Degrees per second
	Sensitivity float32    `yaml:"sensitivity"`  // Degrees per pixel of mouse motion
	Position    [3]float32 `yaml:"position"`
	AutoFrame   bool       `yaml:"auto_frame"` // Place the camera from model bounds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	phong := lighting.DefaultPhong()
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,

			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
		Scene: SceneConfig{
			HouseScale: 1,
			LightColor: [3]float32{1, 1, 1},

			LightAzimuth:   30,
			LightElevation: 60,

			Ambient:   phong.Ambient,
			Diffuse:   phong.Diffuse,
			Specular:  phong.Specular,
			Shininess: phong.Shininess,
		},
		Animation: AnimationConfig{
			MaxBones:  skeletal.DefaultMaxBones,
			ClipIndex: 0,
			Speed:     1,
		},
		Camera: CameraConfig{
			FOV:         45,
			Near:        0.1,
			Far:         1000,
			MoveSpeed:   5,
			TurnSpeed:   90,
			Sensitivity: 0.1,
			Position:    [3]float32{0, 1, 5},
			AutoFrame:   true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validation errors.
var (
	ErrInvalidSize     = errors.New("config: window size must be positive")
	ErrInvalidMaxBones = errors.New("config: animation.max_bones must be positive")
	ErrInvalidClip     = errors.New("config: animation.clip_index must not be negative")
	ErrInvalidCamera   = errors.New("config: camera planes must satisfy 0 < near < far")
	ErrInvalidFOV      = errors.New("config: camera.fov must be in (0, 180)")
	ErrInvalidFormat   = errors.New("config: graphics.screenshot_format must be png or webp")
	ErrInvalidLighting = errors.New("config: scene lighting terms must not be negative")
)

// Validate reports the first setting that cannot drive the viewer.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", c.Graphics.Width, c.Graphics.Height, ErrInvalidSize)
	}
	if f := c.Graphics.ScreenshotFormat; f != "" && f != "png" && f != "webp" {
		return fmt.Errorf("%q: %w", f, ErrInvalidFormat)
	}
	if s := c.Scene; s.Ambient < 0 || s.Diffuse < 0 || s.Specular < 0 || s.Shininess < 0 {
		return fmt.Errorf("ambient %g diffuse %g specular %g shininess %g: %w",
			s.Ambient, s.Diffuse, s.Specular, s.Shininess, ErrInvalidLighting)
	}
	if c.Animation.MaxBones <= 0 {
		return fmt.Errorf("%d: %w", c.Animation.MaxBones, ErrInvalidMaxBones)
	}
	if c.Animation.ClipIndex < 0 {
		return fmt.Errorf("%d: %w", c.Animation.ClipIndex, ErrInvalidClip)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("near %g far %g: %w", c.Camera.Near, c.Camera.Far, ErrInvalidCamera)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%g: %w", c.Camera.FOV, ErrInvalidFOV)
	}
	return nil
}
