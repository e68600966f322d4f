package viewer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/config"
	"github.com/Faultbox/skinview/internal/engine/camera"
	"github.com/Faultbox/skinview/internal/engine/debug"
	"github.com/Faultbox/skinview/internal/engine/input"
	"github.com/Faultbox/skinview/internal/engine/lighting"
	"github.com/Faultbox/skinview/internal/engine/renderer"
	"github.com/Faultbox/skinview/internal/engine/texture"
	"github.com/Faultbox/skinview/internal/engine/window"
	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/math"
)

// Viewer is the windowed scene viewer.
type Viewer struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	scene     *Scene
	character *renderer.GPUModel
	house     *renderer.GPUModel
	skybox    *renderer.Skybox

	screenshots *debug.ScreenshotCapture
	capture     bool

	fly    *camera.FlyCamera
	orbit  *camera.OrbitCamera
	active camera.Camera

	// bones is reused every frame for the uniform upload
	bones []math.Mat4
}

// New loads the scene and creates the window and GL resources.
func New(cfg *config.Config) (*Viewer, error) {
	scene, err := LoadScene(cfg)
	if err != nil {
		return nil, err
	}

	// Skybox faces are decoded before the window opens so a bad path fails fast
	var cube *texture.Cube
	if cfg.Scene.Skybox != "" {
		cube, err = texture.LoadCube(cfg.Scene.Skybox)
		if err != nil {
			return nil, fmt.Errorf("loading skybox: %w", err)
		}
	}

	screenshots, err := debug.NewScreenshotCapture(cfg.Graphics.ScreenshotDir, "skinview", cfg.Graphics.ScreenshotFormat)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		config:      cfg,
		scene:       scene,
		screenshots: screenshots,
		bones:       make([]math.Mat4, scene.BoneCount()),
	}

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      "skinview - " + scene.Character.Name,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	v.renderer, err = renderer.New(renderer.Config{
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		MaxBones:   scene.BoneCount(),
		LightDir:   lighting.SunDirection(cfg.Scene.LightAzimuth, lighting.Clamp(cfg.Scene.LightElevation)),
		LightColor: cfg.Scene.LightColor,
		Phong: lighting.Phong{
			Ambient:   cfg.Scene.Ambient,
			Diffuse:   cfg.Scene.Diffuse,
			Specular:  cfg.Scene.Specular,
			Shininess: cfg.Scene.Shininess,
		},
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.character = v.renderer.Upload(scene.Character)
	if scene.House != nil {
		v.house = v.renderer.Upload(scene.House)
	}
	if cube != nil {
		v.skybox = renderer.NewSkybox(cube)
	}

	v.input = input.New()
	v.setupCameras()

	logger.Info("viewer initialized")
	return v, nil
}

func (v *Viewer) setupCameras() {
	cc := v.config.Camera
	v.fly = camera.NewFlyCamera(math.Vec3FromArray(cc.Position), cc.FOV)
	v.fly.MoveSpeed = cc.MoveSpeed
	v.fly.TurnSpeed = cc.TurnSpeed
	v.fly.Sensitivity = cc.Sensitivity
	v.orbit = camera.NewOrbitCamera(cc.FOV)

	if b := v.scene.Bounds(); cc.AutoFrame && b.Valid() {
		v.fly.FitToBounds(b.Min, b.Max)
		v.orbit.FitToBounds(b.Min, b.Max)
	}
	v.active = v.fly
}

// Run starts the main loop and returns when the window is closed.
func (v *Viewer) Run() error {
	v.running = true

	stats := frameStats{interval: time.Second}
	budget := frameBudget(v.config.Graphics.FPSLimit)
	lastTime := time.Now()

	logger.Info("starting viewer loop")

	for v.running {
		// Calculate delta time
		now := time.Now()
		elapsed := now.Sub(lastTime)
		lastTime = now
		dt := frameDelta(elapsed)

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		// 2. Update camera and animation
		if v.active == v.fly {
			v.fly.Update(movementFromKeys(v.input.IsKeyHeld), dt)
		}
		v.scene.Update(dt)
		n := v.scene.Player.CopyFinalMatrices(v.bones)

		// 3. Render
		v.render(v.bones[:n])
		if v.capture {
			v.capture = false
			v.saveScreenshot()
		}

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		// FPS counter
		if fps, worst, ok := stats.add(elapsed); ok {
			logger.Debug("fps",
				zap.Float64("fps", fps),
				zap.Duration("worst_frame", worst),
				zap.Float32("anim_time", v.scene.Player.Time()))
		}

		if budget > 0 {
			if spent := time.Since(now); spent < budget {
				time.Sleep(budget - spent)
			}
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(event.Width, event.Height)

		case input.EventKeyDown:
			switch event.Key {
			case keyQuit:
				v.running = false
			case keyPause:
				logger.Info("playback", zap.Bool("paused", v.scene.TogglePause()))
			case keyRestart:
				v.scene.Restart()
			case keyCameraMode:
				v.toggleCamera()
			case keyScreenshot:
				v.capture = true
			}

		case input.EventMouseDown:
			v.window.SetMouseCaptured(true)
		case input.EventMouseUp:
			v.window.SetMouseCaptured(false)

		case input.EventMouseMove:
			// Look around only while a button is held
			if event.Button == 0 {
				continue
			}
			if v.active == v.fly {
				v.fly.HandleLook(float32(event.DeltaX), float32(event.DeltaY))
			} else {
				v.orbit.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}

		case input.EventMouseWheel:
			v.active.HandleZoom(event.Wheel)
		}
	}
}

func (v *Viewer) toggleCamera() {
	if v.active == v.fly {
		v.active = v.orbit
	} else {
		v.active = v.fly
	}
	logger.Debug("camera mode", zap.Bool("orbit", v.active == v.orbit))
}

// saveScreenshot writes the frame just rendered, before the buffer swap.
func (v *Viewer) saveScreenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.screenshots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", name))
}

// render draws the current frame.
func (v *Viewer) render(bones []math.Mat4) {
	cc := v.config.Camera
	view := v.active.ViewMatrix()
	projection := v.active.ProjectionMatrix(v.window.Aspect(), cc.Near, cc.Far)

	v.renderer.Begin(view, projection)
	if v.house != nil {
		v.renderer.DrawModel(v.house, v.scene.HouseTransform(), nil)
	}
	v.renderer.DrawModel(v.character, math.Identity(), bones)
	v.renderer.DrawSkybox(v.skybox)
	v.renderer.End()
}

// Close releases GL resources and the window.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.character != nil {
		v.character.Destroy()
	}
	if v.house != nil {
		v.house.Destroy()
	}
	if v.skybox != nil {
		v.skybox.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
