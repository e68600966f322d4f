// Package viewer implements the scene viewer: asset loading, animation
// playback and the frame loop.
package viewer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/config"
	"github.com/Faultbox/skinview/internal/engine/model"
	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

// ErrNoModel is returned when no character model is configured.
var ErrNoModel = errors.New("viewer: no model configured")

// Scene holds the CPU side of everything the viewer draws.
type Scene struct {
	Character *model.Model
	House     *model.Model // nil when not configured

	Table  *skeletal.BindingTable
	Clip   *skeletal.Clip // nil when the character has no animation
	Player *skeletal.Player

	Speed      float32
	HouseScale float32
	paused     bool
}

// LoadScene loads the configured models and prepares playback.
func LoadScene(cfg *config.Config) (*Scene, error) {
	if cfg.Scene.Model == "" {
		return nil, ErrNoModel
	}
	character, err := formats.LoadGLTF(cfg.Scene.Model)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}

	var house *formats.Scene
	if cfg.Scene.House != "" {
		house, err = formats.LoadGLTF(cfg.Scene.House)
		if err != nil {
			return nil, fmt.Errorf("loading house: %w", err)
		}
	}

	s, err := BuildScene(character, house, cfg.Animation)
	if err != nil {
		return nil, err
	}
	s.HouseScale = cfg.Scene.HouseScale
	return s, nil
}

// BuildScene converts imported scenes into a ready to play Scene. The binding
// table is frozen with anim.MaxBones once the skin and the selected clip
// have registered their bones.
func BuildScene(character, house *formats.Scene, anim config.AnimationConfig) (*Scene, error) {
	s := &Scene{
		Table:      skeletal.NewBindingTable(),
		Speed:      anim.Speed,
		HouseScale: 1,
	}

	var err error
	s.Character, err = model.BuildSkinned(character, s.Table)
	if err != nil {
		return nil, fmt.Errorf("character: %w", err)
	}

	s.Clip, err = s.Character.Clip(anim.Clip, anim.ClipIndex)
	switch {
	case errors.Is(err, model.ErrNoAnimations):
		logger.Warn("model has no animations, showing bind pose", zap.String("model", s.Character.Name))
	case err != nil:
		return nil, fmt.Errorf("character clip: %w", err)
	case !model.HasAnimation(character):
		logger.Warn("animations hold a single pose", zap.String("model", s.Character.Name))
	}

	if err := s.Table.Freeze(anim.MaxBones); err != nil {
		return nil, fmt.Errorf("character: %w", err)
	}

	s.Player = skeletal.NewPlayer(anim.MaxBones)
	if s.Clip != nil {
		if err := s.Player.SetClip(s.Clip); err != nil {
			return nil, err
		}
	}

	if house != nil {
		s.House, err = model.BuildStatic(house)
		if err != nil {
			return nil, fmt.Errorf("house: %w", err)
		}
	}

	logger.Info("scene ready",
		zap.String("character", s.Character.Name),
		zap.Int("bones", s.Table.Len()),
		zap.Bool("animated", s.Clip != nil),
		zap.Bool("house", s.House != nil))
	return s, nil
}

// Update advances playback by dt seconds scaled by Speed.
func (s *Scene) Update(dt float32) {
	if s.paused {
		return
	}
	s.Player.Advance(dt * s.Speed)
}

// TogglePause stops or resumes playback.
func (s *Scene) TogglePause() bool {
	s.paused = !s.paused
	return s.paused
}

// Restart rewinds playback to the first frame.
func (s *Scene) Restart() {
	s.Player.SetTime(0)
}

// BoneCount is the number of final matrices the shader needs.
func (s *Scene) BoneCount() int {
	return s.Table.Len()
}

// HouseTransform is the model matrix of the static house.
func (s *Scene) HouseTransform() math.Mat4 {
	return math.Scale(s.HouseScale, s.HouseScale, s.HouseScale)
}

// Bounds returns the box the camera frames on startup.
func (s *Scene) Bounds() model.Bounds {
	return s.Character.Bounds
}
