package model

import (
	"errors"
	"fmt"

	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/pkg/formats"
)

// Animation selection errors.
var (
	ErrNoAnimations = errors.New("model: scene has no animations")
	ErrUnknownClip  = errors.New("model: animation not found")
	ErrStaticModel  = errors.New("model: static model cannot play animations")
)

// SelectAnimation picks an animation by name, or by index when name is empty.
func SelectAnimation(scene *formats.Scene, name string, index int) (*formats.Animation, error) {
	if len(scene.Animations) == 0 {
		return nil, ErrNoAnimations
	}
	if name != "" {
		if anim := scene.AnimationByName(name); anim != nil {
			return anim, nil
		}
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownClip)
	}
	if index < 0 || index >= len(scene.Animations) {
		return nil, fmt.Errorf("index %d of %d: %w", index, len(scene.Animations), ErrUnknownClip)
	}
	return &scene.Animations[index], nil
}

// Clip builds an animation clip against the model's node tree and binding
// table. Bones that only appear in the animation are added to the table.
func (m *Model) Clip(name string, index int) (*skeletal.Clip, error) {
	if m.Bindings == nil {
		return nil, ErrStaticModel
	}
	anim, err := SelectAnimation(m.Scene, name, index)
	if err != nil {
		return nil, err
	}
	return skeletal.NewClip(anim, m.Scene.Root, m.Bindings)
}

// HasAnimation reports whether any animation of the scene actually moves.
// Animations whose channels all have a single key are static poses.
func HasAnimation(scene *formats.Scene) bool {
	for i := range scene.Animations {
		for _, ch := range scene.Animations[i].Channels {
			if len(ch.Positions) > 1 || len(ch.Rotations) > 1 || len(ch.Scales) > 1 {
				return true
			}
		}
	}
	return false
}
