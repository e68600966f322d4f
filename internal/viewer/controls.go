package viewer

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/skinview/internal/engine/camera"
)

// Key bindings.
const (
	keyForward    = sdl.SCANCODE_W
	keyBackward   = sdl.SCANCODE_S
	keyLeft       = sdl.SCANCODE_A
	keyRight      = sdl.SCANCODE_D
	keyTurnLeft   = sdl.SCANCODE_Q
	keyTurnRight  = sdl.SCANCODE_E
	keyUp         = sdl.SCANCODE_SPACE
	keyDown       = sdl.SCANCODE_LCTRL
	keyQuit       = sdl.SCANCODE_ESCAPE
	keyPause      = sdl.SCANCODE_P
	keyRestart    = sdl.SCANCODE_R
	keyCameraMode = sdl.SCANCODE_TAB
	keyScreenshot = sdl.SCANCODE_F12
)

// movementFromKeys maps held keys to fly camera movement.
func movementFromKeys(held func(sdl.Scancode) bool) camera.Movement {
	return camera.Movement{
		Forward:   held(keyForward),
		Backward:  held(keyBackward),
		Left:      held(keyLeft),
		Right:     held(keyRight),
		Up:        held(keyUp),
		Down:      held(keyDown) || held(sdl.SCANCODE_RCTRL),
		TurnLeft:  held(keyTurnLeft),
		TurnRight: held(keyTurnRight),
	}
}

// frameStats counts frames and reports once per interval.
type frameStats struct {
	interval time.Duration
	frames   int
	elapsed  time.Duration
	worst    time.Duration
}

// add records one frame. It returns true with the average fps and the
// slowest frame when an interval has passed.
func (f *frameStats) add(dt time.Duration) (fps float64, worst time.Duration, ok bool) {
	f.frames++
	f.elapsed += dt
	f.worst = max(f.worst, dt)
	if f.elapsed < f.interval {
		return 0, 0, false
	}

	fps = float64(f.frames) / f.elapsed.Seconds()
	worst = f.worst
	f.frames, f.elapsed, f.worst = 0, 0, 0
	return fps, worst, true
}

// frameDelta clamps a frame time so a stall (window drag, breakpoint)
// does not jump the animation and camera.
func frameDelta(dt time.Duration) float32 {
	const maxDelta = 250 * time.Millisecond
	if dt < 0 {
		return 0
	}
	return float32(min(dt, maxDelta).Seconds())
}

// frameBudget returns the minimum frame duration for an fps limit, or 0.
func frameBudget(fpsLimit int) time.Duration {
	if fpsLimit <= 0 {
		return 0
	}
	return time.Second / time.Duration(fpsLimit)
}
