package skeletal

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/skinview/pkg/math"
)

// Player plays one clip and owns the skinning matrices it produces.
//
// A Player is not safe for concurrent use. Read the output only after
// Advance returns for the frame.
type Player struct {
	clip *Clip
	time float32

	// final is indexed by bone id; slots never written stay identity.
	final   []math.Mat4
	globals []math.Mat4
}

// NewPlayer returns a player with room for capacity bones.
// A non-positive capacity selects DefaultMaxBones.
func NewPlayer(capacity int) *Player {
	if capacity <= 0 {
		capacity = DefaultMaxBones
	}
	p := &Player{final: make([]math.Mat4, capacity)}
	p.fillIdentity()
	return p
}

func (p *Player) fillIdentity() {
	id := math.Identity()
	for i := range p.final {
		p.final[i] = id
	}
}

// SetClip switches to clip and rewinds to time 0. Output slots keep their
// values until the next Advance. A nil clip detaches the player.
func (p *Player) SetClip(clip *Clip) error {
	if clip != nil && clip.bindings.Len() > len(p.final) {
		return fmt.Errorf("clip %q has %d bones, player capacity %d: %w",
			clip.name, clip.bindings.Len(), len(p.final), ErrCapacityExceeded)
	}

	p.clip = clip
	p.time = 0
	if clip != nil {
		if cap(p.globals) < len(clip.joints) {
			p.globals = make([]math.Mat4, len(clip.joints))
		}
		p.globals = p.globals[:len(clip.joints)]
	}
	return nil
}

// Clip returns the active clip, or nil.
func (p *Player) Clip() *Clip { return p.clip }

// Time returns the playback position in ticks, in [0, duration).
func (p *Player) Time() float32 { return p.time }

// Capacity returns the length of the output array.
func (p *Player) Capacity() int { return len(p.final) }

// Advance moves playback forward by dt seconds, looping at the clip end, and
// recomputes the skinning matrices. Without a clip it does nothing.
func (p *Player) Advance(dt float32) {
	if p.clip == nil {
		return
	}
	p.time = wrapTime(p.time+p.clip.ticksPerSecond*dt, p.clip.duration)
	p.evaluate()
}

// SetTime jumps to time ticks, wrapped into the clip, and recomputes the
// skinning matrices.
func (p *Player) SetTime(time float32) {
	if p.clip == nil {
		return
	}
	p.time = wrapTime(time, p.clip.duration)
	p.evaluate()
}

// Reset rewinds to time 0 and restores every output slot to identity.
func (p *Player) Reset() {
	p.time = 0
	p.fillIdentity()
}

// FinalMatrices returns a copy of the output array.
func (p *Player) FinalMatrices() []math.Mat4 {
	return append([]math.Mat4(nil), p.final...)
}

// CopyFinalMatrices copies the output array into dst and returns the number
// of matrices copied.
func (p *Player) CopyFinalMatrices(dst []math.Mat4) int {
	return copy(dst, p.final)
}

// BoneCount returns the number of meaningful output slots for the active clip.
func (p *Player) BoneCount() int {
	if p.clip == nil {
		return 0
	}
	return p.clip.bindings.Len()
}

// evaluate walks the flattened hierarchy: global = parent * local, and
// final[id] = global * offset for bound nodes.
func (p *Player) evaluate() {
	joints := p.clip.joints
	for i := range joints {
		j := &joints[i]

		local := j.node.local
		if j.track != nil {
			local = j.track.LocalTransform(p.time)
		}

		global := local
		if j.parent >= 0 {
			global = p.globals[j.parent].Mul(local)
		}
		p.globals[i] = global

		if j.slot >= 0 {
			p.final[j.slot] = global.Mul(j.offset)
		}
	}
}

// wrapTime maps t into [0, duration).
func wrapTime(t, duration float32) float32 {
	w := float32(gomath.Mod(float64(t), float64(duration)))
	if w < 0 {
		w += duration
	}
	if !(w >= 0 && w < duration) {
		return 0
	}
	return w
}
