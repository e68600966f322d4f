package skeletal

import (
	"fmt"
	"sort"

	"github.com/Faultbox/skinview/pkg/math"
)

// VectorKey is a position or scale keyframe. Time is in ticks.
type VectorKey struct {
	Time  float32
	Value math.Vec3
}

// RotationKey is a rotation keyframe. Time is in ticks.
type RotationKey struct {
	Time  float32
	Value math.Quat
}

// BoneTrack holds the keyframes animating one bone.
//
// The three sequences are independent: they may have different lengths and
// different timestamps. A BoneTrack is immutable after construction, so one
// track may be sampled from several players at once.
type BoneTrack struct {
	name string
	id   int

	positions []VectorKey
	rotations []RotationKey
	scales    []VectorKey
}

// NewBoneTrack validates and copies the given keyframes.
// Every sequence needs at least one key and non-decreasing timestamps.
// Rotations are normalized.
func NewBoneTrack(name string, id int, positions []VectorKey, rotations []RotationKey, scales []VectorKey) (*BoneTrack, error) {
	if err := checkKeys(name, "position", len(positions), func(i int) float32 { return positions[i].Time }); err != nil {
		return nil, err
	}
	if err := checkKeys(name, "rotation", len(rotations), func(i int) float32 { return rotations[i].Time }); err != nil {
		return nil, err
	}
	if err := checkKeys(name, "scale", len(scales), func(i int) float32 { return scales[i].Time }); err != nil {
		return nil, err
	}

	rots := make([]RotationKey, len(rotations))
	for i, k := range rotations {
		rots[i] = RotationKey{Time: k.Time, Value: k.Value.Normalize()}
	}

	return &BoneTrack{
		name:      name,
		id:        id,
		positions: append([]VectorKey(nil), positions...),
		rotations: rots,
		scales:    append([]VectorKey(nil), scales...),
	}, nil
}

func checkKeys(bone, kind string, n int, timeAt func(int) float32) error {
	if n == 0 {
		return fmt.Errorf("bone %q %s keys: %w", bone, kind, ErrEmptySequence)
	}
	for i := 1; i < n; i++ {
		if timeAt(i) < timeAt(i-1) {
			return fmt.Errorf("bone %q %s key %d at %v after %v: %w",
				bone, kind, i, timeAt(i), timeAt(i-1), ErrUnsortedKeys)
		}
	}
	return nil
}

// Name returns the bone name the track animates.
func (b *BoneTrack) Name() string { return b.name }

// ID returns the bone's slot in the binding table.
func (b *BoneTrack) ID() int { return b.id }

// KeyCounts returns the length of each keyframe sequence.
func (b *BoneTrack) KeyCounts() (positions, rotations, scales int) {
	return len(b.positions), len(b.rotations), len(b.scales)
}

// LastKeyTime returns the latest timestamp over all three sequences.
// Times past it hold the final pose.
func (b *BoneTrack) LastKeyTime() float32 {
	last := b.positions[len(b.positions)-1].Time
	if t := b.rotations[len(b.rotations)-1].Time; t > last {
		last = t
	}
	if t := b.scales[len(b.scales)-1].Time; t > last {
		last = t
	}
	return last
}

// LocalTransform returns T(position) * R(rotation) * S(scale) at time.
func (b *BoneTrack) LocalTransform(time float32) math.Mat4 {
	return math.Compose(b.Position(time), b.Rotation(time), b.Scale(time))
}

// Position interpolates the position sequence linearly.
func (b *BoneTrack) Position(time float32) math.Vec3 {
	return sampleVector(b.positions, time)
}

// Scale interpolates the scale sequence linearly.
func (b *BoneTrack) Scale(time float32) math.Vec3 {
	return sampleVector(b.scales, time)
}

// Rotation interpolates the rotation sequence spherically.
// The result is always a unit quaternion.
func (b *BoneTrack) Rotation(time float32) math.Quat {
	keys := b.rotations
	if len(keys) == 1 {
		return keys[0].Value
	}
	i, f := bracket(len(keys), func(i int) float32 { return keys[i].Time }, time)
	return keys[i].Value.Slerp(keys[i+1].Value, f).Normalize()
}

// PositionIndex returns the start of the position segment containing time.
func (b *BoneTrack) PositionIndex(time float32) int {
	keys := b.positions
	return segment(len(keys), func(i int) float32 { return keys[i].Time }, time)
}

// RotationIndex returns the start of the rotation segment containing time.
func (b *BoneTrack) RotationIndex(time float32) int {
	keys := b.rotations
	return segment(len(keys), func(i int) float32 { return keys[i].Time }, time)
}

// ScaleIndex returns the start of the scale segment containing time.
func (b *BoneTrack) ScaleIndex(time float32) int {
	keys := b.scales
	return segment(len(keys), func(i int) float32 { return keys[i].Time }, time)
}

func sampleVector(keys []VectorKey, time float32) math.Vec3 {
	if len(keys) == 1 {
		return keys[0].Value
	}
	i, f := bracket(len(keys), func(i int) float32 { return keys[i].Time }, time)
	return keys[i].Value.Lerp(keys[i+1].Value, f)
}

func segment(n int, timeAt func(int) float32, time float32) int {
	if n < 2 {
		return 0
	}
	i, _ := bracket(n, timeAt, time)
	return i
}

// bracket finds the smallest i in [0, n-2] with time < ts[i+1] and the blend
// factor between keys i and i+1. n must be at least 2.
//
// Times at or past the last key hold the last key (i = n-2, factor 1).
// Times before the first key hold the first key (factor 0).
func bracket(n int, timeAt func(int) float32, time float32) (int, float32) {
	i := sort.Search(n-1, func(i int) bool { return time < timeAt(i+1) })
	if i == n-1 {
		return n - 2, 1
	}

	t0, t1 := timeAt(i), timeAt(i+1)
	span := t1 - t0
	if span <= 0 {
		return i, 0
	}

	f := (time - t0) / span
	if f < 0 {
		f = 0
	}
	return i, f
}
