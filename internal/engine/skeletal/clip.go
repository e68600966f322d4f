package skeletal

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

// Clip is one animation bound to a skeleton. It is immutable and may be
// shared by several players.
type Clip struct {
	name           string
	duration       float32
	ticksPerSecond float32

	root     *Node
	tracks   []*BoneTrack
	byName   map[string]*BoneTrack
	bindings *Bindings

	// joints is the hierarchy flattened depth-first; parents precede children.
	joints []joint
}

type joint struct {
	node   *Node
	parent int
	track  *BoneTrack
	// slot is -1 when the node has no binding.
	slot   int
	offset math.Mat4
}

// NewClip builds a clip from an imported animation and the scene root.
//
// Every channel's bone gets an id from table, so bones that animate without
// skinning any vertex still receive an output slot. The clip keeps a snapshot
// of table taken after its channels are registered; bindings registered later
// are not seen by this clip.
func NewClip(source *formats.Animation, root *formats.Node, table *BindingTable) (*Clip, error) {
	if root == nil {
		return nil, ErrNoRootNode
	}
	if source == nil || len(source.Channels) == 0 {
		return nil, ErrNoChannels
	}
	if !(source.Duration > 0) || gomath.IsInf(float64(source.Duration), 0) {
		return nil, fmt.Errorf("animation %q duration %v: %w", source.Name, source.Duration, ErrZeroDuration)
	}
	if source.TicksPerSecond < 0 {
		return nil, fmt.Errorf("animation %q at %v ticks/s: %w", source.Name, source.TicksPerSecond, ErrNegativeRate)
	}

	hierarchy, err := BuildHierarchy(root)
	if err != nil {
		return nil, fmt.Errorf("animation %q: %w", source.Name, err)
	}

	tps := source.TicksPerSecond
	if tps == 0 {
		tps = DefaultTicksPerSecond
	}

	c := &Clip{
		name:           source.Name,
		duration:       source.Duration,
		ticksPerSecond: tps,
		root:           hierarchy,
		tracks:         make([]*BoneTrack, 0, len(source.Channels)),
		byName:         make(map[string]*BoneTrack, len(source.Channels)),
	}

	before := table.Len()
	for i := range source.Channels {
		ch := &source.Channels[i]
		if _, dup := c.byName[ch.Node]; dup {
			return nil, fmt.Errorf("animation %q bone %q: %w", source.Name, ch.Node, ErrDuplicateChannel)
		}

		track, err := trackFromChannel(ch, table.IDFor(ch.Node))
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", source.Name, err)
		}
		if last := track.LastKeyTime(); last < c.duration {
			logger.Debug("track ends before clip, holding last key",
				zap.String("clip", c.name),
				zap.String("bone", track.Name()),
				zap.Float32("last_key", last),
				zap.Float32("duration", c.duration))
		}

		c.tracks = append(c.tracks, track)
		c.byName[ch.Node] = track
	}

	if added := table.Len() - before; added > 0 {
		logger.Debug("animation bones without skin influence",
			zap.String("clip", c.name),
			zap.Int("added", added))
	}

	c.bindings = table.Snapshot()
	c.flatten()

	logger.Info("animation clip loaded",
		zap.String("clip", c.name),
		zap.Int("tracks", len(c.tracks)),
		zap.Int("nodes", len(c.joints)),
		zap.Float32("duration", c.duration),
		zap.Float32("ticks_per_second", c.ticksPerSecond))

	return c, nil
}

func trackFromChannel(ch *formats.Channel, id int) (*BoneTrack, error) {
	positions := make([]VectorKey, len(ch.Positions))
	for i, k := range ch.Positions {
		positions[i] = VectorKey{Time: k.Time, Value: math.Vec3FromArray(k.Value)}
	}
	rotations := make([]RotationKey, len(ch.Rotations))
	for i, k := range ch.Rotations {
		rotations[i] = RotationKey{Time: k.Time, Value: math.QuatFromArray(k.Value)}
	}
	scales := make([]VectorKey, len(ch.Scales))
	for i, k := range ch.Scales {
		scales[i] = VectorKey{Time: k.Time, Value: math.Vec3FromArray(k.Value)}
	}
	return NewBoneTrack(ch.Node, id, positions, rotations, scales)
}

// flatten resolves each hierarchy node's track and binding once, so the
// per-frame traversal does no name lookups.
func (c *Clip) flatten() {
	c.joints = c.joints[:0]
	parents := make([]int, 0, 32)

	c.root.Walk(func(n *Node, depth int) bool {
		parents = parents[:depth]
		parent := -1
		if depth > 0 {
			parent = parents[depth-1]
		}

		j := joint{node: n, parent: parent, track: c.byName[n.name], slot: -1}
		if b, ok := c.bindings.Lookup(n.name); ok {
			j.slot = b.ID
			j.offset = b.Offset
		}

		parents = append(parents, len(c.joints))
		c.joints = append(c.joints, j)
		return true
	})
}

// Name returns the clip name.
func (c *Clip) Name() string { return c.name }

// Duration returns the clip length in ticks.
func (c *Clip) Duration() float32 { return c.duration }

// TicksPerSecond returns the playback rate.
func (c *Clip) TicksPerSecond() float32 { return c.ticksPerSecond }

// Seconds returns the clip length in seconds.
func (c *Clip) Seconds() float32 { return c.duration / c.ticksPerSecond }

// Root returns the bind-pose hierarchy.
func (c *Clip) Root() *Node { return c.root }

// Bindings returns the binding snapshot the clip writes through.
func (c *Clip) Bindings() *Bindings { return c.bindings }

// Tracks returns the tracks in channel order.
func (c *Clip) Tracks() []*BoneTrack { return c.tracks }

// FindTrack returns the track animating name, or nil.
func (c *Clip) FindTrack(name string) *BoneTrack { return c.byName[name] }
