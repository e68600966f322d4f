// Package skeletal evaluates skeletal animation: keyframed bone tracks, the
// bind-pose hierarchy, the shared bone binding table and the per-frame
// traversal that produces skinning matrices.
package skeletal

import "errors"

const (
	// DefaultMaxBones is the size of a player's output matrix array.
	DefaultMaxBones = 1000

	// DefaultTicksPerSecond is used when a clip does not specify its rate.
	DefaultTicksPerSecond = 25

	// MaxHierarchyDepth bounds the node tree copied from an importer.
	MaxHierarchyDepth = 256
)

// Load errors. All are checkable with errors.Is.
var (
	ErrEmptySequence    = errors.New("skeletal: keyframe sequence is empty")
	ErrUnsortedKeys     = errors.New("skeletal: keyframe timestamps decrease")
	ErrNoRootNode       = errors.New("skeletal: scene has no root node")
	ErrHierarchyTooDeep = errors.New("skeletal: node hierarchy too deep")
	ErrNoChannels       = errors.New("skeletal: animation has no channels")
	ErrZeroDuration     = errors.New("skeletal: animation duration must be positive")
	ErrNegativeRate     = errors.New("skeletal: ticks per second is negative")
	ErrDuplicateChannel = errors.New("skeletal: bone has more than one channel")
	ErrCapacityExceeded = errors.New("skeletal: bone count exceeds capacity")
)
