package skeletal

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/skinview/pkg/math"
)

func TestIDForIsDenseAndStable(t *testing.T) {
	table := NewBindingTable()

	// Mesh and animation importers interleave.
	assert.Equal(t, 0, table.Register("Hips", math.Translate(0, -1, 0)))
	assert.Equal(t, 1, table.IDFor("Spine"))
	assert.Equal(t, 0, table.IDFor("Hips"))
	assert.Equal(t, 2, table.Register("Head", math.Identity()))
	assert.Equal(t, 1, table.Register("Spine", math.Identity()))
	assert.Equal(t, 3, table.IDFor("Tail"))
	assert.Equal(t, 3, table.IDFor("Tail"))

	assert.Equal(t, 4, table.Len())
	assert.Equal(t, []string{"Hips", "Spine", "Head", "Tail"}, table.Names())

	for id, name := range table.Names() {
		b, ok := table.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, id, b.ID)
	}
}

func TestRegisterFirstOffsetWins(t *testing.T) {
	table := NewBindingTable()

	first := math.Translate(1, 2, 3)
	table.Register("Arm", first)
	table.Register("Arm", math.Scale(9, 9, 9))

	b, ok := table.Lookup("Arm")
	require.True(t, ok)
	assert.True(t, b.HasOffset)
	assert.Equal(t, first, b.Offset)
}

func TestAnimationOnlyBoneHasIdentityOffset(t *testing.T) {
	table := NewBindingTable()
	id := table.IDFor("Prop")

	b, ok := table.Lookup("Prop")
	require.True(t, ok)
	assert.Equal(t, id, b.ID)
	assert.False(t, b.HasOffset)
	assert.Equal(t, math.Identity(), b.Offset)

	// A mesh seen later still sets the offset once.
	table.Register("Prop", math.Translate(4, 0, 0))
	b, _ = table.Lookup("Prop")
	assert.True(t, b.HasOffset)
	assert.Equal(t, math.Translate(4, 0, 0), b.Offset)
	assert.Equal(t, id, b.ID)
}

func TestLookupMissing(t *testing.T) {
	table := NewBindingTable()
	_, ok := table.Lookup("nobody")
	assert.False(t, ok)
	assert.Zero(t, table.Len(), "Lookup must not assign ids")
}

func TestFreeze(t *testing.T) {
	table := NewBindingTable()
	table.Register("A", math.Identity())
	table.IDFor("B")
	table.IDFor("C")

	err := table.Freeze(2)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.False(t, table.Frozen())

	require.NoError(t, table.Freeze(3))
	assert.True(t, table.Frozen())

	assert.Equal(t, 1, table.IDFor("B"), "existing names still resolve")
	assert.NotPanics(t, func() { table.Register("A", math.Scale(2, 2, 2)) }, "no-op register is allowed")
	assert.Panics(t, func() { table.IDFor("D") })
	assert.Panics(t, func() { table.Register("E", math.Identity()) })
	assert.Panics(t, func() { table.Register("B", math.Identity()) }, "setting an offset mutates the table")
	assert.Equal(t, 3, table.Len())
}

func TestSnapshotIsIndependent(t *testing.T) {
	table := NewBindingTable()
	table.Register("A", math.Translate(1, 0, 0))
	table.IDFor("B")

	snap := table.Snapshot()
	table.IDFor("C")
	table.Register("B", math.Translate(0, 2, 0))

	assert.Equal(t, 2, snap.Len())
	_, ok := snap.Lookup("C")
	assert.False(t, ok)

	b, ok := snap.Lookup("B")
	require.True(t, ok)
	assert.False(t, b.HasOffset, "snapshot keeps the state at the time it was taken")
	assert.Equal(t, "A", snap.Name(0))
	assert.Equal(t, "B", snap.Name(1))
}

func TestConcurrentIDFor(t *testing.T) {
	table := NewBindingTable()

	const workers, bones = 8, 64
	var wg sync.WaitGroup
	results := make([][]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]int, bones)
			for i := 0; i < bones; i++ {
				// Each worker walks the names in a different order.
				n := (i + w*7) % bones
				name := fmt.Sprintf("bone%02d", n)
				if w%2 == 0 {
					ids[n] = table.IDFor(name)
				} else {
					ids[n] = table.Register(name, math.Identity())
				}
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	require.Equal(t, bones, table.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w], "worker %d disagrees on ids", w)
	}

	seen := make(map[int]bool)
	for _, id := range results[0] {
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.True(t, id >= 0 && id < bones)
		seen[id] = true
	}
}
