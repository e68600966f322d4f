package skeletal

import (
	"fmt"
	"sync"

	"github.com/Faultbox/skinview/pkg/math"
)

// Binding is a bone's output slot and inverse-bind (offset) matrix.
type Binding struct {
	ID     int
	Offset math.Mat4
	// HasOffset is false for bones only seen in animation channels.
	// Their Offset is identity.
	HasOffset bool
}

// BindingTable maps bone names to dense output slots.
//
// It is the only place bone ids are assigned. The mesh importer and the
// animation importer share one table and agree on ids by calling through it,
// in any order. Entries are never removed and never change once created,
// except that an offset may be set once on an entry that has none.
type BindingTable struct {
	mu      sync.RWMutex
	ids     map[string]int
	entries []Binding
	names   []string
	frozen  bool
}

// NewBindingTable returns an empty table.
func NewBindingTable() *BindingTable {
	return &BindingTable{ids: make(map[string]int)}
}

// IDFor returns the id of name, assigning the next id if name is new.
func (t *BindingTable) IDFor(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensure(name)
}

// Register records a mesh influence of name with its inverse-bind matrix.
// The first registered offset wins; later offsets for the same bone are
// ignored.
func (t *BindingTable) Register(name string, offset math.Mat4) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.ensure(name)
	e := &t.entries[id]
	if !e.HasOffset {
		if t.frozen {
			panic(fmt.Sprintf("skeletal: offset for bone %q set on frozen binding table", name))
		}
		e.Offset = offset
		e.HasOffset = true
	}
	return id
}

// ensure must be called with mu held for writing.
func (t *BindingTable) ensure(name string) int {
	if id, ok := t.ids[name]; ok {
		return id
	}
	if t.frozen {
		panic(fmt.Sprintf("skeletal: bone %q added to frozen binding table", name))
	}

	id := len(t.entries)
	t.ids[name] = id
	t.entries = append(t.entries, Binding{ID: id, Offset: math.Identity()})
	t.names = append(t.names, name)
	return id
}

// Lookup returns the binding for name.
func (t *BindingTable) Lookup(name string) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.ids[name]
	if !ok {
		return Binding{}, false
	}
	return t.entries[id], true
}

// Len returns the number of bones.
func (t *BindingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Names returns bone names in id order.
func (t *BindingTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.names...)
}

// Freeze checks the bone count against capacity and makes the table
// read-only. Adding a bone afterwards panics.
func (t *BindingTable) Freeze(capacity int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) > capacity {
		return fmt.Errorf("%d bones, capacity %d: %w", len(t.entries), capacity, ErrCapacityExceeded)
	}
	t.frozen = true
	return nil
}

// Frozen reports whether Freeze succeeded.
func (t *BindingTable) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// Snapshot returns an immutable copy of the current bindings.
func (t *BindingTable) Snapshot() *Bindings {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make(map[string]int, len(t.ids))
	for name, id := range t.ids {
		ids[name] = id
	}
	return &Bindings{
		ids:     ids,
		entries: append([]Binding(nil), t.entries...),
		names:   append([]string(nil), t.names...),
	}
}

// Bindings is a read-only view of a BindingTable at one point in time.
type Bindings struct {
	ids     map[string]int
	entries []Binding
	names   []string
}

// Lookup returns the binding for name.
func (b *Bindings) Lookup(name string) (Binding, bool) {
	id, ok := b.ids[name]
	if !ok {
		return Binding{}, false
	}
	return b.entries[id], true
}

// Len returns the number of bones.
func (b *Bindings) Len() int { return len(b.entries) }

// Name returns the bone name of id.
func (b *Bindings) Name(id int) string { return b.names[id] }
