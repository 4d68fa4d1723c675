package dokan

import (
	"sync"
	"sync/atomic"
)

// HandleState tracks where an open handle is in its lifetime.
type HandleState int32

const (
	// HandleNone is reported for calls that are not bound to an open handle,
	// such as volume queries.
	HandleNone HandleState = iota
	HandleCreated
	HandleActive
	HandleCleanup
	HandleClosed
)

func (s HandleState) String() string {
	switch s {
	case HandleNone:
		return "none"
	case HandleCreated:
		return "created"
	case HandleActive:
		return "active"
	case HandleCleanup:
		return "cleanup"
	case HandleClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// contextBox lets a nil user value be stored atomically.
type contextBox struct {
	value any
}

// closedBox marks the slot of a released handle. Once it is stored no
// SetContext can replace it.
var closedBox = &contextBox{}

// handle is the user-mode state of one open handle. The native
// DOKAN_FILE_INFO.Context only ever holds the handle id.
type handle struct {
	id    uint64
	name  string
	state atomic.Int32
	slot  atomic.Pointer[contextBox]
}

func (h *handle) loadState() HandleState {
	return HandleState(h.state.Load())
}

// advance moves the handle forward to s. The state never moves backwards,
// so a late read after Cleanup does not resurrect the handle.
func (h *handle) advance(s HandleState) {
	for {
		cur := h.state.Load()
		if cur >= int32(s) {
			return
		}
		if h.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// handleTable is a slot map from handle id to handle. Id 0 is never issued
// so a zero native Context always means "no handle".
type handleTable struct {
	mu    sync.RWMutex
	next  uint64
	slots map[uint64]*handle
}

func newHandleTable() *handleTable {
	return &handleTable{slots: make(map[uint64]*handle)}
}

// allocate reserves a slot for a create call in progress.
func (t *handleTable) allocate(name string) *handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	h := &handle{id: t.next, name: name}
	t.slots[h.id] = h
	return h
}

func (t *handleTable) lookup(id uint64) *handle {
	if id == 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slots[id]
}

// release removes the slot and clears its user context.
func (t *handleTable) release(id uint64) *handle {
	t.mu.Lock()
	h, ok := t.slots[id]
	delete(t.slots, id)
	t.mu.Unlock()

	if !ok {
		return nil
	}
	h.advance(HandleClosed)
	h.slot.Store(closedBox)
	return h
}

// setContext stores v unless the handle has been released. The CAS against
// the observed box means a store racing with release either lands before it
// (and is cleared) or sees closedBox and is dropped.
func (h *handle) setContext(v any) {
	box := &contextBox{value: v}
	for {
		cur := h.slot.Load()
		if cur == closedBox {
			return
		}
		if h.slot.CompareAndSwap(cur, box) {
			return
		}
	}
}

func (h *handle) context() any {
	if box := h.slot.Load(); box != nil && box != closedBox {
		return box.value
	}
	return nil
}

func (t *handleTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots)
}
