// Package bufpool provides the payload buffer cache used on the copying
// read/write path of the Dokan dispatcher.
package bufpool

import (
	"math/bits"
	"sync/atomic"
)

// ============================================================================
// Exact-Length Buffer Pool
// ============================================================================
//
// The pool hands out byte slices whose length is exactly the requested size.
// Sequential transfers through the driver arrive as a small number of uniform
// chunk sizes (usually powers of two such as 64KB or 1MB), so the pool keeps
// a single idle buffer per power-of-two size class and nothing else:
//
//   - Rent(size) pops the idle buffer for size if size is a power of two and
//     one is held, otherwise it allocates.
//   - Return(buf) makes buf the idle buffer for its class if len(buf) is a
//     power of two, replacing any buffer already idle there. Other lengths
//     are dropped for the garbage collector.
//
// Unlike sync.Pool the retained set is deterministic: Clear() empties it and
// Idle() reports exactly how many buffers are held, which keeps tests and
// shutdown predictable.
//
// Thread Safety:
// Each size class is one atomic slot. Rent swaps the slot to nil so two
// concurrent rents can never receive the same backing array, and Return
// stores unconditionally so a racing rent either sees the old buffer, the
// new one, or nothing.

// numClasses covers every power of two representable in an int length.
const numClasses = bits.UintSize - 1

// Pool is an exact-length, power-of-two buffer cache. The zero value is
// ready to use.
type Pool struct {
	slots [numClasses]atomic.Pointer[[]byte]

	hits      atomic.Uint64
	misses    atomic.Uint64
	returned  atomic.Uint64
	discarded atomic.Uint64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	// Hits counts rents served from an idle buffer.
	Hits uint64
	// Misses counts rents that had to allocate.
	Misses uint64
	// Returned counts buffers that became idle after Return.
	Returned uint64
	// Discarded counts returned buffers that were not retained.
	Discarded uint64
	// Idle is the number of buffers currently held.
	Idle int
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{}
}

// classOf returns the slot index for size and whether size is a power of two.
func classOf(size int) (int, bool) {
	if size <= 0 || size&(size-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(size)), true
}

// Rent returns a buffer of exactly size bytes. Rent(0) returns an empty,
// non-nil slice. The contents of a recycled buffer are not cleared.
//
// Panics if size is negative.
func (p *Pool) Rent(size int) []byte {
	if size < 0 {
		panic("bufpool: negative size")
	}
	if size == 0 {
		return []byte{}
	}

	if class, ok := classOf(size); ok {
		if bp := p.slots[class].Swap(nil); bp != nil {
			p.hits.Add(1)
			return *bp
		}
	}

	p.misses.Add(1)
	return make([]byte, size)
}

// Return hands buf back to the pool. The caller must not use buf afterwards.
// Buffers whose length is not a power of two are discarded, as are empty
// buffers.
func (p *Pool) Return(buf []byte) {
	class, ok := classOf(len(buf))
	if !ok {
		if len(buf) > 0 {
			p.discarded.Add(1)
		}
		return
	}

	// Pin capacity to length so a recycled buffer never grows into memory
	// that another slice may still alias.
	idle := buf[:len(buf):len(buf)]
	p.slots[class].Store(&idle)
	p.returned.Add(1)
}

// Clear drops every idle buffer.
func (p *Pool) Clear() {
	for i := range p.slots {
		p.slots[i].Store(nil)
	}
}

// Idle returns the number of idle buffers currently held.
func (p *Pool) Idle() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// IdleBytes returns the total size of all idle buffers.
func (p *Pool) IdleBytes() int64 {
	var total int64
	for i := range p.slots {
		if bp := p.slots[i].Load(); bp != nil {
			total += int64(len(*bp))
		}
	}
	return total
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Returned:  p.returned.Load(),
		Discarded: p.discarded.Load(),
		Idle:      p.Idle(),
	}
}
