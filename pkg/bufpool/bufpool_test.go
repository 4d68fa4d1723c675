package bufpool

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sameBacking(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}

// ============================================================================
// Rent / Return
// ============================================================================

func TestRentExactLength(t *testing.T) {
	p := New()
	const max = 1 << 12
	for size := 0; size <= 2*max; size++ {
		buf := p.Rent(size)
		require.Len(t, buf, size)
		p.Return(buf)
	}
}

func TestRentZero(t *testing.T) {
	p := New()

	buf := p.Rent(0)
	require.NotNil(t, buf)
	assert.Len(t, buf, 0)

	p.Return(buf)
	assert.Equal(t, 0, p.Idle())
	assert.Equal(t, uint64(0), p.Stats().Discarded)
}

func TestRentNegativePanics(t *testing.T) {
	assert.Panics(t, func() { New().Rent(-1) })
}

func TestPowerOfTwoIsRecycled(t *testing.T) {
	p := New()
	for shift := 0; shift <= 22; shift++ {
		size := 1 << shift
		first := p.Rent(size)
		p.Return(first)
		second := p.Rent(size)
		assert.True(t, sameBacking(first, second), "size %d not recycled", size)
		assert.Len(t, second, size)
	}
}

func TestNonPowerOfTwoIsNotRecycled(t *testing.T) {
	p := New()
	for _, size := range []int{3, 5, 6, 7, 100, 1000, 4095, 65537} {
		first := p.Rent(size)
		p.Return(first)
		second := p.Rent(size)
		assert.False(t, sameBacking(first, second), "size %d recycled", size)
	}
	assert.Equal(t, 0, p.Idle())
}

func TestReturnReplacesIdleBuffer(t *testing.T) {
	p := New()

	a := p.Rent(4096)
	b := p.Rent(4096)
	require.False(t, sameBacking(a, b))

	p.Return(a)
	p.Return(b)
	assert.Equal(t, 1, p.Idle())

	got := p.Rent(4096)
	assert.True(t, sameBacking(got, b))

	// Only one buffer was ever held for the class.
	assert.False(t, sameBacking(p.Rent(4096), a))
}

func TestMegabyteScenario(t *testing.T) {
	p := New()

	buf := p.Rent(1 << 20)
	for i := range buf {
		buf[i] = byte(i)
	}
	p.Return(buf)
	again := p.Rent(1 << 20)
	assert.True(t, sameBacking(buf, again))

	odd := p.Rent((1 << 20) - 1)
	p.Return(odd)
	oddAgain := p.Rent((1 << 20) - 1)
	assert.False(t, sameBacking(odd, oddAgain))
}

func TestReturnedBufferCapacityIsPinned(t *testing.T) {
	p := New()
	big := make([]byte, 16)
	p.Return(big[:8])

	got := p.Rent(8)
	assert.Len(t, got, 8)
	assert.Equal(t, 8, cap(got))
}

func TestClear(t *testing.T) {
	p := New()
	for _, size := range []int{1, 2, 1024, 1 << 16} {
		p.Return(make([]byte, size))
	}
	assert.Equal(t, 4, p.Idle())
	assert.Equal(t, int64(1+2+1024+1<<16), p.IdleBytes())

	p.Clear()
	assert.Equal(t, 0, p.Idle())
	assert.Equal(t, int64(0), p.IdleBytes())
}

func TestStats(t *testing.T) {
	p := New()

	p.Return(p.Rent(64)) // miss, returned
	p.Return(p.Rent(64)) // hit, returned
	p.Return(p.Rent(63)) // miss, discarded

	s := p.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(2), s.Misses)
	assert.Equal(t, uint64(2), s.Returned)
	assert.Equal(t, uint64(1), s.Discarded)
	assert.Equal(t, 1, s.Idle)
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentRentsNeverAlias(t *testing.T) {
	p := New()
	const (
		workers = 32
		rounds  = 500
		size    = 4096
	)

	var (
		mu   sync.Mutex
		live = make(map[*byte]bool)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				buf := p.Rent(size)
				key := unsafe.SliceData(buf)

				mu.Lock()
				if live[key] {
					mu.Unlock()
					t.Errorf("buffer %p rented twice", key)
					return
				}
				live[key] = true
				mu.Unlock()

				for i := range buf {
					buf[i] = id
				}
				for i := range buf {
					if buf[i] != id {
						t.Errorf("buffer modified by another renter")
						return
					}
				}

				mu.Lock()
				delete(live, key)
				mu.Unlock()

				p.Return(buf)
			}
		}(byte(w))
	}
	wg.Wait()

	assert.LessOrEqual(t, p.Idle(), 1)
}
