package dokan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleStateOnlyMovesForward(t *testing.T) {
	h := &handle{id: 1}
	h.advance(HandleCleanup)
	h.advance(HandleActive)
	assert.Equal(t, HandleCleanup, h.loadState())

	h.advance(HandleClosed)
	assert.Equal(t, HandleClosed, h.loadState())
	assert.Equal(t, "closed", h.loadState().String())
}

func TestHandleTable(t *testing.T) {
	tbl := newHandleTable()
	assert.Nil(t, tbl.lookup(0))

	a := tbl.allocate(`\a`)
	b := tbl.allocate(`\b`)
	assert.NotEqual(t, a.id, b.id)
	assert.NotZero(t, a.id)
	assert.Same(t, a, tbl.lookup(a.id))

	fi := &FileInfo{handle: a}
	fi.SetContext("value")
	assert.Equal(t, "value", fi.Context())

	released := tbl.release(a.id)
	require.NotNil(t, released)
	assert.Equal(t, HandleClosed, released.loadState())
	assert.Nil(t, fi.Context())

	// Context writes after close are dropped.
	fi.SetContext("late")
	assert.Nil(t, fi.Context())

	assert.Nil(t, tbl.release(a.id))
	assert.Nil(t, tbl.lookup(a.id))
	assert.Equal(t, 1, tbl.len())
}

func TestSetContextRacingRelease(t *testing.T) {
	for round := 0; round < 100; round++ {
		tbl := newHandleTable()
		h := tbl.allocate(`\f`)
		fi := &FileInfo{handle: h}

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				for j := 0; j < 50; j++ {
					fi.SetContext(i*100 + j)
				}
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			tbl.release(h.id)
		}()

		close(start)
		wg.Wait()

		require.Nil(t, fi.Context(), "round %d: context survived release", round)
		require.Same(t, closedBox, h.slot.Load())
	}
}

func TestHandleTableConcurrent(t *testing.T) {
	tbl := newHandleTable()
	var wg sync.WaitGroup
	ids := make(chan uint64, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := tbl.allocate(`\f`)
			ids <- h.id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Equal(t, 200, tbl.len())
}
