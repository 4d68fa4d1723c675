package kvfs

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putOrphan(t *testing.T, fs *FS, path string) {
	t.Helper()
	require.NoError(t, fs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dataKey(path), []byte("leftover"))
	}))
}

func hasKey(t *testing.T, fs *FS, key []byte) bool {
	t.Helper()
	found := false
	require.NoError(t, fs.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		found = err == nil
		return nil
	}))
	return found
}

func TestCollectGarbage_RemovesOrphans(t *testing.T) {
	fs := newMemory(t, Options{})
	h := newHarness(t, fs)
	write(t, h, `\keep.txt`, "keep me")
	putOrphan(t, fs, `\ghost.bin`)

	stats, err := fs.CollectGarbage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.OrphanedCount)
	assert.Equal(t, uint64(1), stats.DeletedCount)
	assert.GreaterOrEqual(t, stats.ScannedCount, uint64(1))
	assert.False(t, hasKey(t, fs, dataKey(`\ghost.bin`)))
	assert.Equal(t, "keep me", read(t, h, `\keep.txt`))
	assert.Contains(t, stats.Summary(), "deleted=1")
}

func TestCollectGarbage_DryRun(t *testing.T) {
	fs := newMemory(t, Options{GC: GCOptions{DryRun: true}})
	putOrphan(t, fs, `\ghost.bin`)

	stats, err := fs.CollectGarbage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.OrphanedCount)
	assert.Zero(t, stats.DeletedCount)
	assert.True(t, hasKey(t, fs, dataKey(`\ghost.bin`)))
}

func TestCollectGarbage_Batches(t *testing.T) {
	fs := newMemory(t, Options{GC: GCOptions{BatchSize: 2}})
	for _, name := range []string{`\a`, `\b`, `\c`, `\d`, `\e`} {
		putOrphan(t, fs, name)
	}

	stats, err := fs.CollectGarbage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), stats.DeletedCount)
	assert.Zero(t, stats.FailedCount)
}

func TestCollectGarbage_Canceled(t *testing.T) {
	fs := newMemory(t, Options{})
	putOrphan(t, fs, `\ghost.bin`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.CollectGarbage(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, hasKey(t, fs, dataKey(`\ghost.bin`)))
}

func TestCollectGarbage_OnDisk(t *testing.T) {
	fs, err := New(Options{Path: t.TempDir()})
	require.NoError(t, err)
	defer fs.Close()
	putOrphan(t, fs, `\ghost.bin`)

	stats, err := fs.CollectGarbage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.DeletedCount)
}

func TestCollector_Background(t *testing.T) {
	m := newRecordingMetrics()
	fs := newMemory(t, Options{Metrics: m, GC: GCOptions{Interval: 10 * time.Millisecond}})
	putOrphan(t, fs, `\ghost.bin`)

	assert.Eventually(t, func() bool {
		return !hasKey(t, fs, dataKey(`\ghost.bin`))
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, fs.Close())
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Positive(t, m.storage["gc"])
}
