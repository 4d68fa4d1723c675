package kvfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dokanfs/internal/logger"
)

// GCOptions configures background maintenance of the database.
type GCOptions struct {
	// Interval is how often the collector runs. 0 disables the background
	// worker; CollectGarbage can still be called directly.
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`

	// DiscardRatio is passed to Badger's value log GC: a log file is
	// rewritten when at least this fraction of it is stale (default: 0.5).
	DiscardRatio float64 `mapstructure:"discard_ratio" validate:"gte=0,lt=1"`

	// BatchSize is how many orphaned keys are deleted per transaction
	// (default: 1000).
	BatchSize int `mapstructure:"batch_size" validate:"gte=0"`

	// DryRun logs what would be deleted without deleting anything.
	DryRun bool `mapstructure:"dry_run"`
}

// GCStats contains statistics from a collection run.
type GCStats struct {
	StartTime     time.Time // When collection started
	EndTime       time.Time // When collection ended
	ScannedCount  uint64    // Number of content keys examined
	OrphanedCount uint64    // Content keys without a node record
	DeletedCount  uint64    // Orphaned keys deleted
	FailedCount   uint64    // Orphaned keys that could not be deleted
	Rewrites      uint64    // Value log files rewritten by Badger
}

// Duration returns the total collection duration.
func (s *GCStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *GCStats) Summary() string {
	return fmt.Sprintf("scanned=%d orphaned=%d deleted=%d failed=%d rewrites=%d duration=%s",
		s.ScannedCount, s.OrphanedCount, s.DeletedCount, s.FailedCount, s.Rewrites, s.Duration())
}

// collector runs CollectGarbage periodically until stopped.
type collector struct {
	fs       *FS
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func (o *GCOptions) applyDefaults() {
	if o.DiscardRatio == 0 {
		o.DiscardRatio = 0.5
	}
	if o.BatchSize == 0 {
		o.BatchSize = 1000
	}
}

// startCollector launches the background worker, or returns nil when no
// interval is configured.
func startCollector(fs *FS) *collector {
	if fs.opts.GC.Interval <= 0 {
		return nil
	}

	c := &collector{
		fs:       fs,
		interval: fs.opts.GC.Interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	logger.Info("Starting kvfs garbage collector: interval=%s discard_ratio=%.2f dry_run=%v",
		c.interval, fs.opts.GC.DiscardRatio, fs.opts.GC.DryRun)

	go c.worker()
	return c
}

// stop signals the worker and waits for an in-progress run to finish.
func (c *collector) stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		<-c.doneCh
	})
}

func (c *collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-c.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			stats, err := c.fs.CollectGarbage(ctx)
			cancel()

			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kvfs: garbage collection failed: %v", err)
			} else if err == nil {
				logger.Debug("kvfs: garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// CollectGarbage removes content keys whose node record is gone and then
// lets Badger reclaim space in its value log.
//
// The scan runs on a read snapshot; every deletion re-checks the node
// inside its own transaction, so files created meanwhile are never touched.
// Value log GC is skipped for in-memory databases and in dry-run mode.
func (fs *FS) CollectGarbage(ctx context.Context) (stats *GCStats, err error) {
	stats = &GCStats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		fs.metrics.RecordStorageOperation("gc", stats.Duration(), err)
	}()

	orphaned, err := fs.findOrphans(ctx, stats)
	if err != nil {
		return stats, err
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if fs.opts.GC.DryRun {
		for i, key := range orphaned {
			if i == 10 {
				logger.Info("kvfs GC: ... and %d more", len(orphaned)-10)
				break
			}
			logger.Info("kvfs GC: DRY RUN - would delete %q", key)
		}
		return stats, nil
	}

	batchSize := fs.opts.GC.BatchSize
	for i := 0; i < len(orphaned); i += batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := i + batchSize
		if end > len(orphaned) {
			end = len(orphaned)
		}
		batch := orphaned[i:end]

		var deleted uint64
		err := fs.update(func(txn *badger.Txn) error {
			deleted = 0
			for _, key := range batch {
				if _, err := txn.Get(orphanNodeKey(key)); err == nil {
					continue
				}
				if err := txn.Delete(key); err != nil {
					return err
				}
				deleted++
			}
			return nil
		})
		if err != nil {
			logger.Warn("kvfs GC: batch delete failed: %v", err)
			stats.FailedCount += uint64(len(batch))
			continue
		}
		stats.DeletedCount += deleted
	}

	if fs.opts.InMemory {
		return stats, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := fs.db.RunValueLogGC(fs.opts.GC.DiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("value log gc: %w", err)
		}
		stats.Rewrites++
	}

	return stats, nil
}

// findOrphans lists content keys that have no node record.
func (fs *FS) findOrphans(ctx context.Context, stats *GCStats) ([][]byte, error) {
	var orphaned [][]byte
	err := fs.view(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(dataPrefix)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats.ScannedCount++

			key := it.Item().KeyCopy(nil)
			_, err := txn.Get(orphanNodeKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				orphaned = append(orphaned, key)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return orphaned, err
}

// orphanNodeKey maps a content key to the node key that owns it.
func orphanNodeKey(dataKey []byte) []byte {
	return append([]byte(nodePrefix), dataKey[len(dataPrefix):]...)
}
