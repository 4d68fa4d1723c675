package metrics

import "time"

// StoreMetrics provides observability for key-value backed volumes.
//
// This interface is optional - if not provided to a store, operations
// proceed without metrics collection (zero overhead).
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewStoreMetrics("badger")
//	fs, err := kvfs.New(kvfs.Options{Path: dir, Metrics: m})
type StoreMetrics interface {
	// RecordOperation records a filesystem-level operation served by the
	// store (e.g., "CreateFile", "FindFiles", "MoveFile").
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordStorageOperation records a low-level storage transaction.
	//
	// Parameters:
	//   - operation: Storage operation (e.g., "view", "update")
	//   - duration: Time taken
	//   - err: Error if failed
	RecordStorageOperation(operation string, duration time.Duration, err error)

	// SetNodeCount updates the number of files and directories stored.
	SetNodeCount(count int64)
}

// NewNoopStoreMetrics returns a StoreMetrics that discards everything.
func NewNoopStoreMetrics() StoreMetrics {
	return noopStoreMetrics{}
}

type noopStoreMetrics struct{}

func (noopStoreMetrics) RecordOperation(operation string, duration time.Duration, err error)        {}
func (noopStoreMetrics) RecordStorageOperation(operation string, duration time.Duration, err error) {}
func (noopStoreMetrics) SetNodeCount(count int64)                                                   {}
