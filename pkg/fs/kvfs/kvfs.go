// Package kvfs is a dokan.FileSystem persisted in BadgerDB.
//
// Every file and directory is one key holding its JSON encoded metadata,
// and file contents live under a second key:
//
//	n:<folded path>  → node record (original name, attributes, times, size)
//	d:<folded path>  → file contents
//
// Paths are folded with winpath.Key so lookups are case-insensitive while
// the record keeps the name as it was created. A directory is listed with a
// prefix scan over "n:<dir>\" and a rename rewrites the whole subtree inside
// one transaction, so a crash never leaves a half-moved directory behind.
//
// Alternate data streams and byte-range locks are not supported. Security
// descriptors are stored verbatim with the node.
//
// Thread Safety:
// All operations are safe for concurrent use. Namespace changes take the
// write lock so that check-then-act sequences (collision checks, non-empty
// directory checks) cannot interleave; reads share the read lock.
package kvfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
	"github.com/marmos91/dokanfs/pkg/metrics"
)

// Options configures a BadgerDB backed filesystem.
type Options struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string `mapstructure:"path" validate:"required_without=InMemory"`
	// InMemory keeps the database in memory only.
	InMemory bool `mapstructure:"in_memory"`
	// VolumeName is reported by GetVolumeInformation.
	VolumeName string `mapstructure:"volume_name"`
	// SerialNumber is the volume serial number. When zero it is derived
	// from the volume ID, so each database keeps a stable serial.
	SerialNumber uint32 `mapstructure:"serial_number"`
	// Capacity is the volume size reported to callers and enforced on
	// writes.
	Capacity int64 `mapstructure:"capacity"`
	// GC configures orphaned content cleanup and value log GC.
	GC GCOptions `mapstructure:"gc"`

	// Metrics is optional.
	Metrics metrics.StoreMetrics `mapstructure:"-"`
}

// Defaults for zero-valued options.
const (
	DefaultVolumeName = "KVFS"
	DefaultCapacity   = 16 << 30
)

// FS is a filesystem stored in a BadgerDB database.
type FS struct {
	dokan.NotImplementedFileSystem

	mu      sync.RWMutex
	db      *badger.DB
	opts    Options
	metrics metrics.StoreMetrics

	used  atomic.Int64
	nodes atomic.Int64

	volumeID uuid.UUID

	now func() time.Time
	gc  *collector
}

var _ dokan.FileSystem = (*FS)(nil)

// New opens (or creates) the database and makes sure the root directory
// exists.
//
// The database is opened with WARNING level logging and without block
// compression.
func New(opts Options) (*FS, error) {
	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("kvfs: path is required")
	}
	if opts.VolumeName == "" {
		opts.VolumeName = DefaultVolumeName
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopStoreMetrics()
	}
	opts.GC.applyDefaults()

	dbOpts := badger.DefaultOptions(opts.Path).
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", opts.Path, err)
	}

	fs := &FS{db: db, opts: opts, metrics: opts.Metrics, now: time.Now}
	if err := fs.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvfs: initialize: %w", err)
	}
	fs.gc = startCollector(fs)
	return fs, nil
}

// init creates the root record and volume ID on a fresh database and loads
// the usage counters.
func (fs *FS) init() error {
	err := fs.update(func(txn *badger.Txn) error {
		id, err := loadVolumeID(txn)
		if err != nil {
			return err
		}
		fs.volumeID = id

		_, err = getNode(txn, winpath.Root)
		if !errors.Is(err, dokan.StatusObjectNameNotFound) {
			return err
		}
		now := fs.now()
		return putNode(txn, winpath.Root, &record{
			Dir:        true,
			Attributes: dokan.FileAttributeDirectory,
			Created:    now,
			Accessed:   now,
			Modified:   now,
		})
	})
	if err != nil {
		return err
	}
	if fs.opts.SerialNumber == 0 {
		fs.opts.SerialNumber = binary.BigEndian.Uint32(fs.volumeID[:4])
	}

	return fs.view(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(nodePrefix), PrefetchValues: true})
		defer it.Close()

		var nodes, used int64
		for it.Rewind(); it.Valid(); it.Next() {
			rec, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			nodes++
			used += rec.Size
		}
		fs.nodes.Store(nodes)
		fs.used.Store(used)
		fs.metrics.SetNodeCount(nodes)
		return nil
	})
}

// Close stops the garbage collector, then flushes and closes the database.
func (fs *FS) Close() error {
	if fs.gc != nil {
		fs.gc.stop()
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.db.Close()
}

// VolumeID returns the identifier generated when the database was created.
func (fs *FS) VolumeID() uuid.UUID {
	return fs.volumeID
}

// Usage returns the stored content bytes and the number of nodes.
func (fs *FS) Usage() (bytes int64, nodes int64) {
	return fs.used.Load(), fs.nodes.Load()
}

// ============================================================================
// Transactions
// ============================================================================

func (fs *FS) view(fn func(txn *badger.Txn) error) error {
	start := time.Now()
	err := fs.db.View(fn)
	fs.metrics.RecordStorageOperation("view", time.Since(start), err)
	return err
}

func (fs *FS) update(fn func(txn *badger.Txn) error) error {
	start := time.Now()
	err := fs.db.Update(fn)
	if errors.Is(err, badger.ErrTxnTooBig) {
		err = dokan.StatusInsufficientResource
	}
	fs.metrics.RecordStorageOperation("update", time.Since(start), err)
	return err
}

// record reports a filesystem operation to the metrics sink. It is used
// as defer fs.record("Op", time.Now(), &err).
func (fs *FS) record(op string, start time.Time, err *error) {
	fs.metrics.RecordOperation(op, time.Since(start), *err)
}

func (fs *FS) addNodes(delta int64) {
	fs.metrics.SetNodeCount(fs.nodes.Add(delta))
}

// reserve accounts for delta content bytes, failing when the volume is
// full. The caller holds mu for writing.
func (fs *FS) reserve(delta int64) error {
	if delta > 0 && fs.used.Load()+delta > fs.opts.Capacity {
		return dokan.StatusDiskFull
	}
	fs.used.Add(delta)
	return nil
}

// ============================================================================
// Volume
// ============================================================================

func (fs *FS) GetDiskFreeSpace(info *dokan.FileInfo) (dokan.DiskFreeSpace, error) {
	free := uint64(fs.opts.Capacity - fs.used.Load())
	return dokan.DiskFreeSpace{
		FreeBytesAvailable:     free,
		TotalNumberOfBytes:     uint64(fs.opts.Capacity),
		TotalNumberOfFreeBytes: free,
	}, nil
}

func (fs *FS) GetVolumeInformation(info *dokan.FileInfo) (dokan.VolumeInformation, error) {
	return dokan.VolumeInformation{
		Name:               fs.opts.VolumeName,
		SerialNumber:       fs.opts.SerialNumber,
		MaxComponentLength: 255,
		Features: dokan.FeatureCasePreservedNames |
			dokan.FeatureUnicodeOnDisk |
			dokan.FeaturePersistentACLs,
		FileSystemName: "NTFS",
	}, nil
}

func (fs *FS) Mounted(info *dokan.FileInfo) error {
	return nil
}

// Unmounted syncs the database to disk.
func (fs *FS) Unmounted(info *dokan.FileInfo) error {
	if fs.opts.InMemory {
		return nil
	}
	return fs.db.Sync()
}
