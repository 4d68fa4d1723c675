// Package memfs is an in-memory dokan.FileSystem.
//
// It keeps a tree of nodes under a single RWMutex and supports everything a
// simple NTFS-like volume is expected to: files and directories, alternate
// data streams, byte-range locks, attributes, timestamps, opaque security
// descriptors, delete-on-close and rename with replace. Contents are lost
// when the process exits.
//
// Thread Safety:
// All operations are safe for concurrent use. Metadata reads take the read
// lock; anything that mutates the tree or file contents takes the write lock.
package memfs

import (
	"sync"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// Options configures a memory filesystem.
type Options struct {
	// VolumeName is reported by GetVolumeInformation.
	VolumeName string `mapstructure:"volume_name"`
	// SerialNumber is the volume serial number.
	SerialNumber uint32 `mapstructure:"serial_number"`
	// Capacity caps the total size of file contents in bytes.
	Capacity int64 `mapstructure:"capacity"`
	// MaxFiles caps the number of nodes, 0 means unlimited.
	MaxFiles int `mapstructure:"max_files"`
}

// Defaults for zero-valued options.
const (
	DefaultVolumeName     = "MEMFS"
	DefaultCapacity       = 1 << 30
	DefaultFileSystemName = "NTFS"
)

// FS is an in-memory filesystem.
type FS struct {
	mu   sync.RWMutex
	root *node
	opts Options

	// used is the number of content bytes currently stored.
	used  int64
	nodes int

	now func() time.Time
}

var _ dokan.FileSystem = (*FS)(nil)

// New creates an empty filesystem.
func New(opts Options) *FS {
	if opts.VolumeName == "" {
		opts.VolumeName = DefaultVolumeName
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.SerialNumber == 0 {
		opts.SerialNumber = 0x19831116
	}

	fs := &FS{opts: opts, now: time.Now}
	fs.root = newNode("", true, dokan.FileAttributeDirectory, fs.now())
	fs.nodes = 1
	return fs
}

// openFile is the per-handle context stored with FileInfo.SetContext.
type openFile struct {
	node   *node
	stream string
}

// lookup resolves a cleaned path. The caller holds mu.
func (fs *FS) lookup(name string) *node {
	n := fs.root
	for _, part := range winpath.Components(name) {
		if !n.dir {
			return nil
		}
		child, ok := n.children[winpath.Key(part)]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

// resolve finds the node and stream for a name coming from the driver. The
// handle context is preferred so renamed files keep working.
func (fs *FS) resolve(name string, info *dokan.FileInfo) (*node, string, error) {
	if of, ok := info.Context().(*openFile); ok && of.node != nil && fs.attached(of.node) {
		return of.node, of.stream, nil
	}
	path, stream := winpath.SplitStream(name)
	n := fs.lookup(path)
	if n == nil {
		return nil, "", dokan.StatusObjectNameNotFound
	}
	return n, stream, nil
}

// attached reports whether n is still part of the tree.
func (fs *FS) attached(n *node) bool {
	for n.parent != nil {
		if n.parent.children[winpath.Key(n.name)] != n {
			return false
		}
		n = n.parent
	}
	return n == fs.root
}

// reserve accounts for delta content bytes, failing when the volume is
// full. The caller holds mu for writing.
func (fs *FS) reserve(delta int64) error {
	if delta > 0 && fs.used+delta > fs.opts.Capacity {
		return dokan.StatusDiskFull
	}
	fs.used += delta
	return nil
}

// ============================================================================
// Volume
// ============================================================================

func (fs *FS) GetDiskFreeSpace(info *dokan.FileInfo) (dokan.DiskFreeSpace, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	free := uint64(fs.opts.Capacity - fs.used)
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
			dokan.FeatureNamedStreams |
			dokan.FeaturePersistentACLs,
		FileSystemName: DefaultFileSystemName,
	}, nil
}

func (fs *FS) Mounted(info *dokan.FileInfo) error {
	return nil
}

func (fs *FS) Unmounted(info *dokan.FileInfo) error {
	return nil
}

// Usage returns the stored content bytes and the number of nodes.
func (fs *FS) Usage() (bytes int64, nodes int) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.used, fs.nodes
}
