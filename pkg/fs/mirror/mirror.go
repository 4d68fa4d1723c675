// Package mirror exposes a directory of the host filesystem as a volume.
//
// Every driver path is mapped under Options.Root. Files keep their *os.File
// in the handle context between CreateFile and CloseFile, and reads and
// writes go straight to it with ReadAt/WriteAt. The package implements
// dokan.UnsafeFileSystem so the data path writes directly into the driver's
// buffer.
//
// Alternate data streams, byte-range locks and security descriptors are not
// mirrored; the driver falls back to its defaults for those.
package mirror

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// Options configures a mirror.
type Options struct {
	// Root is the host directory exposed as the volume root.
	Root string `mapstructure:"root" validate:"required"`
	// VolumeName is reported by GetVolumeInformation.
	VolumeName string `mapstructure:"volume_name"`
	// SerialNumber is the volume serial, derived from Root when zero.
	SerialNumber uint32 `mapstructure:"serial_number"`
}

// DefaultVolumeName is used when Options.VolumeName is empty.
const DefaultVolumeName = "MIRROR"

// FS mirrors a host directory.
type FS struct {
	dokan.NotImplementedFileSystem

	root string
	opts Options
}

var (
	_ dokan.FileSystem       = (*FS)(nil)
	_ dokan.UnsafeFileSystem = (*FS)(nil)
)

// New validates the root directory and returns a mirror of it.
func New(opts Options) (*FS, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("mirror: root directory is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("mirror: resolve root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("mirror: stat root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("mirror: root %s is not a directory", root)
	}

	if opts.VolumeName == "" {
		opts.VolumeName = DefaultVolumeName
	}
	if opts.SerialNumber == 0 {
		h := fnv.New32a()
		h.Write([]byte(root))
		opts.SerialNumber = h.Sum32()
	}
	return &FS{root: root, opts: opts}, nil
}

// Root returns the absolute host directory being mirrored.
func (fs *FS) Root() string {
	return fs.root
}

// handle is the per-handle context. file is nil for directories.
type handle struct {
	mu   sync.Mutex
	path string
	dir  bool
	file *os.File
}

// hostPath maps a driver name to a path under the root. Names with a
// stream suffix or a parent reference are rejected.
func (fs *FS) hostPath(name string) (string, error) {
	path, stream := winpath.SplitStream(name)
	if stream != "" {
		return "", dokan.StatusNotSupported
	}
	parts := winpath.Components(path)
	for _, p := range parts {
		if p == ".." {
			return "", dokan.StatusObjectNameInvalid
		}
	}
	return filepath.Join(append([]string{fs.root}, parts...)...), nil
}

// lookup returns the handle bound to info, or a transient one built from
// name when the call is not bound to a handle.
func (fs *FS) lookup(name string, info *dokan.FileInfo) (*handle, error) {
	if h, ok := info.Context().(*handle); ok {
		return h, nil
	}
	path, err := fs.hostPath(name)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &handle{path: path, dir: st.IsDir()}, nil
}

// ============================================================================
// Volume
// ============================================================================

func (fs *FS) GetDiskFreeSpace(info *dokan.FileInfo) (dokan.DiskFreeSpace, error) {
	return diskFreeSpace(fs.root)
}

func (fs *FS) GetVolumeInformation(info *dokan.FileInfo) (dokan.VolumeInformation, error) {
	return dokan.VolumeInformation{
		Name:               fs.opts.VolumeName,
		SerialNumber:       fs.opts.SerialNumber,
		MaxComponentLength: 255,
		Features:           dokan.FeatureCasePreservedNames | dokan.FeatureUnicodeOnDisk | hostFeatures,
		FileSystemName:     "NTFS",
	}, nil
}

func (fs *FS) Mounted(info *dokan.FileInfo) error {
	return nil
}

func (fs *FS) Unmounted(info *dokan.FileInfo) error {
	return nil
}
