package memfs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dokanfs/pkg/dokan"
	fstesting "github.com/marmos91/dokanfs/pkg/fs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFS(t *testing.T) {
	suite := &fstesting.FileSystemTestSuite{
		NewFileSystem: func(t *testing.T) dokan.FileSystem {
			return New(Options{})
		},
		Streams:         true,
		Locks:           true,
		Security:        true,
		Attributes:      true,
		CaseInsensitive: true,
	}
	suite.Run(t)
}

var (
	create = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead | dokan.AccessGenericWrite,
		Disposition: dokan.CreateNew,
	}
	open = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead | dokan.AccessGenericWrite,
		Disposition: dokan.OpenExisting,
	}
	mkdir = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead,
		Disposition: dokan.CreateNew,
		Directory:   true,
	}
)

func newHarness(t *testing.T, opts Options) (*FS, *dokan.Harness) {
	t.Helper()
	fs := New(opts)
	h := dokan.NewHarness(fs, dokan.MountOptions{Logger: dokan.NullLogger{}})
	require.Equal(t, dokan.StatusSuccess, h.Mount())
	return fs, h
}

func uniqueName() string {
	return `\` + uuid.New().String() + ".bin"
}

func TestNew_Defaults(t *testing.T) {
	fs := New(Options{})

	vi, err := fs.GetVolumeInformation(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultVolumeName, vi.Name)
	assert.Equal(t, DefaultFileSystemName, vi.FileSystemName)
	assert.NotZero(t, vi.SerialNumber)
	assert.True(t, vi.Features&dokan.FeatureNamedStreams != 0)

	space, err := fs.GetDiskFreeSpace(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultCapacity), space.TotalNumberOfBytes)
	assert.Equal(t, space.TotalNumberOfBytes, space.TotalNumberOfFreeBytes)
}

func TestCapacity_DiskFull(t *testing.T) {
	fs, h := newHarness(t, Options{Capacity: 100})

	name := uniqueName()
	hh, status := h.Open(name, create)
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	_, status = hh.Write(make([]byte, 80), 0)
	require.Equal(t, dokan.StatusSuccess, status)

	_, status = hh.Write(make([]byte, 40), 80)
	assert.Equal(t, dokan.StatusDiskFull, status)

	used, _ := fs.Usage()
	assert.Equal(t, int64(80), used, "a refused write charges nothing")

	assert.Equal(t, dokan.StatusSuccess, hh.SetEndOfFile(10))
	used, _ = fs.Usage()
	assert.Equal(t, int64(10), used)

	space, status := h.DiskFreeSpace()
	require.Equal(t, dokan.StatusSuccess, status)
	assert.Equal(t, uint64(90), space.FreeBytesAvailable)
}

func TestCapacity_ReleasedOnDelete(t *testing.T) {
	fs, h := newHarness(t, Options{})

	dir := `\` + uuid.New().String()
	d, status := h.Open(dir, mkdir)
	require.Equal(t, dokan.StatusSuccess, status)
	d.Close()

	for i := 0; i < 3; i++ {
		hh, status := h.Open(dir+`\`+uuid.New().String(), create)
		require.Equal(t, dokan.StatusSuccess, status)
		_, status = hh.Write(make([]byte, 1000), 0)
		require.Equal(t, dokan.StatusSuccess, status)
		hh.Close()
	}
	used, nodes := fs.Usage()
	assert.Equal(t, int64(3000), used)
	assert.Equal(t, 5, nodes)

	// Detaching the directory subtree directly releases everything under it.
	fs.mu.Lock()
	fs.detach(fs.lookup(dir))
	fs.mu.Unlock()

	used, nodes = fs.Usage()
	assert.Zero(t, used)
	assert.Equal(t, 1, nodes)
}

func TestMaxFiles(t *testing.T) {
	_, h := newHarness(t, Options{MaxFiles: 2})

	hh, status := h.Open(uniqueName(), create)
	require.Equal(t, dokan.StatusSuccess, status)
	hh.Close()

	_, status = h.Open(uniqueName(), create)
	assert.Equal(t, dokan.StatusDiskFull, status)
}

func TestMove_IntoOwnSubtree(t *testing.T) {
	_, h := newHarness(t, Options{})

	for _, name := range []string{`\top`, `\top\inner`} {
		hh, status := h.Open(name, mkdir)
		require.Equal(t, dokan.StatusSuccess, status)
		hh.Close()
	}

	req := open
	req.Directory = true
	hh, status := h.Open(`\top`, req)
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	assert.Equal(t, dokan.StatusInvalidParameter, hh.Move(`\top\inner\top`, false))
}

func TestMove_ReplaceDirectoryRefused(t *testing.T) {
	_, h := newHarness(t, Options{})

	d, status := h.Open(`\target`, mkdir)
	require.Equal(t, dokan.StatusSuccess, status)
	d.Close()

	hh, status := h.Open(`\source.txt`, create)
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	assert.Equal(t, dokan.StatusAccessDenied, hh.Move(`\target`, true))
}

func TestMove_StreamRefused(t *testing.T) {
	_, h := newHarness(t, Options{})

	f, status := h.Open(`\host`, create)
	require.Equal(t, dokan.StatusSuccess, status)
	f.Close()

	s, status := h.Open(`\host:side`, create)
	require.Equal(t, dokan.StatusSuccess, status)
	defer s.Close()

	assert.Equal(t, dokan.StatusNotSupported, s.Move(`\host:other`, false))
}

func TestStream_OnDirectory(t *testing.T) {
	_, h := newHarness(t, Options{})

	d, status := h.Open(`\dir`, mkdir)
	require.Equal(t, dokan.StatusSuccess, status)
	d.Close()

	_, status = h.Open(`\dir:stream`, create)
	assert.Equal(t, dokan.StatusObjectNameInvalid, status)
}

func TestDeleteRoot(t *testing.T) {
	_, h := newHarness(t, Options{})

	req := open
	req.Directory = true
	hh, status := h.Open(`\`, req)
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	assert.Equal(t, dokan.StatusAccessDenied, hh.Delete())
	assert.Equal(t, dokan.StatusAccessDenied, hh.Move(`\elsewhere`, false))
}

func TestCreateAttributes(t *testing.T) {
	fs, h := newHarness(t, Options{})

	req := create
	req.Attributes = dokan.FileAttributeHidden | dokan.FileAttributeNormal
	hh, status := h.Open(`\attrs`, req)
	require.Equal(t, dokan.StatusSuccess, status)
	hh.Close()

	fs.mu.RLock()
	attrs := fs.lookup(`\attrs`).attributes
	fs.mu.RUnlock()
	assert.Equal(t, dokan.FileAttributeHidden, attrs)

	hh, status = h.Open(`\plain`, create)
	require.Equal(t, dokan.StatusSuccess, status)
	info, _ := hh.Info()
	hh.Close()
	assert.Equal(t, dokan.FileAttributeArchive, info.Attributes)
}

func TestDirectoryAttributesKeepDirectoryBit(t *testing.T) {
	_, h := newHarness(t, Options{})

	hh, status := h.Open(`\d`, mkdir)
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	require.Equal(t, dokan.StatusSuccess, hh.SetAttributes(dokan.FileAttributeHidden))
	info, _ := hh.Info()
	assert.True(t, info.Attributes.Has(dokan.FileAttributeDirectory))
	assert.True(t, info.Attributes.Has(dokan.FileAttributeHidden))
}

func TestVolumeSerialInFileInformation(t *testing.T) {
	_, h := newHarness(t, Options{SerialNumber: 0xCAFEF00D})

	hh, status := h.Open(uniqueName(), create)
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	info, status := hh.Info()
	require.Equal(t, dokan.StatusSuccess, status)
	assert.Equal(t, uint32(0xCAFEF00D), info.VolumeSerialNumber)
	assert.Equal(t, uint32(1), info.NumberOfLinks)
}

func TestCloseUpdatesAccessTime(t *testing.T) {
	fs, h := newHarness(t, Options{})
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fs.now = func() time.Time { return clock }

	hh, status := h.Open(`\clock`, create)
	require.Equal(t, dokan.StatusSuccess, status)

	clock = clock.Add(time.Hour)
	hh.Close()

	fs.mu.RLock()
	accessed := fs.lookup(`\clock`).accessed
	fs.mu.RUnlock()
	assert.True(t, accessed.Equal(clock))
}

func TestConcurrentWriters(t *testing.T) {
	_, h := newHarness(t, Options{})

	const writers = 8
	names := make([]string, writers)
	for i := range names {
		names[i] = uniqueName()
	}

	done := make(chan struct{})
	for _, name := range names {
		go func(name string) {
			defer func() { done <- struct{}{} }()
			hh, status := h.Open(name, create)
			if status != dokan.StatusSuccess {
				t.Errorf("open %s: %s", name, status)
				return
			}
			defer hh.Close()
			for off := int64(0); off < 4096; off += 512 {
				if _, status := hh.Write(make([]byte, 512), off); status != dokan.StatusSuccess {
					t.Errorf("write %s: %s", name, status)
					return
				}
			}
		}(name)
	}
	for range names {
		<-done
	}

	root, status := h.Open(`\`, dokan.OpenRequest{Access: dokan.AccessGenericRead, Disposition: dokan.OpenExisting, Directory: true})
	require.Equal(t, dokan.StatusSuccess, status)
	defer root.Close()
	entries, status := root.Find()
	require.Equal(t, dokan.StatusSuccess, status)
	require.Len(t, entries, writers)
	for _, e := range entries {
		assert.Equal(t, int64(4096), e.Length)
	}
}
