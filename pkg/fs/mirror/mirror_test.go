package mirror

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	fstesting "github.com/marmos91/dokanfs/pkg/fs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror(t *testing.T) {
	suite := &fstesting.FileSystemTestSuite{
		NewFileSystem: func(t *testing.T) dokan.FileSystem {
			fs, err := New(Options{Root: t.TempDir()})
			require.NoError(t, err)
			return fs
		},
		Attributes:      runtime.GOOS == "windows",
		CaseInsensitive: runtime.GOOS == "windows",
	}
	suite.Run(t)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(Options{Root: file})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	root := t.TempDir()
	a, err := New(Options{Root: root})
	require.NoError(t, err)
	b, err := New(Options{Root: root})
	require.NoError(t, err)

	va, _ := a.GetVolumeInformation(nil)
	vb, _ := b.GetVolumeInformation(nil)
	assert.Equal(t, DefaultVolumeName, va.Name)
	assert.NotZero(t, va.SerialNumber)
	assert.Equal(t, va.SerialNumber, vb.SerialNumber, "serial is stable for a root")
}

func TestHostPath_RejectsParentReference(t *testing.T) {
	fs, err := New(Options{Root: t.TempDir()})
	require.NoError(t, err)

	_, err = fs.hostPath(`\..\escape.txt`)
	assert.ErrorIs(t, err, dokan.StatusObjectNameInvalid)

	_, err = fs.hostPath(`\file.txt:stream`)
	assert.ErrorIs(t, err, dokan.StatusNotSupported)

	p, err := fs.hostPath(`\a\b.txt`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fs.Root(), "a", "b.txt"), p)
}

func TestHostContentVisible(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "host.txt"), []byte("from host"), 0o644))

	fs, err := New(Options{Root: root})
	require.NoError(t, err)
	h := dokan.NewHarness(fs, dokan.MountOptions{Logger: dokan.NullLogger{}})

	hh, status := h.Open(`\host.txt`, dokan.OpenRequest{Access: dokan.AccessGenericRead, Disposition: dokan.OpenExisting})
	require.Equal(t, dokan.StatusSuccess, status)
	defer hh.Close()

	buf := make([]byte, 32)
	n, status := hh.Read(buf, 0)
	require.Equal(t, dokan.StatusSuccess, status)
	assert.Equal(t, "from host", string(buf[:n]))

	streams, status := hh.Streams()
	require.Equal(t, dokan.StatusSuccess, status)
	assert.Equal(t, []dokan.StreamInformation{{Name: "::$DATA", Size: 9}}, streams)
}

func TestWritesReachHost(t *testing.T) {
	root := t.TempDir()
	fs, err := New(Options{Root: root})
	require.NoError(t, err)
	h := dokan.NewHarness(fs, dokan.MountOptions{Logger: dokan.NullLogger{}})

	hh, status := h.Open(`\out.txt`, dokan.OpenRequest{
		Access:      dokan.AccessGenericWrite,
		Disposition: dokan.CreateNew,
	})
	require.Equal(t, dokan.StatusSuccess, status)
	_, status = hh.Write([]byte("to host"), 0)
	require.Equal(t, dokan.StatusSuccess, status)
	hh.Close()

	got, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "to host", string(got))
}

func TestBufferedPathMatchesDirectIO(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data"), []byte("0123456789"), 0o644))
	fs, err := New(Options{Root: root})
	require.NoError(t, err)

	for _, disable := range []bool{false, true} {
		h := dokan.NewHarness(fs, dokan.MountOptions{Logger: dokan.NullLogger{}, DisableDirectIO: disable})
		hh, status := h.Open(`\data`, dokan.OpenRequest{Access: dokan.AccessGenericRead, Disposition: dokan.OpenExisting})
		require.Equal(t, dokan.StatusSuccess, status)

		buf := make([]byte, 4)
		n, status := hh.Read(buf, 3)
		assert.Equal(t, dokan.StatusSuccess, status)
		assert.Equal(t, "3456", string(buf[:n]), "direct I/O disabled: %v", disable)
		hh.Close()
	}
}
