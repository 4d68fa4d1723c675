package testing

import (
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/require"
)

// Common open requests.
var (
	openRead = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead,
		Share:       dokan.ShareRead | dokan.ShareWrite | dokan.ShareDelete,
		Disposition: dokan.OpenExisting,
	}
	openWrite = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead | dokan.AccessGenericWrite,
		Share:       dokan.ShareRead | dokan.ShareWrite | dokan.ShareDelete,
		Disposition: dokan.OpenExisting,
	}
	createFile = dokan.OpenRequest{
		Access:       dokan.AccessGenericRead | dokan.AccessGenericWrite,
		Share:        dokan.ShareRead,
		Disposition:  dokan.CreateNew,
		Attributes:   dokan.FileAttributeNormal,
		NonDirectory: true,
	}
	createDir = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead,
		Share:       dokan.ShareRead | dokan.ShareWrite,
		Disposition: dokan.CreateNew,
		Directory:   true,
	}
	openDir = dokan.OpenRequest{
		Access:      dokan.AccessGenericRead,
		Share:       dokan.ShareRead | dokan.ShareWrite | dokan.ShareDelete,
		Disposition: dokan.OpenExisting,
		Directory:   true,
	}
	openDelete = dokan.OpenRequest{
		Access:      dokan.AccessDelete | dokan.AccessReadAttributes,
		Share:       dokan.ShareRead | dokan.ShareWrite | dokan.ShareDelete,
		Disposition: dokan.OpenExisting,
	}
)

// assertStatus fails the test when got is not want.
func assertStatus(t *testing.T, want, got dokan.NtStatus) {
	t.Helper()
	if want != got {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

// mustOpen opens name and fails the test unless the open succeeded.
func mustOpen(t *testing.T, h *dokan.Harness, name string, req dokan.OpenRequest) *dokan.HarnessHandle {
	t.Helper()
	hh, status := h.Open(name, req)
	require.Truef(t, status.IsSuccess(), "open %q: %s", name, status)
	require.NotNil(t, hh)
	return hh
}

// mustCreate creates name with the given content.
func mustCreate(t *testing.T, h *dokan.Harness, name string, data []byte) {
	t.Helper()
	hh := mustOpen(t, h, name, createFile)
	defer hh.Close()
	if len(data) > 0 {
		n, status := hh.Write(data, 0)
		assertStatus(t, dokan.StatusSuccess, status)
		require.Equal(t, len(data), n, "short write")
	}
}

// mustMkdir creates a directory.
func mustMkdir(t *testing.T, h *dokan.Harness, name string) {
	t.Helper()
	hh := mustOpen(t, h, name, createDir)
	require.True(t, hh.IsDirectory(), "created directory not reported as one")
	hh.Close()
}

// readAll returns the whole content of name.
func readAll(t *testing.T, h *dokan.Harness, name string) []byte {
	t.Helper()
	hh := mustOpen(t, h, name, openRead)
	defer hh.Close()

	info, status := hh.Info()
	assertStatus(t, dokan.StatusSuccess, status)

	buf := make([]byte, info.Length)
	var total int
	for total < len(buf) {
		n, status := hh.Read(buf[total:], int64(total))
		assertStatus(t, dokan.StatusSuccess, status)
		if n == 0 {
			break
		}
		total += n
	}
	return buf[:total]
}

// list returns the entry names of a directory.
func list(t *testing.T, h *dokan.Harness, name string) []string {
	t.Helper()
	hh := mustOpen(t, h, name, openDir)
	defer hh.Close()

	entries, status := hh.Find()
	assertStatus(t, dokan.StatusSuccess, status)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.FileName)
	}
	return names
}

// exists reports whether name can be opened.
func exists(t *testing.T, h *dokan.Harness, name string) bool {
	t.Helper()
	hh, status := h.Open(name, openRead)
	if hh != nil {
		hh.Close()
	}
	switch status {
	case dokan.StatusSuccess:
		return true
	case dokan.StatusObjectNameNotFound, dokan.StatusObjectPathNotFound:
		return false
	}
	t.Fatalf("open %q: unexpected %s", name, status)
	return false
}
