package mirror

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/marmos91/dokanfs/pkg/dokan"
)

// CreateFile opens or creates the host file or directory behind name.
func (fs *FS) CreateFile(name string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	path, err := fs.hostPath(name)
	if err != nil {
		return err
	}

	st, err := os.Stat(path)
	switch {
	case err == nil && st.IsDir():
		return fs.openDirectory(path, req, info)
	case err == nil:
		return fs.openFile(path, st, req, info)
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	if !req.Disposition.MayCreate() {
		return dokan.StatusObjectNameNotFound
	}
	parent, err := os.Stat(filepath.Dir(path))
	if err != nil || !parent.IsDir() {
		return dokan.StatusObjectPathNotFound
	}

	if req.DirectoryRequested() {
		if err := os.Mkdir(path, 0o755); err != nil {
			return err
		}
		info.SetIsDirectory(true)
		info.SetContext(&handle{path: path, dir: true})
		return nil
	}

	perm := os.FileMode(0o644)
	if req.Attributes.Has(dokan.FileAttributeReadonly) {
		perm = 0o444
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	info.SetIsDirectory(false)
	info.SetContext(&handle{path: path, file: f})
	return nil
}

func (fs *FS) openDirectory(path string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if req.NonDirectoryRequested() {
		return dokan.StatusFileIsADirectory
	}
	switch {
	case req.Disposition == dokan.CreateNew:
		return dokan.StatusObjectNameCollision
	case req.Disposition.Truncates():
		return dokan.StatusAccessDenied
	}

	info.SetIsDirectory(true)
	info.SetContext(&handle{path: path, dir: true})
	if req.Disposition == dokan.OpenAlways {
		return dokan.StatusObjectNameCollision
	}
	return nil
}

func (fs *FS) openFile(path string, st os.FileInfo, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if req.DirectoryRequested() {
		return dokan.StatusNotADirectory
	}
	if req.Disposition == dokan.CreateNew {
		return dokan.StatusObjectNameCollision
	}
	readonly := st.Mode().Perm()&0o200 == 0
	if readonly && (req.Access.CanWrite() || req.Disposition.Truncates()) {
		return dokan.StatusAccessDenied
	}
	if readonly && req.DeleteOnClose() {
		return dokan.StatusCannotDelete
	}

	// Paging writes may arrive on handles opened without write access.
	flag := os.O_RDONLY
	if !readonly {
		flag = os.O_RDWR
	}
	if req.Disposition.Truncates() {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return err
	}

	info.SetIsDirectory(false)
	info.SetContext(&handle{path: path, file: f})
	if req.Disposition == dokan.OpenAlways || req.Disposition == dokan.CreateAlways {
		return dokan.StatusObjectNameCollision
	}
	return nil
}

// Cleanup performs a pending delete. The file descriptor is closed first so
// the removal also succeeds on Windows hosts.
func (fs *FS) Cleanup(name string, info *dokan.FileInfo) error {
	h, ok := info.Context().(*handle)
	if !ok || !info.DeletePending() {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file != nil {
		h.file.Close()
		h.file = nil
	}
	return os.Remove(h.path)
}

func (fs *FS) CloseFile(name string, info *dokan.FileInfo) error {
	h, ok := info.Context().(*handle)
	if !ok {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}
