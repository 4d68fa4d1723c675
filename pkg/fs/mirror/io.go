package mirror

import (
	"os"
	"unsafe"

	"github.com/marmos91/dokanfs/pkg/dokan"
)

// openFile returns the descriptor of a file handle.
func (h *handle) openFile() (*os.File, error) {
	if h.dir {
		return nil, dokan.StatusFileIsADirectory
	}
	if h.file == nil {
		return nil, dokan.StatusFileClosed
	}
	return h.file, nil
}

func (fs *FS) ReadFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	h, err := fs.lookup(name, info)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := h.openFile()
	if err != nil {
		return 0, err
	}
	return f.ReadAt(buf, offset)
}

func (fs *FS) WriteFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	h, err := fs.lookup(name, info)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := h.openFile()
	if err != nil {
		return 0, err
	}
	if info.WriteToEndOfFile() {
		st, err := f.Stat()
		if err != nil {
			return 0, err
		}
		offset = st.Size()
	}
	if offset < 0 {
		return 0, dokan.StatusInvalidParameter
	}
	return f.WriteAt(buf, offset)
}

// ReadFileUnsafe reads straight into the driver's buffer.
func (fs *FS) ReadFileUnsafe(name string, buf unsafe.Pointer, length uint32, offset int64, info *dokan.FileInfo) (int, error) {
	return fs.ReadFile(name, unsafe.Slice((*byte)(buf), length), offset, info)
}

// WriteFileUnsafe writes straight from the driver's buffer.
func (fs *FS) WriteFileUnsafe(name string, buf unsafe.Pointer, length uint32, offset int64, info *dokan.FileInfo) (int, error) {
	return fs.WriteFile(name, unsafe.Slice((*byte)(buf), length), offset, info)
}

func (fs *FS) FlushFileBuffers(name string, info *dokan.FileInfo) error {
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dir || h.file == nil {
		return nil
	}
	return h.file.Sync()
}

func (fs *FS) SetEndOfFile(name string, length int64, info *dokan.FileInfo) error {
	if length < 0 {
		return dokan.StatusInvalidParameter
	}
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dir {
		return dokan.StatusFileIsADirectory
	}
	if h.file != nil {
		return h.file.Truncate(length)
	}
	return os.Truncate(h.path, length)
}

// SetAllocationSize truncates when the allocation shrinks below the file
// size and is otherwise a no-op.
func (fs *FS) SetAllocationSize(name string, length int64, info *dokan.FileInfo) error {
	if length < 0 {
		return dokan.StatusInvalidParameter
	}
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dir {
		return dokan.StatusFileIsADirectory
	}
	st, err := os.Stat(h.path)
	if err != nil {
		return err
	}
	if length >= st.Size() {
		return nil
	}
	if h.file != nil {
		return h.file.Truncate(length)
	}
	return os.Truncate(h.path, length)
}
