package dokan

import (
	"time"

	"github.com/marmos91/dokanfs/internal/native"
)

// FileInfo is the per-call view of an open handle. It is only valid for the
// duration of the call it was passed to; keep state in the context slot,
// not in the FileInfo itself.
type FileInfo struct {
	raw    *native.DokanFileInfo
	handle *handle
	d      *dispatcher
}

// Context returns the value stored with SetContext for this handle, or nil.
func (fi *FileInfo) Context() any {
	if fi.handle == nil {
		return nil
	}
	return fi.handle.context()
}

// SetContext stores a per-handle value. It is a no-op on calls that are not
// bound to a handle and after the handle has been closed.
func (fi *FileInfo) SetContext(v any) {
	if fi.handle == nil {
		return
	}
	fi.handle.setContext(v)
}

// IsDirectory reports whether the handle refers to a directory.
func (fi *FileInfo) IsDirectory() bool {
	return fi.raw != nil && fi.raw.IsDirectory != 0
}

// SetIsDirectory tells the driver whether the opened object is a directory.
// It is meant to be called from CreateFile.
func (fi *FileInfo) SetIsDirectory(dir bool) {
	if fi.raw != nil {
		fi.raw.IsDirectory = boolByte(dir)
	}
}

// DeletePending reports whether the file must be deleted in Cleanup.
func (fi *FileInfo) DeletePending() bool {
	return fi.raw != nil && fi.raw.DeleteOnClose != 0
}

// SetDeletePending marks or unmarks the file for deletion in Cleanup.
func (fi *FileInfo) SetDeletePending(pending bool) {
	if fi.raw != nil {
		fi.raw.DeleteOnClose = boolByte(pending)
	}
}

// ProcessID returns the id of the process that issued the request.
func (fi *FileInfo) ProcessID() uint32 {
	if fi.raw == nil {
		return 0
	}
	return fi.raw.ProcessId
}

// PagingIO reports whether the request is paging I/O.
func (fi *FileInfo) PagingIO() bool {
	return fi.raw != nil && fi.raw.PagingIo != 0
}

// SynchronousIO reports whether the handle was opened for synchronous I/O.
func (fi *FileInfo) SynchronousIO() bool {
	return fi.raw != nil && fi.raw.SynchronousIo != 0
}

// NoCache reports whether the request bypasses the system cache.
func (fi *FileInfo) NoCache() bool {
	return fi.raw != nil && fi.raw.Nocache != 0
}

// WriteToEndOfFile reports whether a write must append, ignoring its offset.
func (fi *FileInfo) WriteToEndOfFile() bool {
	return fi.raw != nil && fi.raw.WriteToEndOfFile != 0
}

// State returns the lifecycle state of the handle.
func (fi *FileInfo) State() HandleState {
	if fi.handle == nil {
		return HandleNone
	}
	return fi.handle.loadState()
}

// TryResetTimeout asks the driver to extend the timeout of the current
// request to timeout and reports whether it was granted.
func (fi *FileInfo) TryResetTimeout(timeout time.Duration) bool {
	if fi.raw == nil || fi.d == nil || timeout <= 0 {
		return false
	}
	return fi.d.drv.ResetTimeout(uint32(timeout.Milliseconds()), fi.raw)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
