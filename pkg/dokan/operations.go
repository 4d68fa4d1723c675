package dokan

import (
	"time"
	"unsafe"
)

// FileSystem is the operation set a Dokan volume is built from.
//
// The driver invokes these methods concurrently from its own thread pool,
// including concurrent reads and writes on the same handle. Paths are
// volume-relative and start with a backslash ("\" is the root).
//
// Every method reports its outcome through its error result: nil means
// success, an NtStatus is reported verbatim, and other errors are mapped by
// ToStatus. A panic inside any method is recovered at the boundary and
// reported as StatusUnsuccessful.
//
// Embed NotImplementedFileSystem to implement only a subset.
type FileSystem interface {
	// CreateFile opens or creates name. Set info.SetIsDirectory when a
	// directory is opened and store per-handle state with info.SetContext.
	CreateFile(name string, req *CreateFileRequest, info *FileInfo) error

	// Cleanup is called when the last user handle is closed. If
	// info.DeletePending() is true the file must be deleted here.
	Cleanup(name string, info *FileInfo) error

	// CloseFile is called when the driver releases the handle. Outstanding
	// I/O may still complete before or after; treat it as best-effort.
	CloseFile(name string, info *FileInfo) error

	// ReadFile reads into buf starting at offset and returns the number of
	// bytes read. Returning io.EOF together with a short count is a short read.
	ReadFile(name string, buf []byte, offset int64, info *FileInfo) (int, error)

	// WriteFile writes buf at offset, or at end of file when
	// info.WriteToEndOfFile() is set, and returns the number of bytes written.
	WriteFile(name string, buf []byte, offset int64, info *FileInfo) (int, error)

	FlushFileBuffers(name string, info *FileInfo) error

	GetFileInformation(name string, info *FileInfo) (FileInformation, error)

	// FindFiles lists the directory name.
	FindFiles(name string, info *FileInfo) ([]FileInformation, error)

	// FindFilesWithPattern lists the directory name, keeping entries that
	// match pattern. Returning StatusNotImplemented makes the driver fall
	// back to FindFiles and filter the result itself.
	FindFilesWithPattern(name, pattern string, info *FileInfo) ([]FileInformation, error)

	SetFileAttributes(name string, attributes FileAttribute, info *FileInfo) error

	// SetFileTime updates timestamps. A nil pointer means the caller did not
	// supply that timestamp and it must be left unchanged.
	SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *FileInfo) error

	// DeleteFile and DeleteDirectory only check whether deletion is allowed;
	// the deletion itself happens in Cleanup.
	DeleteFile(name string, info *FileInfo) error
	DeleteDirectory(name string, info *FileInfo) error

	MoveFile(oldName, newName string, replaceIfExisting bool, info *FileInfo) error
	SetEndOfFile(name string, length int64, info *FileInfo) error
	SetAllocationSize(name string, length int64, info *FileInfo) error
	LockFile(name string, offset, length int64, info *FileInfo) error
	UnlockFile(name string, offset, length int64, info *FileInfo) error

	GetDiskFreeSpace(info *FileInfo) (DiskFreeSpace, error)
	GetVolumeInformation(info *FileInfo) (VolumeInformation, error)

	// Mounted and Unmounted bracket the lifetime of the mount.
	Mounted(info *FileInfo) error
	Unmounted(info *FileInfo) error

	// GetFileSecurity returns the self-relative security descriptor of name
	// restricted to the requested parts.
	GetFileSecurity(name string, requested SecurityInformation, info *FileInfo) ([]byte, error)
	SetFileSecurity(name string, requested SecurityInformation, descriptor []byte, info *FileInfo) error

	// FindStreams lists the data streams of name.
	FindStreams(name string, info *FileInfo) ([]StreamInformation, error)
}

// UnsafeFileSystem is implemented by filesystems that read and write
// directly into driver memory. When present, the dispatcher forwards the
// native buffer pointer and length unchanged and skips the copy through the
// buffer pool. buf is only valid for the duration of the call.
type UnsafeFileSystem interface {
	FileSystem

	ReadFileUnsafe(name string, buf unsafe.Pointer, length uint32, offset int64, info *FileInfo) (int, error)
	WriteFileUnsafe(name string, buf unsafe.Pointer, length uint32, offset int64, info *FileInfo) (int, error)
}
