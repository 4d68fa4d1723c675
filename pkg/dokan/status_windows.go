//go:build windows

package dokan

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

// win32Status maps Win32 error codes surfaced by os and x/sys/windows calls.
var win32Status = map[syscall.Errno]NtStatus{
	windows.ERROR_FILE_NOT_FOUND:       StatusObjectNameNotFound,
	windows.ERROR_PATH_NOT_FOUND:       StatusObjectPathNotFound,
	windows.ERROR_ACCESS_DENIED:        StatusAccessDenied,
	windows.ERROR_INVALID_HANDLE:       StatusInvalidHandle,
	windows.ERROR_NOT_ENOUGH_MEMORY:    StatusInsufficientResource,
	windows.ERROR_OUTOFMEMORY:          StatusInsufficientResource,
	windows.ERROR_WRITE_PROTECT:        StatusMediaWriteProtected,
	windows.ERROR_SHARING_VIOLATION:    StatusSharingViolation,
	windows.ERROR_LOCK_VIOLATION:       StatusFileLockConflict,
	windows.ERROR_HANDLE_EOF:           StatusEndOfFile,
	windows.ERROR_HANDLE_DISK_FULL:     StatusDiskFull,
	windows.ERROR_NOT_SUPPORTED:        StatusNotSupported,
	windows.ERROR_FILE_EXISTS:          StatusObjectNameCollision,
	windows.ERROR_ALREADY_EXISTS:       StatusObjectNameCollision,
	windows.ERROR_INVALID_PARAMETER:    StatusInvalidParameter,
	windows.ERROR_DISK_FULL:            StatusDiskFull,
	windows.ERROR_INVALID_NAME:         StatusObjectNameInvalid,
	windows.ERROR_DIR_NOT_EMPTY:        StatusDirectoryNotEmpty,
	windows.ERROR_DIRECTORY:            StatusNotADirectory,
	windows.ERROR_NOT_SAME_DEVICE:      StatusNotSameDevice,
	windows.ERROR_FILENAME_EXCED_RANGE: StatusNameTooLong,
	windows.ERROR_OPERATION_ABORTED:    StatusCancelled,
	windows.ERROR_NOT_LOCKED:           StatusRangeNotLocked,
	windows.ERROR_CALL_NOT_IMPLEMENTED: StatusNotImplemented,
}

func platformStatus(err error) (NtStatus, bool) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return 0, false
	}
	status, ok := win32Status[errno]
	return status, ok
}
