package dokan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// NtStatus is the result code handed back to the driver for every operation.
//
// NtStatus implements error so filesystem code can return a precise status
// directly, e.g. `return dokan.StatusDirectoryNotEmpty`.
type NtStatus uint32

const (
	StatusSuccess              NtStatus = 0x00000000
	StatusBufferOverflow       NtStatus = 0x80000005
	StatusNoMoreFiles          NtStatus = 0x80000006
	StatusDeviceOffLine        NtStatus = 0x80000010
	StatusUnsuccessful         NtStatus = 0xC0000001
	StatusNotImplemented       NtStatus = 0xC0000002
	StatusInvalidHandle        NtStatus = 0xC0000008
	StatusInvalidParameter     NtStatus = 0xC000000D
	StatusNoSuchFile           NtStatus = 0xC000000F
	StatusEndOfFile            NtStatus = 0xC0000011
	StatusAccessDenied         NtStatus = 0xC0000022
	StatusBufferTooSmall       NtStatus = 0xC0000023
	StatusObjectNameInvalid    NtStatus = 0xC0000033
	StatusObjectNameNotFound   NtStatus = 0xC0000034
	StatusObjectNameCollision  NtStatus = 0xC0000035
	StatusObjectPathNotFound   NtStatus = 0xC000003A
	StatusSharingViolation     NtStatus = 0xC0000043
	StatusFileLockConflict     NtStatus = 0xC0000054
	StatusLockNotGranted       NtStatus = 0xC0000055
	StatusDeletePending        NtStatus = 0xC0000056
	StatusRangeNotLocked       NtStatus = 0xC000007E
	StatusDiskFull             NtStatus = 0xC000007F
	StatusInsufficientResource NtStatus = 0xC000009A
	StatusMediaWriteProtected  NtStatus = 0xC00000A2
	StatusIoTimeout            NtStatus = 0xC00000B5
	StatusFileIsADirectory     NtStatus = 0xC00000BA
	StatusNotSupported         NtStatus = 0xC00000BB
	StatusNotSameDevice        NtStatus = 0xC00000D4
	StatusInternalError        NtStatus = 0xC00000E5
	StatusDirectoryNotEmpty    NtStatus = 0xC0000101
	StatusNotADirectory        NtStatus = 0xC0000103
	StatusNameTooLong          NtStatus = 0xC0000106
	StatusCancelled            NtStatus = 0xC0000120
	StatusCannotDelete         NtStatus = 0xC0000121
	StatusFileClosed           NtStatus = 0xC0000128
)

// Error implements error.
func (s NtStatus) Error() string {
	return s.String()
}

// IsSuccess reports whether s is a success or informational code.
func (s NtStatus) IsSuccess() bool {
	return s>>30 == 0 || s>>30 == 1
}

// String returns the canonical STATUS_* name, suitable for logs and metric
// labels. Codes outside the vocabulary render as STATUS_0x<hex>.
func (s NtStatus) String() string {
	switch s {
	case StatusSuccess:
		return "STATUS_SUCCESS"
	case StatusBufferOverflow:
		return "STATUS_BUFFER_OVERFLOW"
	case StatusNoMoreFiles:
		return "STATUS_NO_MORE_FILES"
	case StatusDeviceOffLine:
		return "STATUS_DEVICE_OFF_LINE"
	case StatusUnsuccessful:
		return "STATUS_UNSUCCESSFUL"
	case StatusNotImplemented:
		return "STATUS_NOT_IMPLEMENTED"
	case StatusInvalidHandle:
		return "STATUS_INVALID_HANDLE"
	case StatusInvalidParameter:
		return "STATUS_INVALID_PARAMETER"
	case StatusNoSuchFile:
		return "STATUS_NO_SUCH_FILE"
	case StatusEndOfFile:
		return "STATUS_END_OF_FILE"
	case StatusAccessDenied:
		return "STATUS_ACCESS_DENIED"
	case StatusBufferTooSmall:
		return "STATUS_BUFFER_TOO_SMALL"
	case StatusObjectNameInvalid:
		return "STATUS_OBJECT_NAME_INVALID"
	case StatusObjectNameNotFound:
		return "STATUS_OBJECT_NAME_NOT_FOUND"
	case StatusObjectNameCollision:
		return "STATUS_OBJECT_NAME_COLLISION"
	case StatusObjectPathNotFound:
		return "STATUS_OBJECT_PATH_NOT_FOUND"
	case StatusSharingViolation:
		return "STATUS_SHARING_VIOLATION"
	case StatusFileLockConflict:
		return "STATUS_FILE_LOCK_CONFLICT"
	case StatusLockNotGranted:
		return "STATUS_LOCK_NOT_GRANTED"
	case StatusDeletePending:
		return "STATUS_DELETE_PENDING"
	case StatusRangeNotLocked:
		return "STATUS_RANGE_NOT_LOCKED"
	case StatusDiskFull:
		return "STATUS_DISK_FULL"
	case StatusInsufficientResource:
		return "STATUS_INSUFFICIENT_RESOURCES"
	case StatusMediaWriteProtected:
		return "STATUS_MEDIA_WRITE_PROTECTED"
	case StatusIoTimeout:
		return "STATUS_IO_TIMEOUT"
	case StatusFileIsADirectory:
		return "STATUS_FILE_IS_A_DIRECTORY"
	case StatusNotSupported:
		return "STATUS_NOT_SUPPORTED"
	case StatusNotSameDevice:
		return "STATUS_NOT_SAME_DEVICE"
	case StatusInternalError:
		return "STATUS_INTERNAL_ERROR"
	case StatusDirectoryNotEmpty:
		return "STATUS_DIRECTORY_NOT_EMPTY"
	case StatusNotADirectory:
		return "STATUS_NOT_A_DIRECTORY"
	case StatusNameTooLong:
		return "STATUS_NAME_TOO_LONG"
	case StatusCancelled:
		return "STATUS_CANCELLED"
	case StatusCannotDelete:
		return "STATUS_CANNOT_DELETE"
	case StatusFileClosed:
		return "STATUS_FILE_CLOSED"
	default:
		return fmt.Sprintf("STATUS_0x%08X", uint32(s))
	}
}

// ToStatus maps an error returned by filesystem code to the status reported
// to the driver. A nil error is StatusSuccess; an NtStatus anywhere in the
// chain is returned as is; well-known Go errors are translated; anything
// else becomes StatusUnsuccessful.
func ToStatus(err error) NtStatus {
	status, _ := statusOf(err)
	return status
}

// statusOf is ToStatus that also reports whether err was recognized.
func statusOf(err error) (NtStatus, bool) {
	if err == nil {
		return StatusSuccess, true
	}

	var status NtStatus
	if errors.As(err, &status) {
		return status, true
	}

	if status, ok := platformStatus(err); ok {
		return status, true
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return StatusObjectNameNotFound, true
	case errors.Is(err, fs.ErrExist):
		return StatusObjectNameCollision, true
	case errors.Is(err, fs.ErrPermission):
		return StatusAccessDenied, true
	case errors.Is(err, fs.ErrClosed):
		return StatusFileClosed, true
	case errors.Is(err, fs.ErrInvalid):
		return StatusInvalidParameter, true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return StatusEndOfFile, true
	case errors.Is(err, context.DeadlineExceeded):
		return StatusIoTimeout, true
	case errors.Is(err, context.Canceled):
		return StatusCancelled, true
	case errors.Is(err, errors.ErrUnsupported):
		return StatusNotImplemented, true
	}

	return StatusUnsuccessful, false
}
