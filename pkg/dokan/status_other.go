//go:build !windows

package dokan

import (
	"errors"
	"syscall"
)

// errnoStatus maps POSIX errors so portable backends report sensible codes.
var errnoStatus = map[syscall.Errno]NtStatus{
	syscall.ENOENT:       StatusObjectNameNotFound,
	syscall.EEXIST:       StatusObjectNameCollision,
	syscall.EACCES:       StatusAccessDenied,
	syscall.EPERM:        StatusAccessDenied,
	syscall.EBADF:        StatusInvalidHandle,
	syscall.EINVAL:       StatusInvalidParameter,
	syscall.ENOSPC:       StatusDiskFull,
	syscall.ENOMEM:       StatusInsufficientResource,
	syscall.EROFS:        StatusMediaWriteProtected,
	syscall.EISDIR:       StatusFileIsADirectory,
	syscall.ENOTDIR:      StatusNotADirectory,
	syscall.ENOTEMPTY:    StatusDirectoryNotEmpty,
	syscall.EXDEV:        StatusNotSameDevice,
	syscall.ENAMETOOLONG: StatusNameTooLong,
	syscall.ENOSYS:       StatusNotImplemented,
	syscall.ENOTSUP:      StatusNotSupported,
	syscall.ETIMEDOUT:    StatusIoTimeout,
	syscall.EBUSY:        StatusSharingViolation,
	syscall.EAGAIN:       StatusLockNotGranted,
}

func platformStatus(err error) (NtStatus, bool) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return 0, false
	}
	status, ok := errnoStatus[errno]
	return status, ok
}
