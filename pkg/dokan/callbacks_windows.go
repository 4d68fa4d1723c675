//go:build windows && (amd64 || arm64)

package dokan

import (
	"syscall"
	"unsafe"

	"github.com/marmos91/dokanfs/internal/native"
)

// Native entry points. syscall.NewCallback allocates from a small,
// never-freed pool, so the trampolines are created once per process and
// shared by every mount; each one resolves its mount through the
// GlobalContext id carried in DOKAN_OPTIONS.
//
// Every parameter is one machine word. LONGLONG offsets fit a uintptr only
// on 64-bit targets, hence the build constraint.

func ntResult(s NtStatus) uintptr {
	return uintptr(s)
}

var (
	cbZwCreateFile = syscall.NewCallback(func(fileName *uint16, securityContext, desiredAccess, fileAttributes, shareAccess, createDisposition, createOptions uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.zwCreateFile(fileName, uint32(desiredAccess), uint32(fileAttributes), uint32(shareAccess), uint32(createDisposition), uint32(createOptions), raw))
	})

	cbCleanup = syscall.NewCallback(func(fileName *uint16, raw *native.DokanFileInfo) uintptr {
		if d := dispatcherFor(raw); d != nil {
			d.cleanup(fileName, raw)
		}
		return 0
	})

	cbCloseFile = syscall.NewCallback(func(fileName *uint16, raw *native.DokanFileInfo) uintptr {
		if d := dispatcherFor(raw); d != nil {
			d.closeFile(fileName, raw)
		}
		return 0
	})

	cbReadFile = syscall.NewCallback(func(fileName *uint16, buffer unsafe.Pointer, bufferLength uintptr, readLength *uint32, offset uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.readFile(fileName, buffer, uint32(bufferLength), readLength, int64(offset), raw))
	})

	cbWriteFile = syscall.NewCallback(func(fileName *uint16, buffer unsafe.Pointer, numberOfBytesToWrite uintptr, numberOfBytesWritten *uint32, offset uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.writeFile(fileName, buffer, uint32(numberOfBytesToWrite), numberOfBytesWritten, int64(offset), raw))
	})

	cbFlushFileBuffers = syscall.NewCallback(func(fileName *uint16, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.flushFileBuffers(fileName, raw))
	})

	cbGetFileInformation = syscall.NewCallback(func(fileName *uint16, out *native.ByHandleFileInformation, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.getFileInformation(fileName, out, raw))
	})

	cbFindFiles = syscall.NewCallback(func(fileName *uint16, fill uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.findFiles(fileName, nativeFindFiller(fill, raw), raw))
	})

	cbFindFilesWithPattern = syscall.NewCallback(func(fileName, searchPattern *uint16, fill uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.findFilesWithPattern(fileName, searchPattern, nativeFindFiller(fill, raw), raw))
	})

	cbSetFileAttributes = syscall.NewCallback(func(fileName *uint16, fileAttributes uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.setFileAttributes(fileName, uint32(fileAttributes), raw))
	})

	cbSetFileTime = syscall.NewCallback(func(fileName *uint16, creation, lastAccess, lastWrite *native.Filetime, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.setFileTime(fileName, creation, lastAccess, lastWrite, raw))
	})

	cbDeleteFile = syscall.NewCallback(func(fileName *uint16, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.deleteFile(fileName, raw))
	})

	cbDeleteDirectory = syscall.NewCallback(func(fileName *uint16, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.deleteDirectory(fileName, raw))
	})

	cbMoveFile = syscall.NewCallback(func(fileName, newFileName *uint16, replaceIfExisting uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.moveFile(fileName, newFileName, uint32(replaceIfExisting) != 0, raw))
	})

	cbSetEndOfFile = syscall.NewCallback(func(fileName *uint16, byteOffset uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.setEndOfFile(fileName, int64(byteOffset), raw))
	})

	cbSetAllocationSize = syscall.NewCallback(func(fileName *uint16, allocSize uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.setAllocationSize(fileName, int64(allocSize), raw))
	})

	cbLockFile = syscall.NewCallback(func(fileName *uint16, byteOffset, length uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.lockFile(fileName, int64(byteOffset), int64(length), raw))
	})

	cbUnlockFile = syscall.NewCallback(func(fileName *uint16, byteOffset, length uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.unlockFile(fileName, int64(byteOffset), int64(length), raw))
	})

	cbGetDiskFreeSpace = syscall.NewCallback(func(freeBytesAvailable, totalNumberOfBytes, totalNumberOfFreeBytes *uint64, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.getDiskFreeSpace(freeBytesAvailable, totalNumberOfBytes, totalNumberOfFreeBytes, raw))
	})

	cbGetVolumeInformation = syscall.NewCallback(func(volumeName *uint16, volumeNameSize uintptr, serialNumber, maxComponentLength, fileSystemFlags *uint32, fileSystemName *uint16, fileSystemNameSize uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.getVolumeInformation(volumeName, uint32(volumeNameSize), serialNumber, maxComponentLength, fileSystemFlags, fileSystemName, uint32(fileSystemNameSize), raw))
	})

	cbMounted = syscall.NewCallback(func(raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.mountedCallback(raw))
	})

	cbUnmounted = syscall.NewCallback(func(raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.unmountedCallback(raw))
	})

	cbGetFileSecurity = syscall.NewCallback(func(fileName *uint16, securityInformation *uint32, descriptor unsafe.Pointer, bufferLength uintptr, lengthNeeded *uint32, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.getFileSecurity(fileName, securityInformation, descriptor, uint32(bufferLength), lengthNeeded, raw))
	})

	cbSetFileSecurity = syscall.NewCallback(func(fileName *uint16, securityInformation *uint32, descriptor unsafe.Pointer, bufferLength uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.setFileSecurity(fileName, securityInformation, descriptor, uint32(bufferLength), raw))
	})

	cbFindStreams = syscall.NewCallback(func(fileName *uint16, fill uintptr, raw *native.DokanFileInfo) uintptr {
		d := dispatcherFor(raw)
		if d == nil {
			return ntResult(StatusUnsuccessful)
		}
		return ntResult(d.findStreams(fileName, nativeStreamFiller(fill, raw), raw))
	})
)

// nativeFindFiller wraps PFillFindData. The driver returns 0 when it
// accepted the record and 1 when its buffer is full.
func nativeFindFiller(fn uintptr, raw *native.DokanFileInfo) findFiller {
	return func(rec *native.Win32FindData) bool {
		r, _, _ := syscall.SyscallN(fn, uintptr(unsafe.Pointer(rec)), uintptr(unsafe.Pointer(raw)))
		return int32(r) == 0
	}
}

// nativeStreamFiller wraps PFillFindStreamData, which returns TRUE when the
// record was accepted.
func nativeStreamFiller(fn uintptr, raw *native.DokanFileInfo) streamFiller {
	return func(rec *native.Win32FindStreamData) bool {
		r, _, _ := syscall.SyscallN(fn, uintptr(unsafe.Pointer(rec)), uintptr(unsafe.Pointer(raw)))
		return int32(r) != 0
	}
}

// newOperations returns a fresh DOKAN_OPERATIONS table. Each mount gets its
// own table so the instance can pin it for the lifetime of DokanMain.
func newOperations() *native.DokanOperations {
	return &native.DokanOperations{
		ZwCreateFile:         cbZwCreateFile,
		Cleanup:              cbCleanup,
		CloseFile:            cbCloseFile,
		ReadFile:             cbReadFile,
		WriteFile:            cbWriteFile,
		FlushFileBuffers:     cbFlushFileBuffers,
		GetFileInformation:   cbGetFileInformation,
		FindFiles:            cbFindFiles,
		FindFilesWithPattern: cbFindFilesWithPattern,
		SetFileAttributes:    cbSetFileAttributes,
		SetFileTime:          cbSetFileTime,
		DeleteFile:           cbDeleteFile,
		DeleteDirectory:      cbDeleteDirectory,
		MoveFile:             cbMoveFile,
		SetEndOfFile:         cbSetEndOfFile,
		SetAllocationSize:    cbSetAllocationSize,
		LockFile:             cbLockFile,
		UnlockFile:           cbUnlockFile,
		GetDiskFreeSpace:     cbGetDiskFreeSpace,
		GetVolumeInformation: cbGetVolumeInformation,
		Mounted:              cbMounted,
		Unmounted:            cbUnmounted,
		GetFileSecurity:      cbGetFileSecurity,
		SetFileSecurity:      cbSetFileSecurity,
		FindStreams:          cbFindStreams,
	}
}
