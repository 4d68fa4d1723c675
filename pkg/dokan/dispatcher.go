package dokan

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/marmos91/dokanfs/internal/native"
	"github.com/marmos91/dokanfs/pkg/bufpool"
	"github.com/marmos91/dokanfs/pkg/metrics"
	"github.com/pkg/errors"
)

// ============================================================================
// Call Dispatcher
// ============================================================================
//
// The dispatcher is the single translation point between the driver's
// callback shapes and the FileSystem contract. Each method below has the
// raw shape of one DOKAN_OPERATIONS entry: names arrive as borrowed UTF-16
// pointers, buffers as native memory, results are written through out
// pointers, and the return value is an NTSTATUS.
//
// Every method funnels user code through invoke, which:
//   - recovers panics and reports StatusUnsuccessful with a logged stack
//   - maps returned errors through statusOf
//   - records metrics and optional debug traces
//
// Nothing that happens inside user code can unwind into the driver's frame.
//
// Thread Safety:
// The dispatcher holds no per-call state. Shared state is the buffer pool,
// the handle table, and the cached volume serial number, all internally
// synchronized.

// Operation names used for logging and metric labels.
const (
	opZwCreateFile         = "ZwCreateFile"
	opCleanup              = "Cleanup"
	opCloseFile            = "CloseFile"
	opReadFile             = "ReadFile"
	opWriteFile            = "WriteFile"
	opFlushFileBuffers     = "FlushFileBuffers"
	opGetFileInformation   = "GetFileInformation"
	opFindFiles            = "FindFiles"
	opFindFilesWithPattern = "FindFilesWithPattern"
	opSetFileAttributes    = "SetFileAttributes"
	opSetFileTime          = "SetFileTime"
	opDeleteFile           = "DeleteFile"
	opDeleteDirectory      = "DeleteDirectory"
	opMoveFile             = "MoveFile"
	opSetEndOfFile         = "SetEndOfFile"
	opSetAllocationSize    = "SetAllocationSize"
	opLockFile             = "LockFile"
	opUnlockFile           = "UnlockFile"
	opGetDiskFreeSpace     = "GetDiskFreeSpace"
	opGetVolumeInformation = "GetVolumeInformation"
	opMounted              = "Mounted"
	opUnmounted            = "Unmounted"
	opGetFileSecurity      = "GetFileSecurity"
	opSetFileSecurity      = "SetFileSecurity"
	opFindStreams          = "FindStreams"
)

// defaultMaxComponentLength is reported when the volume leaves it unset.
const defaultMaxComponentLength = 255

type dispatcher struct {
	fs       FileSystem
	unsafeFS UnsafeFileSystem // nil unless direct I/O is enabled
	pool     *bufpool.Pool
	handles  *handleTable
	log      Logger
	metrics  metrics.DokanMetrics
	drv      driver
	trace    bool

	serial atomic.Uint32

	mountedOnce sync.Once
	mounted     chan struct{}
}

func newDispatcher(fs FileSystem, opts *MountOptions, drv driver) *dispatcher {
	d := &dispatcher{
		fs:      fs,
		pool:    opts.BufferPool,
		handles: newHandleTable(),
		log:     opts.Logger,
		metrics: opts.Metrics,
		drv:     drv,
		mounted: make(chan struct{}),
	}
	if ufs, ok := fs.(UnsafeFileSystem); ok && !opts.DisableDirectIO {
		d.unsafeFS = ufs
	}
	d.trace = debugEnabled(d.log)
	return d
}

// fileInfo binds the native record to its handle, if any.
func (d *dispatcher) fileInfo(raw *native.DokanFileInfo) *FileInfo {
	fi := &FileInfo{raw: raw, d: d}
	if raw != nil {
		if h := d.handles.lookup(raw.Context); h != nil {
			h.advance(HandleActive)
			fi.handle = h
		}
	}
	return fi
}

// invoke runs fn at the native boundary. It never panics.
func (d *dispatcher) invoke(op, name string, fn func() error) (status NtStatus) {
	start := time.Now()
	d.metrics.RecordCallStart(op)

	defer func() {
		if r := recover(); r != nil {
			err := recoveredError(r)
			d.log.Errorf("dokan: %s %q panicked: %+v", op, name, err)
			d.metrics.RecordPanic(op)
			status = StatusUnsuccessful
		}

		elapsed := time.Since(start)
		d.metrics.RecordCallEnd(op)
		d.metrics.RecordCall(op, elapsed, status.String())
		if d.trace {
			d.log.Debugf("dokan: %s %q -> %s (%s)", op, name, status, elapsed)
		}
	}()

	return d.statusFor(op, name, fn())
}

// statusFor maps err and logs errors that had to be downgraded.
func (d *dispatcher) statusFor(op, name string, err error) NtStatus {
	status, known := statusOf(err)
	if !known {
		d.log.Errorf("dokan: %s %q failed: %v", op, name, err)
	}
	return status
}

// ============================================================================
// Handle lifecycle
// ============================================================================

func (d *dispatcher) zwCreateFile(fileName *uint16, access, attributes, share, disposition, options uint32, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	req := newCreateFileRequest(access, attributes, share, disposition, options)

	h := d.handles.allocate(name)
	h.advance(HandleCreated)
	raw.Context = h.id
	info := &FileInfo{raw: raw, handle: h, d: d}

	status := d.invoke(opZwCreateFile, name, func() error {
		return d.fs.CreateFile(name, req, info)
	})

	if !status.IsSuccess() && !opensExisting(status, disposition) {
		d.handles.release(h.id)
		raw.Context = 0
	}
	d.metrics.SetOpenHandles(d.handles.len())
	return status
}

// opensExisting reports whether status is the collision an open-or-create
// disposition returns for an existing file. The driver completes such a
// create as a successful open, so the handle stays allocated.
func opensExisting(status NtStatus, disposition uint32) bool {
	if status != StatusObjectNameCollision {
		return false
	}
	switch disposition {
	case native.FileOpenIf, native.FileOverwriteIf, native.FileSupersede:
		return true
	}
	return false
}

func (d *dispatcher) cleanup(fileName *uint16, raw *native.DokanFileInfo) {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	if info.handle != nil {
		info.handle.advance(HandleCleanup)
	}
	d.invoke(opCleanup, name, func() error {
		return d.fs.Cleanup(name, info)
	})
}

func (d *dispatcher) closeFile(fileName *uint16, raw *native.DokanFileInfo) {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	d.invoke(opCloseFile, name, func() error {
		return d.fs.CloseFile(name, info)
	})

	if info.handle != nil {
		d.handles.release(info.handle.id)
	}
	raw.Context = 0
	d.metrics.SetOpenHandles(d.handles.len())
}

// ============================================================================
// Data path
// ============================================================================

func (d *dispatcher) readFile(fileName *uint16, buffer unsafe.Pointer, length uint32, readLength *uint32, offset int64, raw *native.DokanFileInfo) NtStatus {
	if readLength != nil {
		*readLength = 0
	}
	if length == 0 {
		return StatusSuccess
	}
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)

	return d.invoke(opReadFile, name, func() error {
		var (
			n   int
			err error
		)
		if d.unsafeFS != nil {
			n, err = d.unsafeFS.ReadFileUnsafe(name, buffer, length, offset, info)
			n = clamp(n, int(length))
		} else {
			buf := d.pool.Rent(int(length))
			defer d.pool.Return(buf)

			n, err = d.fs.ReadFile(name, buf, offset, info)
			n = clamp(n, len(buf))
			copy(unsafe.Slice((*byte)(buffer), length), buf[:n])
		}

		if readLength != nil {
			*readLength = uint32(n)
		}
		if n > 0 {
			d.metrics.RecordBytesTransferred("read", int64(n))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	})
}

func (d *dispatcher) writeFile(fileName *uint16, buffer unsafe.Pointer, length uint32, written *uint32, offset int64, raw *native.DokanFileInfo) NtStatus {
	if written != nil {
		*written = 0
	}
	if length == 0 {
		return StatusSuccess
	}
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)

	return d.invoke(opWriteFile, name, func() error {
		var (
			n   int
			err error
		)
		if d.unsafeFS != nil {
			n, err = d.unsafeFS.WriteFileUnsafe(name, buffer, length, offset, info)
		} else {
			buf := d.pool.Rent(int(length))
			defer d.pool.Return(buf)

			copy(buf, unsafe.Slice((*byte)(buffer), length))
			n, err = d.fs.WriteFile(name, buf, offset, info)
		}
		n = clamp(n, int(length))

		if written != nil {
			*written = uint32(n)
		}
		if n > 0 {
			d.metrics.RecordBytesTransferred("write", int64(n))
		}
		return err
	})
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func (d *dispatcher) flushFileBuffers(fileName *uint16, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opFlushFileBuffers, name, func() error {
		return d.fs.FlushFileBuffers(name, info)
	})
}

// ============================================================================
// Metadata
// ============================================================================

func (d *dispatcher) getFileInformation(fileName *uint16, out *native.ByHandleFileInformation, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opGetFileInformation, name, func() error {
		fi, err := d.fs.GetFileInformation(name, info)
		if err != nil {
			return err
		}
		fillHandleInformation(out, &fi, d.serial.Load())
		return nil
	})
}

func (d *dispatcher) findFiles(fileName *uint16, fill findFiller, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opFindFiles, name, func() error {
		entries, err := d.fs.FindFiles(name, info)
		if err != nil {
			return err
		}
		return emitFindData(entries, fill)
	})
}

func (d *dispatcher) findFilesWithPattern(fileName, searchPattern *uint16, fill findFiller, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	pattern := native.UTF16PtrToString(searchPattern)
	info := d.fileInfo(raw)
	return d.invoke(opFindFilesWithPattern, name, func() error {
		entries, err := d.fs.FindFilesWithPattern(name, pattern, info)
		if err != nil {
			return err
		}
		return emitFindData(entries, fill)
	})
}

func (d *dispatcher) findStreams(fileName *uint16, fill streamFiller, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opFindStreams, name, func() error {
		entries, err := d.fs.FindStreams(name, info)
		if err != nil {
			return err
		}
		return emitStreams(entries, fill)
	})
}

func (d *dispatcher) setFileAttributes(fileName *uint16, attributes uint32, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opSetFileAttributes, name, func() error {
		return d.fs.SetFileAttributes(name, FileAttribute(attributes), info)
	})
}

func (d *dispatcher) setFileTime(fileName *uint16, creation, lastAccess, lastWrite *native.Filetime, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opSetFileTime, name, func() error {
		return d.fs.SetFileTime(name,
			native.OptionalTime(creation),
			native.OptionalTime(lastAccess),
			native.OptionalTime(lastWrite),
			info)
	})
}

func (d *dispatcher) deleteFile(fileName *uint16, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opDeleteFile, name, func() error {
		return d.fs.DeleteFile(name, info)
	})
}

func (d *dispatcher) deleteDirectory(fileName *uint16, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opDeleteDirectory, name, func() error {
		return d.fs.DeleteDirectory(name, info)
	})
}

func (d *dispatcher) moveFile(fileName, newFileName *uint16, replaceIfExisting bool, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	newName := native.UTF16PtrToString(newFileName)
	info := d.fileInfo(raw)
	return d.invoke(opMoveFile, name, func() error {
		return d.fs.MoveFile(name, newName, replaceIfExisting, info)
	})
}

func (d *dispatcher) setEndOfFile(fileName *uint16, byteOffset int64, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opSetEndOfFile, name, func() error {
		return d.fs.SetEndOfFile(name, byteOffset, info)
	})
}

func (d *dispatcher) setAllocationSize(fileName *uint16, allocSize int64, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opSetAllocationSize, name, func() error {
		return d.fs.SetAllocationSize(name, allocSize, info)
	})
}

func (d *dispatcher) lockFile(fileName *uint16, byteOffset, length int64, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opLockFile, name, func() error {
		return d.fs.LockFile(name, byteOffset, length, info)
	})
}

func (d *dispatcher) unlockFile(fileName *uint16, byteOffset, length int64, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	return d.invoke(opUnlockFile, name, func() error {
		return d.fs.UnlockFile(name, byteOffset, length, info)
	})
}

// ============================================================================
// Volume
// ============================================================================

func (d *dispatcher) getDiskFreeSpace(freeBytesAvailable, totalNumberOfBytes, totalNumberOfFreeBytes *uint64, raw *native.DokanFileInfo) NtStatus {
	info := d.fileInfo(raw)
	return d.invoke(opGetDiskFreeSpace, "", func() error {
		space, err := d.fs.GetDiskFreeSpace(info)
		if err != nil {
			return err
		}
		if freeBytesAvailable != nil {
			*freeBytesAvailable = space.FreeBytesAvailable
		}
		if totalNumberOfBytes != nil {
			*totalNumberOfBytes = space.TotalNumberOfBytes
		}
		if totalNumberOfFreeBytes != nil {
			*totalNumberOfFreeBytes = space.TotalNumberOfFreeBytes
		}
		return nil
	})
}

func (d *dispatcher) getVolumeInformation(volumeName *uint16, volumeNameSize uint32, serialNumber, maxComponentLength, fileSystemFlags *uint32, fileSystemName *uint16, fileSystemNameSize uint32, raw *native.DokanFileInfo) NtStatus {
	info := d.fileInfo(raw)
	return d.invoke(opGetVolumeInformation, "", func() error {
		vi, err := d.fs.GetVolumeInformation(info)
		if err != nil {
			return err
		}

		native.CopyUTF16(native.UTF16Buffer(volumeName, volumeNameSize), vi.Name)
		native.CopyUTF16(native.UTF16Buffer(fileSystemName, fileSystemNameSize), vi.FileSystemName)

		d.serial.Store(vi.SerialNumber)
		if serialNumber != nil {
			*serialNumber = vi.SerialNumber
		}
		if maxComponentLength != nil {
			*maxComponentLength = vi.MaxComponentLength
			if *maxComponentLength == 0 {
				*maxComponentLength = defaultMaxComponentLength
			}
		}
		if fileSystemFlags != nil {
			*fileSystemFlags = uint32(vi.Features)
		}
		return nil
	})
}

func (d *dispatcher) mountedCallback(raw *native.DokanFileInfo) NtStatus {
	info := d.fileInfo(raw)
	status := d.invoke(opMounted, "", func() error {
		return d.fs.Mounted(info)
	})
	d.mountedOnce.Do(func() { close(d.mounted) })
	return status
}

func (d *dispatcher) unmountedCallback(raw *native.DokanFileInfo) NtStatus {
	info := d.fileInfo(raw)
	return d.invoke(opUnmounted, "", func() error {
		return d.fs.Unmounted(info)
	})
}

// ============================================================================
// Security
// ============================================================================

func (d *dispatcher) getFileSecurity(fileName *uint16, securityInformation *uint32, descriptor unsafe.Pointer, bufferLength uint32, lengthNeeded *uint32, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	var requested SecurityInformation
	if securityInformation != nil {
		requested = SecurityInformation(*securityInformation)
	}

	return d.invoke(opGetFileSecurity, name, func() error {
		sd, err := d.fs.GetFileSecurity(name, requested, info)
		if err != nil {
			return err
		}

		if lengthNeeded != nil {
			*lengthNeeded = uint32(len(sd))
		}
		if uint32(len(sd)) > bufferLength {
			return StatusBufferOverflow
		}
		if len(sd) > 0 {
			copy(unsafe.Slice((*byte)(descriptor), bufferLength), sd)
		}
		return nil
	})
}

func (d *dispatcher) setFileSecurity(fileName *uint16, securityInformation *uint32, descriptor unsafe.Pointer, bufferLength uint32, raw *native.DokanFileInfo) NtStatus {
	name := native.UTF16PtrToString(fileName)
	info := d.fileInfo(raw)
	var requested SecurityInformation
	if securityInformation != nil {
		requested = SecurityInformation(*securityInformation)
	}

	return d.invoke(opSetFileSecurity, name, func() error {
		var sd []byte
		if descriptor != nil && bufferLength > 0 {
			sd = make([]byte, bufferLength)
			copy(sd, unsafe.Slice((*byte)(descriptor), bufferLength))
		}
		return d.fs.SetFileSecurity(name, requested, sd, info)
	})
}
