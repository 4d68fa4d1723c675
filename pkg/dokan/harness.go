package dokan

import (
	"time"
	"unsafe"

	"github.com/marmos91/dokanfs/internal/native"
)

// ============================================================================
// In-process Harness
// ============================================================================
//
// Harness drives a FileSystem through the same translation layer a mounted
// volume uses, without dokan1.dll or the kernel driver. Requests are built
// the way the driver builds them: names travel as NUL-terminated UTF-16,
// buffers as raw memory, create arguments in their kernel form, and every
// open is bound to a handle slot. Backends use it to test their behavior on
// any platform.
//
// A Harness is safe for concurrent use; a HarnessHandle is not.

// Harness is an in-process stand-in for the Dokan driver.
type Harness struct {
	d *dispatcher
}

// NewHarness wraps fs. MountOptions are honored for the dispatcher settings
// (logger, metrics, buffer pool, direct I/O); the mount point is ignored.
func NewHarness(fs FileSystem, opts MountOptions) *Harness {
	opts.applyDefaults()
	return &Harness{d: newDispatcher(fs, &opts, harnessDriver{})}
}

// Mount delivers the Mounted notification and primes the cached volume
// serial number, as the driver does when a volume comes online.
func (h *Harness) Mount() NtStatus {
	if status := h.d.mountedCallback(&native.DokanFileInfo{}); !status.IsSuccess() {
		return status
	}
	_, status := h.VolumeInformation()
	return status
}

// Unmount delivers the Unmounted notification.
func (h *Harness) Unmount() NtStatus {
	return h.d.unmountedCallback(&native.DokanFileInfo{})
}

// OpenHandles reports the number of live handle slots.
func (h *Harness) OpenHandles() int {
	return h.d.handles.len()
}

// DiskFreeSpace queries the volume capacity.
func (h *Harness) DiskFreeSpace() (DiskFreeSpace, NtStatus) {
	var space DiskFreeSpace
	status := h.d.getDiskFreeSpace(&space.FreeBytesAvailable, &space.TotalNumberOfBytes,
		&space.TotalNumberOfFreeBytes, &native.DokanFileInfo{})
	return space, status
}

// VolumeInformation queries the volume description.
func (h *Harness) VolumeInformation() (VolumeInformation, NtStatus) {
	var (
		vi         VolumeInformation
		name       [native.MaxPath]uint16
		fsName     [native.MaxPath]uint16
		flags      uint32
		serial     uint32
		maxCompLen uint32
	)
	status := h.d.getVolumeInformation(&name[0], uint32(len(name)), &serial, &maxCompLen, &flags,
		&fsName[0], uint32(len(fsName)), &native.DokanFileInfo{})
	if !status.IsSuccess() {
		return vi, status
	}
	vi.Name = native.UTF16ToString(name[:])
	vi.FileSystemName = native.UTF16ToString(fsName[:])
	vi.SerialNumber = serial
	vi.MaxComponentLength = maxCompLen
	vi.Features = FileSystemFeature(flags)
	return vi, status
}

// OpenRequest describes a create call in Win32 terms. Harness converts it to
// the kernel arguments the driver would send.
type OpenRequest struct {
	Access        AccessMask
	Share         ShareMode
	Disposition   CreationDisposition
	Attributes    FileAttribute
	Directory     bool
	NonDirectory  bool
	DeleteOnClose bool
}

// Open issues a create call. The handle is returned whenever the driver
// would have completed the open, including the open-or-create collision
// case, so the caller must Close it.
func (h *Harness) Open(name string, req OpenRequest) (*HarnessHandle, NtStatus) {
	hh := &HarnessHandle{h: h, name: native.StringToUTF16Ptr(name)}
	disposition := kernelDisposition(req.Disposition)
	status := h.d.zwCreateFile(hh.name, kernelAccess(req.Access), uint32(req.Attributes),
		uint32(req.Share), disposition, kernelOptions(req), &hh.raw)
	if !status.IsSuccess() && !opensExisting(status, disposition) {
		return nil, status
	}
	if req.DeleteOnClose {
		hh.raw.DeleteOnClose = 1
	}
	return hh, status
}

func kernelDisposition(d CreationDisposition) uint32 {
	switch d {
	case CreateNew:
		return native.FileCreate
	case CreateAlways:
		return native.FileOverwriteIf
	case OpenAlways:
		return native.FileOpenIf
	case TruncateExisting:
		return native.FileOverwrite
	default:
		return native.FileOpen
	}
}

// kernelAccess expands GENERIC_* rights, which never reach a filesystem
// driver unmapped.
func kernelAccess(m AccessMask) uint32 {
	access := uint32(m)
	for _, g := range genericAccess {
		if access&g.generic != 0 {
			access = access&^g.generic | g.specific
		}
	}
	return access
}

func kernelOptions(req OpenRequest) uint32 {
	var options uint32
	if req.Directory {
		options |= native.FileDirectoryFile
	}
	if req.NonDirectory {
		options |= native.FileNonDirectoryFile
	}
	if req.DeleteOnClose {
		options |= native.FileDeleteOnClose
	}
	return options
}

// HarnessHandle is one open handle created through Harness.Open.
type HarnessHandle struct {
	h      *Harness
	name   *uint16
	raw    native.DokanFileInfo
	closed bool
}

// IsDirectory reports what the filesystem declared during the open.
func (hh *HarnessHandle) IsDirectory() bool {
	return hh.raw.IsDirectory != 0
}

// State returns the lifecycle state of the underlying handle slot.
func (hh *HarnessHandle) State() HandleState {
	if h := hh.h.d.handles.lookup(hh.raw.Context); h != nil {
		return h.loadState()
	}
	if hh.closed {
		return HandleClosed
	}
	return HandleNone
}

// Read reads into buf at offset.
func (hh *HarnessHandle) Read(buf []byte, offset int64) (int, NtStatus) {
	var n uint32
	status := hh.h.d.readFile(hh.name, bufferPointer(buf), uint32(len(buf)), &n, offset, &hh.raw)
	return int(n), status
}

// Write writes data at offset.
func (hh *HarnessHandle) Write(data []byte, offset int64) (int, NtStatus) {
	var n uint32
	status := hh.h.d.writeFile(hh.name, bufferPointer(data), uint32(len(data)), &n, offset, &hh.raw)
	return int(n), status
}

// Append writes data at the end of the file.
func (hh *HarnessHandle) Append(data []byte) (int, NtStatus) {
	hh.raw.WriteToEndOfFile = 1
	defer func() { hh.raw.WriteToEndOfFile = 0 }()
	return hh.Write(data, -1)
}

func bufferPointer(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

func (hh *HarnessHandle) Flush() NtStatus {
	return hh.h.d.flushFileBuffers(hh.name, &hh.raw)
}

// HandleInformation is the decoded BY_HANDLE_FILE_INFORMATION record.
type HandleInformation struct {
	FileInformation
	VolumeSerialNumber uint32
	NumberOfLinks      uint32
}

// Info queries the file information record.
func (hh *HarnessHandle) Info() (HandleInformation, NtStatus) {
	var rec native.ByHandleFileInformation
	status := hh.h.d.getFileInformation(hh.name, &rec, &hh.raw)
	return HandleInformation{
		FileInformation: FileInformation{
			Attributes:     FileAttribute(rec.FileAttributes),
			CreationTime:   rec.CreationTime.Time(),
			LastAccessTime: rec.LastAccessTime.Time(),
			LastWriteTime:  rec.LastWriteTime.Time(),
			Length:         rec.FileSize(),
		},
		VolumeSerialNumber: rec.VolumeSerialNumber,
		NumberOfLinks:      rec.NumberOfLinks,
	}, status
}

// Find lists the directory.
func (hh *HarnessHandle) Find() ([]FileInformation, NtStatus) {
	fill, got := collectFindData()
	status := hh.h.d.findFiles(hh.name, fill, &hh.raw)
	return *got, status
}

// FindPattern lists the directory entries matching pattern.
func (hh *HarnessHandle) FindPattern(pattern string) ([]FileInformation, NtStatus) {
	fill, got := collectFindData()
	status := hh.h.d.findFilesWithPattern(hh.name, native.StringToUTF16Ptr(pattern), fill, &hh.raw)
	return *got, status
}

func collectFindData() (findFiller, *[]FileInformation) {
	var got []FileInformation
	return func(rec *native.Win32FindData) bool {
		got = append(got, FileInformation{
			FileName:       native.UTF16ToString(rec.FileName[:]),
			Attributes:     FileAttribute(rec.FileAttributes),
			CreationTime:   rec.CreationTime.Time(),
			LastAccessTime: rec.LastAccessTime.Time(),
			LastWriteTime:  rec.LastWriteTime.Time(),
			Length:         rec.FileSize(),
		})
		return true
	}, &got
}

// Streams lists the data streams of the file.
func (hh *HarnessHandle) Streams() ([]StreamInformation, NtStatus) {
	var got []StreamInformation
	status := hh.h.d.findStreams(hh.name, func(rec *native.Win32FindStreamData) bool {
		got = append(got, StreamInformation{Name: native.UTF16ToString(rec.StreamName[:]), Size: rec.StreamSize})
		return true
	}, &hh.raw)
	return got, status
}

func (hh *HarnessHandle) SetAttributes(attributes FileAttribute) NtStatus {
	return hh.h.d.setFileAttributes(hh.name, uint32(attributes), &hh.raw)
}

// SetTimes updates the timestamps; nil leaves a value unchanged. Like the
// driver, it always passes three FILETIMEs and encodes nil as the zero
// FILETIME.
func (hh *HarnessHandle) SetTimes(creation, lastAccess, lastWrite *time.Time) NtStatus {
	c, a, w := basicInfoTime(creation), basicInfoTime(lastAccess), basicInfoTime(lastWrite)
	return hh.h.d.setFileTime(hh.name, &c, &a, &w, &hh.raw)
}

func basicInfoTime(t *time.Time) native.Filetime {
	if t == nil {
		return native.Filetime{}
	}
	return native.FiletimeFromTime(*t)
}

// Delete asks to delete the file when the handle is cleaned up. On success
// the handle is marked delete-pending, as the driver does.
func (hh *HarnessHandle) Delete() NtStatus {
	var status NtStatus
	if hh.IsDirectory() {
		status = hh.h.d.deleteDirectory(hh.name, &hh.raw)
	} else {
		status = hh.h.d.deleteFile(hh.name, &hh.raw)
	}
	if status.IsSuccess() {
		hh.raw.DeleteOnClose = 1
	}
	return status
}

// CancelDelete clears the delete-pending flag.
func (hh *HarnessHandle) CancelDelete() {
	hh.raw.DeleteOnClose = 0
}

// Move renames the file. The handle keeps the new name afterwards.
func (hh *HarnessHandle) Move(newName string, replaceIfExisting bool) NtStatus {
	target := native.StringToUTF16Ptr(newName)
	status := hh.h.d.moveFile(hh.name, target, replaceIfExisting, &hh.raw)
	if status.IsSuccess() {
		hh.name = target
	}
	return status
}

func (hh *HarnessHandle) SetEndOfFile(length int64) NtStatus {
	return hh.h.d.setEndOfFile(hh.name, length, &hh.raw)
}

func (hh *HarnessHandle) SetAllocationSize(length int64) NtStatus {
	return hh.h.d.setAllocationSize(hh.name, length, &hh.raw)
}

func (hh *HarnessHandle) Lock(offset, length int64) NtStatus {
	return hh.h.d.lockFile(hh.name, offset, length, &hh.raw)
}

func (hh *HarnessHandle) Unlock(offset, length int64) NtStatus {
	return hh.h.d.unlockFile(hh.name, offset, length, &hh.raw)
}

// Security reads the security descriptor, growing the buffer once when the
// first attempt reports the size it needs.
func (hh *HarnessHandle) Security(requested SecurityInformation) ([]byte, NtStatus) {
	buf := make([]byte, 256)
	for attempt := 0; ; attempt++ {
		info := uint32(requested)
		var needed uint32
		status := hh.h.d.getFileSecurity(hh.name, &info, unsafe.Pointer(&buf[0]), uint32(len(buf)), &needed, &hh.raw)
		if status == StatusBufferOverflow && attempt == 0 && needed > uint32(len(buf)) {
			buf = make([]byte, needed)
			continue
		}
		if !status.IsSuccess() {
			return nil, status
		}
		return buf[:needed], status
	}
}

func (hh *HarnessHandle) SetSecurity(requested SecurityInformation, descriptor []byte) NtStatus {
	info := uint32(requested)
	return hh.h.d.setFileSecurity(hh.name, &info, bufferPointer(descriptor), uint32(len(descriptor)), &hh.raw)
}

// Close runs Cleanup then CloseFile. It is a no-op on a closed handle.
func (hh *HarnessHandle) Close() {
	if hh.closed {
		return
	}
	hh.h.d.cleanup(hh.name, &hh.raw)
	hh.h.d.closeFile(hh.name, &hh.raw)
	hh.closed = true
}

// harnessDriver grants every timeout extension.
type harnessDriver struct{}

func (harnessDriver) Main(*native.DokanOptions, *native.DokanOperations) int32 {
	return native.DokanSuccess
}
func (harnessDriver) RemoveMountPoint(string) bool                    { return true }
func (harnessDriver) ResetTimeout(uint32, *native.DokanFileInfo) bool { return true }
func (harnessDriver) Version() uint32                                 { return native.DokanVersion }
func (harnessDriver) DriverVersion() uint32                           { return native.DokanVersion }
