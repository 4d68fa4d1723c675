// Package native describes the Dokan 1.x driver ABI: the fixed-layout
// records exchanged with dokan1.dll, the callback table, and the helpers used
// to move strings and timestamps across the boundary.
//
// Every record here mirrors its C counterpart byte for byte on 64-bit
// targets. Field order and widths must not change; layout_test.go pins the
// sizes and offsets.
package native

import "unsafe"

// VolumeSecurityDescriptorMaxSize is VOLUME_SECURITY_DESCRIPTOR_MAX_SIZE.
const VolumeSecurityDescriptorMaxSize = 1024 * 16

// MaxPath is MAX_PATH, the capacity of WIN32_FIND_DATAW.cFileName.
const MaxPath = 260

// DokanOptions mirrors DOKAN_OPTIONS.
type DokanOptions struct {
	Version                        uint16
	ThreadCount                    uint16
	Options                        uint32
	GlobalContext                  uint64
	MountPoint                     *uint16
	UNCName                        *uint16
	Timeout                        uint32
	AllocationUnitSize             uint32
	SectorSize                     uint32
	VolumeSecurityDescriptorLength uint32
	VolumeSecurityDescriptor       [VolumeSecurityDescriptorMaxSize]byte
}

// DokanFileInfo mirrors DOKAN_FILE_INFO. The driver owns the record; the
// Context field is the only part user mode is expected to write besides
// IsDirectory during create.
type DokanFileInfo struct {
	Context          uint64
	DokanContext     uint64
	DokanOptions     *DokanOptions
	ProcessId        uint32
	IsDirectory      uint8
	DeleteOnClose    uint8
	PagingIo         uint8
	SynchronousIo    uint8
	Nocache          uint8
	WriteToEndOfFile uint8
}

// Filetime mirrors FILETIME: 100ns intervals since 1601-01-01 UTC.
type Filetime struct {
	LowDateTime  uint32
	HighDateTime uint32
}

// ByHandleFileInformation mirrors BY_HANDLE_FILE_INFORMATION.
type ByHandleFileInformation struct {
	FileAttributes     uint32
	CreationTime       Filetime
	LastAccessTime     Filetime
	LastWriteTime      Filetime
	VolumeSerialNumber uint32
	FileSizeHigh       uint32
	FileSizeLow        uint32
	NumberOfLinks      uint32
	FileIndexHigh      uint32
	FileIndexLow       uint32
}

// Win32FindData mirrors WIN32_FIND_DATAW.
type Win32FindData struct {
	FileAttributes    uint32
	CreationTime      Filetime
	LastAccessTime    Filetime
	LastWriteTime     Filetime
	FileSizeHigh      uint32
	FileSizeLow       uint32
	Reserved0         uint32
	Reserved1         uint32
	FileName          [MaxPath]uint16
	AlternateFileName [14]uint16
}

// Win32FindStreamData mirrors WIN32_FIND_STREAM_DATA.
type Win32FindStreamData struct {
	StreamSize int64
	StreamName [MaxPath + 36]uint16
}

// DokanOperations mirrors DOKAN_OPERATIONS: one native entry point per
// operation, in the exact order the driver reads them.
type DokanOperations struct {
	ZwCreateFile         uintptr
	Cleanup              uintptr
	CloseFile            uintptr
	ReadFile             uintptr
	WriteFile            uintptr
	FlushFileBuffers     uintptr
	GetFileInformation   uintptr
	FindFiles            uintptr
	FindFilesWithPattern uintptr
	SetFileAttributes    uintptr
	SetFileTime          uintptr
	DeleteFile           uintptr
	DeleteDirectory      uintptr
	MoveFile             uintptr
	SetEndOfFile         uintptr
	SetAllocationSize    uintptr
	LockFile             uintptr
	UnlockFile           uintptr
	GetDiskFreeSpace     uintptr
	GetVolumeInformation uintptr
	Mounted              uintptr
	Unmounted            uintptr
	GetFileSecurity      uintptr
	SetFileSecurity      uintptr
	FindStreams          uintptr
}

// OperationCount is the number of entries in DokanOperations.
const OperationCount = int(unsafe.Sizeof(DokanOperations{}) / unsafe.Sizeof(uintptr(0)))

// SetFileSize splits size into the high/low pair used by the Win32 records.
func (r *ByHandleFileInformation) SetFileSize(size int64) {
	r.FileSizeHigh = uint32(uint64(size) >> 32)
	r.FileSizeLow = uint32(uint64(size))
}

// FileSize joins the high/low size pair.
func (r *ByHandleFileInformation) FileSize() int64 {
	return int64(uint64(r.FileSizeHigh)<<32 | uint64(r.FileSizeLow))
}

// SetFileSize splits size into the high/low pair used by the Win32 records.
func (r *Win32FindData) SetFileSize(size int64) {
	r.FileSizeHigh = uint32(uint64(size) >> 32)
	r.FileSizeLow = uint32(uint64(size))
}

// FileSize joins the high/low size pair.
func (r *Win32FindData) FileSize() int64 {
	return int64(uint64(r.FileSizeHigh)<<32 | uint64(r.FileSizeLow))
}
