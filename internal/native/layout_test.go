//go:build amd64 || arm64

package native

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Record layout
// ============================================================================

func TestRecordSizes(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"DOKAN_OPTIONS", unsafe.Sizeof(DokanOptions{}), 16432},
		{"DOKAN_FILE_INFO", unsafe.Sizeof(DokanFileInfo{}), 40},
		{"FILETIME", unsafe.Sizeof(Filetime{}), 8},
		{"BY_HANDLE_FILE_INFORMATION", unsafe.Sizeof(ByHandleFileInformation{}), 52},
		{"WIN32_FIND_DATAW", unsafe.Sizeof(Win32FindData{}), 592},
		{"WIN32_FIND_STREAM_DATA", unsafe.Sizeof(Win32FindStreamData{}), 600},
		{"DOKAN_OPERATIONS", unsafe.Sizeof(DokanOperations{}), 25 * 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.Equal(t, 25, OperationCount)
}

func TestDokanOptionsOffsets(t *testing.T) {
	var o DokanOptions
	assert.Equal(t, uintptr(0), unsafe.Offsetof(o.Version))
	assert.Equal(t, uintptr(2), unsafe.Offsetof(o.ThreadCount))
	assert.Equal(t, uintptr(4), unsafe.Offsetof(o.Options))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(o.GlobalContext))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(o.MountPoint))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(o.UNCName))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(o.Timeout))
	assert.Equal(t, uintptr(36), unsafe.Offsetof(o.AllocationUnitSize))
	assert.Equal(t, uintptr(40), unsafe.Offsetof(o.SectorSize))
	assert.Equal(t, uintptr(44), unsafe.Offsetof(o.VolumeSecurityDescriptorLength))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(o.VolumeSecurityDescriptor))
}

func TestDokanFileInfoOffsets(t *testing.T) {
	var fi DokanFileInfo
	assert.Equal(t, uintptr(0), unsafe.Offsetof(fi.Context))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(fi.DokanContext))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(fi.DokanOptions))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(fi.ProcessId))
	assert.Equal(t, uintptr(28), unsafe.Offsetof(fi.IsDirectory))
	assert.Equal(t, uintptr(29), unsafe.Offsetof(fi.DeleteOnClose))
	assert.Equal(t, uintptr(30), unsafe.Offsetof(fi.PagingIo))
	assert.Equal(t, uintptr(31), unsafe.Offsetof(fi.SynchronousIo))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(fi.Nocache))
	assert.Equal(t, uintptr(33), unsafe.Offsetof(fi.WriteToEndOfFile))
}

func TestFindDataOffsets(t *testing.T) {
	var fd Win32FindData
	assert.Equal(t, uintptr(4), unsafe.Offsetof(fd.CreationTime))
	assert.Equal(t, uintptr(28), unsafe.Offsetof(fd.FileSizeHigh))
	assert.Equal(t, uintptr(44), unsafe.Offsetof(fd.FileName))
	assert.Equal(t, uintptr(564), unsafe.Offsetof(fd.AlternateFileName))

	var bh ByHandleFileInformation
	assert.Equal(t, uintptr(28), unsafe.Offsetof(bh.VolumeSerialNumber))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(bh.FileIndexLow))

	var sd Win32FindStreamData
	assert.Equal(t, uintptr(8), unsafe.Offsetof(sd.StreamName))
}

func TestOperationOrder(t *testing.T) {
	var ops DokanOperations
	assert.Equal(t, uintptr(0), unsafe.Offsetof(ops.ZwCreateFile))
	assert.Equal(t, uintptr(3*8), unsafe.Offsetof(ops.ReadFile))
	assert.Equal(t, uintptr(8*8), unsafe.Offsetof(ops.FindFilesWithPattern))
	assert.Equal(t, uintptr(13*8), unsafe.Offsetof(ops.MoveFile))
	assert.Equal(t, uintptr(20*8), unsafe.Offsetof(ops.Mounted))
	assert.Equal(t, uintptr(24*8), unsafe.Offsetof(ops.FindStreams))
}

func TestFileSizeSplit(t *testing.T) {
	var bh ByHandleFileInformation
	bh.SetFileSize(0x1_2345_6789)
	assert.Equal(t, uint32(0x1), bh.FileSizeHigh)
	assert.Equal(t, uint32(0x2345_6789), bh.FileSizeLow)
	assert.Equal(t, int64(0x1_2345_6789), bh.FileSize())

	var fd Win32FindData
	fd.SetFileSize(42)
	assert.Equal(t, int64(42), fd.FileSize())
}
