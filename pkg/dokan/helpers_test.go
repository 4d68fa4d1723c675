package dokan

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/marmos91/dokanfs/internal/native"
	"github.com/marmos91/dokanfs/pkg/bufpool"
)

// stubFS answers every call with StatusNotImplemented unless a hook is set.
type stubFS struct {
	NotImplementedFileSystem

	create      func(name string, req *CreateFileRequest, info *FileInfo) error
	cleanup     func(name string, info *FileInfo) error
	closeFile   func(name string, info *FileInfo) error
	read        func(name string, buf []byte, offset int64, info *FileInfo) (int, error)
	write       func(name string, buf []byte, offset int64, info *FileInfo) (int, error)
	getInfo     func(name string, info *FileInfo) (FileInformation, error)
	findFiles   func(name string, info *FileInfo) ([]FileInformation, error)
	findStreams func(name string, info *FileInfo) ([]StreamInformation, error)
	setFileTime func(name string, creation, lastAccess, lastWrite *time.Time, info *FileInfo) error
	volume      func(info *FileInfo) (VolumeInformation, error)
	security    func(name string, requested SecurityInformation, info *FileInfo) ([]byte, error)

	readCalls  atomic.Int32
	writeCalls atomic.Int32
	mounted    atomic.Int32
	unmounted  atomic.Int32
}

func (s *stubFS) CreateFile(name string, req *CreateFileRequest, info *FileInfo) error {
	if s.create == nil {
		return nil
	}
	return s.create(name, req, info)
}

func (s *stubFS) Cleanup(name string, info *FileInfo) error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup(name, info)
}

func (s *stubFS) CloseFile(name string, info *FileInfo) error {
	if s.closeFile == nil {
		return nil
	}
	return s.closeFile(name, info)
}

func (s *stubFS) ReadFile(name string, buf []byte, offset int64, info *FileInfo) (int, error) {
	s.readCalls.Add(1)
	if s.read == nil {
		return 0, StatusNotImplemented
	}
	return s.read(name, buf, offset, info)
}

func (s *stubFS) WriteFile(name string, buf []byte, offset int64, info *FileInfo) (int, error) {
	s.writeCalls.Add(1)
	if s.write == nil {
		return 0, StatusNotImplemented
	}
	return s.write(name, buf, offset, info)
}

func (s *stubFS) GetFileInformation(name string, info *FileInfo) (FileInformation, error) {
	if s.getInfo == nil {
		return FileInformation{}, StatusNotImplemented
	}
	return s.getInfo(name, info)
}

func (s *stubFS) FindFiles(name string, info *FileInfo) ([]FileInformation, error) {
	if s.findFiles == nil {
		return nil, StatusNotImplemented
	}
	return s.findFiles(name, info)
}

func (s *stubFS) FindStreams(name string, info *FileInfo) ([]StreamInformation, error) {
	if s.findStreams == nil {
		return nil, StatusNotImplemented
	}
	return s.findStreams(name, info)
}

func (s *stubFS) SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *FileInfo) error {
	if s.setFileTime == nil {
		return StatusNotImplemented
	}
	return s.setFileTime(name, creation, lastAccess, lastWrite, info)
}

func (s *stubFS) GetVolumeInformation(info *FileInfo) (VolumeInformation, error) {
	if s.volume == nil {
		return VolumeInformation{}, StatusNotImplemented
	}
	return s.volume(info)
}

func (s *stubFS) GetFileSecurity(name string, requested SecurityInformation, info *FileInfo) ([]byte, error) {
	if s.security == nil {
		return nil, StatusNotImplemented
	}
	return s.security(name, requested, info)
}

func (s *stubFS) Mounted(info *FileInfo) error {
	s.mounted.Add(1)
	return nil
}

func (s *stubFS) Unmounted(info *FileInfo) error {
	s.unmounted.Add(1)
	return nil
}

// directFS adds the pointer-based I/O path to stubFS.
type directFS struct {
	*stubFS
	unsafeReads atomic.Int32
}

func (s *directFS) ReadFileUnsafe(name string, buf unsafe.Pointer, length uint32, offset int64, info *FileInfo) (int, error) {
	s.unsafeReads.Add(1)
	dst := unsafe.Slice((*byte)(buf), length)
	for i := range dst {
		dst[i] = 'u'
	}
	return int(length), nil
}

func (s *directFS) WriteFileUnsafe(name string, buf unsafe.Pointer, length uint32, offset int64, info *FileInfo) (int, error) {
	return int(length), nil
}

// fakeDriver stands in for dokan1.dll. Main reports the volume as mounted
// through the registered dispatcher and blocks until RemoveMountPoint.
type fakeDriver struct {
	version    uint32
	exitCode   int32
	refuseStop bool
	stalled    bool

	stopOnce sync.Once
	stop     chan struct{}
	resets   atomic.Int32
	removed  atomic.Int32
	options  *native.DokanOptions
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{version: native.DokanVersion, stop: make(chan struct{})}
}

func (f *fakeDriver) Main(options *native.DokanOptions, operations *native.DokanOperations) int32 {
	f.options = options
	if f.exitCode != native.DokanSuccess {
		return f.exitCode
	}
	raw := &native.DokanFileInfo{DokanOptions: options}
	d := lookupMount(options.GlobalContext)
	if !f.stalled {
		d.mountedCallback(raw)
	}
	<-f.stop
	d.unmountedCallback(raw)
	return native.DokanSuccess
}

func (f *fakeDriver) RemoveMountPoint(mountPoint string) bool {
	f.removed.Add(1)
	if f.refuseStop {
		return false
	}
	f.stopOnce.Do(func() { close(f.stop) })
	return true
}

func (f *fakeDriver) ResetTimeout(timeoutMs uint32, info *native.DokanFileInfo) bool {
	f.resets.Add(1)
	return true
}

func (f *fakeDriver) Version() uint32       { return f.version }
func (f *fakeDriver) DriverVersion() uint32 { return f.version }

// useDriver installs drv for the duration of the test.
func useDriver(t *testing.T, drv driver) {
	t.Helper()
	prev := openDriver
	openDriver = func() (driver, error) { return drv, nil }
	t.Cleanup(func() { openDriver = prev })
}

// newTestDispatcher builds a dispatcher outside of a mount.
func newTestDispatcher(t *testing.T, fs FileSystem, configure ...func(*MountOptions)) *dispatcher {
	t.Helper()
	opts := MountOptions{MountPoint: `M:\`, Logger: NullLogger{}, BufferPool: bufpool.New()}
	for _, fn := range configure {
		fn(&opts)
	}
	opts.applyDefaults()
	return newDispatcher(fs, &opts, newFakeDriver())
}

func utf16(s string) *uint16 {
	return native.StringToUTF16Ptr(s)
}

// collectFind is a findFiller that accepts up to limit records, or all of
// them when limit is negative.
func collectFind(limit int) (findFiller, *[]native.Win32FindData) {
	var got []native.Win32FindData
	return func(rec *native.Win32FindData) bool {
		if limit >= 0 && len(got) >= limit {
			return false
		}
		got = append(got, *rec)
		return true
	}, &got
}
