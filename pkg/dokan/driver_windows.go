//go:build windows

package dokan

import (
	"sync"
	"unsafe"

	"github.com/marmos91/dokanfs/internal/native"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	dokanDLL = windows.NewLazySystemDLL("dokan1.dll")

	procDokanMain             = dokanDLL.NewProc("DokanMain")
	procDokanRemoveMountPoint = dokanDLL.NewProc("DokanRemoveMountPoint")
	procDokanResetTimeout     = dokanDLL.NewProc("DokanResetTimeout")
	procDokanVersion          = dokanDLL.NewProc("DokanVersion")
	procDokanDriverVersion    = dokanDLL.NewProc("DokanDriverVersion")

	loadOnce sync.Once
	loadErr  error
)

type dllDriver struct{}

func loadDriver() (driver, error) {
	loadOnce.Do(func() {
		if err := dokanDLL.Load(); err != nil {
			loadErr = errors.Wrap(ErrDriverMissing, err.Error())
			return
		}
		for _, p := range []*windows.LazyProc{
			procDokanMain, procDokanRemoveMountPoint, procDokanResetTimeout,
			procDokanVersion, procDokanDriverVersion,
		} {
			if err := p.Find(); err != nil {
				loadErr = errors.Wrap(ErrVersionMismatch, err.Error())
				return
			}
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return dllDriver{}, nil
}

func (dllDriver) Main(options *native.DokanOptions, operations *native.DokanOperations) int32 {
	r, _, _ := procDokanMain.Call(uintptr(unsafe.Pointer(options)), uintptr(unsafe.Pointer(operations)))
	return int32(r)
}

func (dllDriver) RemoveMountPoint(mountPoint string) bool {
	p := native.StringToUTF16Ptr(mountPoint)
	r, _, _ := procDokanRemoveMountPoint.Call(uintptr(unsafe.Pointer(p)))
	return r != 0
}

func (dllDriver) ResetTimeout(timeoutMs uint32, info *native.DokanFileInfo) bool {
	r, _, _ := procDokanResetTimeout.Call(uintptr(timeoutMs), uintptr(unsafe.Pointer(info)))
	return r != 0
}

func (dllDriver) Version() uint32 {
	r, _, _ := procDokanVersion.Call()
	return uint32(r)
}

func (dllDriver) DriverVersion() uint32 {
	r, _, _ := procDokanDriverVersion.Call()
	return uint32(r)
}
