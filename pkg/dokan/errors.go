package dokan

import (
	"fmt"

	"github.com/marmos91/dokanfs/internal/native"
	"github.com/pkg/errors"
)

// Startup failures reported by the driver. A *MountError matches the
// sentinel for its code via errors.Is.
var (
	ErrMountFailed       = errors.New("dokan: mount failed")
	ErrDriveLetter       = errors.New("dokan: bad drive letter")
	ErrDriverMissing     = errors.New("dokan: driver not installed")
	ErrStartFailed       = errors.New("dokan: driver start failed")
	ErrMountPointBusy    = errors.New("dokan: cannot assign mount point")
	ErrMountPointInvalid = errors.New("dokan: invalid mount point")
	ErrVersionMismatch   = errors.New("dokan: version mismatch")
)

// Lifecycle errors raised by this package rather than by the driver.
var (
	ErrUnmountFailed = errors.New("dokan: unmount failed")
	ErrNilFileSystem = errors.New("dokan: nil file system")
)

// MountError is returned when the driver refuses to start a mount.
type MountError struct {
	// Code is the DokanMain return value.
	Code int32
	// MountPoint is the mount point that was requested.
	MountPoint string
	// Err optionally carries the underlying cause, e.g. a DLL load error.
	Err error
}

func (e *MountError) Error() string {
	msg := fmt.Sprintf("%s (code %d, mount point %q)", e.sentinel(), e.Code, e.MountPoint)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the code's sentinel and the cause.
func (e *MountError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.sentinel(), e.Err}
	}
	return []error{e.sentinel()}
}

func (e *MountError) sentinel() error {
	switch e.Code {
	case native.DokanDriveLetterError:
		return ErrDriveLetter
	case native.DokanDriverInstallError:
		return ErrDriverMissing
	case native.DokanStartError:
		return ErrStartFailed
	case native.DokanMountError:
		return ErrMountPointBusy
	case native.DokanMountPointError:
		return ErrMountPointInvalid
	case native.DokanVersionError:
		return ErrVersionMismatch
	default:
		return ErrMountFailed
	}
}

// mountResult converts a DokanMain return value to an error.
func mountResult(code int32, mountPoint string) error {
	if code == native.DokanSuccess {
		return nil
	}
	return &MountError{Code: code, MountPoint: mountPoint}
}

// recoveredError turns a recovered panic value into an error carrying the
// stack of the panicking goroutine.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return errors.WithStack(err)
	}
	return errors.Errorf("panic: %v", r)
}
