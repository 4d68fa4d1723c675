package dokan

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dokanfs/internal/native"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountAndUnmount(t *testing.T) {
	drv := newFakeDriver()
	useDriver(t, drv)
	sfs := &stubFS{}

	inst, err := Mount(context.Background(), sfs, MountOptions{
		MountPoint:  `M:\`,
		ThreadCount: 4,
		Flags:       FlagRemovable | FlagAltStream,
		Logger:      NullLogger{},
	})
	require.NoError(t, err)
	assert.Equal(t, `M:\`, inst.MountPoint())
	assert.Equal(t, int32(1), sfs.mounted.Load())

	opts := drv.options
	require.NotNil(t, opts)
	assert.Equal(t, uint16(native.DokanVersion), opts.Version)
	assert.Equal(t, uint16(4), opts.ThreadCount)
	assert.Equal(t, uint32(native.OptionRemovable|native.OptionAltStream), opts.Options)
	assert.Equal(t, uint32(DefaultTimeout.Milliseconds()), opts.Timeout)
	assert.Equal(t, `M:\`, native.UTF16PtrToString(opts.MountPoint))
	assert.NotNil(t, lookupMount(opts.GlobalContext))

	require.NoError(t, inst.Unmount())
	require.NoError(t, inst.Wait())
	assert.Equal(t, int32(1), sfs.unmounted.Load())
	assert.Nil(t, lookupMount(opts.GlobalContext))

	// A second unmount is a no-op.
	require.NoError(t, inst.Unmount())
	assert.Equal(t, int32(1), drv.removed.Load())
}

func TestMountDriverFailure(t *testing.T) {
	tests := []struct {
		code     int32
		sentinel error
	}{
		{native.DokanError, ErrMountFailed},
		{native.DokanDriveLetterError, ErrDriveLetter},
		{native.DokanDriverInstallError, ErrDriverMissing},
		{native.DokanStartError, ErrStartFailed},
		{native.DokanMountError, ErrMountPointBusy},
		{native.DokanMountPointError, ErrMountPointInvalid},
		{native.DokanVersionError, ErrVersionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.sentinel.Error(), func(t *testing.T) {
			drv := newFakeDriver()
			drv.exitCode = tt.code
			useDriver(t, drv)

			inst, err := Mount(context.Background(), &stubFS{}, MountOptions{MountPoint: `Q:\`, Logger: NullLogger{}})
			require.Error(t, err)
			assert.Nil(t, inst)
			assert.ErrorIs(t, err, tt.sentinel)

			var mountErr *MountError
			require.True(t, errors.As(err, &mountErr))
			assert.Equal(t, tt.code, mountErr.Code)
			assert.Equal(t, `Q:\`, mountErr.MountPoint)
		})
	}
}

func TestMountRejectsOldLibrary(t *testing.T) {
	drv := newFakeDriver()
	drv.version = native.DokanMinimumVersion - 1
	useDriver(t, drv)

	_, err := Mount(context.Background(), &stubFS{}, MountOptions{MountPoint: `M:\`, Logger: NullLogger{}})
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Nil(t, drv.options)
}

func TestMountValidatesOptions(t *testing.T) {
	useDriver(t, newFakeDriver())

	_, err := Mount(context.Background(), nil, MountOptions{MountPoint: `M:\`})
	assert.ErrorIs(t, err, ErrNilFileSystem)

	_, err = Mount(context.Background(), &stubFS{}, MountOptions{})
	assert.ErrorIs(t, err, ErrMountPointInvalid)

	_, err = Mount(context.Background(), &stubFS{}, MountOptions{
		MountPoint:               `M:\`,
		VolumeSecurityDescriptor: make([]byte, native.VolumeSecurityDescriptorMaxSize+1),
	})
	assert.Error(t, err)
}

func TestMountCancelledBeforeMounted(t *testing.T) {
	drv := newFakeDriver()
	drv.stalled = true
	useDriver(t, drv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Mount(ctx, &stubFS{}, MountOptions{MountPoint: `M:\`, Logger: NullLogger{}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The driver never reported the mount; stopping it lets the abandoned
	// instance unwind.
	drv.RemoveMountPoint(`M:\`)
}

func TestUnmountRefused(t *testing.T) {
	drv := newFakeDriver()
	drv.refuseStop = true
	useDriver(t, drv)

	inst, err := Mount(context.Background(), &stubFS{}, MountOptions{MountPoint: `M:\`, Logger: NullLogger{}})
	require.NoError(t, err)

	assert.ErrorIs(t, inst.Unmount(), ErrUnmountFailed)
	assert.ErrorIs(t, inst.Unmount(), ErrUnmountFailed, "a refusal is not cached as success")

	drv.refuseStop = false
	require.NoError(t, inst.Unmount(), "retry after the driver lets go")
	<-inst.Done()
	assert.Equal(t, int32(3), drv.removed.Load())

	require.NoError(t, inst.Unmount())
	assert.Equal(t, int32(3), drv.removed.Load(), "no removal once unmounted")
}

func TestLibraryVersions(t *testing.T) {
	useDriver(t, newFakeDriver())

	v, err := Version()
	require.NoError(t, err)
	assert.Equal(t, uint32(native.DokanVersion), v)

	dv, err := DriverVersion()
	require.NoError(t, err)
	assert.Equal(t, uint32(native.DokanVersion), dv)
}

func TestMissingDriver(t *testing.T) {
	prev := openDriver
	openDriver = func() (driver, error) { return nil, errors.Wrap(ErrDriverMissing, "not here") }
	t.Cleanup(func() { openDriver = prev })

	_, err := Mount(context.Background(), &stubFS{}, MountOptions{MountPoint: `M:\`})
	assert.ErrorIs(t, err, ErrDriverMissing)

	_, err = Version()
	assert.ErrorIs(t, err, ErrDriverMissing)
}
