package dokan

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dokanfs/internal/native"
	"github.com/marmos91/dokanfs/pkg/bufpool"
	"github.com/marmos91/dokanfs/pkg/metrics"
	"github.com/pkg/errors"
)

// MountFlag is a set of DOKAN_OPTION_* flags.
type MountFlag uint32

const (
	FlagDebug            = MountFlag(native.OptionDebug)
	FlagStderr           = MountFlag(native.OptionStderr)
	FlagAltStream        = MountFlag(native.OptionAltStream)
	FlagWriteProtect     = MountFlag(native.OptionWriteProtect)
	FlagNetwork          = MountFlag(native.OptionNetwork)
	FlagRemovable        = MountFlag(native.OptionRemovable)
	FlagMountManager     = MountFlag(native.OptionMountManager)
	FlagCurrentSession   = MountFlag(native.OptionCurrentSession)
	FlagFileLockUserMode = MountFlag(native.OptionFilelockUserMode)
)

// Defaults applied by Mount to zero-valued options.
const (
	DefaultTimeout            = 15 * time.Second
	DefaultAllocationUnitSize = 4096
	DefaultSectorSize         = 512
)

// MountOptions configures a mount.
type MountOptions struct {
	// MountPoint is a drive letter ("M:\") or an empty NTFS directory.
	MountPoint string
	// UNCName is the network share name used with FlagNetwork.
	UNCName string
	// ThreadCount is the number of driver threads; 0 lets the driver decide.
	ThreadCount uint16
	Flags       MountFlag
	// Timeout is the per-request timeout enforced by the driver.
	Timeout            time.Duration
	AllocationUnitSize uint32
	SectorSize         uint32
	// VolumeSecurityDescriptor is an optional self-relative descriptor
	// applied to the volume itself.
	VolumeSecurityDescriptor []byte

	// DisableDirectIO forces the copying read/write path even when the
	// filesystem implements UnsafeFileSystem.
	DisableDirectIO bool

	Logger     Logger
	Metrics    metrics.DokanMetrics
	BufferPool *bufpool.Pool
}

func (o *MountOptions) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.AllocationUnitSize == 0 {
		o.AllocationUnitSize = DefaultAllocationUnitSize
	}
	if o.SectorSize == 0 {
		o.SectorSize = DefaultSectorSize
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNoopDokanMetrics()
	}
	if o.BufferPool == nil {
		o.BufferPool = bufpool.New()
	}
}

func (o *MountOptions) validate() error {
	if o.MountPoint == "" {
		return &MountError{Code: native.DokanMountPointError, Err: errors.New("mount point is empty")}
	}
	if len(o.VolumeSecurityDescriptor) > native.VolumeSecurityDescriptorMaxSize {
		return errors.Errorf("dokan: volume security descriptor is %d bytes, limit is %d",
			len(o.VolumeSecurityDescriptor), native.VolumeSecurityDescriptorMaxSize)
	}
	return nil
}

// nativeOptions builds the DOKAN_OPTIONS record for a mount.
func (o *MountOptions) nativeOptions(id uint64) *native.DokanOptions {
	opts := &native.DokanOptions{
		Version:            native.DokanVersion,
		ThreadCount:        o.ThreadCount,
		Options:            uint32(o.Flags),
		GlobalContext:      id,
		MountPoint:         native.StringToUTF16Ptr(o.MountPoint),
		Timeout:            uint32(o.Timeout.Milliseconds()),
		AllocationUnitSize: o.AllocationUnitSize,
		SectorSize:         o.SectorSize,
	}
	if o.UNCName != "" {
		opts.UNCName = native.StringToUTF16Ptr(o.UNCName)
	}
	opts.VolumeSecurityDescriptorLength = uint32(copy(opts.VolumeSecurityDescriptor[:], o.VolumeSecurityDescriptor))
	return opts
}

// ============================================================================
// Mount registry
// ============================================================================
//
// Callbacks are process-wide entry points; DOKAN_OPTIONS.GlobalContext
// carries the id that leads them back to the mount's dispatcher.

var (
	mounts      sync.Map // uint64 -> *dispatcher
	nextMountID atomic.Uint64
)

func registerMount(d *dispatcher) uint64 {
	id := nextMountID.Add(1)
	mounts.Store(id, d)
	return id
}

func unregisterMount(id uint64) {
	mounts.Delete(id)
}

func lookupMount(id uint64) *dispatcher {
	if v, ok := mounts.Load(id); ok {
		return v.(*dispatcher)
	}
	return nil
}

// dispatcherFor resolves the dispatcher of the mount raw belongs to.
func dispatcherFor(raw *native.DokanFileInfo) *dispatcher {
	if raw == nil || raw.DokanOptions == nil {
		return nil
	}
	return lookupMount(raw.DokanOptions.GlobalContext)
}

// ============================================================================
// Instance
// ============================================================================

// Instance is a running mount. It owns the native options record and the
// callback table and keeps both alive until the driver's main loop returns,
// which only happens after the driver has confirmed the unmount.
type Instance struct {
	id         uint64
	mountPoint string
	drv        driver
	disp       *dispatcher
	log        Logger

	options    *native.DokanOptions
	operations *native.DokanOperations

	done chan struct{}
	err  error

	unmountMu sync.Mutex
	unmounted bool
}

// Mount starts serving fs at opts.MountPoint and returns once the driver
// reports the volume as mounted. If the driver refuses the mount the
// returned error is a *MountError. Cancelling ctx before the volume is
// mounted aborts the attempt.
func Mount(ctx context.Context, fs FileSystem, opts MountOptions) (*Instance, error) {
	if fs == nil {
		return nil, ErrNilFileSystem
	}
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	drv, err := openDriver()
	if err != nil {
		return nil, &MountError{Code: native.DokanDriverInstallError, MountPoint: opts.MountPoint, Err: err}
	}
	if v := drv.Version(); v < native.DokanMinimumVersion {
		return nil, &MountError{
			Code:       native.DokanVersionError,
			MountPoint: opts.MountPoint,
			Err:        fmt.Errorf("library version %d, need at least %d", v, native.DokanMinimumVersion),
		}
	}

	d := newDispatcher(fs, &opts, drv)
	id := registerMount(d)

	inst := &Instance{
		id:         id,
		mountPoint: opts.MountPoint,
		drv:        drv,
		disp:       d,
		log:        opts.Logger,
		options:    opts.nativeOptions(id),
		operations: newOperations(),
		done:       make(chan struct{}),
	}

	go inst.run()

	select {
	case <-d.mounted:
		inst.log.Infof("dokan: mounted %s", inst.mountPoint)
		return inst, nil
	case <-inst.done:
		return nil, inst.err
	case <-ctx.Done():
		go inst.abort()
		return nil, ctx.Err()
	}
}

// run blocks in the driver's main loop on its own goroutine. The options
// record and callback table are referenced until the loop returns.
func (i *Instance) run() {
	defer close(i.done)
	defer unregisterMount(i.id)

	code := i.drv.Main(i.options, i.operations)
	runtime.KeepAlive(i.options)
	runtime.KeepAlive(i.operations)

	i.err = mountResult(code, i.mountPoint)
	if i.err != nil {
		i.log.Errorf("dokan: %s: %v", i.mountPoint, i.err)
	} else {
		i.log.Infof("dokan: unmounted %s", i.mountPoint)
	}
}

// abort unmounts an instance whose Mount call was cancelled, once the
// driver has either mounted it or given up.
func (i *Instance) abort() {
	select {
	case <-i.disp.mounted:
		_ = i.Unmount()
	case <-i.done:
	}
}

// Unmount asks the driver to remove the mount point and waits until the
// driver's main loop has returned. It is safe to call more than once; a
// refused removal can be retried.
func (i *Instance) Unmount() error {
	i.unmountMu.Lock()
	defer i.unmountMu.Unlock()

	if i.unmounted {
		return nil
	}
	select {
	case <-i.done:
		i.unmounted = true
		return nil
	default:
	}
	if !i.drv.RemoveMountPoint(i.mountPoint) {
		return errors.Wrapf(ErrUnmountFailed, "mount point %q", i.mountPoint)
	}
	<-i.done
	i.unmounted = true
	return nil
}

// Wait blocks until the volume is unmounted, by Unmount or externally, and
// returns the driver's exit error, if any.
func (i *Instance) Wait() error {
	<-i.done
	return i.err
}

// Done is closed once the volume is unmounted.
func (i *Instance) Done() <-chan struct{} {
	return i.done
}

// MountPoint returns the mount point the instance serves.
func (i *Instance) MountPoint() string {
	return i.mountPoint
}

// OpenHandles returns the number of handles currently open on the volume.
func (i *Instance) OpenHandles() int {
	return i.disp.handles.len()
}

// ============================================================================
// Library queries
// ============================================================================

// Version returns the version of the installed dokan1.dll, e.g. 150.
func Version() (uint32, error) {
	drv, err := openDriver()
	if err != nil {
		return 0, err
	}
	return drv.Version(), nil
}

// DriverVersion returns the version of the installed kernel driver.
func DriverVersion() (uint32, error) {
	drv, err := openDriver()
	if err != nil {
		return 0, err
	}
	return drv.DriverVersion(), nil
}

// RemoveMountPoint unmounts whatever volume is mounted at mountPoint,
// including volumes left behind by a crashed process.
func RemoveMountPoint(mountPoint string) error {
	drv, err := openDriver()
	if err != nil {
		return err
	}
	if !drv.RemoveMountPoint(mountPoint) {
		return errors.Wrapf(ErrUnmountFailed, "mount point %q", mountPoint)
	}
	return nil
}
