package dokan

import "github.com/marmos91/dokanfs/internal/native"

// driver is the subset of the dokan1.dll API used by this package.
type driver interface {
	// Main blocks until the volume is unmounted and returns a DOKAN_* code.
	Main(options *native.DokanOptions, operations *native.DokanOperations) int32
	RemoveMountPoint(mountPoint string) bool
	ResetTimeout(timeoutMs uint32, info *native.DokanFileInfo) bool
	Version() uint32
	DriverVersion() uint32
}

// openDriver is swapped in tests.
var openDriver = loadDriver
