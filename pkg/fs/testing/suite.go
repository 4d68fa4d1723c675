package testing

import (
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
)

// FileSystemTestSuite is a behavioral test suite for dokan.FileSystem
// implementations. It drives the filesystem through dokan.Harness, so every
// request goes through the same translation layer a mounted volume uses.
//
// Usage:
//
//	func TestMyFileSystem(t *testing.T) {
//	    suite := &fstesting.FileSystemTestSuite{
//	        NewFileSystem: func(t *testing.T) dokan.FileSystem {
//	            return myfs.New()
//	        },
//	        Streams: true,
//	    }
//	    suite.Run(t)
//	}
type FileSystemTestSuite struct {
	// NewFileSystem creates a fresh, empty filesystem for each test.
	NewFileSystem func(t *testing.T) dokan.FileSystem

	// Optional capabilities. Tests for a capability the backend does not
	// claim are skipped.
	Streams         bool
	Locks           bool
	Security        bool
	Attributes      bool
	CaseInsensitive bool

	// ReadOnly backends must be created holding SeedFiles. Only the read
	// path is exercised and every mutation must be refused.
	ReadOnly bool
}

// SeedFiles is the content a ReadOnly filesystem must be created with.
var SeedFiles = map[string]string{
	`\readme.txt`:          "read me first",
	`\docs\guide.md`:       "# guide",
	`\docs\notes\todo.txt`: "nothing left",
}

// Run executes all tests in the suite.
func (suite *FileSystemTestSuite) Run(t *testing.T) {
	t.Run("Volume", suite.RunVolumeTests)
	t.Run("Files", suite.RunFileTests)
	t.Run("Directories", suite.RunDirectoryTests)
	t.Run("Metadata", suite.RunMetadataTests)
	t.Run("Namespace", suite.RunNamespaceTests)
	t.Run("Extensions", suite.RunExtensionTests)
	t.Run("ReadOnly", suite.RunReadOnlyTests)
}

// harness mounts a fresh filesystem and checks on cleanup that every handle
// the test opened was closed.
func (suite *FileSystemTestSuite) harness(t *testing.T) *dokan.Harness {
	t.Helper()
	h := dokan.NewHarness(suite.NewFileSystem(t), dokan.MountOptions{Logger: dokan.NullLogger{}})
	assertStatus(t, dokan.StatusSuccess, h.Mount())
	t.Cleanup(func() {
		if n := h.OpenHandles(); n != 0 {
			t.Errorf("%d handles still open at end of test", n)
		}
		h.Unmount()
	})
	return h
}

func (suite *FileSystemTestSuite) writable(t *testing.T) {
	t.Helper()
	if suite.ReadOnly {
		t.Skip("filesystem is read-only")
	}
}

func (suite *FileSystemTestSuite) requires(t *testing.T, capability bool, name string) {
	t.Helper()
	suite.writable(t)
	if !capability {
		t.Skipf("filesystem does not support %s", name)
	}
}
