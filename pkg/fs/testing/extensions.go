package testing

import (
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunExtensionTests checks the optional capabilities: alternate data
// streams, byte-range locks and security descriptors.
func (suite *FileSystemTestSuite) RunExtensionTests(t *testing.T) {
	t.Run("Streams_CreateList", suite.testStreamsCreateList)
	t.Run("Streams_Isolated", suite.testStreamsIsolated)
	t.Run("Streams_Delete", suite.testStreamsDelete)
	t.Run("Locks_Conflict", suite.testLocksConflict)
	t.Run("Locks_ReleasedOnCleanup", suite.testLocksReleasedOnCleanup)
	t.Run("Locks_UnlockUnknown", suite.testLocksUnlockUnknown)
	t.Run("Security_RoundTrip", suite.testSecurityRoundTrip)
}

func (suite *FileSystemTestSuite) testStreamsCreateList(t *testing.T) {
	suite.requires(t, suite.Streams, "alternate data streams")
	h := suite.harness(t)

	mustCreate(t, h, `\host.txt`, []byte("main"))
	mustCreate(t, h, `\host.txt:meta`, []byte("side data"))

	hh := mustOpen(t, h, `\host.txt`, openRead)
	defer hh.Close()
	streams, status := hh.Streams()
	assertStatus(t, dokan.StatusSuccess, status)
	require.Len(t, streams, 2)
	assert.Equal(t, dokan.StreamInformation{Name: "::$DATA", Size: 4}, streams[0])
	assert.Equal(t, dokan.StreamInformation{Name: ":meta:$DATA", Size: 9}, streams[1])
}

func (suite *FileSystemTestSuite) testStreamsIsolated(t *testing.T) {
	suite.requires(t, suite.Streams, "alternate data streams")
	h := suite.harness(t)

	mustCreate(t, h, `\iso.txt`, []byte("unnamed"))
	mustCreate(t, h, `\iso.txt:alt`, []byte("named"))

	assert.Equal(t, "unnamed", string(readAll(t, h, `\iso.txt`)))
	assert.Equal(t, "named", string(readAll(t, h, `\iso.txt:alt`)))
	assert.Equal(t, "named", string(readAll(t, h, `\iso.txt:alt:$DATA`)))
	assert.Equal(t, "unnamed", string(readAll(t, h, `\iso.txt::$DATA`)))
}

func (suite *FileSystemTestSuite) testStreamsDelete(t *testing.T) {
	suite.requires(t, suite.Streams, "alternate data streams")
	h := suite.harness(t)

	mustCreate(t, h, `\ads.txt`, []byte("keep"))
	mustCreate(t, h, `\ads.txt:drop`, []byte("drop"))

	hh := mustOpen(t, h, `\ads.txt:drop`, openDelete)
	assertStatus(t, dokan.StatusSuccess, hh.Delete())
	hh.Close()

	_, status := h.Open(`\ads.txt:drop`, openRead)
	assertStatus(t, dokan.StatusObjectNameNotFound, status)
	assert.Equal(t, "keep", string(readAll(t, h, `\ads.txt`)))
}

func (suite *FileSystemTestSuite) testLocksConflict(t *testing.T) {
	suite.requires(t, suite.Locks, "byte-range locks")
	h := suite.harness(t)

	mustCreate(t, h, `\shared.db`, make([]byte, 100))
	owner := mustOpen(t, h, `\shared.db`, openWrite)
	defer owner.Close()
	other := mustOpen(t, h, `\shared.db`, openWrite)
	defer other.Close()

	assertStatus(t, dokan.StatusSuccess, owner.Lock(10, 10))
	assertStatus(t, dokan.StatusLockNotGranted, other.Lock(15, 10))

	buf := make([]byte, 5)
	_, status := other.Read(buf, 12)
	assertStatus(t, dokan.StatusFileLockConflict, status)
	_, status = other.Write([]byte("x"), 19)
	assertStatus(t, dokan.StatusFileLockConflict, status)

	_, status = owner.Write([]byte("mine"), 10)
	assertStatus(t, dokan.StatusSuccess, status)
	_, status = other.Read(buf, 30)
	assertStatus(t, dokan.StatusSuccess, status)

	assertStatus(t, dokan.StatusSuccess, owner.Unlock(10, 10))
	_, status = other.Write([]byte("x"), 19)
	assertStatus(t, dokan.StatusSuccess, status)
}

func (suite *FileSystemTestSuite) testLocksReleasedOnCleanup(t *testing.T) {
	suite.requires(t, suite.Locks, "byte-range locks")
	h := suite.harness(t)

	mustCreate(t, h, `\release.db`, make([]byte, 10))
	owner := mustOpen(t, h, `\release.db`, openWrite)
	assertStatus(t, dokan.StatusSuccess, owner.Lock(0, 10))
	owner.Close()

	other := mustOpen(t, h, `\release.db`, openWrite)
	defer other.Close()
	assertStatus(t, dokan.StatusSuccess, other.Lock(0, 10))
}

func (suite *FileSystemTestSuite) testLocksUnlockUnknown(t *testing.T) {
	suite.requires(t, suite.Locks, "byte-range locks")
	h := suite.harness(t)

	mustCreate(t, h, `\nolock.db`, make([]byte, 10))
	hh := mustOpen(t, h, `\nolock.db`, openWrite)
	defer hh.Close()
	assertStatus(t, dokan.StatusRangeNotLocked, hh.Unlock(0, 5))
}

func (suite *FileSystemTestSuite) testSecurityRoundTrip(t *testing.T) {
	suite.requires(t, suite.Security, "security descriptors")
	h := suite.harness(t)

	mustCreate(t, h, `\acl.txt`, nil)
	hh := mustOpen(t, h, `\acl.txt`, openWrite)
	defer hh.Close()

	_, status := hh.Security(dokan.DACLSecurityInformation)
	assertStatus(t, dokan.StatusNotImplemented, status)

	// Larger than the first buffer Harness offers, so the retry path runs.
	descriptor := make([]byte, 600)
	for i := range descriptor {
		descriptor[i] = byte(i)
	}
	assertStatus(t, dokan.StatusSuccess, hh.SetSecurity(dokan.DACLSecurityInformation, descriptor))

	got, status := hh.Security(dokan.DACLSecurityInformation)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, descriptor, got)
}
