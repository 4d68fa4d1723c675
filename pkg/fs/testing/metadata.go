package testing

import (
	"testing"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/assert"
)

// RunMetadataTests checks timestamps and attributes.
func (suite *FileSystemTestSuite) RunMetadataTests(t *testing.T) {
	t.Run("SetTimes", suite.testSetTimes)
	t.Run("SetTimes_NilUnchanged", suite.testSetTimesNilUnchanged)
	t.Run("WriteUpdatesModified", suite.testWriteUpdatesModified)
	t.Run("Attributes_Hidden", suite.testAttributesHidden)
	t.Run("Attributes_ReadonlyBlocksWrite", suite.testAttributesReadonly)
	t.Run("SetAllocationSize_Shrinks", suite.testSetAllocationSize)
}

func (suite *FileSystemTestSuite) testSetTimes(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\times.txt`, nil)
	when := time.Date(2020, 2, 29, 12, 30, 0, 0, time.UTC)

	hh := mustOpen(t, h, `\times.txt`, openWrite)
	defer hh.Close()
	assertStatus(t, dokan.StatusSuccess, hh.SetTimes(nil, &when, &when))

	info, status := hh.Info()
	assertStatus(t, dokan.StatusSuccess, status)
	assert.True(t, when.Equal(info.LastWriteTime), "last write %v, want %v", info.LastWriteTime, when)
	assert.True(t, when.Equal(info.LastAccessTime), "last access %v, want %v", info.LastAccessTime, when)
}

func (suite *FileSystemTestSuite) testSetTimesNilUnchanged(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\keep-times.txt`, nil)
	hh := mustOpen(t, h, `\keep-times.txt`, openWrite)
	defer hh.Close()

	when := time.Date(2001, 9, 9, 1, 46, 40, 0, time.UTC)
	assertStatus(t, dokan.StatusSuccess, hh.SetTimes(nil, nil, &when))
	before, _ := hh.Info()

	// The harness sends zero FILETIMEs here, as the driver does for an
	// attribute-only change.
	assertStatus(t, dokan.StatusSuccess, hh.SetTimes(nil, nil, nil))
	after, _ := hh.Info()
	assert.True(t, before.LastWriteTime.Equal(after.LastWriteTime), "last write %v, want %v", after.LastWriteTime, before.LastWriteTime)
	assert.True(t, before.CreationTime.Equal(after.CreationTime), "creation %v, want %v", after.CreationTime, before.CreationTime)
	assert.NotEqual(t, 1601, after.LastAccessTime.Year())
}

func (suite *FileSystemTestSuite) testWriteUpdatesModified(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\mtime.txt`, nil)
	hh := mustOpen(t, h, `\mtime.txt`, openWrite)
	defer hh.Close()

	old := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	assertStatus(t, dokan.StatusSuccess, hh.SetTimes(nil, nil, &old))
	_, status := hh.Write([]byte("touch"), 0)
	assertStatus(t, dokan.StatusSuccess, status)

	info, _ := hh.Info()
	assert.True(t, info.LastWriteTime.After(old))
}

func (suite *FileSystemTestSuite) testAttributesHidden(t *testing.T) {
	suite.requires(t, suite.Attributes, "attributes")
	h := suite.harness(t)

	mustCreate(t, h, `\hidden.txt`, nil)
	hh := mustOpen(t, h, `\hidden.txt`, openWrite)
	defer hh.Close()

	assertStatus(t, dokan.StatusSuccess, hh.SetAttributes(dokan.FileAttributeHidden))
	info, _ := hh.Info()
	assert.True(t, info.Attributes.Has(dokan.FileAttributeHidden))

	// Zero means "leave unchanged".
	assertStatus(t, dokan.StatusSuccess, hh.SetAttributes(0))
	info, _ = hh.Info()
	assert.True(t, info.Attributes.Has(dokan.FileAttributeHidden))
}

func (suite *FileSystemTestSuite) testAttributesReadonly(t *testing.T) {
	suite.requires(t, suite.Attributes, "attributes")
	h := suite.harness(t)

	mustCreate(t, h, `\locked.txt`, []byte("frozen"))
	hh := mustOpen(t, h, `\locked.txt`, openWrite)
	assertStatus(t, dokan.StatusSuccess, hh.SetAttributes(dokan.FileAttributeReadonly))
	hh.Close()

	_, status := h.Open(`\locked.txt`, openWrite)
	assertStatus(t, dokan.StatusAccessDenied, status)

	hh = mustOpen(t, h, `\locked.txt`, openDelete)
	assertStatus(t, dokan.StatusCannotDelete, hh.Delete())
	hh.Close()
	assert.Equal(t, "frozen", string(readAll(t, h, `\locked.txt`)))
}

func (suite *FileSystemTestSuite) testSetAllocationSize(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\alloc.bin`, []byte("0123456789"))
	hh := mustOpen(t, h, `\alloc.bin`, openWrite)
	assertStatus(t, dokan.StatusSuccess, hh.SetAllocationSize(1<<20))
	info, _ := hh.Info()
	assert.Equal(t, int64(10), info.Length, "growing the allocation keeps the size")

	assertStatus(t, dokan.StatusSuccess, hh.SetAllocationSize(3))
	info, _ = hh.Info()
	assert.Equal(t, int64(3), info.Length)
	hh.Close()
}
