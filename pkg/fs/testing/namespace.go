package testing

import (
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNamespaceTests checks delete, delete-on-close and rename.
func (suite *FileSystemTestSuite) RunNamespaceTests(t *testing.T) {
	t.Run("DeleteFile", suite.testDeleteFile)
	t.Run("DeleteFile_OnDirectory", suite.testDeleteFileOnDirectory)
	t.Run("DeleteOnClose", suite.testDeleteOnClose)
	t.Run("DeletePending_Cancelled", suite.testDeletePendingCancelled)
	t.Run("Move_Rename", suite.testMoveRename)
	t.Run("Move_AcrossDirectories", suite.testMoveAcrossDirectories)
	t.Run("Move_Collision", suite.testMoveCollision)
	t.Run("Move_Replace", suite.testMoveReplace)
	t.Run("Move_Directory", suite.testMoveDirectory)
	t.Run("Move_HandleFollows", suite.testMoveHandleFollows)
	t.Run("CaseInsensitiveLookup", suite.testCaseInsensitiveLookup)
}

func (suite *FileSystemTestSuite) testDeleteFile(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\doomed.txt`, []byte("bye"))
	hh := mustOpen(t, h, `\doomed.txt`, openDelete)
	assertStatus(t, dokan.StatusSuccess, hh.Delete())
	assert.True(t, exists(t, h, `\doomed.txt`), "deletion waits for cleanup")
	hh.Close()

	assert.False(t, exists(t, h, `\doomed.txt`))
}

func (suite *FileSystemTestSuite) testDeleteFileOnDirectory(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\notafile`)
	hh := mustOpen(t, h, `\notafile`, openDelete)
	defer hh.Close()
	require.True(t, hh.IsDirectory())

	// Harness routes directories to DeleteDirectory, which must accept an
	// empty one.
	assertStatus(t, dokan.StatusSuccess, hh.Delete())
}

func (suite *FileSystemTestSuite) testDeleteOnClose(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	req := createFile
	req.DeleteOnClose = true
	req.Access |= dokan.AccessDelete
	hh := mustOpen(t, h, `\temp.tmp`, req)
	_, status := hh.Write([]byte("scratch"), 0)
	assertStatus(t, dokan.StatusSuccess, status)
	hh.Close()

	assert.False(t, exists(t, h, `\temp.tmp`))
}

func (suite *FileSystemTestSuite) testDeletePendingCancelled(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	// Delete succeeds but the handle is closed without the pending flag,
	// as when a caller clears FileDispositionInformation.
	mustCreate(t, h, `\survivor.txt`, []byte("alive"))
	hh := mustOpen(t, h, `\survivor.txt`, openDelete)
	assertStatus(t, dokan.StatusSuccess, hh.Delete())
	hh.CancelDelete()
	hh.Close()

	assert.Equal(t, "alive", string(readAll(t, h, `\survivor.txt`)))
}

func (suite *FileSystemTestSuite) testMoveRename(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\before.txt`, []byte("payload"))
	hh := mustOpen(t, h, `\before.txt`, openDelete)
	assertStatus(t, dokan.StatusSuccess, hh.Move(`\after.txt`, false))
	hh.Close()

	assert.False(t, exists(t, h, `\before.txt`))
	assert.Equal(t, "payload", string(readAll(t, h, `\after.txt`)))
}

func (suite *FileSystemTestSuite) testMoveAcrossDirectories(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\src`)
	mustMkdir(t, h, `\dst`)
	mustCreate(t, h, `\src\file.txt`, []byte("moved"))

	hh := mustOpen(t, h, `\src\file.txt`, openDelete)
	assertStatus(t, dokan.StatusSuccess, hh.Move(`\dst\renamed.txt`, false))
	hh.Close()

	assert.Empty(t, list(t, h, `\src`))
	assert.Equal(t, []string{"renamed.txt"}, list(t, h, `\dst`))
	assert.Equal(t, "moved", string(readAll(t, h, `\dst\renamed.txt`)))
}

func (suite *FileSystemTestSuite) testMoveCollision(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\first.txt`, []byte("1"))
	mustCreate(t, h, `\second.txt`, []byte("2"))

	hh := mustOpen(t, h, `\first.txt`, openDelete)
	assertStatus(t, dokan.StatusObjectNameCollision, hh.Move(`\second.txt`, false))
	hh.Close()

	assert.Equal(t, "1", string(readAll(t, h, `\first.txt`)))
	assert.Equal(t, "2", string(readAll(t, h, `\second.txt`)))
}

func (suite *FileSystemTestSuite) testMoveReplace(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\new.txt`, []byte("new"))
	mustCreate(t, h, `\old.txt`, []byte("old"))

	hh := mustOpen(t, h, `\new.txt`, openDelete)
	assertStatus(t, dokan.StatusSuccess, hh.Move(`\old.txt`, true))
	hh.Close()

	assert.False(t, exists(t, h, `\new.txt`))
	assert.Equal(t, "new", string(readAll(t, h, `\old.txt`)))
}

func (suite *FileSystemTestSuite) testMoveDirectory(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\tree`)
	mustMkdir(t, h, `\tree\branch`)
	mustCreate(t, h, `\tree\branch\leaf.txt`, []byte("leaf"))

	req := openDelete
	req.Directory = true
	hh := mustOpen(t, h, `\tree`, req)
	assertStatus(t, dokan.StatusSuccess, hh.Move(`\forest`, false))
	hh.Close()

	assert.False(t, exists(t, h, `\tree`))
	assert.Equal(t, "leaf", string(readAll(t, h, `\forest\branch\leaf.txt`)))
}

func (suite *FileSystemTestSuite) testMoveHandleFollows(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\wander.txt`, []byte("abc"))
	hh := mustOpen(t, h, `\wander.txt`, openWrite)
	defer hh.Close()

	assertStatus(t, dokan.StatusSuccess, hh.Move(`\settled.txt`, false))
	_, status := hh.Write([]byte("XYZ"), 3)
	assertStatus(t, dokan.StatusSuccess, status)
	assertStatus(t, dokan.StatusSuccess, hh.Flush())

	info, status := hh.Info()
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, int64(6), info.Length)
}

func (suite *FileSystemTestSuite) testCaseInsensitiveLookup(t *testing.T) {
	suite.requires(t, suite.CaseInsensitive, "case-insensitive names")
	h := suite.harness(t)

	mustCreate(t, h, `\MixedCase.TXT`, []byte("case"))
	assert.Equal(t, "case", string(readAll(t, h, `\mixedcase.txt`)))
	assert.Equal(t, []string{"MixedCase.TXT"}, list(t, h, `\`), "original case is preserved")

	_, status := h.Open(`\MIXEDCASE.txt`, createFile)
	assertStatus(t, dokan.StatusObjectNameCollision, status)
}
