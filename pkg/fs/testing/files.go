package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunVolumeTests checks the volume-level queries.
func (suite *FileSystemTestSuite) RunVolumeTests(t *testing.T) {
	t.Run("DiskFreeSpace", suite.testDiskFreeSpace)
	t.Run("VolumeInformation", suite.testVolumeInformation)
	t.Run("OpenRoot", suite.testOpenRoot)
}

// RunFileTests checks create dispositions and the data path.
func (suite *FileSystemTestSuite) RunFileTests(t *testing.T) {
	t.Run("CreateWriteRead", suite.testCreateWriteRead)
	t.Run("CreateNew_Collision", suite.testCreateNewCollision)
	t.Run("OpenAlways_Existing", suite.testOpenAlwaysExisting)
	t.Run("CreateAlways_Truncates", suite.testCreateAlwaysTruncates)
	t.Run("OpenExisting_Missing", suite.testOpenExistingMissing)
	t.Run("Create_MissingParent", suite.testCreateMissingParent)
	t.Run("Read_PastEnd", suite.testReadPastEnd)
	t.Run("Write_Overwrite", suite.testWriteOverwrite)
	t.Run("Write_Sparse", suite.testWriteSparse)
	t.Run("Write_Append", suite.testWriteAppend)
	t.Run("ZeroLengthIO", suite.testZeroLengthIO)
	t.Run("SetEndOfFile", suite.testSetEndOfFile)
	t.Run("Flush", suite.testFlush)
	t.Run("OpenFileAsDirectory", suite.testOpenFileAsDirectory)
	t.Run("OpenDirectoryAsFile", suite.testOpenDirectoryAsFile)
}

func (suite *FileSystemTestSuite) testDiskFreeSpace(t *testing.T) {
	h := suite.harness(t)

	space, status := h.DiskFreeSpace()
	assertStatus(t, dokan.StatusSuccess, status)
	assert.LessOrEqual(t, space.TotalNumberOfFreeBytes, space.TotalNumberOfBytes)
	assert.LessOrEqual(t, space.FreeBytesAvailable, space.TotalNumberOfBytes)
}

func (suite *FileSystemTestSuite) testVolumeInformation(t *testing.T) {
	h := suite.harness(t)

	vi, status := h.VolumeInformation()
	assertStatus(t, dokan.StatusSuccess, status)
	assert.NotEmpty(t, vi.FileSystemName)
	assert.NotZero(t, vi.MaxComponentLength)
}

func (suite *FileSystemTestSuite) testOpenRoot(t *testing.T) {
	h := suite.harness(t)

	root := mustOpen(t, h, `\`, openDir)
	defer root.Close()
	assert.True(t, root.IsDirectory())

	info, status := root.Info()
	assertStatus(t, dokan.StatusSuccess, status)
	assert.True(t, info.Attributes.Has(dokan.FileAttributeDirectory))
}

func (suite *FileSystemTestSuite) testCreateWriteRead(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	data := []byte("the quick brown fox")
	mustCreate(t, h, `\fox.txt`, data)
	assert.Equal(t, data, readAll(t, h, `\fox.txt`))

	hh := mustOpen(t, h, `\fox.txt`, openRead)
	defer hh.Close()
	info, status := hh.Info()
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, int64(len(data)), info.Length)
	assert.False(t, info.Attributes.Has(dokan.FileAttributeDirectory))
}

func (suite *FileSystemTestSuite) testCreateNewCollision(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\dup.txt`, nil)
	hh, status := h.Open(`\dup.txt`, createFile)
	assertStatus(t, dokan.StatusObjectNameCollision, status)
	assert.Nil(t, hh)
}

func (suite *FileSystemTestSuite) testOpenAlwaysExisting(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\keep.txt`, []byte("keep"))

	req := openWrite
	req.Disposition = dokan.OpenAlways
	hh, status := h.Open(`\keep.txt`, req)
	assertStatus(t, dokan.StatusObjectNameCollision, status)
	require.NotNil(t, hh, "open-or-create on an existing file keeps the handle")
	assert.Equal(t, dokan.HandleCreated, hh.State())
	hh.Close()

	assert.Equal(t, []byte("keep"), readAll(t, h, `\keep.txt`))
}

func (suite *FileSystemTestSuite) testCreateAlwaysTruncates(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\trunc.txt`, []byte("old content"))

	req := createFile
	req.Disposition = dokan.CreateAlways
	hh, status := h.Open(`\trunc.txt`, req)
	assertStatus(t, dokan.StatusObjectNameCollision, status)
	require.NotNil(t, hh)
	_, status = hh.Write([]byte("new"), 0)
	assertStatus(t, dokan.StatusSuccess, status)
	hh.Close()

	assert.Equal(t, []byte("new"), readAll(t, h, `\trunc.txt`))
}

func (suite *FileSystemTestSuite) testOpenExistingMissing(t *testing.T) {
	h := suite.harness(t)

	hh, status := h.Open(`\missing.txt`, openRead)
	assertStatus(t, dokan.StatusObjectNameNotFound, status)
	assert.Nil(t, hh)

	req := openWrite
	req.Disposition = dokan.TruncateExisting
	_, status = h.Open(`\missing.txt`, req)
	assertStatus(t, dokan.StatusObjectNameNotFound, status)
}

func (suite *FileSystemTestSuite) testCreateMissingParent(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	hh, status := h.Open(`\nowhere\file.txt`, createFile)
	assertStatus(t, dokan.StatusObjectPathNotFound, status)
	assert.Nil(t, hh)
}

func (suite *FileSystemTestSuite) testReadPastEnd(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\short.txt`, []byte("abc"))
	hh := mustOpen(t, h, `\short.txt`, openRead)
	defer hh.Close()

	buf := make([]byte, 16)
	n, status := hh.Read(buf, 1)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, "bc", string(buf[:n]))

	n, status = hh.Read(buf, 100)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Zero(t, n)
}

func (suite *FileSystemTestSuite) testWriteOverwrite(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\over.txt`, []byte("hello world"))
	hh := mustOpen(t, h, `\over.txt`, openWrite)
	n, status := hh.Write([]byte("WORLD"), 6)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, 5, n)
	hh.Close()

	assert.Equal(t, "hello WORLD", string(readAll(t, h, `\over.txt`)))
}

func (suite *FileSystemTestSuite) testWriteSparse(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\sparse.bin`, nil)
	hh := mustOpen(t, h, `\sparse.bin`, openWrite)
	_, status := hh.Write([]byte("end"), 10)
	assertStatus(t, dokan.StatusSuccess, status)
	hh.Close()

	got := readAll(t, h, `\sparse.bin`)
	require.Len(t, got, 13)
	assert.Equal(t, make([]byte, 10), got[:10])
	assert.Equal(t, "end", string(got[10:]))
}

func (suite *FileSystemTestSuite) testWriteAppend(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\log.txt`, []byte("one\n"))
	hh := mustOpen(t, h, `\log.txt`, openWrite)
	n, status := hh.Append([]byte("two\n"))
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, 4, n)
	hh.Close()

	assert.Equal(t, "one\ntwo\n", string(readAll(t, h, `\log.txt`)))
}

func (suite *FileSystemTestSuite) testZeroLengthIO(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\zero.txt`, []byte("x"))
	hh := mustOpen(t, h, `\zero.txt`, openWrite)
	defer hh.Close()

	n, status := hh.Read(nil, 0)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Zero(t, n)

	n, status = hh.Write(nil, 0)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Zero(t, n)
}

func (suite *FileSystemTestSuite) testSetEndOfFile(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\eof.txt`, []byte("0123456789"))

	hh := mustOpen(t, h, `\eof.txt`, openWrite)
	assertStatus(t, dokan.StatusSuccess, hh.SetEndOfFile(4))
	hh.Close()
	assert.Equal(t, "0123", string(readAll(t, h, `\eof.txt`)))

	hh = mustOpen(t, h, `\eof.txt`, openWrite)
	assertStatus(t, dokan.StatusSuccess, hh.SetEndOfFile(6))
	hh.Close()
	assert.Equal(t, []byte("0123\x00\x00"), readAll(t, h, `\eof.txt`))
}

func (suite *FileSystemTestSuite) testFlush(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\flush.txt`, nil)
	hh := mustOpen(t, h, `\flush.txt`, openWrite)
	defer hh.Close()

	payload := bytes.Repeat([]byte("z"), 64*1024)
	n, status := hh.Write(payload, 0)
	assertStatus(t, dokan.StatusSuccess, status)
	assert.Equal(t, len(payload), n)
	assertStatus(t, dokan.StatusSuccess, hh.Flush())
}

func (suite *FileSystemTestSuite) testOpenFileAsDirectory(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\plain.txt`, nil)
	_, status := h.Open(`\plain.txt`, openDir)
	assertStatus(t, dokan.StatusNotADirectory, status)
}

func (suite *FileSystemTestSuite) testOpenDirectoryAsFile(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\folder`)
	req := openRead
	req.NonDirectory = true
	_, status := h.Open(`\folder`, req)
	assertStatus(t, dokan.StatusFileIsADirectory, status)
}
