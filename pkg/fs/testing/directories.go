package testing

import (
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDirectoryTests checks directory creation, listing and removal.
func (suite *FileSystemTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("Mkdir_List", suite.testMkdirList)
	t.Run("Mkdir_Collision", suite.testMkdirCollision)
	t.Run("Nested", suite.testNested)
	t.Run("FindPattern", suite.testFindPattern)
	t.Run("Find_OnFile", suite.testFindOnFile)
	t.Run("Find_EntryDetails", suite.testFindEntryDetails)
	t.Run("DeleteDirectory_Empty", suite.testDeleteDirectoryEmpty)
	t.Run("DeleteDirectory_NotEmpty", suite.testDeleteDirectoryNotEmpty)
}

func (suite *FileSystemTestSuite) testMkdirList(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\a`)
	mustMkdir(t, h, `\b`)
	mustCreate(t, h, `\c.txt`, []byte("c"))

	assert.ElementsMatch(t, []string{"a", "b", "c.txt"}, list(t, h, `\`))
	assert.Empty(t, list(t, h, `\a`))
}

func (suite *FileSystemTestSuite) testMkdirCollision(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\dir`)
	_, status := h.Open(`\dir`, createDir)
	assertStatus(t, dokan.StatusObjectNameCollision, status)
}

func (suite *FileSystemTestSuite) testNested(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\x`)
	mustMkdir(t, h, `\x\y`)
	mustCreate(t, h, `\x\y\z.txt`, []byte("deep"))

	assert.Equal(t, []string{"y"}, list(t, h, `\x`))
	assert.Equal(t, []string{"z.txt"}, list(t, h, `\x\y`))
	assert.Equal(t, "deep", string(readAll(t, h, `\x\y\z.txt`)))
}

func (suite *FileSystemTestSuite) testFindPattern(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	for _, name := range []string{`\one.txt`, `\two.txt`, `\three.log`} {
		mustCreate(t, h, name, nil)
	}

	root := mustOpen(t, h, `\`, openDir)
	defer root.Close()

	entries, status := root.FindPattern("*.txt")
	if status == dokan.StatusNotImplemented {
		t.Skip("filesystem relies on the driver for pattern matching")
	}
	assertStatus(t, dokan.StatusSuccess, status)

	var names []string
	for _, e := range entries {
		names = append(names, e.FileName)
	}
	assert.ElementsMatch(t, []string{"one.txt", "two.txt"}, names)
}

func (suite *FileSystemTestSuite) testFindOnFile(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustCreate(t, h, `\leaf.txt`, nil)
	hh := mustOpen(t, h, `\leaf.txt`, openRead)
	defer hh.Close()

	_, status := hh.Find()
	assertStatus(t, dokan.StatusNotADirectory, status)
}

func (suite *FileSystemTestSuite) testFindEntryDetails(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\sub`)
	mustCreate(t, h, `\data.bin`, make([]byte, 1234))

	root := mustOpen(t, h, `\`, openDir)
	defer root.Close()
	entries, status := root.Find()
	assertStatus(t, dokan.StatusSuccess, status)
	require.Len(t, entries, 2)

	byName := map[string]dokan.FileInformation{}
	for _, e := range entries {
		byName[e.FileName] = e
	}
	assert.True(t, byName["sub"].Attributes.Has(dokan.FileAttributeDirectory))
	assert.False(t, byName["data.bin"].Attributes.Has(dokan.FileAttributeDirectory))
	assert.Equal(t, int64(1234), byName["data.bin"].Length)
	assert.False(t, byName["data.bin"].LastWriteTime.IsZero())
}

func (suite *FileSystemTestSuite) testDeleteDirectoryEmpty(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\gone`)
	req := openDelete
	req.Directory = true
	hh := mustOpen(t, h, `\gone`, req)
	assertStatus(t, dokan.StatusSuccess, hh.Delete())
	hh.Close()

	assert.NotContains(t, list(t, h, `\`), "gone")
}

func (suite *FileSystemTestSuite) testDeleteDirectoryNotEmpty(t *testing.T) {
	suite.writable(t)
	h := suite.harness(t)

	mustMkdir(t, h, `\full`)
	mustCreate(t, h, `\full\item.txt`, nil)

	req := openDelete
	req.Directory = true
	hh := mustOpen(t, h, `\full`, req)
	assertStatus(t, dokan.StatusDirectoryNotEmpty, hh.Delete())
	hh.Close()

	assert.Equal(t, []string{"item.txt"}, list(t, h, `\full`))
}
