package testing

import (
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/stretchr/testify/assert"
)

// RunReadOnlyTests checks a read-only filesystem created with SeedFiles.
func (suite *FileSystemTestSuite) RunReadOnlyTests(t *testing.T) {
	t.Run("ReadSeeds", suite.testReadSeeds)
	t.Run("ListSeeds", suite.testListSeeds)
	t.Run("RefuseCreate", suite.testRefuseCreate)
	t.Run("RefuseMutation", suite.testRefuseMutation)
}

func (suite *FileSystemTestSuite) readOnly(t *testing.T) {
	t.Helper()
	if !suite.ReadOnly {
		t.Skip("filesystem is writable")
	}
}

// assertWriteProtected accepts the two codes a read-only volume may use.
func assertWriteProtected(t *testing.T, got dokan.NtStatus) {
	t.Helper()
	if got != dokan.StatusMediaWriteProtected && got != dokan.StatusAccessDenied {
		t.Fatalf("expected a write-protect status, got %s", got)
	}
}

func (suite *FileSystemTestSuite) testReadSeeds(t *testing.T) {
	suite.readOnly(t)
	h := suite.harness(t)

	for name, content := range SeedFiles {
		assert.Equal(t, content, string(readAll(t, h, name)), name)
	}
}

func (suite *FileSystemTestSuite) testListSeeds(t *testing.T) {
	suite.readOnly(t)
	h := suite.harness(t)

	assert.ElementsMatch(t, []string{"readme.txt", "docs"}, list(t, h, `\`))
	assert.ElementsMatch(t, []string{"guide.md", "notes"}, list(t, h, `\docs`))

	root := mustOpen(t, h, `\docs`, openDir)
	defer root.Close()
	entries, status := root.Find()
	assertStatus(t, dokan.StatusSuccess, status)
	for _, e := range entries {
		if e.FileName == "notes" {
			assert.True(t, e.Attributes.Has(dokan.FileAttributeDirectory))
		}
		if e.FileName == "guide.md" {
			assert.Equal(t, int64(len(SeedFiles[`\docs\guide.md`])), e.Length)
		}
	}
}

func (suite *FileSystemTestSuite) testRefuseCreate(t *testing.T) {
	suite.readOnly(t)
	h := suite.harness(t)

	_, status := h.Open(`\new.txt`, createFile)
	assertWriteProtected(t, status)
	_, status = h.Open(`\newdir`, createDir)
	assertWriteProtected(t, status)
}

func (suite *FileSystemTestSuite) testRefuseMutation(t *testing.T) {
	suite.readOnly(t)
	h := suite.harness(t)

	hh := mustOpen(t, h, `\readme.txt`, openRead)
	defer hh.Close()

	_, status := hh.Write([]byte("x"), 0)
	assertWriteProtected(t, status)
	assertWriteProtected(t, hh.SetEndOfFile(0))
	assertWriteProtected(t, hh.Delete())
	assertWriteProtected(t, hh.Move(`\other.txt`, false))

	assert.Equal(t, SeedFiles[`\readme.txt`], string(readAll(t, h, `\readme.txt`)))
}
