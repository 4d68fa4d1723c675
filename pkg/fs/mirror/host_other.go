//go:build !windows

package mirror

import (
	"os"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
)

// POSIX hosts compare names case-sensitively.
const hostFeatures = dokan.FeatureCaseSensitiveSearch

func fileAttributes(st os.FileInfo) dokan.FileAttribute {
	var attrs dokan.FileAttribute
	if st.IsDir() {
		attrs = dokan.FileAttributeDirectory
	} else {
		attrs = dokan.FileAttributeArchive
	}
	if st.Mode().Perm()&0o200 == 0 {
		attrs |= dokan.FileAttributeReadonly
	}
	return attrs
}

// fileTimes reports the modification time for all three timestamps; POSIX
// has no portable creation or access time in os.FileInfo.
func fileTimes(st os.FileInfo) (created, accessed, modified time.Time) {
	m := st.ModTime()
	return m, m, m
}

// setFileAttributes honors only the readonly attribute.
func setFileAttributes(path string, attrs dokan.FileAttribute) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := st.Mode().Perm()
	if attrs.Has(dokan.FileAttributeReadonly) {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}
	return os.Chmod(path, mode)
}

func setCreationTime(string, time.Time) error {
	return nil
}
