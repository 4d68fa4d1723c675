//go:build windows

package mirror

import (
	"os"
	"syscall"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"golang.org/x/sys/windows"
)

const hostFeatures = dokan.FeatureSupportsSparseFiles

func fileAttributes(st os.FileInfo) dokan.FileAttribute {
	if d, ok := st.Sys().(*syscall.Win32FileAttributeData); ok {
		return dokan.FileAttribute(d.FileAttributes)
	}
	if st.IsDir() {
		return dokan.FileAttributeDirectory
	}
	return dokan.FileAttributeArchive
}

func fileTimes(st os.FileInfo) (created, accessed, modified time.Time) {
	d, ok := st.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		m := st.ModTime()
		return m, m, m
	}
	return time.Unix(0, d.CreationTime.Nanoseconds()),
		time.Unix(0, d.LastAccessTime.Nanoseconds()),
		time.Unix(0, d.LastWriteTime.Nanoseconds())
}

func setFileAttributes(path string, attrs dokan.FileAttribute) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(p, uint32(attrs&^dokan.FileAttributeDirectory))
}

func setCreationTime(path string, t time.Time) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p, windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	ft := windows.NsecToFiletime(t.UnixNano())
	return windows.SetFileTime(h, &ft, nil, nil)
}
