package mirror

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// fileInformation converts host metadata.
func fileInformation(name string, st os.FileInfo) dokan.FileInformation {
	created, accessed, modified := fileTimes(st)
	fi := dokan.FileInformation{
		FileName:       name,
		Attributes:     fileAttributes(st),
		CreationTime:   created,
		LastAccessTime: accessed,
		LastWriteTime:  modified,
	}
	if !st.IsDir() {
		fi.Length = st.Size()
	}
	return fi
}

func (fs *FS) GetFileInformation(name string, info *dokan.FileInfo) (dokan.FileInformation, error) {
	h, err := fs.lookup(name, info)
	if err != nil {
		return dokan.FileInformation{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	var st os.FileInfo
	if h.file != nil {
		st, err = h.file.Stat()
	} else {
		st, err = os.Stat(h.path)
	}
	if err != nil {
		return dokan.FileInformation{}, err
	}
	return fileInformation(filepath.Base(h.path), st), nil
}

func (fs *FS) FindFiles(name string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, "", info)
}

func (fs *FS) FindFilesWithPattern(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, pattern, info)
}

func (fs *FS) find(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	h, err := fs.lookup(name, info)
	if err != nil {
		return nil, err
	}
	if !h.dir {
		return nil, dokan.StatusNotADirectory
	}

	entries, err := os.ReadDir(h.path)
	if err != nil {
		return nil, err
	}
	out := make([]dokan.FileInformation, 0, len(entries))
	for _, e := range entries {
		if pattern != "" && !dokan.MatchPattern(pattern, e.Name(), true) {
			continue
		}
		st, err := e.Info()
		if errors.Is(err, os.ErrNotExist) {
			// Removed since ReadDir.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, fileInformation(e.Name(), st))
	}
	return out, nil
}

// FindStreams reports only the unnamed stream.
func (fs *FS) FindStreams(name string, info *dokan.FileInfo) ([]dokan.StreamInformation, error) {
	h, err := fs.lookup(name, info)
	if err != nil {
		return nil, err
	}
	if h.dir {
		return nil, nil
	}
	st, err := os.Stat(h.path)
	if err != nil {
		return nil, err
	}
	return []dokan.StreamInformation{{Name: winpath.StreamName(""), Size: st.Size()}}, nil
}

// SetFileAttributes maps the readonly attribute to the owner write bit and
// forwards the rest to the host where it can store them.
func (fs *FS) SetFileAttributes(name string, attributes dokan.FileAttribute, info *dokan.FileInfo) error {
	if attributes == 0 {
		return nil
	}
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return setFileAttributes(h.path, attributes)
}

// SetFileTime updates access and write times. Creation time is only
// settable on Windows hosts.
func (fs *FS) SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *dokan.FileInfo) error {
	if creation == nil && lastAccess == nil && lastWrite == nil {
		return nil
	}
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if creation != nil {
		if err := setCreationTime(h.path, *creation); err != nil {
			return err
		}
	}
	if lastAccess == nil && lastWrite == nil {
		return nil
	}

	st, err := os.Stat(h.path)
	if err != nil {
		return err
	}
	_, atime, mtime := fileTimes(st)
	if lastAccess != nil {
		atime = *lastAccess
	}
	if lastWrite != nil {
		mtime = *lastWrite
	}
	return os.Chtimes(h.path, atime, mtime)
}

func (fs *FS) DeleteFile(name string, info *dokan.FileInfo) error {
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	if h.dir {
		return dokan.StatusAccessDenied
	}
	st, err := os.Stat(h.path)
	if err != nil {
		return err
	}
	if st.Mode().Perm()&0o200 == 0 {
		return dokan.StatusCannotDelete
	}
	return nil
}

func (fs *FS) DeleteDirectory(name string, info *dokan.FileInfo) error {
	h, err := fs.lookup(name, info)
	if err != nil {
		return err
	}
	if !h.dir {
		return dokan.StatusNotADirectory
	}
	if h.path == fs.root {
		return dokan.StatusAccessDenied
	}

	d, err := os.Open(h.path)
	if err != nil {
		return err
	}
	defer d.Close()
	if names, _ := d.Readdirnames(1); len(names) > 0 {
		return dokan.StatusDirectoryNotEmpty
	}
	return nil
}

// MoveFile renames on the host. The handle follows the new path.
func (fs *FS) MoveFile(oldName, newName string, replaceIfExisting bool, info *dokan.FileInfo) error {
	h, err := fs.lookup(oldName, info)
	if err != nil {
		return err
	}
	target, err := fs.hostPath(newName)
	if err != nil {
		return err
	}
	if h.path == fs.root {
		return dokan.StatusAccessDenied
	}

	parent, err := os.Stat(filepath.Dir(target))
	if err != nil || !parent.IsDir() {
		return dokan.StatusObjectPathNotFound
	}
	src, _ := os.Lstat(h.path)
	if st, err := os.Lstat(target); err == nil && !os.SameFile(st, src) {
		if !replaceIfExisting {
			return dokan.StatusObjectNameCollision
		}
		if st.IsDir() {
			return dokan.StatusAccessDenied
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.Rename(h.path, target); err != nil {
		return err
	}
	h.path = target
	return nil
}
