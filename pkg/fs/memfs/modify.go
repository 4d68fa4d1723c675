package memfs

import (
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// SetFileAttributes replaces the attributes of a file. Zero leaves them
// unchanged and the directory bit cannot be toggled.
func (fs *FS) SetFileAttributes(name string, attributes dokan.FileAttribute, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if attributes == 0 {
		return nil
	}
	attributes &^= dokan.FileAttributeDirectory
	if n.dir {
		attributes |= dokan.FileAttributeDirectory
		attributes &^= dokan.FileAttributeNormal
	}
	n.attributes = attributes
	return nil
}

// SetFileTime updates the timestamps that are present.
func (fs *FS) SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if creation != nil {
		n.created = *creation
	}
	if lastAccess != nil {
		n.accessed = *lastAccess
	}
	if lastWrite != nil {
		n.modified = *lastWrite
	}
	return nil
}

// DeleteFile checks that a file may be deleted. The deletion itself happens
// in Cleanup once the driver has marked the handle delete-pending.
func (fs *FS) DeleteFile(name string, info *dokan.FileInfo) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if n.dir && streamName == "" {
		return dokan.StatusAccessDenied
	}
	if n.attributes.Has(dokan.FileAttributeReadonly) {
		return dokan.StatusCannotDelete
	}
	return nil
}

// DeleteDirectory checks that a directory may be deleted.
func (fs *FS) DeleteDirectory(name string, info *dokan.FileInfo) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if !n.dir {
		return dokan.StatusNotADirectory
	}
	if n.parent == nil {
		return dokan.StatusAccessDenied
	}
	if len(n.children) > 0 {
		return dokan.StatusDirectoryNotEmpty
	}
	return nil
}

// MoveFile renames a file or directory, possibly into another directory.
func (fs *FS) MoveFile(oldName, newName string, replaceIfExisting bool, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, streamName, err := fs.resolve(oldName, info)
	if err != nil {
		return err
	}
	if streamName != "" {
		return dokan.StatusNotSupported
	}
	if n.parent == nil {
		return dokan.StatusAccessDenied
	}

	newPath, newStream := winpath.SplitStream(newName)
	if newStream != "" {
		return dokan.StatusNotSupported
	}
	if n.dir && winpath.IsWithin(newPath, n.path()) && winpath.Key(newPath) != winpath.Key(n.path()) {
		return dokan.StatusInvalidParameter
	}

	dir, base := winpath.Split(newPath)
	parent := fs.lookup(dir)
	if parent == nil || !parent.dir {
		return dokan.StatusObjectPathNotFound
	}

	key := winpath.Key(base)
	if existing, ok := parent.children[key]; ok && existing != n {
		if !replaceIfExisting {
			return dokan.StatusObjectNameCollision
		}
		if existing.dir {
			return dokan.StatusAccessDenied
		}
		if existing.attributes.Has(dokan.FileAttributeReadonly) {
			return dokan.StatusAccessDenied
		}
		fs.detach(existing)
	}

	now := fs.now()
	delete(n.parent.children, winpath.Key(n.name))
	n.parent.modified = now
	n.name = base
	n.parent = parent
	parent.children[key] = n
	parent.modified = now
	return nil
}

// GetFileSecurity returns the stored descriptor. Objects without one
// report StatusNotImplemented so the driver applies its default.
func (fs *FS) GetFileSecurity(name string, requested dokan.SecurityInformation, info *dokan.FileInfo) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return nil, err
	}
	if n.security == nil {
		return nil, dokan.StatusNotImplemented
	}
	return append([]byte(nil), n.security...), nil
}

// SetFileSecurity stores the descriptor verbatim; descriptors are not
// interpreted.
func (fs *FS) SetFileSecurity(name string, requested dokan.SecurityInformation, descriptor []byte, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	n.security = append([]byte(nil), descriptor...)
	return nil
}
