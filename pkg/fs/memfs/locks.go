package memfs

import (
	"github.com/marmos91/dokanfs/pkg/dokan"
)

// byteRange is an exclusive byte-range lock held by one open handle.
type byteRange struct {
	offset int64
	length int64
	owner  *openFile
}

func (r byteRange) overlaps(offset, length int64) bool {
	if length == 0 || r.length == 0 {
		return false
	}
	return offset < r.offset+r.length && r.offset < offset+length
}

func ownerOf(info *dokan.FileInfo) *openFile {
	of, _ := info.Context().(*openFile)
	return of
}

// checkLocks fails I/O that touches a range locked by another handle.
func checkLocks(locks []byteRange, owner *openFile, offset, length int64) error {
	for _, l := range locks {
		if l.owner != owner && l.overlaps(offset, length) {
			return dokan.StatusFileLockConflict
		}
	}
	return nil
}

// releaseOwner drops every lock held by owner.
func releaseOwner(locks []byteRange, owner *openFile) []byteRange {
	out := locks[:0]
	for _, l := range locks {
		if l.owner != owner {
			out = append(out, l)
		}
	}
	return out
}

func (fs *FS) LockFile(name string, offset, length int64, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if offset < 0 || length < 0 {
		return dokan.StatusInvalidParameter
	}
	for _, l := range n.locks {
		if l.overlaps(offset, length) {
			return dokan.StatusLockNotGranted
		}
	}
	n.locks = append(n.locks, byteRange{offset: offset, length: length, owner: ownerOf(info)})
	return nil
}

func (fs *FS) UnlockFile(name string, offset, length int64, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	owner := ownerOf(info)
	for i, l := range n.locks {
		if l.owner == owner && l.offset == offset && l.length == length {
			n.locks = append(n.locks[:i], n.locks[i+1:]...)
			return nil
		}
	}
	return dokan.StatusRangeNotLocked
}
