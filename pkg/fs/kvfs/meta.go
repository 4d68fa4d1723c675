package kvfs

import (
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

func (fs *FS) GetFileInformation(name string, info *dokan.FileInfo) (dokan.FileInformation, error) {
	path, err := pathOf(name, info)
	if err != nil {
		return dokan.FileInformation{}, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var fi dokan.FileInformation
	err = fs.view(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		if err != nil {
			return err
		}
		fi = rec.info()
		return nil
	})
	return fi, err
}

// FindFiles lists a directory in folded name order.
func (fs *FS) FindFiles(name string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, "", info)
}

func (fs *FS) FindFilesWithPattern(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, pattern, info)
}

func (fs *FS) find(name, pattern string, info *dokan.FileInfo) (out []dokan.FileInformation, err error) {
	defer fs.record("FindFiles", time.Now(), &err)

	path, err := pathOf(name, info)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	err = fs.view(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		if err != nil {
			return err
		}
		if !rec.Dir {
			return dokan.StatusNotADirectory
		}
		entries, err := children(txn, path)
		if err != nil {
			return err
		}
		out = make([]dokan.FileInformation, 0, len(entries))
		for _, e := range entries {
			if pattern != "" && !dokan.MatchPattern(pattern, e.Name, true) {
				continue
			}
			out = append(out, e.info())
		}
		return nil
	})
	return out, err
}

// FindStreams reports only the unnamed data stream.
func (fs *FS) FindStreams(name string, info *dokan.FileInfo) ([]dokan.StreamInformation, error) {
	fi, err := fs.GetFileInformation(name, info)
	if err != nil {
		return nil, err
	}
	if fi.Attributes.Has(dokan.FileAttributeDirectory) {
		return nil, nil
	}
	return []dokan.StreamInformation{{Name: winpath.StreamName(""), Size: fi.Length}}, nil
}

// modify runs fn against the record behind a handle and stores the result.
func (fs *FS) modify(name string, info *dokan.FileInfo, fn func(rec *record) error) error {
	path, err := pathOf(name, info)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.update(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		return putNode(txn, path, rec)
	})
}

// SetFileAttributes replaces the attributes of a file. Zero leaves them
// unchanged and the directory bit cannot be toggled.
func (fs *FS) SetFileAttributes(name string, attributes dokan.FileAttribute, info *dokan.FileInfo) error {
	if attributes == 0 {
		return nil
	}
	return fs.modify(name, info, func(rec *record) error {
		attributes &^= dokan.FileAttributeDirectory
		if rec.Dir {
			attributes |= dokan.FileAttributeDirectory
			attributes &^= dokan.FileAttributeNormal
		}
		rec.Attributes = attributes
		return nil
	})
}

func (fs *FS) SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *dokan.FileInfo) error {
	return fs.modify(name, info, func(rec *record) error {
		if creation != nil {
			rec.Created = *creation
		}
		if lastAccess != nil {
			rec.Accessed = *lastAccess
		}
		if lastWrite != nil {
			rec.Modified = *lastWrite
		}
		return nil
	})
}

// check loads the record behind a handle under the read lock.
func (fs *FS) check(name string, info *dokan.FileInfo, fn func(txn *badger.Txn, path string, rec *record) error) error {
	path, err := pathOf(name, info)
	if err != nil {
		return err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.view(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		if err != nil {
			return err
		}
		return fn(txn, path, rec)
	})
}

// DeleteFile checks that a file may be deleted; Cleanup removes it.
func (fs *FS) DeleteFile(name string, info *dokan.FileInfo) error {
	return fs.check(name, info, func(_ *badger.Txn, _ string, rec *record) error {
		if rec.Dir {
			return dokan.StatusAccessDenied
		}
		if rec.readonly() {
			return dokan.StatusCannotDelete
		}
		return nil
	})
}

func (fs *FS) DeleteDirectory(name string, info *dokan.FileInfo) error {
	return fs.check(name, info, func(txn *badger.Txn, path string, rec *record) error {
		switch {
		case !rec.Dir:
			return dokan.StatusNotADirectory
		case path == winpath.Root:
			return dokan.StatusAccessDenied
		case hasChildren(txn, path):
			return dokan.StatusDirectoryNotEmpty
		}
		return nil
	})
}

// MoveFile renames a file or directory. Every key of a directory subtree
// is rewritten in the same transaction.
func (fs *FS) MoveFile(oldName, newName string, replaceIfExisting bool, info *dokan.FileInfo) (err error) {
	defer fs.record("MoveFile", time.Now(), &err)

	oldPath, err := pathOf(oldName, info)
	if err != nil {
		return err
	}
	newPath, newStream := winpath.SplitStream(newName)
	if newStream != "" {
		return dokan.StatusNotSupported
	}
	if oldPath == winpath.Root {
		return dokan.StatusAccessDenied
	}
	sameKey := winpath.Key(oldPath) == winpath.Key(newPath)
	if !sameKey && winpath.IsWithin(newPath, oldPath) {
		return dokan.StatusInvalidParameter
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err = fs.update(func(txn *badger.Txn) error {
		rec, err := getNode(txn, oldPath)
		if err != nil {
			return err
		}
		oldDir, _ := winpath.Split(oldPath)
		dir, base := winpath.Split(newPath)
		parent, err := getNode(txn, dir)
		if err != nil || !parent.Dir {
			return dokan.StatusObjectPathNotFound
		}

		if !sameKey {
			if existing, err := getNode(txn, newPath); err == nil {
				if !replaceIfExisting {
					return dokan.StatusObjectNameCollision
				}
				if existing.Dir || existing.readonly() {
					return dokan.StatusAccessDenied
				}
				if err := fs.remove(txn, newPath, existing); err != nil {
					return err
				}
			}
			if err := moveKeys(txn, oldPath, newPath); err != nil {
				return err
			}
		}

		now := fs.now()
		rec.Name = base
		if err := putNode(txn, newPath, rec); err != nil {
			return err
		}
		for _, d := range []string{oldDir, dir} {
			p, err := getNode(txn, d)
			if err != nil {
				continue
			}
			p.Modified = now
			if err := putNode(txn, d, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if info != nil {
		if of, ok := info.Context().(*openFile); ok {
			of.path = newPath
		}
	}
	return nil
}

// moveKeys rewrites every key at or below oldPath to sit below newPath.
func moveKeys(txn *badger.Txn, oldPath, newPath string) error {
	keys, err := subtreeKeys(txn, oldPath)
	if err != nil {
		return err
	}
	oldKey, newKey := winpath.Key(oldPath), winpath.Key(newPath)
	for _, k := range keys {
		// Keys are "<prefix>:<folded path>".
		prefix, rest := string(k[:2]), string(k[2:])
		moved := []byte(prefix + newKey + rest[len(oldKey):])

		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Set(moved, val); err != nil {
			return err
		}
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// GetFileSecurity returns the stored descriptor, or StatusNotImplemented
// so the driver applies its default.
func (fs *FS) GetFileSecurity(name string, requested dokan.SecurityInformation, info *dokan.FileInfo) ([]byte, error) {
	var out []byte
	err := fs.check(name, info, func(_ *badger.Txn, _ string, rec *record) error {
		if rec.Security == nil {
			return dokan.StatusNotImplemented
		}
		out = rec.Security
		return nil
	})
	return out, err
}

func (fs *FS) SetFileSecurity(name string, requested dokan.SecurityInformation, descriptor []byte, info *dokan.FileInfo) error {
	return fs.modify(name, info, func(rec *record) error {
		rec.Security = append([]byte(nil), descriptor...)
		return nil
	})
}
