package kvfs

import (
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// openFile is the per-handle context. path follows renames made through
// the handle.
type openFile struct {
	path string
}

// pathOf returns the path a request refers to, preferring the handle
// context over the name the driver passed.
func pathOf(name string, info *dokan.FileInfo) (string, error) {
	if info != nil {
		if of, ok := info.Context().(*openFile); ok {
			return of.path, nil
		}
	}
	path, stream := winpath.SplitStream(name)
	if stream != "" {
		return "", dokan.StatusNotSupported
	}
	return path, nil
}

// CreateFile opens or creates name according to the request disposition.
// Opening an existing object with an open-or-create disposition reports
// StatusObjectNameCollision.
func (fs *FS) CreateFile(name string, req *dokan.CreateFileRequest, info *dokan.FileInfo) (err error) {
	defer fs.record("CreateFile", time.Now(), &err)

	path, stream := winpath.SplitStream(name)
	if stream != "" {
		return dokan.StatusNotSupported
	}

	// Plain opens only read, so they share the lock.
	if req.Disposition == dokan.OpenExisting && !req.DeleteOnClose() {
		fs.mu.RLock()
		defer fs.mu.RUnlock()
		return fs.view(func(txn *badger.Txn) error {
			rec, err := getNode(txn, path)
			if err != nil {
				return err
			}
			return fs.openExisting(txn, path, rec, req, info)
		})
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// A collision on an open-or-create disposition still commits the
	// truncation, so it is carried out of the transaction.
	var collision bool
	err = fs.update(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		switch {
		case err == nil:
			err = fs.openExisting(txn, path, rec, req, info)
			if errors.Is(err, dokan.StatusObjectNameCollision) && req.Disposition != dokan.CreateNew {
				collision = true
				return nil
			}
			return err
		case errors.Is(err, dokan.StatusObjectNameNotFound):
			return fs.create(txn, path, req, info)
		default:
			return err
		}
	})
	if err == nil && collision {
		return dokan.StatusObjectNameCollision
	}
	return err
}

func (fs *FS) openExisting(txn *badger.Txn, path string, rec *record, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if rec.Dir {
		if req.NonDirectoryRequested() {
			return dokan.StatusFileIsADirectory
		}
		switch {
		case req.Disposition == dokan.CreateNew:
			return dokan.StatusObjectNameCollision
		case req.Disposition.Truncates():
			return dokan.StatusAccessDenied
		}
		info.SetIsDirectory(true)
		info.SetContext(&openFile{path: path})
		if req.Disposition == dokan.OpenAlways {
			return dokan.StatusObjectNameCollision
		}
		return nil
	}

	if req.DirectoryRequested() {
		return dokan.StatusNotADirectory
	}
	if req.Disposition == dokan.CreateNew {
		return dokan.StatusObjectNameCollision
	}
	if rec.readonly() && (req.Access.CanWrite() || req.Disposition.Truncates()) {
		return dokan.StatusAccessDenied
	}
	if rec.readonly() && req.DeleteOnClose() {
		return dokan.StatusCannotDelete
	}

	if req.Disposition.Truncates() {
		if err := fs.reserve(-rec.Size); err != nil {
			return err
		}
		rec.Modified = fs.now()
		if req.Disposition == dokan.CreateAlways {
			rec.Attributes = fileAttributes(req.Attributes)
		}
		if err := putData(txn, path, rec, nil); err != nil {
			return err
		}
	}

	info.SetIsDirectory(false)
	info.SetContext(&openFile{path: path})
	if req.Disposition == dokan.OpenAlways || req.Disposition == dokan.CreateAlways {
		return dokan.StatusObjectNameCollision
	}
	return nil
}

func (fs *FS) create(txn *badger.Txn, path string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if !req.Disposition.MayCreate() {
		return dokan.StatusObjectNameNotFound
	}

	dir, base := winpath.Split(path)
	parent, err := getNode(txn, dir)
	if errors.Is(err, dokan.StatusObjectNameNotFound) || (err == nil && !parent.Dir) {
		return dokan.StatusObjectPathNotFound
	}
	if err != nil {
		return err
	}

	now := fs.now()
	isDir := req.DirectoryRequested()
	attrs := fileAttributes(req.Attributes)
	if isDir {
		attrs = dokan.FileAttributeDirectory | req.Attributes&^dokan.FileAttributeNormal
	}
	rec := &record{
		Name:       base,
		Dir:        isDir,
		Attributes: attrs,
		Created:    now,
		Accessed:   now,
		Modified:   now,
	}
	if err := putNode(txn, path, rec); err != nil {
		return err
	}
	parent.Modified = now
	if err := putNode(txn, dir, parent); err != nil {
		return err
	}
	fs.addNodes(1)

	info.SetIsDirectory(isDir)
	info.SetContext(&openFile{path: path})
	return nil
}

// fileAttributes normalizes the attributes requested for a new file.
func fileAttributes(a dokan.FileAttribute) dokan.FileAttribute {
	a &^= dokan.FileAttributeDirectory
	if a == 0 || a == dokan.FileAttributeNormal {
		return dokan.FileAttributeArchive
	}
	return a &^ dokan.FileAttributeNormal
}

// Cleanup removes objects whose handle was marked delete-pending.
func (fs *FS) Cleanup(name string, info *dokan.FileInfo) error {
	if !info.DeletePending() {
		return nil
	}
	path, err := pathOf(name, info)
	if err != nil {
		return nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		if err != nil {
			return nil
		}
		if rec.Dir && hasChildren(txn, path) {
			return dokan.StatusDirectoryNotEmpty
		}
		return fs.remove(txn, path, rec)
	})
}

// CloseFile records the access time.
func (fs *FS) CloseFile(name string, info *dokan.FileInfo) error {
	path, err := pathOf(name, info)
	if err != nil {
		return nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	_ = fs.update(func(txn *badger.Txn) error {
		rec, err := getNode(txn, path)
		if err != nil {
			return nil
		}
		rec.Accessed = fs.now()
		return putNode(txn, path, rec)
	})
	return nil
}

// remove deletes a node and its contents and touches the parent. The
// caller has checked that directories are empty.
func (fs *FS) remove(txn *badger.Txn, path string, rec *record) error {
	if err := txn.Delete(nodeKey(path)); err != nil {
		return err
	}
	if err := txn.Delete(dataKey(path)); err != nil {
		return err
	}
	dir, _ := winpath.Split(path)
	if parent, err := getNode(txn, dir); err == nil {
		parent.Modified = fs.now()
		if err := putNode(txn, dir, parent); err != nil {
			return err
		}
	}
	_ = fs.reserve(-rec.Size)
	fs.addNodes(-1)
	return nil
}
