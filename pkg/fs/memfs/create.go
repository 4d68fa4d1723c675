package memfs

import (
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// CreateFile opens or creates name according to the request disposition.
//
// Opening an existing object with an open-or-create disposition reports
// StatusObjectNameCollision, which the driver completes as a successful
// open with ERROR_ALREADY_EXISTS.
func (fs *FS) CreateFile(name string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	path, streamName := winpath.SplitStream(name)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if n := fs.lookup(path); n != nil {
		if streamName != "" {
			return fs.openStream(n, streamName, req, info)
		}
		return fs.openExisting(n, req, info)
	}
	if streamName != "" {
		return dokan.StatusObjectNameNotFound
	}
	return fs.create(path, req, info)
}

func (fs *FS) openExisting(n *node, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if n.dir {
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
		info.SetContext(&openFile{node: n})
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
	readonly := n.attributes.Has(dokan.FileAttributeReadonly)
	if readonly && (req.Access.CanWrite() || req.Disposition.Truncates()) {
		return dokan.StatusAccessDenied
	}
	if readonly && req.DeleteOnClose() {
		return dokan.StatusCannotDelete
	}

	if req.Disposition.Truncates() {
		if err := fs.reserve(-int64(len(n.data))); err != nil {
			return err
		}
		n.data = nil
		n.modified = fs.now()
		if req.Disposition == dokan.CreateAlways {
			n.attributes = fileAttributes(req.Attributes)
		}
	}

	info.SetIsDirectory(false)
	info.SetContext(&openFile{node: n})
	if req.Disposition == dokan.OpenAlways || req.Disposition == dokan.CreateAlways {
		return dokan.StatusObjectNameCollision
	}
	return nil
}

func (fs *FS) openStream(n *node, streamName string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if n.dir {
		return dokan.StatusObjectNameInvalid
	}
	if req.DirectoryRequested() {
		return dokan.StatusNotADirectory
	}

	key := winpath.Key(streamName)
	s, ok := n.streams[key]
	switch {
	case !ok && !req.Disposition.MayCreate():
		return dokan.StatusObjectNameNotFound
	case !ok:
		if n.streams == nil {
			n.streams = make(map[string]*stream)
		}
		s = &stream{name: streamName}
		n.streams[key] = s
	case req.Disposition == dokan.CreateNew:
		return dokan.StatusObjectNameCollision
	case req.Disposition.Truncates():
		if err := fs.reserve(-int64(len(s.data))); err != nil {
			return err
		}
		s.data = nil
	}

	info.SetIsDirectory(false)
	info.SetContext(&openFile{node: n, stream: streamName})
	return nil
}

func (fs *FS) create(path string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	if !req.Disposition.MayCreate() {
		return dokan.StatusObjectNameNotFound
	}

	dir, base := winpath.Split(path)
	parent := fs.lookup(dir)
	if parent == nil || !parent.dir {
		return dokan.StatusObjectPathNotFound
	}
	if fs.opts.MaxFiles > 0 && fs.nodes >= fs.opts.MaxFiles {
		return dokan.StatusDiskFull
	}

	now := fs.now()
	isDir := req.DirectoryRequested()
	attrs := req.Attributes
	if !isDir {
		attrs = fileAttributes(attrs)
	}
	child := newNode(base, isDir, attrs, now)
	child.parent = parent
	parent.children[winpath.Key(base)] = child
	parent.modified = now
	fs.nodes++

	info.SetIsDirectory(isDir)
	info.SetContext(&openFile{node: child})
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

// Cleanup runs when the last user handle is closed. Pending deletes happen
// here, along with releasing the byte-range locks the handle held.
func (fs *FS) Cleanup(name string, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return nil
	}
	of, _ := info.Context().(*openFile)
	if of != nil {
		n.locks = releaseOwner(n.locks, of)
	}

	if !info.DeletePending() {
		return nil
	}
	if streamName != "" {
		if s, ok := n.streams[winpath.Key(streamName)]; ok {
			_ = fs.reserve(-int64(len(s.data)))
			delete(n.streams, winpath.Key(streamName))
		}
		return nil
	}
	if n.dir && len(n.children) > 0 {
		return dokan.StatusDirectoryNotEmpty
	}
	fs.detach(n)
	return nil
}

// CloseFile records the access time; the handle slot is cleared by the
// dispatcher.
func (fs *FS) CloseFile(name string, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if of, ok := info.Context().(*openFile); ok && of.node != nil {
		of.node.accessed = fs.now()
	}
	return nil
}

// detach removes n and its subtree from the tree. The caller holds mu.
func (fs *FS) detach(n *node) {
	if n.parent == nil {
		return
	}
	_ = fs.reserve(-n.footprint())
	fs.nodes -= n.count()
	delete(n.parent.children, winpath.Key(n.name))
	n.parent.modified = fs.now()
	n.parent = nil
}
