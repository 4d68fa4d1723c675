package memfs

import (
	"io"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// content returns a pointer to the byte slice backing the requested stream.
func content(n *node, streamName string) (*[]byte, error) {
	if streamName == "" {
		if n.dir {
			return nil, dokan.StatusFileIsADirectory
		}
		return &n.data, nil
	}
	s, ok := n.streams[winpath.Key(streamName)]
	if !ok {
		return nil, dokan.StatusObjectNameNotFound
	}
	return &s.data, nil
}

func (fs *FS) ReadFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return 0, err
	}
	data, err := content(n, streamName)
	if err != nil {
		return 0, err
	}
	if err := checkLocks(n.locks, ownerOf(info), offset, int64(len(buf))); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, dokan.StatusInvalidParameter
	}
	if offset >= int64(len(*data)) {
		return 0, io.EOF
	}
	return copy(buf, (*data)[offset:]), nil
}

func (fs *FS) WriteFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return 0, err
	}
	if n.attributes.Has(dokan.FileAttributeReadonly) {
		return 0, dokan.StatusAccessDenied
	}
	data, err := content(n, streamName)
	if err != nil {
		return 0, err
	}
	if info.WriteToEndOfFile() {
		offset = int64(len(*data))
	}
	if offset < 0 {
		return 0, dokan.StatusInvalidParameter
	}
	if err := checkLocks(n.locks, ownerOf(info), offset, int64(len(buf))); err != nil {
		return 0, err
	}

	end := offset + int64(len(buf))
	if end > int64(len(*data)) {
		if err := fs.resize(data, end); err != nil {
			return 0, err
		}
	}
	copy((*data)[offset:end], buf)

	now := fs.now()
	n.modified = now
	n.accessed = now
	return len(buf), nil
}

// resize grows or shrinks data to size, charging the difference against
// the volume capacity. The caller holds mu for writing.
func (fs *FS) resize(data *[]byte, size int64) error {
	cur := int64(len(*data))
	if err := fs.reserve(size - cur); err != nil {
		return err
	}
	switch {
	case size < cur:
		*data = (*data)[:size:size]
	case size <= int64(cap(*data)):
		*data = (*data)[:size]
		clear((*data)[cur:])
	default:
		grown := make([]byte, size, growCap(cur, size))
		copy(grown, *data)
		*data = grown
	}
	return nil
}

// growCap amortizes appends the way append does, without over-reserving
// capacity that is not charged to the volume.
func growCap(cur, size int64) int64 {
	if c := cur * 2; c > size && c-size <= 1<<20 {
		return c
	}
	return size
}

func (fs *FS) FlushFileBuffers(name string, info *dokan.FileInfo) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, _, err := fs.resolve(name, info)
	return err
}

func (fs *FS) SetEndOfFile(name string, length int64, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if length < 0 {
		return dokan.StatusInvalidParameter
	}
	data, err := content(n, streamName)
	if err != nil {
		return err
	}
	if err := fs.resize(data, length); err != nil {
		return err
	}
	n.modified = fs.now()
	return nil
}

// SetAllocationSize only ever shrinks the file; growing the allocation does
// not change the visible size.
func (fs *FS) SetAllocationSize(name string, length int64, info *dokan.FileInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return err
	}
	if length < 0 {
		return dokan.StatusInvalidParameter
	}
	data, err := content(n, streamName)
	if err != nil {
		return err
	}
	if length < int64(len(*data)) {
		if err := fs.resize(data, length); err != nil {
			return err
		}
		n.modified = fs.now()
	}
	return nil
}
