package kvfs

import (
	"errors"
	"io"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dokanfs/pkg/dokan"
)

// fileNode loads the record behind a handle and rejects directories.
func fileNode(txn *badger.Txn, path string) (*record, error) {
	rec, err := getNode(txn, path)
	if err != nil {
		return nil, err
	}
	if rec.Dir {
		return nil, dokan.StatusFileIsADirectory
	}
	return rec, nil
}

// ReadFile copies straight out of the value log without materializing the
// whole file.
func (fs *FS) ReadFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	path, err := pathOf(name, info)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, dokan.StatusInvalidParameter
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var n int
	err = fs.view(func(txn *badger.Txn) error {
		if _, err := fileNode(txn, path); err != nil {
			return err
		}
		item, err := txn.Get(dataKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return io.EOF
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if offset >= int64(len(val)) {
				return io.EOF
			}
			n = copy(buf, val[offset:])
			return nil
		})
	})
	return n, err
}

func (fs *FS) WriteFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (written int, err error) {
	defer fs.record("WriteFile", time.Now(), &err)

	path, err := pathOf(name, info)
	if err != nil {
		return 0, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err = fs.update(func(txn *badger.Txn) error {
		rec, err := fileNode(txn, path)
		if err != nil {
			return err
		}
		if rec.readonly() {
			return dokan.StatusAccessDenied
		}
		if info.WriteToEndOfFile() {
			offset = rec.Size
		}
		if offset < 0 {
			return dokan.StatusInvalidParameter
		}

		data, err := getData(txn, path)
		if err != nil {
			return err
		}
		end := offset + int64(len(buf))
		if end > int64(len(data)) {
			if err := fs.reserve(end - int64(len(data))); err != nil {
				return err
			}
			grown := make([]byte, end)
			copy(grown, data)
			data = grown
		}
		copy(data[offset:end], buf)

		now := fs.now()
		rec.Modified = now
		rec.Accessed = now
		return putData(txn, path, rec, data)
	})
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

// FlushFileBuffers syncs the database. Committed transactions are already
// durable in the value log unless the volume runs in memory.
func (fs *FS) FlushFileBuffers(name string, info *dokan.FileInfo) error {
	path, err := pathOf(name, info)
	if err != nil {
		return err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.view(func(txn *badger.Txn) error {
		_, err := getNode(txn, path)
		return err
	}); err != nil {
		return err
	}
	if fs.opts.InMemory {
		return nil
	}
	return fs.db.Sync()
}

func (fs *FS) SetEndOfFile(name string, length int64, info *dokan.FileInfo) error {
	return fs.truncate(name, length, true, info)
}

// SetAllocationSize only ever shrinks the file.
func (fs *FS) SetAllocationSize(name string, length int64, info *dokan.FileInfo) error {
	return fs.truncate(name, length, false, info)
}

func (fs *FS) truncate(name string, length int64, grow bool, info *dokan.FileInfo) error {
	path, err := pathOf(name, info)
	if err != nil {
		return err
	}
	if length < 0 {
		return dokan.StatusInvalidParameter
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.update(func(txn *badger.Txn) error {
		rec, err := fileNode(txn, path)
		if err != nil {
			return err
		}
		if length == rec.Size || (length > rec.Size && !grow) {
			return nil
		}
		if err := fs.reserve(length - rec.Size); err != nil {
			return err
		}

		data, err := getData(txn, path)
		if err != nil {
			return err
		}
		if length < int64(len(data)) {
			data = data[:length]
		} else {
			grown := make([]byte, length)
			copy(grown, data)
			data = grown
		}
		rec.Modified = fs.now()
		return putData(txn, path, rec, data)
	})
}
