package kvfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// Key prefixes.
const (
	nodePrefix = "n:"
	dataPrefix = "d:"

	volumeIDKey = "m:volume_id"
)

// record is the stored metadata of a file or directory.
type record struct {
	// Name is the final path component as created. Empty for the root.
	Name       string              `json:"name"`
	Dir        bool                `json:"dir,omitempty"`
	Attributes dokan.FileAttribute `json:"attributes"`
	Created    time.Time           `json:"created"`
	Accessed   time.Time           `json:"accessed"`
	Modified   time.Time           `json:"modified"`
	// Size mirrors the length of the d: value so listings never read
	// contents.
	Size     int64  `json:"size"`
	Security []byte `json:"security,omitempty"`
}

func (r *record) info() dokan.FileInformation {
	attrs := r.Attributes
	if attrs == 0 {
		attrs = dokan.FileAttributeNormal
	}
	return dokan.FileInformation{
		FileName:       r.Name,
		Attributes:     attrs,
		CreationTime:   r.Created,
		LastAccessTime: r.Accessed,
		LastWriteTime:  r.Modified,
		Length:         r.Size,
	}
}

func (r *record) readonly() bool {
	return r.Attributes.Has(dokan.FileAttributeReadonly)
}

func nodeKey(path string) []byte {
	return []byte(nodePrefix + winpath.Key(path))
}

func dataKey(path string) []byte {
	return []byte(dataPrefix + winpath.Key(path))
}

// loadVolumeID returns the stored volume ID, generating one on first use.
func loadVolumeID(txn *badger.Txn) (uuid.UUID, error) {
	item, err := txn.Get([]byte(volumeIDKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id := uuid.New()
		return id, txn.Set([]byte(volumeIDKey), id[:])
	}
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = item.Value(func(val []byte) error {
		id, err = uuid.FromBytes(val)
		return err
	})
	return id, err
}

// subtreePrefix is the folded prefix shared by every descendant of dir.
func subtreePrefix(dir string) string {
	k := winpath.Key(dir)
	if k == winpath.Root {
		return k
	}
	return k + winpath.Separator
}

func getNode(txn *badger.Txn, path string) (*record, error) {
	item, err := txn.Get(nodeKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, dokan.StatusObjectNameNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeItem(item)
}

func decodeItem(item *badger.Item) (*record, error) {
	rec := new(record)
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
	}
	return rec, nil
}

func putNode(txn *badger.Txn, path string, rec *record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(nodeKey(path), val)
}

// getData returns a copy of the file contents, nil when the file is empty.
func getData(txn *badger.Txn, path string) ([]byte, error) {
	item, err := txn.Get(dataKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// putData stores contents and keeps rec.Size in step. An empty file has no
// data key.
func putData(txn *badger.Txn, path string, rec *record, data []byte) error {
	rec.Size = int64(len(data))
	if len(data) == 0 {
		if err := txn.Delete(dataKey(path)); err != nil {
			return err
		}
	} else if err := txn.Set(dataKey(path), data); err != nil {
		return err
	}
	return putNode(txn, path, rec)
}

// children returns the direct children of dir in folded name order.
func children(txn *badger.Txn, dir string) ([]*record, error) {
	prefix := nodePrefix + subtreePrefix(dir)
	it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix), PrefetchValues: true})
	defer it.Close()

	var out []*record
	for it.Rewind(); it.Valid(); it.Next() {
		rest := string(it.Item().Key())[len(prefix):]
		if rest == "" || strings.Contains(rest, winpath.Separator) {
			continue
		}
		rec, err := decodeItem(it.Item())
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// hasChildren reports whether dir holds any entry.
func hasChildren(txn *badger.Txn, dir string) bool {
	prefix := nodePrefix + subtreePrefix(dir)
	it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix)})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if len(it.Item().Key()) > len(prefix) {
			return true
		}
	}
	return false
}

// subtreeKeys returns every n: and d: key at or below path, copied out of
// the iterator.
func subtreeKeys(txn *badger.Txn, path string) ([][]byte, error) {
	var keys [][]byte
	for _, p := range []string{nodePrefix, dataPrefix} {
		own := []byte(p + winpath.Key(path))
		_, err := txn.Get(own)
		switch {
		case err == nil:
			keys = append(keys, own)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return nil, err
		}

		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(p + subtreePrefix(path))})
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
	}
	return keys, nil
}
