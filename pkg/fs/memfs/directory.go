package memfs

import (
	"sort"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

func (fs *FS) GetFileInformation(name string, info *dokan.FileInfo) (dokan.FileInformation, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, streamName, err := fs.resolve(name, info)
	if err != nil {
		return dokan.FileInformation{}, err
	}
	fi := n.info()
	if streamName != "" {
		data, err := content(n, streamName)
		if err != nil {
			return dokan.FileInformation{}, err
		}
		fi.Length = int64(len(*data))
	}
	return fi, nil
}

// FindFiles lists a directory in name order.
func (fs *FS) FindFiles(name string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, "", info)
}

// FindFilesWithPattern lists the entries of a directory that match a
// wildcard pattern, compared case-insensitively.
func (fs *FS) FindFilesWithPattern(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, pattern, info)
}

func (fs *FS) find(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, dokan.StatusNotADirectory
	}

	children := n.sortedChildren()
	out := make([]dokan.FileInformation, 0, len(children))
	for _, c := range children {
		if pattern != "" && !dokan.MatchPattern(pattern, c.name, true) {
			continue
		}
		out = append(out, c.info())
	}
	return out, nil
}

// FindStreams reports the unnamed data stream followed by the named ones.
func (fs *FS) FindStreams(name string, info *dokan.FileInfo) ([]dokan.StreamInformation, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, _, err := fs.resolve(name, info)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, nil
	}

	out := []dokan.StreamInformation{{Name: winpath.StreamName(""), Size: n.size()}}
	keys := make([]string, 0, len(n.streams))
	for k := range n.streams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := n.streams[k]
		out = append(out, dokan.StreamInformation{Name: winpath.StreamName(s.name), Size: int64(len(s.data))})
	}
	return out, nil
}
