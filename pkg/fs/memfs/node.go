package memfs

import (
	"sort"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// node is a file or directory. All fields are guarded by FS.mu.
type node struct {
	name   string
	parent *node
	dir    bool

	attributes dokan.FileAttribute
	created    time.Time
	accessed   time.Time
	modified   time.Time

	// data is the unnamed stream of a file.
	data []byte
	// streams holds named alternate data streams, keyed by folded name.
	streams map[string]*stream
	// children is keyed by folded name.
	children map[string]*node

	security []byte
	locks    []byteRange
}

// stream is a named alternate data stream.
type stream struct {
	name string
	data []byte
}

func newNode(name string, dir bool, attributes dokan.FileAttribute, now time.Time) *node {
	n := &node{
		name:       name,
		dir:        dir,
		attributes: attributes,
		created:    now,
		accessed:   now,
		modified:   now,
	}
	if dir {
		n.attributes |= dokan.FileAttributeDirectory
		n.attributes &^= dokan.FileAttributeNormal
		n.children = make(map[string]*node)
	}
	return n
}

// path returns the full name of n.
func (n *node) path() string {
	if n.parent == nil {
		return winpath.Root
	}
	return winpath.Join(n.parent.path(), n.name)
}

// size is the length of the unnamed stream.
func (n *node) size() int64 {
	return int64(len(n.data))
}

// info describes n for GetFileInformation and FindFiles.
func (n *node) info() dokan.FileInformation {
	attrs := n.attributes
	if attrs == 0 {
		attrs = dokan.FileAttributeNormal
	}
	return dokan.FileInformation{
		FileName:       n.name,
		Attributes:     attrs,
		CreationTime:   n.created,
		LastAccessTime: n.accessed,
		LastWriteTime:  n.modified,
		Length:         n.size(),
	}
}

// sortedChildren lists children by name for a stable directory order.
func (n *node) sortedChildren() []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return winpath.Key(out[i].name) < winpath.Key(out[j].name) })
	return out
}

// footprint is the number of content bytes n holds, streams included.
func (n *node) footprint() int64 {
	total := int64(len(n.data))
	for _, s := range n.streams {
		total += int64(len(s.data))
	}
	for _, c := range n.children {
		total += c.footprint()
	}
	return total
}

// count is the number of nodes in the subtree rooted at n.
func (n *node) count() int {
	total := 1
	for _, c := range n.children {
		total += c.count()
	}
	return total
}
