// Package winpath handles the backslash-separated, case-insensitive names the
// driver hands to filesystem callbacks, including alternate data stream
// suffixes ("\dir\file.txt:stream:$DATA").
package winpath

import (
	"strings"
)

// Separator is the path separator used by the driver.
const Separator = `\`

// Root is the name of the volume root.
const Root = Separator

// defaultStreamType is the only stream type exposed by the backends.
const defaultStreamType = ":$DATA"

// Clean normalizes name to a rooted path without trailing separator or
// empty components. Forward slashes are accepted.
func Clean(name string) string {
	name = strings.ReplaceAll(name, "/", Separator)
	parts := Components(name)
	if len(parts) == 0 {
		return Root
	}
	return Separator + strings.Join(parts, Separator)
}

// Components returns the non-empty components of name.
func Components(name string) []string {
	fields := strings.Split(name, Separator)
	out := fields[:0]
	for _, f := range fields {
		if f != "" && f != "." {
			out = append(out, f)
		}
	}
	return out
}

// Split returns the parent directory and the final component of a cleaned
// path. The root has no parent; Split(Root) returns (Root, "").
func Split(name string) (dir, base string) {
	name = Clean(name)
	if name == Root {
		return Root, ""
	}
	i := strings.LastIndex(name, Separator)
	if i == 0 {
		return Root, name[1:]
	}
	return name[:i], name[i+1:]
}

// Join appends base to dir.
func Join(dir, base string) string {
	if dir == Root || dir == "" {
		return Separator + base
	}
	return dir + Separator + base
}

// SplitStream separates a stream suffix from name. The returned stream is
// empty for the unnamed data stream; "::$DATA" and ":name:$DATA" are
// accepted as well as the short ":name" form.
func SplitStream(name string) (path, stream string) {
	dir, base := Split(name)
	i := strings.IndexByte(base, ':')
	if i < 0 {
		return Clean(name), ""
	}
	stream = base[i+1:]
	base = base[:i]

	if strings.HasSuffix(strings.ToUpper(stream), defaultStreamType) {
		stream = stream[:len(stream)-len(defaultStreamType)]
	}
	if base == "" {
		return dir, stream
	}
	return Join(dir, base), stream
}

// StreamName formats a stream name the way FindStreams reports it.
func StreamName(stream string) string {
	return ":" + stream + defaultStreamType
}

// Key folds name for case-insensitive lookups.
func Key(name string) string {
	return strings.ToUpper(name)
}

// IsWithin reports whether name equals dir or lies beneath it.
func IsWithin(name, dir string) bool {
	name, dir = Key(Clean(name)), Key(Clean(dir))
	if dir == Root {
		return true
	}
	return name == dir || strings.HasPrefix(name, dir+Separator)
}
