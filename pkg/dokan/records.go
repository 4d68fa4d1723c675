package dokan

import "github.com/marmos91/dokanfs/internal/native"

// findFiller receives one WIN32_FIND_DATAW record and reports whether the
// driver accepted it. A false result means the driver's buffer is full.
type findFiller func(*native.Win32FindData) bool

// streamFiller is findFiller for WIN32_FIND_STREAM_DATA.
type streamFiller func(*native.Win32FindStreamData) bool

// findDataSequence walks a directory listing once, producing native records
// in the original order. The record returned by Next is reused by the next
// call; the driver copies it before returning from the filler.
type findDataSequence struct {
	entries []FileInformation
	pos     int
	rec     native.Win32FindData
}

func newFindDataSequence(entries []FileInformation) *findDataSequence {
	return &findDataSequence{entries: entries}
}

// Next returns the next record, or false once the listing is exhausted.
// The sequence cannot be restarted.
func (s *findDataSequence) Next() (*native.Win32FindData, bool) {
	if s.pos >= len(s.entries) {
		s.entries = nil
		return nil, false
	}
	fillFindData(&s.rec, &s.entries[s.pos])
	s.pos++
	return &s.rec, true
}

// streamSequence is findDataSequence for alternate data streams.
type streamSequence struct {
	entries []StreamInformation
	pos     int
	rec     native.Win32FindStreamData
}

func newStreamSequence(entries []StreamInformation) *streamSequence {
	return &streamSequence{entries: entries}
}

func (s *streamSequence) Next() (*native.Win32FindStreamData, bool) {
	if s.pos >= len(s.entries) {
		s.entries = nil
		return nil, false
	}
	e := &s.entries[s.pos]
	s.rec = native.Win32FindStreamData{StreamSize: e.Size}
	native.CopyUTF16(s.rec.StreamName[:], e.Name)
	s.pos++
	return &s.rec, true
}

// fillFindData copies fi into rec verbatim. Names longer than MAX_PATH-1
// code units are truncated.
func fillFindData(rec *native.Win32FindData, fi *FileInformation) {
	*rec = native.Win32FindData{
		FileAttributes: uint32(fi.Attributes),
		CreationTime:   native.FiletimeFromTime(fi.CreationTime),
		LastAccessTime: native.FiletimeFromTime(fi.LastAccessTime),
		LastWriteTime:  native.FiletimeFromTime(fi.LastWriteTime),
	}
	rec.SetFileSize(fi.Length)
	native.CopyUTF16(rec.FileName[:], fi.FileName)
}

// fillHandleInformation copies fi into the record returned by
// GetFileInformation.
func fillHandleInformation(rec *native.ByHandleFileInformation, fi *FileInformation, serial uint32) {
	*rec = native.ByHandleFileInformation{
		FileAttributes:     uint32(fi.Attributes),
		CreationTime:       native.FiletimeFromTime(fi.CreationTime),
		LastAccessTime:     native.FiletimeFromTime(fi.LastAccessTime),
		LastWriteTime:      native.FiletimeFromTime(fi.LastWriteTime),
		VolumeSerialNumber: serial,
		NumberOfLinks:      1,
	}
	rec.SetFileSize(fi.Length)
}

// emitFindData feeds entries to fill and maps a full buffer to
// StatusBufferOverflow.
func emitFindData(entries []FileInformation, fill findFiller) error {
	seq := newFindDataSequence(entries)
	for rec, ok := seq.Next(); ok; rec, ok = seq.Next() {
		if !fill(rec) {
			return StatusBufferOverflow
		}
	}
	return nil
}

func emitStreams(entries []StreamInformation, fill streamFiller) error {
	seq := newStreamSequence(entries)
	for rec, ok := seq.Next(); ok; rec, ok = seq.Next() {
		if !fill(rec) {
			return StatusBufferOverflow
		}
	}
	return nil
}
