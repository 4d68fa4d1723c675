package native

import "time"

// Offset between the FILETIME epoch (1601-01-01) and the Unix epoch, in
// 100-nanosecond intervals.
const filetimeUnixOffset = 116444736000000000

// FiletimeFromTime converts t to a FILETIME. The zero time.Time maps to the
// zero FILETIME, which the Win32 APIs treat as "not set".
func FiletimeFromTime(t time.Time) Filetime {
	if t.IsZero() {
		return Filetime{}
	}
	ticks := (t.Unix()+filetimeUnixOffset/1e7)*1e7 + int64(t.Nanosecond())/100
	if ticks < 0 {
		return Filetime{}
	}
	return Filetime{
		LowDateTime:  uint32(uint64(ticks)),
		HighDateTime: uint32(uint64(ticks) >> 32),
	}
}

// Ticks returns the raw 100ns count.
func (ft Filetime) Ticks() uint64 {
	return uint64(ft.HighDateTime)<<32 | uint64(ft.LowDateTime)
}

// Time converts ft to UTC. A zero FILETIME converts to 1601-01-01T00:00:00Z;
// use OptionalTime for values that may carry the "not supplied" sentinels.
func (ft Filetime) Time() time.Time {
	ticks := int64(ft.Ticks())
	// Split to stay inside time.Duration range for dates near 1601.
	secs := ticks / 1e7
	rem := ticks % 1e7
	return time.Unix(secs-filetimeUnixOffset/1e7, rem*100).UTC()
}

// FiletimeUnchanged is the all-ones FILETIME. In FILE_BASIC_INFORMATION it
// asks the filesystem to stop updating the timestamp for the open handle,
// which Dokan hands through unchanged.
var FiletimeUnchanged = Filetime{LowDateTime: 0xFFFFFFFF, HighDateTime: 0xFFFFFFFF}

// IsUnset reports whether ft is one of the FILE_BASIC_INFORMATION sentinels
// that leave a timestamp alone: zero ("don't change") or all ones ("stop
// updating").
func (ft Filetime) IsUnset() bool {
	return ft == Filetime{} || ft == FiletimeUnchanged
}

// OptionalTime converts a FILETIME handed over by SetFileTime. The driver
// always passes pointers copied from FILE_BASIC_INFORMATION, so besides a nil
// pointer the zero and all-ones sentinels also mean "not supplied" and yield
// nil.
func OptionalTime(ft *Filetime) *time.Time {
	if ft == nil || ft.IsUnset() {
		return nil
	}
	t := ft.Time()
	return &t
}
