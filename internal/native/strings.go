package native

import (
	"unicode/utf16"
	"unsafe"
)

// maxWideString bounds the scan for a terminator when the driver hands us an
// unbounded LPCWSTR. Dokan paths never exceed the NT path limit.
const maxWideString = 1 << 15

// UTF16PtrToString decodes a NUL-terminated UTF-16 string owned by native
// memory. Decoding stops at the first NUL so trailing capacity in an
// over-allocated buffer never leaks into the result. A nil pointer yields "".
func UTF16PtrToString(p *uint16) string {
	if p == nil {
		return ""
	}
	n := 0
	for ptr := unsafe.Pointer(p); n < maxWideString; n++ {
		if *(*uint16)(unsafe.Add(ptr, uintptr(n)*2)) == 0 {
			break
		}
	}
	return string(utf16.Decode(unsafe.Slice(p, n)))
}

// UTF16ToString decodes s up to its first NUL, or the whole slice if none.
func UTF16ToString(s []uint16) string {
	for i, c := range s {
		if c == 0 {
			s = s[:i]
			break
		}
	}
	return string(utf16.Decode(s))
}

// StringToUTF16Ptr returns a NUL-terminated UTF-16 copy of s allocated on the
// Go heap. Embedded NULs truncate the string.
func StringToUTF16Ptr(s string) *uint16 {
	buf := utf16.Encode([]rune(s + "\x00"))
	for i, c := range buf {
		if c == 0 {
			buf = buf[:i+1]
			break
		}
	}
	return &buf[0]
}

// CopyUTF16 encodes s into dst, truncating so that a terminating NUL always
// fits. It returns the number of code units written, excluding the NUL.
// A zero-length dst is left untouched.
func CopyUTF16(dst []uint16, s string) int {
	if len(dst) == 0 {
		return 0
	}
	enc := utf16.Encode([]rune(s))
	n := copy(dst[:len(dst)-1], enc)
	// Never leave half of a surrogate pair behind.
	if n > 0 && n < len(enc) && utf16.IsSurrogate(rune(dst[n-1])) && dst[n-1] < 0xDC00 {
		n--
	}
	dst[n] = 0
	return n
}

// UTF16Buffer views a native WCHAR buffer of size code units as a slice.
func UTF16Buffer(p *uint16, size uint32) []uint16 {
	if p == nil || size == 0 {
		return nil
	}
	return unsafe.Slice(p, size)
}
