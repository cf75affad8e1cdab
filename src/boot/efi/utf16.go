package efi

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

var (
	// ErrStringTooLong means an encode would not fit its bounded
	// destination.  Overflow is reported, never silently truncated.
	ErrStringTooLong = errors.New("utf16 encode exceeds bounded buffer")

	// ErrDecodeOverflow means a decode would not fit a destination the
	// caller sized from the same source.  This can only happen when the
	// source is not 7-bit clean, so any occurrence needs to surface
	// rather than miscount.
	ErrDecodeOverflow = errors.New("utf16 decode exceeds destination")
)

// EncodeUTF16 converts s to UTF-16 with a terminator.  Firmware only
// knows UTF-16, so every string crossing the ABI goes through here.
// The result, terminator included, may not exceed max units.
func EncodeUTF16(s string, max int) ([]uint16, error) {
	u := utf16.Encode([]rune(s))
	if len(u)+1 > max {
		return nil, ErrStringTooLong
	}
	return append(u, 0), nil
}

// DecodeUTF16 converts UTF-16 units to a string, stopping at the first
// terminator if one is present.
func DecodeUTF16(u []uint16) string {
	for i, c := range u {
		if c == 0 {
			u = u[:i]
			break
		}
	}
	return string(utf16.Decode(u))
}

// UTF16ToBytes lays units out little-endian, the wire order firmware
// uses for load options and variable names.
func UTF16ToBytes(u []uint16) []byte {
	b := make([]byte, 2*len(u))
	for i, c := range u {
		binary.LittleEndian.PutUint16(b[2*i:], c)
	}
	return b
}

// BytesToUTF16 reads little-endian units; a trailing odd byte is
// ignored.
func BytesToUTF16(b []byte) []uint16 {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return u
}

// DecodeUTF16Bytes converts little-endian UTF-16 bytes to a string,
// stopping at the first terminator.
func DecodeUTF16Bytes(b []byte) string {
	return DecodeUTF16(BytesToUTF16(b))
}

// DecodeUTF16Into decodes little-endian UTF-16 bytes into dst, stopping
// at the first terminator, and returns the number of bytes written
// excluding the terminating NUL it always appends.  For 7-bit-clean
// input of L source bytes the result is at most L/2 bytes, so a
// destination sized L/2+1 never overflows; anything else fails with
// ErrDecodeOverflow.
func DecodeUTF16Into(src []byte, dst []byte) (int, error) {
	s := DecodeUTF16Bytes(src)
	if len(s)+1 > len(dst) {
		return 0, ErrDecodeOverflow
	}
	n := copy(dst, s)
	dst[n] = 0
	return n, nil
}
