package record

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// HasMultibyte reports whether s contains a UTF-16 code unit above 0xFF, i.e.
// whether it must be written with the 16-bit encoding flag rather than as a
// compressed string.
func HasMultibyte(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return true
		}
	}
	return false
}

// UTF16Len returns the number of UTF-16 code units in s.  BIFF string length
// prefixes count code units, not runes or bytes.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// EncodedStringSize returns the byte count of the character data of s in
// the encoding BIFF would pick for it.
func EncodedStringSize(s string) int {
	if HasMultibyte(s) {
		return UTF16Len(s) * 2
	}
	return UTF16Len(s)
}

func encodeUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// decodeUTF16LE converts a byte slice of UTF-16 little-endian code units into
// a UTF-8 Go string.  Unpaired surrogates become U+FFFD.
func decodeUTF16LE(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	n := len(b) / 2
	u16 := make([]uint16, n)
	for i := range n {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u16))
}

func decodeCompressed(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = charmap.ISO8859_1.DecodeByte(c)
	}
	return string(runes)
}

func encodeCompressed(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// PutStringData writes the option flag byte and the character data of s to
// out, in the encoding [EncodedStringSize] counts.  The caller writes the
// length prefix.  Nothing is split; use [ContinuableOutput.WriteStringData]
// for records that may continue.
func PutStringData(out Output, s string) {
	if HasMultibyte(s) {
		out.WriteUint8(0x01)
		for _, u := range encodeUTF16(s) {
			out.WriteUint16(u)
		}
		return
	}
	out.WriteUint8(0x00)
	out.Write(encodeCompressed(s))
}
