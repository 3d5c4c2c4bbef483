package record

// Package-level BIFF encoding helpers shared by the record tests.

import (
	"bytes"
	"encoding/binary"
)

// rawRecord returns the physical record bytes for tag carrying payload.  It
// does not validate the length, so tests can build oversized headers.
func rawRecord(tag uint16, payload []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, tag)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// concat joins byte slices.
func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// le16 returns the little-endian 2-byte encoding of v.
func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// le32 returns the little-endian 4-byte encoding of v.
func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// pattern returns n bytes of a repeating, position-dependent pattern so that
// misplaced or reordered bytes are detected.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/251)
	}
	return b
}

// utf16Text returns a string of n characters that all need 16-bit encoding.
func utf16Text(n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = rune(0x0400 + i%200) // Cyrillic block
	}
	return string(runes)
}

// latinText returns a string of n characters that fit the compressed
// encoding.
func latinText(n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = rune('a' + i%26)
	}
	return string(runes)
}
