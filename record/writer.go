package record

import (
	"encoding/binary"
	"math"
)

// Output is the little-endian write side shared by [Writer] and
// [ContinuableOutput].
type Output interface {
	WriteUint8(v uint8)
	WriteUint16(v uint16)
	WriteUint32(v uint32)
	WriteUint64(v uint64)
	WriteDouble(v float64)
	Write(p []byte)
}

// Writer is a growable little-endian output buffer.  Writes never fail.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity preallocated for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written bytes.  The slice aliases the Writer's buffer
// until the next write.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 appends a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteDouble appends a little-endian IEEE-754 double.
func (w *Writer) WriteDouble(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// Write appends p verbatim.
func (w *Writer) Write(p []byte) {
	w.buf = append(w.buf, p...)
}

// WriteCompressedString appends s as one ISO-8859-1 byte per character.
// Characters outside Latin-1 are replaced with '?'.
func (w *Writer) WriteCompressedString(s string) {
	w.buf = append(w.buf, encodeCompressed(s)...)
}

// WriteUnicodeLEString appends s as UTF-16LE code units.
func (w *Writer) WriteUnicodeLEString(s string) {
	for _, u := range encodeUTF16(s) {
		w.WriteUint16(u)
	}
}
