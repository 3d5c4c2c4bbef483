// Package record provides the BIFF8 record I/O framework: little-endian byte
// cursors, the record input stream that joins CONTINUE chunks, the
// continuable output that splits them, and the contract every concrete record
// type implements.
package record

import (
	"encoding/binary"
	"math"
)

// Input is the little-endian read side shared by [Cursor] and [Stream].
// Concrete record decoders are written against it so the same code can read
// from a plain byte slice or from a continuation-aware record stream.
type Input interface {
	ReadUint8() (uint8, error)
	ReadInt8() (int8, error)
	ReadUint16() (uint16, error)
	ReadInt16() (int16, error)
	ReadUint32() (uint32, error)
	ReadInt32() (int32, error)
	ReadUint64() (uint64, error)
	ReadDouble() (float64, error)
	// ReadFully fills p completely or fails.
	ReadFully(p []byte) error
	// Remaining returns the number of unread bytes.
	Remaining() int
}

// Cursor wraps a byte slice and provides typed little-endian reads.  All
// reads advance the cursor; a read that needs more bytes than remain fails
// with a [*TruncatedDataError] and leaves the cursor unchanged.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor creates a Cursor over data.  The slice is not copied; byte
// slices handed out by the cursor are.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int {
	return c.pos
}

func (c *Cursor) need(n int) error {
	if c.Remaining() < n {
		return &TruncatedDataError{Offset: int64(c.pos), Requested: n, Available: c.Remaining()}
	}
	return nil
}

// Skip advances the read position by n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 {
		return &MalformedStreamError{Offset: int64(c.pos), Reason: "negative skip count"}
	}
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// ReadFully reads exactly len(p) bytes into p.
func (c *Cursor) ReadFully(p []byte) error {
	if err := c.need(len(p)); err != nil {
		return err
	}
	copy(p, c.data[c.pos:])
	c.pos += len(p)
	return nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := c.ReadFully(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadUint8 reads one unsigned byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadInt8 reads one signed byte.
func (c *Cursor) ReadInt8() (int8, error) {
	v, err := c.ReadUint8()
	return int8(v), err
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadInt16 reads a little-endian int16.
func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadDouble reads a little-endian IEEE-754 double (8 bytes).
func (c *Cursor) ReadDouble() (float64, error) {
	bits, err := c.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// ReadCompressedString reads nChars one-byte characters and decodes them as
// ISO-8859-1, the BIFF8 "compressed" encoding.
func (c *Cursor) ReadCompressedString(nChars int) (string, error) {
	raw, err := c.ReadBytes(nChars)
	if err != nil {
		return "", err
	}
	return decodeCompressed(raw), nil
}

// ReadUnicodeLEString reads nChars UTF-16LE code units.
func (c *Cursor) ReadUnicodeLEString(nChars int) (string, error) {
	raw, err := c.ReadBytes(nChars * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16LE(raw), nil
}
