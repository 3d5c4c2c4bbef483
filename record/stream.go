package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
)

const (
	// HeaderSize is the size of every physical record header: a 2-byte tag
	// followed by a 2-byte payload length.
	HeaderSize = 4
	// MaxRecordDataSize is the largest payload one physical record may carry.
	MaxRecordDataSize = 8224
	// MaxRecordSize is MaxRecordDataSize plus the header.
	MaxRecordSize = HeaderSize + MaxRecordDataSize

	// ContinueTag is the tag of the CONTINUE record that carries the overflow
	// of a logical record too large for one physical record.
	ContinueTag uint16 = 0x003C
)

// Stream iterates over the logical records of an in-memory BIFF stream.
//
// Call [Stream.HasNextRecord] and [Stream.NextRecord] to advance, then use
// the Read methods to decode the current record.  When the payload of the
// current physical record is exhausted and a CONTINUE record follows, reads
// move into it transparently: decoders see the concatenated payload as one
// byte range.  Primitive values never straddle a seam; character data may,
// in which case the CONTINUE payload begins with a fresh encoding flag byte
// (see [Stream.ReadString]).
//
// A CONTINUE record is only joined when a read actually needs its bytes.
// Record types that do not consume it leave it in place, and it is then
// returned by the next call to NextRecord as a record of its own.
type Stream struct {
	data []byte

	tag      uint16 // tag of the current logical record
	start    int    // offset of the current logical record's header
	chunkBeg int    // offset of the current physical payload
	chunkEnd int    // end of the current physical payload
	pos      int    // read position inside [chunkBeg, chunkEnd]
	inRecord bool
}

// NewStream returns a Stream over data.  The slice is not copied; decoders
// copy everything they retain.
func NewStream(data []byte) *Stream {
	return &Stream{data: data}
}

// NewStreamReader loads all of r into memory and returns a Stream over it.
func NewStreamReader(r io.Reader) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "record: reading stream")
	}
	return NewStream(data), nil
}

// Tag returns the tag of the current logical record.
func (s *Stream) Tag() uint16 { return s.tag }

// Offset returns the byte offset of the current logical record's header.
func (s *Stream) Offset() int64 { return int64(s.start) }

// Pos returns the absolute byte offset of the next unread byte.
func (s *Stream) Pos() int64 { return int64(s.pos) }

// HasNextRecord reports whether another record header follows.  It fails
// with a [*MalformedStreamError] if the decoder of the current record left
// bytes of its physical payload unread.
func (s *Stream) HasNextRecord() (bool, error) {
	if s.inRecord && s.pos < s.chunkEnd {
		return false, &MalformedStreamError{
			Tag: s.tag, Offset: int64(s.start),
			Reason: fmt.Sprintf("%d bytes left unread in record", s.chunkEnd-s.pos),
		}
	}
	left := len(s.data) - s.pos
	if left == 0 {
		return false, nil
	}
	if left < HeaderSize {
		return false, &TruncatedDataError{Offset: int64(s.pos), Requested: HeaderSize, Available: left}
	}
	return true, nil
}

// NextRecord advances to the next logical record and reads its header.  It
// returns io.EOF when the stream is exhausted.
func (s *Stream) NextRecord() error {
	ok, err := s.HasNextRecord()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	tag, length, err := s.readHeader(s.pos)
	if err != nil {
		return err
	}
	s.tag = tag
	s.start = s.pos
	s.chunkBeg = s.pos + HeaderSize
	s.chunkEnd = s.chunkBeg + length
	s.pos = s.chunkBeg
	s.inRecord = true
	return nil
}

// readHeader validates the physical header at off.
func (s *Stream) readHeader(off int) (tag uint16, length int, err error) {
	tag = binary.LittleEndian.Uint16(s.data[off:])
	length = int(binary.LittleEndian.Uint16(s.data[off+2:]))
	if length > MaxRecordDataSize {
		return 0, 0, &MalformedStreamError{
			Tag: tag, Offset: int64(off),
			Reason: fmt.Sprintf("declared length %d exceeds maximum %d", length, MaxRecordDataSize),
		}
	}
	if avail := len(s.data) - off - HeaderSize; avail < length {
		return 0, 0, &TruncatedDataError{Tag: tag, Offset: int64(off), Requested: length, Available: avail}
	}
	return tag, length, nil
}

// IsContinueNext reports whether the physical record after the current one
// is a CONTINUE record.
func (s *Stream) IsContinueNext() bool {
	if !s.inRecord || len(s.data)-s.chunkEnd < HeaderSize {
		return false
	}
	return binary.LittleEndian.Uint16(s.data[s.chunkEnd:]) == ContinueTag
}

// nextChunk moves the read position into the CONTINUE record that follows.
func (s *Stream) nextChunk() error {
	_, length, err := s.readHeader(s.chunkEnd)
	if err != nil {
		var t *TruncatedDataError
		if errors.As(err, &t) {
			t.Tag = s.tag
		}
		return err
	}
	s.chunkBeg = s.chunkEnd + HeaderSize
	s.chunkEnd = s.chunkBeg + length
	s.pos = s.chunkBeg
	return nil
}

// ChunkRemaining returns the bytes left in the current physical record only.
func (s *Stream) ChunkRemaining() int {
	return s.chunkEnd - s.pos
}

// Remaining returns the bytes left in the current logical record: the rest
// of the current physical payload plus every CONTINUE payload that
// immediately follows it.
func (s *Stream) Remaining() int {
	if !s.inRecord {
		return 0
	}
	n := s.chunkEnd - s.pos
	off := s.chunkEnd
	for len(s.data)-off >= HeaderSize && binary.LittleEndian.Uint16(s.data[off:]) == ContinueTag {
		length := int(binary.LittleEndian.Uint16(s.data[off+2:]))
		off += HeaderSize
		if avail := len(s.data) - off; length > avail {
			length = avail
		}
		n += length
		off += length
	}
	return n
}

// shortErr builds the error for a read of n bytes when only avail remain in
// the current physical payload.
func (s *Stream) shortErr(n, avail int) error {
	switch {
	case avail > 0 && s.IsContinueNext():
		return &MalformedStreamError{
			Tag: s.tag, Offset: int64(s.pos),
			Reason: fmt.Sprintf("%d-byte value split across CONTINUE boundary (%d bytes before it)", n, avail),
		}
	case avail == 0 && s.chunkEnd-s.chunkBeg == MaxRecordDataSize:
		return &MalformedStreamError{
			Tag: s.tag, Offset: int64(s.chunkEnd),
			Reason: "full-size record is not followed by a CONTINUE record",
		}
	}
	return &TruncatedDataError{Tag: s.tag, Offset: int64(s.pos), Requested: n, Available: avail}
}

// need makes sure n contiguous bytes can be read at pos, joining a
// CONTINUE record when the current payload is exhausted.
func (s *Stream) need(n int) error {
	if !s.inRecord {
		return &TruncatedDataError{Offset: int64(s.pos), Requested: n}
	}
	for {
		avail := s.chunkEnd - s.pos
		if avail >= n {
			return nil
		}
		if avail != 0 || !s.IsContinueNext() {
			return s.shortErr(n, avail)
		}
		if err := s.nextChunk(); err != nil {
			return err
		}
	}
}

// ReadUint8 reads one unsigned byte.
func (s *Stream) ReadUint8() (uint8, error) {
	if err := s.need(1); err != nil {
		return 0, err
	}
	v := s.data[s.pos]
	s.pos++
	return v, nil
}

// ReadInt8 reads one signed byte.
func (s *Stream) ReadInt8() (int8, error) {
	v, err := s.ReadUint8()
	return int8(v), err
}

// ReadUint16 reads a little-endian uint16.
func (s *Stream) ReadUint16() (uint16, error) {
	if err := s.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(s.data[s.pos:])
	s.pos += 2
	return v, nil
}

// ReadInt16 reads a little-endian int16.
func (s *Stream) ReadInt16() (int16, error) {
	v, err := s.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (s *Stream) ReadUint32() (uint32, error) {
	if err := s.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (s *Stream) ReadInt32() (int32, error) {
	v, err := s.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (s *Stream) ReadUint64() (uint64, error) {
	if err := s.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(s.data[s.pos:])
	s.pos += 8
	return v, nil
}

// ReadDouble reads a little-endian IEEE-754 double.
func (s *Stream) ReadDouble() (float64, error) {
	bits, err := s.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// ReadFully fills p from the logical record.  Unlike the primitive reads,
// raw bytes may be split across any number of CONTINUE records.
func (s *Stream) ReadFully(p []byte) error {
	if !s.inRecord && len(p) > 0 {
		return &TruncatedDataError{Offset: int64(s.pos), Requested: len(p)}
	}
	for len(p) > 0 {
		avail := s.chunkEnd - s.pos
		if avail == 0 {
			if !s.IsContinueNext() {
				return s.shortErr(len(p), 0)
			}
			if err := s.nextChunk(); err != nil {
				return err
			}
			continue
		}
		n := copy(p, s.data[s.pos:s.chunkEnd])
		s.pos += n
		p = p[n:]
	}
	return nil
}

// ReadRemainder returns a copy of every byte left in the logical record,
// joining all following CONTINUE records.
func (s *Stream) ReadRemainder() ([]byte, error) {
	p := make([]byte, s.Remaining())
	if err := s.ReadFully(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadChunkRemainder returns a copy of the bytes left in the current
// physical record without joining any CONTINUE record.  Opaque records use
// it so that a following CONTINUE survives as a record of its own and the
// stream round-trips byte for byte.
func (s *Stream) ReadChunkRemainder() []byte {
	p := make([]byte, s.chunkEnd-s.pos)
	copy(p, s.data[s.pos:s.chunkEnd])
	s.pos = s.chunkEnd
	return p
}

// ReadCompressedString reads nChars characters starting in the compressed
// (one byte per character) encoding.
func (s *Stream) ReadCompressedString(nChars int) (string, error) {
	return s.ReadString(nChars, true)
}

// ReadUnicodeLEString reads nChars characters starting in the 16-bit
// little-endian encoding.
func (s *Stream) ReadUnicodeLEString(nChars int) (string, error) {
	return s.ReadString(nChars, false)
}

// ReadString reads nChars characters of string data.  compressed selects the
// encoding of the first fragment.  If the character data continues into a
// CONTINUE record, that record's first byte is an option flag (bit 0 set for
// 16-bit characters) that selects the encoding of the next fragment, so the
// encoding may change at every seam.  A 16-bit character never straddles a
// seam.
func (s *Stream) ReadString(nChars int, compressed bool) (string, error) {
	if nChars < 0 {
		return "", &MalformedStreamError{Tag: s.tag, Offset: int64(s.pos), Reason: "negative string length"}
	}
	if nChars == 0 {
		return "", nil
	}
	if !s.inRecord {
		return "", &TruncatedDataError{Offset: int64(s.pos), Requested: nChars}
	}
	units := make([]uint16, 0, nChars)
	for len(units) < nChars {
		avail := s.chunkEnd - s.pos
		availChars := avail
		if !compressed {
			availChars = avail / 2
		}
		if availChars == 0 {
			width := 1
			if !compressed {
				width = 2
			}
			if !s.IsContinueNext() {
				return "", s.shortErr((nChars-len(units))*width, avail)
			}
			if avail != 0 {
				return "", &MalformedStreamError{
					Tag: s.tag, Offset: int64(s.pos),
					Reason: fmt.Sprintf("odd number of bytes (%d) left before CONTINUE in 16-bit string", avail),
				}
			}
			if err := s.nextChunk(); err != nil {
				return "", err
			}
			flag, err := s.ReadUint8()
			if err != nil {
				return "", err
			}
			compressed = flag&0x01 == 0
			continue
		}
		take := min(availChars, nChars-len(units))
		if compressed {
			for _, b := range s.data[s.pos : s.pos+take] {
				units = append(units, uint16(b))
			}
			s.pos += take
		} else {
			for range take {
				units = append(units, binary.LittleEndian.Uint16(s.data[s.pos:]))
				s.pos += 2
			}
		}
	}
	return string(utf16.Decode(units)), nil
}
