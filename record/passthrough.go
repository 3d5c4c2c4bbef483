package record

import (
	"encoding/hex"
	"fmt"
)

// UnknownRecord holds the raw payload of a record type the library does not
// decode.  It re-encodes to exactly the bytes it was read from, which keeps
// round trips of streams with unsupported records lossless.
type UnknownRecord struct {
	tag  uint16
	data []byte
}

// NewUnknownRecord returns an UnknownRecord for tag holding a copy of data.
func NewUnknownRecord(tag uint16, data []byte) *UnknownRecord {
	return &UnknownRecord{tag: tag, data: append([]byte(nil), data...)}
}

// ReadUnknownRecord consumes the current physical record of in.  CONTINUE
// records that follow are not joined; they decode as [ContinueRecord]s.
func ReadUnknownRecord(in *Stream) (*UnknownRecord, error) {
	return &UnknownRecord{tag: in.Tag(), data: in.ReadChunkRemainder()}, nil
}

func (r *UnknownRecord) Tag() uint16   { return r.tag }
func (r *UnknownRecord) DataSize() int { return len(r.data) }

// SerializeData writes the raw payload.
func (r *UnknownRecord) SerializeData(out Output) error {
	out.Write(r.data)
	return nil
}

// Data returns a copy of the raw payload.
func (r *UnknownRecord) Data() []byte {
	return append([]byte(nil), r.data...)
}

// Clone returns a deep copy of r.
func (r *UnknownRecord) Clone() (*UnknownRecord, error) {
	return DeepCopy(r, ReadUnknownRecord)
}

func (r *UnknownRecord) String() string {
	return fmt.Sprintf("[UNKNOWN RECORD:0x%04X]\n    .data = %s\n[/UNKNOWN RECORD]", r.tag, hex.EncodeToString(r.data))
}

// ContinueRecord is a CONTINUE record that no preceding decoder joined, for
// example the text fragments following an opaque drawing record.
type ContinueRecord struct {
	data []byte
}

// NewContinueRecord returns a ContinueRecord holding a copy of data.
func NewContinueRecord(data []byte) *ContinueRecord {
	return &ContinueRecord{data: append([]byte(nil), data...)}
}

// ReadContinueRecord consumes the current physical record of in.
func ReadContinueRecord(in *Stream) (*ContinueRecord, error) {
	return &ContinueRecord{data: in.ReadChunkRemainder()}, nil
}

func (r *ContinueRecord) Tag() uint16   { return ContinueTag }
func (r *ContinueRecord) DataSize() int { return len(r.data) }

// SerializeData writes the raw payload.
func (r *ContinueRecord) SerializeData(out Output) error {
	out.Write(r.data)
	return nil
}

// Data returns a copy of the raw payload.
func (r *ContinueRecord) Data() []byte {
	return append([]byte(nil), r.data...)
}

// Clone returns a deep copy of r.
func (r *ContinueRecord) Clone() (*ContinueRecord, error) {
	return DeepCopy(r, ReadContinueRecord)
}

func (r *ContinueRecord) String() string {
	return fmt.Sprintf("[CONTINUE RECORD]\n    .data = %s\n[/CONTINUE RECORD]", hex.EncodeToString(r.data))
}
