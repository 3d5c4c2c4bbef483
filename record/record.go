package record

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Record is implemented by every record type.  The tag is constant per type.
type Record interface {
	Tag() uint16
}

// Standard is a record whose body is written in one piece behind the common
// 4-byte header.  DataSize must be computed from the current field state and
// agree exactly with the bytes SerializeData writes.
type Standard interface {
	Record
	// DataSize returns the body size in bytes, excluding the header.
	DataSize() int
	// SerializeData writes the body only; the header is written by Marshal.
	SerializeData(out Output) error
}

// Continuable is a record whose body is written through a
// [ContinuableOutput] because it may exceed one physical record.
type Continuable interface {
	Record
	SerializeContinuable(out *ContinuableOutput) error
}

// ReadOnlyRecord is implemented by record types that may be decoded but
// never encoded.  Such records are legacy variants that higher layers
// convert to another record type before writing.
type ReadOnlyRecord interface {
	Record
	ReadOnly() bool
}

// DecodeOnly is embedded by read-only record types to declare the
// capability.
type DecodeOnly struct{}

// ReadOnly always reports true.
func (DecodeOnly) ReadOnly() bool { return true }

// IsReadOnly reports whether r refuses to be encoded.
func IsReadOnly(r Record) bool {
	ro, ok := r.(ReadOnlyRecord)
	return ok && ro.ReadOnly()
}

// Marshal encodes r into its physical record bytes.
func Marshal(r Record) ([]byte, error) {
	return AppendRecord(nil, r)
}

// AppendRecord appends the physical record bytes of r to dst.
//
// Standard records get a 4-byte header in front of their body; a body larger
// than [MaxRecordDataSize] is split into CONTINUE records.  The number of
// bytes SerializeData writes must equal DataSize, otherwise an
// [*InvariantViolationError] is returned.  Read-only records fail with an
// [*UnsupportedOperationError].
func AppendRecord(dst []byte, r Record) ([]byte, error) {
	if IsReadOnly(r) {
		return dst, &UnsupportedOperationError{Tag: r.Tag(), Op: "encode"}
	}
	switch v := r.(type) {
	case Continuable:
		out := NewContinuableOutput(v.Tag())
		if err := v.SerializeContinuable(out); err != nil {
			return dst, errors.Wrapf(err, "record: encoding 0x%04X", v.Tag())
		}
		return append(dst, out.Bytes()...), nil
	case Standard:
		body, err := serializeBody(v)
		if err != nil {
			return dst, err
		}
		if len(body) > MaxRecordDataSize {
			return append(dst, SplitPayload(v.Tag(), body, MaxRecordDataSize)...), nil
		}
		dst = binary.LittleEndian.AppendUint16(dst, v.Tag())
		dst = binary.LittleEndian.AppendUint16(dst, uint16(len(body)))
		return append(dst, body...), nil
	}
	return dst, &UnsupportedOperationError{Tag: r.Tag(), Op: "encode"}
}

func serializeBody(r Standard) ([]byte, error) {
	declared := r.DataSize()
	w := NewWriter(declared)
	if err := r.SerializeData(w); err != nil {
		return nil, errors.Wrapf(err, "record: encoding 0x%04X", r.Tag())
	}
	if w.Len() != declared {
		return nil, &InvariantViolationError{Tag: r.Tag(), Declared: declared, Written: w.Len()}
	}
	return w.Bytes(), nil
}

// MarshalAll encodes recs back to back.
func MarshalAll(recs []Record) ([]byte, error) {
	var out []byte
	for i, r := range recs {
		var err error
		if out, err = AppendRecord(out, r); err != nil {
			return nil, errors.Wrapf(err, "record: record #%d", i)
		}
	}
	return out, nil
}

// Size returns the number of bytes Marshal would produce for r, headers of
// all physical records included.
func Size(r Record) (int, error) {
	if IsReadOnly(r) {
		return 0, &UnsupportedOperationError{Tag: r.Tag(), Op: "size"}
	}
	switch v := r.(type) {
	case Continuable:
		out := NewContinuableOutput(v.Tag())
		if err := v.SerializeContinuable(out); err != nil {
			return 0, err
		}
		return out.TotalSize(), nil
	case Standard:
		n := v.DataSize()
		if n <= MaxRecordDataSize {
			return HeaderSize + n, nil
		}
		chunks := (n + MaxRecordDataSize - 1) / MaxRecordDataSize
		return chunks*HeaderSize + n, nil
	}
	return 0, &UnsupportedOperationError{Tag: r.Tag(), Op: "size"}
}

// DeepCopy copies r by encoding it and decoding the bytes again with
// decode.  It suits record types whose state is mostly opaque raw bytes,
// where a field-by-field copy buys nothing.
func DeepCopy[T Record](r T, decode func(*Stream) (T, error)) (T, error) {
	var zero T
	b, err := Marshal(r)
	if err != nil {
		return zero, err
	}
	s := NewStream(b)
	if err := s.NextRecord(); err != nil {
		return zero, err
	}
	return decode(s)
}
