package record

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// where renders the "record 0xNNNN at offset N" prefix shared by the error
// messages below.  A negative offset means the position is not known.
func where(tag uint16, offset int64) string {
	switch {
	case tag == 0 && offset < 0:
		return "position unknown"
	case offset < 0:
		return fmt.Sprintf("record 0x%04X", tag)
	case tag == 0:
		return fmt.Sprintf("offset %d", offset)
	default:
		return fmt.Sprintf("record 0x%04X at offset %d", tag, offset)
	}
}

// TruncatedDataError reports a decode step that needed more bytes than were
// available.  It is always fatal to the current decode.
type TruncatedDataError struct {
	// Tag is the tag of the record being decoded, or 0 outside a record.
	Tag uint16
	// Offset is the byte offset at which the read was attempted.
	Offset int64
	// Requested is the number of bytes the decode step needed.
	Requested int
	// Available is the number of bytes that were actually left.
	Available int
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("record: truncated data (%s): need %d bytes, have %d",
		where(e.Tag, e.Offset), e.Requested, e.Available)
}

// MalformedStreamError reports a structural problem in the record stream: a
// continuation was required but absent, a declared length exceeds the format
// limit, or a decoder left bytes behind.
type MalformedStreamError struct {
	Tag    uint16
	Offset int64
	Reason string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("record: malformed stream (%s): %s", where(e.Tag, e.Offset), e.Reason)
}

// UnsupportedOperationError is returned when an operation is invoked on a
// record type that does not support it, typically encoding a read-only
// legacy record.
type UnsupportedOperationError struct {
	Tag uint16
	Op  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("record: %s not supported for record 0x%04X", e.Op, e.Tag)
}

// InvariantViolationError reports an encoder that wrote a different number
// of bytes than it declared.  It indicates a programming defect.
type InvariantViolationError struct {
	Tag      uint16
	Declared int
	Written  int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("record: 0x%04X declared %d data bytes but wrote %d", e.Tag, e.Declared, e.Written)
}

// IsTruncated reports whether err (or anything it wraps) is a
// *TruncatedDataError.
func IsTruncated(err error) bool {
	var t *TruncatedDataError
	return errors.As(err, &t)
}

// IsMalformed reports whether err (or anything it wraps) is a
// *MalformedStreamError.
func IsMalformed(err error) bool {
	var m *MalformedStreamError
	return errors.As(err, &m)
}

// IsUnsupported reports whether err (or anything it wraps) is an
// *UnsupportedOperationError.
func IsUnsupported(err error) bool {
	var u *UnsupportedOperationError
	return errors.As(err, &u)
}
