package records

// Package-level BIFF encoding helpers shared by the records tests.

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-biff/record"
)

// rawRecord returns the physical record bytes for tag carrying payload.
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
	return binary.LittleEndian.AppendUint16(nil, v)
}

// le32 returns the little-endian 4-byte encoding of v.
func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// leF64 returns the little-endian IEEE-754 encoding of v.
func leF64(v float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}

// cellHdr returns the 6-byte cell header.
func cellHdr(row, col, xf uint16) []byte {
	return concat(le16(row), le16(col), le16(xf))
}

// decodeOne decodes the first record of data with the registry and checks
// that it consumed every byte of its physical record.
func decodeOne(t *testing.T, data []byte) record.Record {
	t.Helper()
	s := record.NewStream(data)
	require.NoError(t, s.NextRecord())
	r, err := CreateRecord(s)
	require.NoError(t, err)
	require.Zero(t, s.ChunkRemaining(), "decoder left bytes unread")
	return r
}

// roundTrip encodes r, checks the encoded size against DataSize where r is
// a standard record, decodes the bytes and checks that they encode again
// to the same bytes.  It returns the decoded record.
func roundTrip(t *testing.T, r record.Record) record.Record {
	t.Helper()
	b, err := record.Marshal(r)
	require.NoError(t, err)
	if std, ok := r.(record.Standard); ok && std.DataSize() <= record.MaxRecordDataSize {
		require.Len(t, b, record.HeaderSize+std.DataSize())
	}
	n, err := record.Size(r)
	require.NoError(t, err)
	require.Len(t, b, n)

	got := decodeOne(t, b)
	again, err := record.Marshal(got)
	require.NoError(t, err)
	require.Equal(t, b, again)
	return got
}
