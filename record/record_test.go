package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRecord is a minimal Standard record with a 2-byte body.
type fixedRecord struct{ v uint16 }

func (r *fixedRecord) Tag() uint16   { return 0x0040 }
func (r *fixedRecord) DataSize() int { return 2 }
func (r *fixedRecord) SerializeData(out Output) error {
	out.WriteUint16(r.v)
	return nil
}

// lyingRecord declares more bytes than it writes.
type lyingRecord struct{}

func (lyingRecord) Tag() uint16   { return 0x1111 }
func (lyingRecord) DataSize() int { return 4 }
func (lyingRecord) SerializeData(out Output) error {
	out.WriteUint16(1)
	return nil
}

// legacyRecord can be decoded but never encoded.
type legacyRecord struct {
	DecodeOnly
}

func (legacyRecord) Tag() uint16 { return 0x0004 }

// blobRecord is a Standard record of arbitrary size.
type blobRecord struct{ data []byte }

func (r blobRecord) Tag() uint16   { return 0x2222 }
func (r blobRecord) DataSize() int { return len(r.data) }
func (r blobRecord) SerializeData(out Output) error {
	out.Write(r.data)
	return nil
}

func TestMarshalStandard(t *testing.T) {
	b, err := Marshal(&fixedRecord{v: 0x0102})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x40, 0x00, 0x02, 0x00, 0x02, 0x01}, b)

	n, err := Size(&fixedRecord{})
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
}

func TestMarshalInvariantViolation(t *testing.T) {
	_, err := Marshal(lyingRecord{})
	var iv *InvariantViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, 4, iv.Declared)
	assert.Equal(t, 2, iv.Written)
}

func TestMarshalReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly(legacyRecord{}))
	assert.False(t, IsReadOnly(&fixedRecord{}))

	_, err := Marshal(legacyRecord{})
	assert.True(t, IsUnsupported(err), "got %v", err)
	_, err = Size(legacyRecord{})
	assert.True(t, IsUnsupported(err), "got %v", err)
}

func TestMarshalSplitsOversizedStandardRecord(t *testing.T) {
	rec := blobRecord{data: pattern(MaxRecordDataSize*2 + 5)}
	b, err := Marshal(rec)
	require.NoError(t, err)

	n, err := Size(rec)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, len(rec.data)+3*HeaderSize, n)

	tag, payload, err := JoinPayload(b)
	require.NoError(t, err)
	assert.Equal(t, rec.Tag(), tag)
	assert.Equal(t, rec.data, payload)
}

func TestMarshalAll(t *testing.T) {
	b, err := MarshalAll([]Record{&fixedRecord{v: 1}, NewUnknownRecord(0x7777, []byte{9})})
	require.NoError(t, err)
	assert.Equal(t, concat(rawRecord(0x0040, le16(1)), rawRecord(0x7777, []byte{9})), b)

	_, err = MarshalAll([]Record{&fixedRecord{}, legacyRecord{}})
	assert.True(t, IsUnsupported(err))
}

func TestUnknownRecordPassthrough(t *testing.T) {
	data := concat(
		rawRecord(0x005D, pattern(12)),
		rawRecord(ContinueTag, pattern(5)),
		rawRecord(0x7FFF, nil),
	)
	s := NewStream(data)
	var recs []Record
	for {
		ok, err := s.HasNextRecord()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NoError(t, s.NextRecord())
		var rec Record
		if s.Tag() == ContinueTag {
			rec, err = ReadContinueRecord(s)
		} else {
			rec, err = ReadUnknownRecord(s)
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 3)
	assert.IsType(t, &ContinueRecord{}, recs[1])

	out, err := MarshalAll(recs)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestUnknownRecordCloneIsDeep(t *testing.T) {
	orig := NewUnknownRecord(0x7777, []byte{1, 2, 3})
	clone, err := orig.Clone()
	require.NoError(t, err)
	assert.Equal(t, orig.Data(), clone.Data())
	assert.Equal(t, orig.Tag(), clone.Tag())

	d := clone.Data()
	d[0] = 0xFF
	assert.Equal(t, byte(1), clone.Data()[0], "Data must return a copy")
	assert.NotSame(t, orig, clone)

	c, err := NewContinueRecord([]byte{4}).Clone()
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, c.Data())
}
