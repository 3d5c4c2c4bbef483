package record

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSingleRecord(t *testing.T) {
	s := NewStream(rawRecord(0x0203, []byte{0x01, 0x00, 0x02, 0x00}))
	require.NoError(t, s.NextRecord())
	assert.Equal(t, uint16(0x0203), s.Tag())
	assert.Equal(t, int64(0), s.Offset())
	assert.Equal(t, 4, s.Remaining())

	a, err := s.ReadUint16()
	require.NoError(t, err)
	b, err := s.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), a)
	assert.Equal(t, uint16(2), b)

	ok, err := s.HasNextRecord()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, io.EOF, s.NextRecord())
}

func TestStreamEmpty(t *testing.T) {
	s := NewStream(nil)
	ok, err := s.HasNextRecord()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, io.EOF, s.NextRecord())

	_, err = s.ReadUint8()
	assert.True(t, IsTruncated(err), "reading before the first record must fail")
}

func TestStreamMultipleRecords(t *testing.T) {
	data := concat(
		rawRecord(0x0809, pattern(16)),
		rawRecord(0x000A, nil),
		rawRecord(0x0042, le16(1252)),
	)
	s := NewStream(data)
	var tags []uint16
	var offsets []int64
	for {
		err := s.NextRecord()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		tags = append(tags, s.Tag())
		offsets = append(offsets, s.Offset())
		_, err = s.ReadRemainder()
		require.NoError(t, err)
	}
	assert.Equal(t, []uint16{0x0809, 0x000A, 0x0042}, tags)
	assert.Equal(t, []int64{0, 20, 24}, offsets)
}

func TestStreamReader(t *testing.T) {
	s, err := NewStreamReader(bytes.NewReader(rawRecord(0x0040, le16(1))))
	require.NoError(t, err)
	require.NoError(t, s.NextRecord())
	v, err := s.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), v)
}

func TestStreamJoinsContinueForPrimitives(t *testing.T) {
	data := concat(
		rawRecord(0x00FC, le32(7)),
		rawRecord(ContinueTag, le32(9)),
		rawRecord(0x000A, nil),
	)
	s := NewStream(data)
	require.NoError(t, s.NextRecord())
	assert.True(t, s.IsContinueNext())
	assert.Equal(t, 8, s.Remaining())
	assert.Equal(t, 4, s.ChunkRemaining())

	a, err := s.ReadUint32()
	require.NoError(t, err)
	b, err := s.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), a)
	assert.Equal(t, uint32(9), b)
	assert.Equal(t, 0, s.Remaining())

	require.NoError(t, s.NextRecord())
	assert.Equal(t, uint16(0x000A), s.Tag(), "the CONTINUE record must be consumed by the logical record")
}

func TestStreamReadFullyAcrossManyContinues(t *testing.T) {
	payload := pattern(30)
	data := concat(
		rawRecord(0x1234, payload[:10]),
		rawRecord(ContinueTag, payload[10:10]),
		rawRecord(ContinueTag, payload[10:25]),
		rawRecord(ContinueTag, payload[25:]),
	)
	s := NewStream(data)
	require.NoError(t, s.NextRecord())
	assert.Equal(t, 30, s.Remaining())
	got, err := s.ReadRemainder()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStreamChunkRemainderLeavesContinue(t *testing.T) {
	data := concat(
		rawRecord(0x005D, []byte{1, 2, 3}),
		rawRecord(ContinueTag, []byte{4, 5}),
	)
	s := NewStream(data)
	require.NoError(t, s.NextRecord())
	assert.Equal(t, []byte{1, 2, 3}, s.ReadChunkRemainder())

	require.NoError(t, s.NextRecord())
	assert.Equal(t, ContinueTag, s.Tag())
	assert.Equal(t, []byte{4, 5}, s.ReadChunkRemainder())
}

func TestStreamErrors(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		read      func(s *Stream) error
		truncated bool
		malformed bool
	}{
		{
			name:      "declared length longer than the stream",
			data:      concat(le16(0x0203), le16(14), pattern(6)),
			truncated: true,
		},
		{
			name:      "declared length above the format maximum",
			data:      concat(le16(0x0203), le16(MaxRecordDataSize+1), pattern(MaxRecordDataSize+1)),
			malformed: true,
		},
		{
			name:      "dangling header bytes",
			data:      concat(rawRecord(0x000A, nil), []byte{0x09}),
			read:      func(s *Stream) error { return s.NextRecord() },
			truncated: true,
		},
		{
			name: "decoder reads past the end of a short record",
			data: rawRecord(0x0203, pattern(6)),
			read: func(s *Stream) error {
				_, err := s.ReadUint64()
				return err
			},
			truncated: true,
		},
		{
			name: "full-size record without the required CONTINUE",
			data: concat(rawRecord(0x00FC, pattern(MaxRecordDataSize)), rawRecord(0x000A, nil)),
			read: func(s *Stream) error {
				p := make([]byte, MaxRecordDataSize+1)
				return s.ReadFully(p)
			},
			malformed: true,
		},
		{
			name: "primitive split across a CONTINUE seam",
			data: concat(rawRecord(0x00FC, []byte{1, 2}), rawRecord(ContinueTag, []byte{3, 4})),
			read: func(s *Stream) error {
				if _, err := s.ReadUint8(); err != nil {
					return err
				}
				_, err := s.ReadUint16()
				return err
			},
			malformed: true,
		},
		{
			name: "record left partially unread",
			data: concat(rawRecord(0x0203, pattern(6)), rawRecord(0x000A, nil)),
			read: func(s *Stream) error {
				if _, err := s.ReadUint16(); err != nil {
					return err
				}
				return s.NextRecord()
			},
			malformed: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStream(tc.data)
			err := s.NextRecord()
			if err == nil && tc.read != nil {
				err = tc.read(s)
			}
			require.Error(t, err)
			assert.Equal(t, tc.truncated, IsTruncated(err), "truncated: %v", err)
			assert.Equal(t, tc.malformed, IsMalformed(err), "malformed: %v", err)
		})
	}
}

func TestStreamTruncatedErrorIdentifiesRecord(t *testing.T) {
	data := concat(rawRecord(0x000A, nil), le16(0x0203), le16(14), pattern(2))
	s := NewStream(data)
	require.NoError(t, s.NextRecord())
	err := s.NextRecord()

	var te *TruncatedDataError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, uint16(0x0203), te.Tag)
	assert.Equal(t, int64(4), te.Offset)
	assert.Equal(t, 14, te.Requested)
	assert.Equal(t, 2, te.Available)
	assert.Contains(t, err.Error(), "0x0203")
}

func TestStreamReadStringAcrossContinue(t *testing.T) {
	// "ab" compressed, then the CONTINUE switches to 16-bit for "Ωz".
	first := concat(le16(4), []byte{0x00}, []byte("ab"))
	second := concat([]byte{0x01}, le16(0x03A9), le16('z'))
	s := NewStream(concat(rawRecord(0x0207, first), rawRecord(ContinueTag, second)))
	require.NoError(t, s.NextRecord())

	n, err := s.ReadUint16()
	require.NoError(t, err)
	flag, err := s.ReadUint8()
	require.NoError(t, err)
	got, err := s.ReadString(int(n), flag&0x01 == 0)
	require.NoError(t, err)
	assert.Equal(t, "abΩz", got)
	assert.Equal(t, 0, s.Remaining())
}

func TestStreamReadStringOddByteBeforeSeam(t *testing.T) {
	first := concat([]byte{0x01}, le16('a'), []byte{0x00})
	second := concat([]byte{0x01}, le16('b'))
	s := NewStream(concat(rawRecord(0x0207, first), rawRecord(ContinueTag, second)))
	require.NoError(t, s.NextRecord())
	_, err := s.ReadUint8()
	require.NoError(t, err)

	_, err = s.ReadUnicodeLEString(2)
	assert.True(t, IsMalformed(err), "got %v", err)
}

func TestStreamReadStringMissingContinue(t *testing.T) {
	s := NewStream(rawRecord(0x0207, concat([]byte{0x00}, []byte("abc"))))
	require.NoError(t, s.NextRecord())
	_, err := s.ReadUint8()
	require.NoError(t, err)

	_, err = s.ReadCompressedString(5)
	assert.True(t, IsTruncated(err), "got %v", err)
}
