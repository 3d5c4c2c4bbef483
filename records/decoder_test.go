package records

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/record"
)

func biff8Stream(body ...[]byte) []byte {
	parts := [][]byte{rawRecord(biff8.BOF, concat(le16(0x0600), le16(0x0005), le16(0x0DBB), le16(0x07CC), le32(0), le32(6)))}
	parts = append(parts, body...)
	parts = append(parts, rawRecord(biff8.EOF, nil))
	return concat(parts...)
}

func TestDecoderBIFF8(t *testing.T) {
	data := biff8Stream(
		rawRecord(biff8.Codepage, le16(1200)),
		rawRecord(biff8.Number, concat(cellHdr(0, 0, 15), leF64(3.5))),
		rawRecord(biff8.Label, concat(cellHdr(0, 1, 15), le16(2), []byte{0}, []byte("ok"))),
		rawRecord(biff8.Window2, le16(0x06B6)),
	)
	d := NewDecoder(record.NewStream(data))
	recs, err := d.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 6)

	assert.Equal(t, BIFF8, d.Version())
	assert.Equal(t, 1200, d.Codepage())
	assert.IsType(t, &NumberRecord{}, recs[2])
	assert.IsType(t, &LabelRecord{}, recs[3])
	assert.IsType(t, &record.UnknownRecord{}, recs[4])
	assert.Equal(t, int64(20+6+18+15+6), d.Offset(), "offset of the trailing EOF")

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderLegacyStream(t *testing.T) {
	cyrillic := []byte{0xCF, 0xF0, 0xE8}
	data := concat(
		rawRecord(biff8.BOF, concat(le16(0x0500), le16(0x0005), le16(0), le16(0))),
		rawRecord(biff8.Codepage, le16(1251)),
		rawRecord(biff8.Label, concat(cellHdr(2, 0, 17), le16(3), cyrillic)),
		rawRecord(biff8.Number, concat(cellHdr(2, 1, 17), leF64(1))),
		rawRecord(biff8.EOF, nil),
	)
	d := NewDecoder(record.NewStream(data))
	recs, err := d.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, BIFF5, d.Version())

	label, ok := recs[2].(*OldLabelRecord)
	require.True(t, ok, "LABEL in a BIFF5 stream uses the old layout")
	v, err := label.Value()
	require.NoError(t, err)
	assert.Equal(t, "При", v)
	assert.IsType(t, &record.UnknownRecord{}, recs[3], "records without a legacy decoder stay opaque")

	out, err := record.MarshalAll([]record.Record{recs[0], recs[1], recs[3], recs[4]})
	require.NoError(t, err)
	assert.Len(t, out, 20+6+(4+14)+4, "BIFF5 BOF is re-encoded in the BIFF8 size")
}

func TestDecoderBIFF2Label(t *testing.T) {
	data := concat(
		rawRecord(biff8.OldBOF2, concat(le16(0x0002), le16(0x0010))),
		rawRecord(biff8.OldLabel, concat(le16(0), le16(0), []byte{0, 0, 0}, []byte{2}, []byte{0xE4, 0xF6})),
		rawRecord(biff8.EOF, nil),
	)
	d := NewDecoder(record.NewStream(data), WithCodepage(1252))
	recs, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, BIFF2, d.Version())
	label := recs[1].(*OldLabelRecord)
	v, err := label.Value()
	require.NoError(t, err)
	assert.Equal(t, "äö", v)
	assert.Equal(t, 1252, label.Codepage())
}

func TestDecoderLeftoverBytes(t *testing.T) {
	data := biff8Stream(
		rawRecord(biff8.Number, concat(cellHdr(0, 0, 0), leF64(1), []byte{0xAA, 0xBB})),
	)

	t.Run("lenient", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		d := NewDecoder(record.NewStream(data), WithLogger(zap.New(core)))
		recs, err := d.ReadAll()
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, 1.0, recs[1].(*NumberRecord).Value)

		entries := logs.FilterMessage("skipping unread record bytes").All()
		require.Len(t, entries, 1)
		assert.Equal(t, int64(2), entries[0].ContextMap()["bytes"])
	})

	t.Run("strict", func(t *testing.T) {
		d := NewDecoder(record.NewStream(data), WithStrict(true))
		_, err := d.ReadAll()
		require.Error(t, err)
		assert.True(t, record.IsMalformed(err))
	})
}

func TestDecoderWrapsErrors(t *testing.T) {
	data := biff8Stream(
		rawRecord(biff8.Number, concat(cellHdr(0, 0, 0), le32(0))),
	)
	recs, err := NewDecoder(record.NewStream(data)).ReadAll()
	require.Error(t, err)
	assert.Len(t, recs, 1, "records before the failure are returned")
	assert.True(t, record.IsTruncated(err))
	assert.Contains(t, err.Error(), "NUMBER")
}

func TestDecoderLogsUnknownTags(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	data := biff8Stream(rawRecord(0x7777, []byte{1}))
	_, err := NewDecoder(record.NewStream(data), WithLogger(zap.New(core))).ReadAll()
	require.NoError(t, err)

	entries := logs.FilterMessage("unknown record").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "0x7777", entries[0].ContextMap()["tag"])
}
