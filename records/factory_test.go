package records

import (
	"io"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/record"
)

func TestRegisteredTags(t *testing.T) {
	tags := RegisteredTags()
	assert.True(t, slices.IsSorted(tags))
	assert.Equal(t, tags, RegisteredTags(), "registry contents are deterministic")
	assert.Len(t, tags, 27)

	for _, tag := range []uint16{
		biff8.BOF, biff8.EOF, biff8.Continue, biff8.SST, biff8.Number, biff8.Formula,
		biff8.SharedFormula, biff8.Array, biff8.Table, biff8.Label, biff8.OldLabel,
	} {
		assert.True(t, IsRegistered(tag), biff8.Name(tag))
		assert.Contains(t, tags, tag)
	}
	assert.False(t, IsRegistered(biff8.Window2))
	assert.False(t, IsRegistered(0x7777))
}

func TestCreateRecordUnknownPassthrough(t *testing.T) {
	data := concat(
		rawRecord(0x7777, []byte{1, 2, 3, 4, 5}),
		rawRecord(biff8.Continue, []byte{6, 7}),
		rawRecord(biff8.Window2, le16(0x06B6)),
		rawRecord(biff8.EOF, nil),
	)
	s := record.NewStream(data)
	var recs []record.Record
	for {
		err := s.NextRecord()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		r, err := CreateRecord(s)
		require.NoError(t, err)
		recs = append(recs, r)
	}
	require.Len(t, recs, 4)
	assert.IsType(t, &record.UnknownRecord{}, recs[0])
	assert.IsType(t, &record.ContinueRecord{}, recs[1], "a CONTINUE after an opaque record stays a record of its own")
	assert.IsType(t, &record.UnknownRecord{}, recs[2])
	assert.IsType(t, &EOFRecord{}, recs[3])

	out, err := record.MarshalAll(recs)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCreateRecordTruncated(t *testing.T) {
	// The header claims 10 bytes but only 4 follow.
	data := concat(le16(biff8.Number), le16(10), []byte{1, 2, 3, 4})
	s := record.NewStream(data)
	err := s.NextRecord()
	require.Error(t, err)
	assert.True(t, record.IsTruncated(err))
}
