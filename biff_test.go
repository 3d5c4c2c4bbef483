package biff_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biff "github.com/TsubasaBE/go-biff"
	"github.com/TsubasaBE/go-biff/formula"
	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/records"
	"github.com/TsubasaBE/go-biff/stringtable"
)

// sampleWorkbook returns a small globals substream followed by one sheet.
func sampleWorkbook(t *testing.T) []record.Record {
	t.Helper()
	sst := stringtable.New()
	sst.AddString("Name")
	sst.AddString(strings.Repeat("long text ", 1200))

	rng, err := records.NewCellRangeAddress8Bit(1, 3, 2, 2)
	require.NoError(t, err)
	shared, err := records.NewSharedFormulaRecord(rng, []formula.Token{
		&formula.RefNToken{Class: formula.ClassValue, CellRef: formula.CellRef{Column: 0xFE, RowRelative: true, ColRelative: true}},
		&formula.IntToken{Value: 10},
		&formula.Operator{Op: 0x05},
	})
	require.NoError(t, err)
	anchor := records.NewFormulaRecord(records.CellHeader{Row: 1, Column: 2}, []formula.Token{&formula.ExpToken{Row: 1, Column: 2}})
	anchor.Options = records.FormulaShared
	anchor.SetValue(42)

	return []record.Record{
		records.NewBOFRecord(records.BOFWorkbook),
		&records.CodepageRecord{Codepage: 1200},
		&records.DateWindow1904Record{},
		&records.FormatRecord{Index: 164, Format: "yyyy-mm-dd"},
		&records.ExtendedFormatRecord{FormatIndex: 164},
		records.NewSSTRecord(sst),
		&records.EOFRecord{},

		records.NewBOFRecord(records.BOFWorksheet),
		records.NewHeaderRecord(""),
		&records.LabelSSTRecord{CellHeader: records.CellHeader{Row: 0, Column: 0}, SSTIndex: 0},
		&records.NumberRecord{CellHeader: records.CellHeader{Row: 1, Column: 0, XFIndex: 0}, Value: 44927},
		anchor,
		shared,
		record.NewUnknownRecord(0x023E, []byte{0xB6, 0x06, 0, 0, 0, 0, 0, 0, 0, 0}),
		&records.EOFRecord{},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	recs := sampleWorkbook(t)

	var buf bytes.Buffer
	n, err := biff.WriteRecords(&buf, recs)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)

	got, err := biff.ReadRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, len(recs))
	for i := range recs {
		assert.IsType(t, recs[i], got[i], "record %d", i)
	}

	var again bytes.Buffer
	_, err = biff.WriteRecords(&again, got)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), again.Bytes())

	sst := got[5].(*records.SSTRecord)
	v, ok := sst.Get(1)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("long text ", 1200), v)

	fr := got[11].(*records.FormulaRecord)
	sf := got[12].(*records.SharedFormulaRecord)
	tokens, err := sf.FormulaTokens(fr)
	require.NoError(t, err)
	assert.Equal(t, "A2 10 *", formula.New(tokens).String())
}

func TestReadFile(t *testing.T) {
	var buf bytes.Buffer
	_, err := biff.WriteRecords(&buf, sampleWorkbook(t))
	require.NoError(t, err)

	name := filepath.Join(t.TempDir(), "Workbook.bin")
	require.NoError(t, os.WriteFile(name, buf.Bytes(), 0o600))

	recs, err := biff.ReadFile(name)
	require.NoError(t, err)
	assert.Len(t, recs, 15)

	_, err = biff.ReadFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestWriteRecordsReadOnly(t *testing.T) {
	s := record.NewStream([]byte{0xBD, 0x00, 0x0C, 0x00, 0, 0, 1, 0, 0, 0, 0, 0, 0xF0, 0x3F, 1, 0})
	require.NoError(t, s.NextRecord())
	mulrk, err := records.CreateRecord(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = biff.WriteRecords(&buf, []record.Record{mulrk})
	assert.True(t, record.IsUnsupported(err))
	assert.Zero(t, buf.Len())
}

func TestReadRecordsTruncated(t *testing.T) {
	_, err := biff.ReadRecords(bytes.NewReader([]byte{0x09, 0x08, 0x10, 0x00, 0x00, 0x06}))
	assert.True(t, record.IsTruncated(err))
}

func TestConvertDate(t *testing.T) {
	got, err := biff.ConvertDate(44927.25, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 6, 0, 0, 0, time.UTC), got)

	got, err = biff.ConvertDate(1462, true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1908, 1, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = biff.ConvertDate(-1, false)
	assert.Error(t, err)
}

func TestIsDateFormat(t *testing.T) {
	assert.True(t, biff.IsDateFormat(14, ""))
	assert.True(t, biff.IsDateFormat(164, "yyyy-mm-dd"))
	assert.False(t, biff.IsDateFormat(2, ""))
	assert.False(t, biff.IsDateFormat(164, "#,##0.00"))
}
