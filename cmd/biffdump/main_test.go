package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/records"
	"github.com/TsubasaBE/go-biff/stringtable"
)

func writeWorkbook(t *testing.T, extra ...[]byte) string {
	t.Helper()
	sst := stringtable.New()
	sst.AddString("hello")

	fr := records.NewFormulaRecord(records.CellHeader{Row: 1, Column: 0}, nil)
	fr.SetCachedString()

	data, err := record.MarshalAll([]record.Record{
		records.NewBOFRecord(records.BOFWorkbook),
		&records.FormatRecord{Index: 164, Format: "yyyy-mm-dd"},
		&records.ExtendedFormatRecord{FormatIndex: 164},
		&records.ExtendedFormatRecord{FormatIndex: 2},
		records.NewSSTRecord(sst),
		&records.EOFRecord{},
		records.NewBOFRecord(records.BOFWorksheet),
		&records.NumberRecord{CellHeader: records.CellHeader{Row: 0, Column: 0, XFIndex: 0}, Value: 44927},
		&records.NumberRecord{CellHeader: records.CellHeader{Row: 0, Column: 1, XFIndex: 1}, Value: 1.5},
		&records.LabelSSTRecord{CellHeader: records.CellHeader{Row: 0, Column: 2}, SSTIndex: 0},
		fr,
		&records.StringRecord{Value: "cached"},
		&records.EOFRecord{},
	})
	require.NoError(t, err)
	for _, b := range extra {
		data = append(data, b...)
	}

	name := filepath.Join(t.TempDir(), "Workbook.bin")
	require.NoError(t, os.WriteFile(name, data, 0o600))
	return name
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDumpValues(t *testing.T) {
	name := writeWorkbook(t)
	out, err := run(t, "dump", name, "--values", "--no-offsets")
	require.NoError(t, err)

	assert.Contains(t, out, "A1=2023-01-01")
	assert.Contains(t, out, "B1=1.50")
	assert.Contains(t, out, "C1=hello")
	assert.Contains(t, out, "A2=<string follows>")
	assert.Contains(t, out, "A2=cached")
	assert.NotContains(t, out, "00000000")
}

func TestDumpOffsets(t *testing.T) {
	name := writeWorkbook(t)
	out, err := run(t, "dump", name)
	require.NoError(t, err)
	assert.Contains(t, out, "00000000  BOF")
	assert.Contains(t, out, "00000014  FORMAT")
}

func TestDumpReadOnlyRecord(t *testing.T) {
	mulrk := []byte{0xBD, 0x00, 0x0C, 0x00, 3, 0, 0, 0, 1, 0, 0, 0, 0xF0, 0x3F, 0, 0}
	name := writeWorkbook(t, mulrk)

	out, err := run(t, "dump", name, "--values")
	require.NoError(t, err)
	assert.Contains(t, out, "MULRK")
	assert.Contains(t, out, "read-only")
	assert.Contains(t, out, "A4=1.00")

	_, err = run(t, "roundtrip", name)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MULRK")
}

func TestCount(t *testing.T) {
	out, err := run(t, "count", writeWorkbook(t))
	require.NoError(t, err)
	assert.Regexp(t, `NUMBER\s+0x0203\s+2`, out)
	assert.Regexp(t, `total\s+13`, out)
}

func TestRoundTrip(t *testing.T) {
	out, err := run(t, "roundtrip", writeWorkbook(t))
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 13 records")
}

func TestRoundTripDetectsDifference(t *testing.T) {
	// A BIFF5 BOF is re-encoded in the longer BIFF8 layout.
	bof5 := []byte{0x09, 0x08, 0x08, 0x00, 0x00, 0x05, 0x05, 0x00, 0, 0, 0, 0}
	eof := []byte{0x0A, 0x00, 0x00, 0x00}
	name := filepath.Join(t.TempDir(), "old.bin")
	require.NoError(t, os.WriteFile(name, append(bof5, eof...), 0o600))

	_, err := run(t, "roundtrip", name)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differs at offset 2 (BOF)")
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "count", filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)

	_, err = run(t, "dump")
	assert.Error(t, err)
}
