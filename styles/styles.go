// Package styles resolves the number format behind every XF index of a
// workbook: the FORMAT records give format strings to indexes and the XF
// records map cell format indexes to them.  Fonts, borders and fills are not
// interpreted.
package styles

import (
	"github.com/TsubasaBE/go-biff/numfmt"
	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/records"
)

// XFStyle is the number format of one XF record.
type XFStyle struct {
	// NumFmtID is the FORMAT index stored in the XF.  Indexes below
	// numfmt.FirstUserIndex are built in unless a FORMAT record redefines
	// them.
	NumFmtID int
	// FormatStr is the string of the matching FORMAT record, or empty when
	// the index is built in.
	FormatStr string
}

// StyleTable maps an XF index, as stored in cell records, to its format.
type StyleTable []XFStyle

// Build collects the FORMAT and XF records of recs, which are normally the
// records of the workbook globals substream.  Only the first substream is
// scanned: the table ends at the first EOF record.
func Build(recs []record.Record) StyleTable {
	formats := make(map[int]string)
	var xfs []*records.ExtendedFormatRecord
	for _, r := range recs {
		switch v := r.(type) {
		case *records.FormatRecord:
			formats[v.Index] = v.Format
		case *records.ExtendedFormatRecord:
			xfs = append(xfs, v)
		case *records.EOFRecord:
			return build(xfs, formats)
		}
	}
	return build(xfs, formats)
}

func build(xfs []*records.ExtendedFormatRecord, formats map[int]string) StyleTable {
	st := make(StyleTable, len(xfs))
	for i, xf := range xfs {
		id := int(xf.FormatIndex)
		st[i] = XFStyle{NumFmtID: id, FormatStr: formats[id]}
	}
	return st
}

// IsDate reports whether the XF at index s has a date or time format.  It
// is false when s is out of range.
func (st StyleTable) IsDate(s int) bool {
	if s < 0 || s >= len(st) {
		return false
	}
	return numfmt.IsDateFormat(st[s].NumFmtID, st[s].FormatStr)
}

// FmtStr returns the effective format string of XF s: the FORMAT record's
// string, else the built-in one, else "General".
func (st StyleTable) FmtStr(s int) string {
	if s < 0 || s >= len(st) {
		return "General"
	}
	return numfmt.Resolve(st[s].NumFmtID, st[s].FormatStr)
}

// FormatCell renders v the way the XF at index s displays it.  Values with
// an out-of-range index are rendered with the General format.
func (st StyleTable) FormatCell(v any, s int, date1904 bool) string {
	if s < 0 || s >= len(st) {
		return numfmt.FormatValue(v, 0, "", date1904)
	}
	return numfmt.FormatValue(v, st[s].NumFmtID, st[s].FormatStr, date1904)
}
