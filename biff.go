// Package biff reads and writes the record stream of legacy Excel (.xls)
// workbooks in the BIFF8 format.  No cgo is required.
//
// The OLE2 compound-file container is not handled here: callers pass the
// bytes of the "Workbook" (or "Book") stream already extracted from it.
//
// # Quick start
//
//	recs, err := biff.ReadFile("Workbook.bin")
//	if err != nil { ... }
//
//	for _, r := range recs {
//	    if n, ok := r.(*records.NumberRecord); ok {
//	        fmt.Printf("%s = %v\n", n.Ref(), n.Value)
//	    }
//	}
//
// Records the library has no decoder for come back as
// [record.UnknownRecord]s holding their raw payload, so
//
//	var buf bytes.Buffer
//	_, err = biff.WriteRecords(&buf, recs)
//
// writes a stream equal to the input byte for byte, unless a record was
// modified or the input used a shorter legacy layout (BIFF5 BOF records are
// written in the 16-byte BIFF8 form).  Read-only records such as
// [records.MulRKRecord] must be converted before writing.
//
// # Dates
//
// Numbers formatted as dates are serial day counts.  [ConvertDate] turns one
// into a [time.Time]; pass the value of the workbook's DATEMODE record
// ([records.DateWindow1904Record]) as date1904.  [IsDateFormat] tells
// whether a FORMAT index and string describe a date.
package biff

import (
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/TsubasaBE/go-biff/numfmt"
	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/records"
)

// Version is the current version of the go-biff library.
const Version = "0.3.0"

// ReadRecords decodes every record of the workbook stream r.
func ReadRecords(r io.Reader, opts ...records.Option) ([]record.Record, error) {
	s, err := record.NewStreamReader(r)
	if err != nil {
		return nil, err
	}
	return records.NewDecoder(s, opts...).ReadAll()
}

// ReadFile decodes the workbook stream stored in the named file.
func ReadFile(name string, opts ...records.Option) ([]record.Record, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "biff: open %q", name)
	}
	defer f.Close()
	return ReadRecords(f, opts...)
}

// WriteRecords encodes recs back to back and writes them to w.  It returns
// the number of bytes written.
func WriteRecords(w io.Writer, recs []record.Record) (int, error) {
	b, err := record.MarshalAll(recs)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	if err != nil {
		return n, errors.Wrap(err, "biff: write records")
	}
	return n, nil
}

// ConvertDate converts a date serial to a [time.Time] in UTC.
//
// In the 1900 system Excel keeps the Lotus 1-2-3 bug of a 29 February 1900:
// serial 60 is that phantom day and later serials are shifted back by one.
// In the 1904 system serial 0 is 1904-01-01.  Fractions of a day are
// rounded to whole seconds.
func ConvertDate(serial float64, date1904 bool) (time.Time, error) {
	t, err := numfmt.SerialToTime(serial, date1904)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "biff: ConvertDate")
	}
	return t, nil
}

// IsDateFormat reports whether the number format index, with the format
// string of its FORMAT record when there is one, renders dates or times.
func IsDateFormat(index int, format string) bool {
	return numfmt.IsDateFormat(index, format)
}
