package records

import (
	"maps"
	"slices"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/record"
)

// constructor decodes the current record of a stream.
type constructor func(in *record.Stream) (record.Record, error)

func adapt[T record.Record](read func(*record.Stream) (T, error)) constructor {
	return func(in *record.Stream) (record.Record, error) {
		r, err := read(in)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// registry maps every decodable BIFF8 tag to its decoder.  It is the only
// place a new record type has to be added.
var registry = map[uint16]constructor{
	biff8.BOF:            adapt(ReadBOFRecord),
	biff8.OldBOF2:        adapt(ReadBOFRecord),
	biff8.OldBOF3:        adapt(ReadBOFRecord),
	biff8.OldBOF4:        adapt(ReadBOFRecord),
	biff8.EOF:            adapt(ReadEOFRecord),
	biff8.Continue:       adapt(record.ReadContinueRecord),
	biff8.Codepage:       adapt(ReadCodepageRecord),
	biff8.Backup:         adapt(ReadBackupRecord),
	biff8.DateWindow1904: adapt(ReadDateWindow1904Record),
	biff8.ExtendedFormat: adapt(ReadExtendedFormatRecord),
	biff8.Format:         adapt(ReadFormatRecord),
	biff8.Header:         adapt(ReadHeaderRecord),
	biff8.Footer:         adapt(ReadFooterRecord),
	biff8.SST:            adapt(ReadSSTRecord),
	biff8.String:         adapt(ReadStringRecord),

	biff8.Blank:    adapt(ReadBlankRecord),
	biff8.Number:   adapt(ReadNumberRecord),
	biff8.BoolErr:  adapt(ReadBoolErrRecord),
	biff8.LabelSST: adapt(ReadLabelSSTRecord),
	biff8.RK:       adapt(ReadRKRecord),
	biff8.Formula:  adapt(ReadFormulaRecord),
	biff8.Label:    adapt(ReadLabelRecord),
	biff8.MulRK:    adapt(ReadMulRKRecord),
	biff8.OldLabel: adapt(readOldLabelDefault),

	biff8.SharedFormula: adapt(ReadSharedFormulaRecord),
	biff8.Array:         adapt(ReadArrayRecord),
	biff8.Table:         adapt(ReadTableRecord),
}

func readOldLabelDefault(in *record.Stream) (*OldLabelRecord, error) {
	return ReadOldLabelRecord(in, record.DefaultCodepage)
}

// CreateRecord decodes the current record of in with the decoder registered
// for its tag.  Tags without one yield a [record.UnknownRecord] holding the
// raw payload.
func CreateRecord(in *record.Stream) (record.Record, error) {
	if c, ok := registry[in.Tag()]; ok {
		return c(in)
	}
	return record.ReadUnknownRecord(in)
}

// IsRegistered reports whether tag has a dedicated decoder.
func IsRegistered(tag uint16) bool {
	_, ok := registry[tag]
	return ok
}

// RegisteredTags returns every tag with a dedicated decoder, ascending.
func RegisteredTags() []uint16 {
	return slices.Sorted(maps.Keys(registry))
}
