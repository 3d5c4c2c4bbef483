package records

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/formula"
	"github.com/TsubasaBE/go-biff/record"
)

// CellRangeAddress8Bit is an inclusive cell rectangle with 16-bit rows and
// 8-bit columns.
type CellRangeAddress8Bit struct {
	FirstRow    int
	LastRow     int
	FirstColumn int
	LastColumn  int
}

// rangeSize is the encoded size of CellRangeAddress8Bit.
const rangeSize = 6

// NewCellRangeAddress8Bit returns the range after checking that it is not
// inverted and fits the field widths.
func NewCellRangeAddress8Bit(firstRow, lastRow, firstCol, lastCol int) (CellRangeAddress8Bit, error) {
	r := CellRangeAddress8Bit{FirstRow: firstRow, LastRow: lastRow, FirstColumn: firstCol, LastColumn: lastCol}
	return r, r.Validate()
}

// Validate checks firstRow <= lastRow and firstColumn <= lastColumn, and
// that every bound fits its field.
func (a CellRangeAddress8Bit) Validate() error {
	switch {
	case a.FirstRow < 0 || a.LastRow > 0xFFFF || a.FirstColumn < 0 || a.LastColumn > 0xFF:
		return errors.Newf("records: range %s out of bounds", a)
	case a.FirstRow > a.LastRow:
		return errors.Newf("records: range %s has first row after last row", a)
	case a.FirstColumn > a.LastColumn:
		return errors.Newf("records: range %s has first column after last column", a)
	}
	return nil
}

func readCellRangeAddress8Bit(in record.Input) (CellRangeAddress8Bit, error) {
	var a CellRangeAddress8Bit
	r0, err := in.ReadUint16()
	if err != nil {
		return a, err
	}
	r1, err := in.ReadUint16()
	if err != nil {
		return a, err
	}
	c0, err := in.ReadUint8()
	if err != nil {
		return a, err
	}
	c1, err := in.ReadUint8()
	if err != nil {
		return a, err
	}
	return CellRangeAddress8Bit{FirstRow: int(r0), LastRow: int(r1), FirstColumn: int(c0), LastColumn: int(c1)}, nil
}

func (a CellRangeAddress8Bit) serialize(out record.Output) {
	out.WriteUint16(uint16(a.FirstRow))
	out.WriteUint16(uint16(a.LastRow))
	out.WriteUint8(uint8(a.FirstColumn))
	out.WriteUint8(uint8(a.LastColumn))
}

// IsInRange reports whether the cell (row, col) lies inside the range.
func (a CellRangeAddress8Bit) IsInRange(row, col int) bool {
	return a.FirstRow <= row && row <= a.LastRow && a.FirstColumn <= col && col <= a.LastColumn
}

// IsFirstCell reports whether (row, col) is the top-left anchor cell.
func (a CellRangeAddress8Bit) IsFirstCell(row, col int) bool {
	return row == a.FirstRow && col == a.FirstColumn
}

func (a CellRangeAddress8Bit) String() string {
	return fmt.Sprintf("%s%d:%s%d",
		formula.ColumnName(a.FirstColumn), a.FirstRow+1, formula.ColumnName(a.LastColumn), a.LastRow+1)
}

// SharedValueHeader is the range header of records whose payload applies to
// every cell of a rectangle: shared formulas, array formulas and data
// tables.  The payload is stored once, for the anchor cell.
type SharedValueHeader struct {
	CellRangeAddress8Bit
}

// Range returns the covered range.
func (h *SharedValueHeader) Range() CellRangeAddress8Bit { return h.CellRangeAddress8Bit }

func readSharedValueHeader(in *record.Stream) (SharedValueHeader, error) {
	a, err := readCellRangeAddress8Bit(in)
	if err != nil {
		return SharedValueHeader{}, err
	}
	if err := a.Validate(); err != nil {
		return SharedValueHeader{}, &record.MalformedStreamError{Tag: in.Tag(), Offset: in.Offset(), Reason: err.Error()}
	}
	return SharedValueHeader{CellRangeAddress8Bit: a}, nil
}

// SharedValueRecord is implemented by the shared-range records.
type SharedValueRecord interface {
	record.Record
	Range() CellRangeAddress8Bit
	IsInRange(row, col int) bool
	IsFirstCell(row, col int) bool
}

// sharedValue is the per-type part of a shared-range record.
type sharedValue interface {
	SharedValueRecord
	extraDataSize() int
	serializeExtra(out record.Output)
	appendExtraText(sb *strings.Builder)
}

func sharedDataSize(v sharedValue) int { return rangeSize + v.extraDataSize() }

func serializeShared(v sharedValue, out record.Output) error {
	if err := v.Range().Validate(); err != nil {
		return err
	}
	v.Range().serialize(out)
	v.serializeExtra(out)
	return nil
}

func sharedString(v sharedValue) string {
	name := biff8.Name(v.Tag())
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n    .range  = %s\n", name, v.Range())
	v.appendExtraText(&sb)
	fmt.Fprintf(&sb, "[/%s]", name)
	return sb.String()
}

// FindSharedValue returns the record among recs whose anchor is (row, col).
func FindSharedValue[S ~[]E, E SharedValueRecord](recs S, row, col int) (E, bool) {
	for _, r := range recs {
		if r.IsFirstCell(row, col) {
			return r, true
		}
	}
	var zero E
	return zero, false
}

// ── SHRFMLA ──────────────────────────────────────────────────────────────────

// SharedFormulaRecord holds the expression shared by a range of formula
// cells.  Its references are RefN/AreaN tokens relative to the cell using
// the formula.
type SharedFormulaRecord struct {
	SharedValueHeader
	// Reserved is the byte pair after the range (unused, use count).
	Reserved uint16
	expr     *formula.Formula
}

// NewSharedFormulaRecord returns a shared formula over rng.
func NewSharedFormulaRecord(rng CellRangeAddress8Bit, tokens []formula.Token) (*SharedFormulaRecord, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &SharedFormulaRecord{SharedValueHeader: SharedValueHeader{rng}, expr: formula.New(tokens)}, nil
}

// ReadSharedFormulaRecord decodes a SHRFMLA record.
func ReadSharedFormulaRecord(in *record.Stream) (*SharedFormulaRecord, error) {
	h, err := readSharedValueHeader(in)
	if err != nil {
		return nil, err
	}
	r := &SharedFormulaRecord{SharedValueHeader: h}
	if r.Reserved, err = in.ReadUint16(); err != nil {
		return nil, err
	}
	n, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	if r.expr, err = formula.Read(int(n), in, in.Remaining()); err != nil {
		return nil, err
	}
	return r, nil
}

// Formula returns a copy of the anchor expression.
func (r *SharedFormulaRecord) Formula() *formula.Formula { return r.expr.Copy() }

// FormulaTokens returns the expression as it applies to the cell of fr:
// relative references are translated from the anchor to that cell.  fr
// must lie inside the shared range.
func (r *SharedFormulaRecord) FormulaTokens(fr *FormulaRecord) ([]formula.Token, error) {
	if !r.IsInRange(fr.Row, fr.Column) {
		return nil, errors.Newf("records: cell %s is outside shared formula range %s", fr.Ref(), r.Range())
	}
	tokens, err := r.expr.Tokens()
	if err != nil {
		return nil, err
	}
	return formula.ConvertSharedFormula(tokens, fr.Row, fr.Column), nil
}

func (r *SharedFormulaRecord) Tag() uint16                           { return biff8.SharedFormula }
func (r *SharedFormulaRecord) DataSize() int                         { return sharedDataSize(r) }
func (r *SharedFormulaRecord) SerializeData(out record.Output) error { return serializeShared(r, out) }
func (r *SharedFormulaRecord) String() string                        { return sharedString(r) }

func (r *SharedFormulaRecord) extraDataSize() int { return 2 + r.expr.EncodedSize() }
func (r *SharedFormulaRecord) serializeExtra(out record.Output) {
	out.WriteUint16(r.Reserved)
	r.expr.Serialize(out)
}
func (r *SharedFormulaRecord) appendExtraText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .reserved= 0x%04X\n    .formula = %s\n", r.Reserved, r.expr)
}

// ── ARRAY ────────────────────────────────────────────────────────────────────

// Array formula option flags.
const (
	ArrayAlwaysCalc uint16 = 0x0001
	ArrayCalcOnLoad uint16 = 0x0002
)

// ArrayRecord holds an array formula entered over a range.
type ArrayRecord struct {
	SharedValueHeader
	Options uint16
	// Reserved is the unused 32-bit field, preserved as read.
	Reserved uint32
	expr     *formula.Formula
}

// NewArrayRecord returns an array formula over rng.
func NewArrayRecord(rng CellRangeAddress8Bit, tokens []formula.Token) (*ArrayRecord, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &ArrayRecord{SharedValueHeader: SharedValueHeader{rng}, expr: formula.New(tokens)}, nil
}

// ReadArrayRecord decodes an ARRAY record.
func ReadArrayRecord(in *record.Stream) (*ArrayRecord, error) {
	h, err := readSharedValueHeader(in)
	if err != nil {
		return nil, err
	}
	r := &ArrayRecord{SharedValueHeader: h}
	if r.Options, err = in.ReadUint16(); err != nil {
		return nil, err
	}
	if r.Reserved, err = in.ReadUint32(); err != nil {
		return nil, err
	}
	n, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	if r.expr, err = formula.Read(int(n), in, in.Remaining()); err != nil {
		return nil, err
	}
	return r, nil
}

// Formula returns a copy of the array expression.
func (r *ArrayRecord) Formula() *formula.Formula { return r.expr.Copy() }

func (r *ArrayRecord) Tag() uint16                           { return biff8.Array }
func (r *ArrayRecord) DataSize() int                         { return sharedDataSize(r) }
func (r *ArrayRecord) SerializeData(out record.Output) error { return serializeShared(r, out) }
func (r *ArrayRecord) String() string                        { return sharedString(r) }

func (r *ArrayRecord) extraDataSize() int { return 2 + 4 + r.expr.EncodedSize() }
func (r *ArrayRecord) serializeExtra(out record.Output) {
	out.WriteUint16(r.Options)
	out.WriteUint32(r.Reserved)
	r.expr.Serialize(out)
}
func (r *ArrayRecord) appendExtraText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .options = 0x%04X\n    .formula = %s\n", r.Options, r.expr)
}

// ── TABLE ────────────────────────────────────────────────────────────────────

// Data table option flags.
const (
	TableAlwaysCalc uint8 = 0x01
	TableRowInput   uint8 = 0x04
	TableTwoInput   uint8 = 0x08
	TableDeletedRow uint8 = 0x10
	TableDeletedCol uint8 = 0x20
)

// TableRecord describes a what-if data table: the cells holding its row and
// column input values.
type TableRecord struct {
	SharedValueHeader
	Flags       uint8
	Reserved    uint8
	RowInputRow int
	ColInputRow int
	RowInputCol int
	ColInputCol int
}

// ReadTableRecord decodes a TABLE record.
func ReadTableRecord(in *record.Stream) (*TableRecord, error) {
	h, err := readSharedValueHeader(in)
	if err != nil {
		return nil, err
	}
	r := &TableRecord{SharedValueHeader: h}
	if r.Flags, err = in.ReadUint8(); err != nil {
		return nil, err
	}
	if r.Reserved, err = in.ReadUint8(); err != nil {
		return nil, err
	}
	var refs [4]uint16
	for i := range refs {
		if refs[i], err = in.ReadUint16(); err != nil {
			return nil, err
		}
	}
	r.RowInputRow, r.ColInputRow, r.RowInputCol, r.ColInputCol = int(refs[0]), int(refs[1]), int(refs[2]), int(refs[3])
	return r, nil
}

func (r *TableRecord) Tag() uint16                           { return biff8.Table }
func (r *TableRecord) DataSize() int                         { return sharedDataSize(r) }
func (r *TableRecord) SerializeData(out record.Output) error { return serializeShared(r, out) }
func (r *TableRecord) String() string                        { return sharedString(r) }

func (r *TableRecord) extraDataSize() int { return 2 + 8 }
func (r *TableRecord) serializeExtra(out record.Output) {
	out.WriteUint8(r.Flags)
	out.WriteUint8(r.Reserved)
	out.WriteUint16(uint16(r.RowInputRow))
	out.WriteUint16(uint16(r.ColInputRow))
	out.WriteUint16(uint16(r.RowInputCol))
	out.WriteUint16(uint16(r.ColInputCol))
}
func (r *TableRecord) appendExtraText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .flags   = 0x%02X\n    .rowInput= (%d,%d)\n    .colInput= (%d,%d)\n",
		r.Flags, r.RowInputRow, r.RowInputCol, r.ColInputRow, r.ColInputCol)
}
