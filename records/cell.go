// Package records defines the concrete BIFF8 record types on top of the
// record framework: the cell value family, the shared-range family, a few
// workbook-global records and the tag → decoder registry.
package records

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/formula"
	"github.com/TsubasaBE/go-biff/record"
)

// cellHeaderSize is the encoded size of CellHeader.
const cellHeaderSize = 6

// CellHeader is the row, column and XF (format) index every cell value
// record starts with.  Row and Column are 0-based.
type CellHeader struct {
	Row     int
	Column  int
	XFIndex int
}

// Header returns h; concrete cell records get it by embedding CellHeader.
func (h *CellHeader) Header() *CellHeader { return h }

func readCellHeader(in record.Input) (CellHeader, error) {
	var h CellHeader
	row, err := in.ReadUint16()
	if err != nil {
		return h, err
	}
	col, err := in.ReadUint16()
	if err != nil {
		return h, err
	}
	xf, err := in.ReadUint16()
	if err != nil {
		return h, err
	}
	return CellHeader{Row: int(row), Column: int(col), XFIndex: int(xf)}, nil
}

func (h *CellHeader) serialize(out record.Output) {
	out.WriteUint16(uint16(h.Row))
	out.WriteUint16(uint16(h.Column))
	out.WriteUint16(uint16(h.XFIndex))
}

// Ref returns the A1-style name of the cell.
func (h *CellHeader) Ref() string {
	return fmt.Sprintf("%s%d", formula.ColumnName(h.Column), h.Row+1)
}

// CellValueRecord is implemented by every record holding the value of one
// cell.
type CellValueRecord interface {
	record.Record
	Header() *CellHeader
}

// cellValue is the per-type part of a cell record: the value payload after
// the 6-byte header.
type cellValue interface {
	CellValueRecord
	valueDataSize() int
	serializeValue(out record.Output)
	appendValueText(sb *strings.Builder)
}

func cellDataSize(v cellValue) int {
	return cellHeaderSize + v.valueDataSize()
}

func serializeCell(v cellValue, out record.Output) error {
	v.Header().serialize(out)
	v.serializeValue(out)
	return nil
}

func cellString(v cellValue) string {
	h := v.Header()
	name := biff8.Name(v.Tag())
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n", name)
	fmt.Fprintf(&sb, "    .row    = %d\n", h.Row)
	fmt.Fprintf(&sb, "    .col    = %d\n", h.Column)
	fmt.Fprintf(&sb, "    .xfindex= %d\n", h.XFIndex)
	v.appendValueText(&sb)
	fmt.Fprintf(&sb, "[/%s]", name)
	return sb.String()
}

// CompareCells orders cell records by row, then column.  The value and XF
// index take no part in the comparison.
func CompareCells(a, b CellValueRecord) int {
	ha, hb := a.Header(), b.Header()
	if c := cmp.Compare(ha.Row, hb.Row); c != 0 {
		return c
	}
	return cmp.Compare(ha.Column, hb.Column)
}

// SameCell reports whether a and b address the same cell.
func SameCell(a, b CellValueRecord) bool {
	return CompareCells(a, b) == 0
}

// SortCells sorts cells into row-major order.  Records addressing the same
// cell keep their relative order.
func SortCells[S ~[]E, E CellValueRecord](cells S) {
	slices.SortStableFunc(cells, func(a, b E) int { return CompareCells(a, b) })
}

// ── BLANK ────────────────────────────────────────────────────────────────────

// BlankRecord is an empty cell that carries only formatting.
type BlankRecord struct {
	CellHeader
}

// ReadBlankRecord decodes a BLANK record.
func ReadBlankRecord(in *record.Stream) (*BlankRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	return &BlankRecord{CellHeader: h}, nil
}

func (r *BlankRecord) Tag() uint16                           { return biff8.Blank }
func (r *BlankRecord) DataSize() int                         { return cellDataSize(r) }
func (r *BlankRecord) SerializeData(out record.Output) error { return serializeCell(r, out) }
func (r *BlankRecord) String() string                        { return cellString(r) }

func (r *BlankRecord) valueDataSize() int               { return 0 }
func (r *BlankRecord) serializeValue(record.Output)     {}
func (r *BlankRecord) appendValueText(*strings.Builder) {}

// ── NUMBER ───────────────────────────────────────────────────────────────────

// NumberRecord is a cell holding a floating point value.
type NumberRecord struct {
	CellHeader
	Value float64
}

// ReadNumberRecord decodes a NUMBER record.
func ReadNumberRecord(in *record.Stream) (*NumberRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	v, err := in.ReadDouble()
	if err != nil {
		return nil, err
	}
	return &NumberRecord{CellHeader: h, Value: v}, nil
}

func (r *NumberRecord) Tag() uint16                           { return biff8.Number }
func (r *NumberRecord) DataSize() int                         { return cellDataSize(r) }
func (r *NumberRecord) SerializeData(out record.Output) error { return serializeCell(r, out) }
func (r *NumberRecord) String() string                        { return cellString(r) }

func (r *NumberRecord) valueDataSize() int { return 8 }
func (r *NumberRecord) serializeValue(out record.Output) {
	out.WriteDouble(r.Value)
}
func (r *NumberRecord) appendValueText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .value  = %v\n", r.Value)
}

// ── BOOLERR ──────────────────────────────────────────────────────────────────

// BoolErrRecord is a cell holding a boolean or an error code.
type BoolErrRecord struct {
	CellHeader
	value   uint8
	isError bool
}

// NewBoolRecord returns a boolean cell.
func NewBoolRecord(h CellHeader, v bool) *BoolErrRecord {
	r := &BoolErrRecord{CellHeader: h}
	r.SetBool(v)
	return r
}

// NewErrorRecord returns an error cell holding code (see formula.ErrorText).
func NewErrorRecord(h CellHeader, code uint8) *BoolErrRecord {
	r := &BoolErrRecord{CellHeader: h}
	r.SetError(code)
	return r
}

// ReadBoolErrRecord decodes a BOOLERR record.  Some writers store the value
// as a 16-bit word; that layout is accepted too.
func ReadBoolErrRecord(in *record.Stream) (*BoolErrRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	r := &BoolErrRecord{CellHeader: h}
	switch in.Remaining() {
	case 2:
		if r.value, err = in.ReadUint8(); err != nil {
			return nil, err
		}
	case 3:
		v, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		r.value = uint8(v)
	default:
		return nil, &record.MalformedStreamError{Tag: biff8.BoolErr, Offset: in.Pos(),
			Reason: fmt.Sprintf("unexpected BOOLERR value size %d", in.Remaining())}
	}
	flag, err := in.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch flag {
	case 0:
	case 1:
		r.isError = true
	default:
		return nil, &record.MalformedStreamError{Tag: biff8.BoolErr, Offset: in.Pos(),
			Reason: fmt.Sprintf("unexpected BOOLERR flag %d", flag)}
	}
	return r, nil
}

// IsError reports whether the cell holds an error code.
func (r *BoolErrRecord) IsError() bool { return r.isError }

// IsBool reports whether the cell holds a boolean.
func (r *BoolErrRecord) IsBool() bool { return !r.isError }

// BoolValue returns the boolean value; it is false for error cells.
func (r *BoolErrRecord) BoolValue() bool { return !r.isError && r.value != 0 }

// ErrorValue returns the error code; it is 0 for boolean cells.
func (r *BoolErrRecord) ErrorValue() uint8 {
	if !r.isError {
		return 0
	}
	return r.value
}

// SetBool makes the cell a boolean cell.
func (r *BoolErrRecord) SetBool(v bool) {
	r.isError = false
	r.value = 0
	if v {
		r.value = 1
	}
}

// SetError makes the cell an error cell.
func (r *BoolErrRecord) SetError(code uint8) {
	r.isError = true
	r.value = code
}

func (r *BoolErrRecord) Tag() uint16                           { return biff8.BoolErr }
func (r *BoolErrRecord) DataSize() int                         { return cellDataSize(r) }
func (r *BoolErrRecord) SerializeData(out record.Output) error { return serializeCell(r, out) }
func (r *BoolErrRecord) String() string                        { return cellString(r) }

func (r *BoolErrRecord) valueDataSize() int { return 2 }
func (r *BoolErrRecord) serializeValue(out record.Output) {
	out.WriteUint8(r.value)
	if r.isError {
		out.WriteUint8(1)
	} else {
		out.WriteUint8(0)
	}
}
func (r *BoolErrRecord) appendValueText(sb *strings.Builder) {
	if r.isError {
		fmt.Fprintf(sb, "    .errCode= %s\n", formula.ErrorText(r.value))
		return
	}
	fmt.Fprintf(sb, "    .boolVal= %v\n", r.BoolValue())
}

// ── LABELSST ─────────────────────────────────────────────────────────────────

// LabelSSTRecord is a text cell referring to an entry of the shared string
// table.
type LabelSSTRecord struct {
	CellHeader
	SSTIndex int
}

// ReadLabelSSTRecord decodes a LABELSST record.
func ReadLabelSSTRecord(in *record.Stream) (*LabelSSTRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	idx, err := in.ReadUint32()
	if err != nil {
		return nil, err
	}
	return &LabelSSTRecord{CellHeader: h, SSTIndex: int(idx)}, nil
}

func (r *LabelSSTRecord) Tag() uint16                           { return biff8.LabelSST }
func (r *LabelSSTRecord) DataSize() int                         { return cellDataSize(r) }
func (r *LabelSSTRecord) SerializeData(out record.Output) error { return serializeCell(r, out) }
func (r *LabelSSTRecord) String() string                        { return cellString(r) }

func (r *LabelSSTRecord) valueDataSize() int { return 4 }
func (r *LabelSSTRecord) serializeValue(out record.Output) {
	out.WriteUint32(uint32(r.SSTIndex))
}
func (r *LabelSSTRecord) appendValueText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .sstIdx = %d\n", r.SSTIndex)
}

// ── RK ───────────────────────────────────────────────────────────────────────

// RKRecord is a number cell stored in the compact 30-bit RK encoding.
type RKRecord struct {
	CellHeader
	RK uint32
}

// NewRKRecord returns an RK cell for v, or false when v has no exact RK
// encoding.
func NewRKRecord(h CellHeader, v float64) (*RKRecord, bool) {
	rk, ok := EncodeRK(v)
	if !ok {
		return nil, false
	}
	return &RKRecord{CellHeader: h, RK: rk}, true
}

// ReadRKRecord decodes an RK record.
func ReadRKRecord(in *record.Stream) (*RKRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	rk, err := in.ReadUint32()
	if err != nil {
		return nil, err
	}
	return &RKRecord{CellHeader: h, RK: rk}, nil
}

// Value returns the decoded number.
func (r *RKRecord) Value() float64 { return DecodeRK(r.RK) }

func (r *RKRecord) Tag() uint16                           { return biff8.RK }
func (r *RKRecord) DataSize() int                         { return cellDataSize(r) }
func (r *RKRecord) SerializeData(out record.Output) error { return serializeCell(r, out) }
func (r *RKRecord) String() string                        { return cellString(r) }

func (r *RKRecord) valueDataSize() int { return 4 }
func (r *RKRecord) serializeValue(out record.Output) {
	out.WriteUint32(r.RK)
}
func (r *RKRecord) appendValueText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .rk     = 0x%08X (%v)\n", r.RK, r.Value())
}
