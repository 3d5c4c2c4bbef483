package records

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/formula"
	"github.com/TsubasaBE/go-biff/record"
)

// ── LABEL ────────────────────────────────────────────────────────────────────

// LabelRecord is a text cell holding its string inline.  Excel writes
// LABELSST instead; LABEL only appears in files from other producers, so it
// is decoded but never written back.
type LabelRecord struct {
	record.DecodeOnly
	CellHeader
	Value    string
	trailing int
}

// ReadLabelRecord decodes a LABEL record.  Bytes after the string are
// skipped and counted; see Trailing.
func ReadLabelRecord(in *record.Stream) (*LabelRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	n, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	flag, err := in.ReadUint8()
	if err != nil {
		return nil, err
	}
	r := &LabelRecord{CellHeader: h}
	if n > 0 {
		if r.Value, err = in.ReadString(int(n), flag&0x01 == 0); err != nil {
			return nil, err
		}
	}
	r.trailing, err = skipRemainder(in)
	return r, err
}

// Trailing returns the number of unexpected bytes that followed the string.
func (r *LabelRecord) Trailing() int { return r.trailing }

func (r *LabelRecord) Tag() uint16 { return biff8.Label }

func (r *LabelRecord) String() string {
	return fmt.Sprintf("[LABEL]\n    .row    = %d\n    .col    = %d\n    .xfindex= %d\n    .value  = %q\n[/LABEL]",
		r.Row, r.Column, r.XFIndex, r.Value)
}

func skipRemainder(in *record.Stream) (int, error) {
	n := in.Remaining()
	if n == 0 {
		return 0, nil
	}
	_, err := in.ReadRemainder()
	return n, err
}

// ── MULRK ────────────────────────────────────────────────────────────────────

// RKCell is one cell of a MULRK record.
type RKCell struct {
	XFIndex int
	RK      uint32
}

// MulRKRecord holds a run of RK number cells in one row.  Higher layers
// expand it into single-cell records before writing, so it is read-only.
type MulRKRecord struct {
	record.DecodeOnly
	Row         int
	FirstColumn int
	Cells       []RKCell
}

// ReadMulRKRecord decodes a MULRK record.
func ReadMulRKRecord(in *record.Stream) (*MulRKRecord, error) {
	row, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	first, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	// Each cell is 6 bytes; the record ends with the last column index.
	body := in.Remaining() - 2
	if body < 0 || body%6 != 0 {
		return nil, &record.MalformedStreamError{Tag: biff8.MulRK, Offset: in.Pos(),
			Reason: fmt.Sprintf("MULRK cell data of %d bytes is not a multiple of 6", body)}
	}
	r := &MulRKRecord{Row: int(row), FirstColumn: int(first), Cells: make([]RKCell, body/6)}
	for i := range r.Cells {
		xf, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		rk, err := in.ReadUint32()
		if err != nil {
			return nil, err
		}
		r.Cells[i] = RKCell{XFIndex: int(xf), RK: rk}
	}
	last, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	if want := r.LastColumn(); int(last) != want {
		return nil, &record.MalformedStreamError{Tag: biff8.MulRK, Offset: in.Pos(),
			Reason: fmt.Sprintf("MULRK last column %d, expected %d", last, want)}
	}
	return r, nil
}

// LastColumn returns the column of the last cell.
func (r *MulRKRecord) LastColumn() int { return r.FirstColumn + len(r.Cells) - 1 }

// NumberRecords expands the run into one NUMBER record per cell.
func (r *MulRKRecord) NumberRecords() []*NumberRecord {
	out := make([]*NumberRecord, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = &NumberRecord{
			CellHeader: CellHeader{Row: r.Row, Column: r.FirstColumn + i, XFIndex: c.XFIndex},
			Value:      DecodeRK(c.RK),
		}
	}
	return out
}

func (r *MulRKRecord) Tag() uint16 { return biff8.MulRK }

func (r *MulRKRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[MULRK]\n    .row     = %d\n    .firstcol= %d\n    .lastcol = %d\n", r.Row, r.FirstColumn, r.LastColumn())
	for i, c := range r.Cells {
		fmt.Fprintf(&sb, "   xf[%d] = %d\n   rk[%d] = %v\n", i, c.XFIndex, i, DecodeRK(c.RK))
	}
	sb.WriteString("[/MULRK]")
	return sb.String()
}

// ── BIFF2-BIFF5 cells ────────────────────────────────────────────────────────

// OldCellHeader is the cell header of BIFF2 to BIFF5 streams.  BIFF2 stores
// three bytes of cell attributes where later versions store an XF index.
type OldCellHeader struct {
	Row    int
	Column int
	// XFIndex is set for BIFF3-BIFF5 cells.
	XFIndex int
	// CellAttrs holds the three BIFF2 attribute bytes, first byte highest.
	CellAttrs uint32
	BIFF2     bool
}

func readOldCellHeader(in record.Input, biff2 bool) (OldCellHeader, error) {
	h := OldCellHeader{BIFF2: biff2}
	row, err := in.ReadUint16()
	if err != nil {
		return h, err
	}
	col, err := in.ReadUint16()
	if err != nil {
		return h, err
	}
	h.Row, h.Column = int(row), int(col)
	if biff2 {
		for range 3 {
			b, err := in.ReadUint8()
			if err != nil {
				return h, err
			}
			h.CellAttrs = h.CellAttrs<<8 | uint32(b)
		}
		return h, nil
	}
	xf, err := in.ReadUint16()
	if err != nil {
		return h, err
	}
	h.XFIndex = int(xf)
	return h, nil
}

// Ref returns the A1-style name of the cell.
func (h *OldCellHeader) Ref() string {
	return fmt.Sprintf("%s%d", formula.ColumnName(h.Column), h.Row+1)
}

func (h *OldCellHeader) appendText(sb *strings.Builder) {
	fmt.Fprintf(sb, "    .row    = %d\n    .col    = %d\n", h.Row, h.Column)
	if h.BIFF2 {
		fmt.Fprintf(sb, "    .cellattrs = 0x%06X\n", h.CellAttrs)
	} else {
		fmt.Fprintf(sb, "    .xfindex   = %d\n", h.XFIndex)
	}
}

// OldLabelRecord is the text cell of BIFF2 (tag 0x0004) and BIFF3-BIFF5
// (tag 0x0204) streams.  The text is stored in the workbook codepage.  It
// is read-only.
type OldLabelRecord struct {
	record.DecodeOnly
	OldCellHeader
	tag      uint16
	raw      []byte
	codepage int
	trailing int
}

// ReadOldLabelRecord decodes an old-style LABEL record; the BIFF2 layout is
// chosen by the record tag.  codepage is used by Value.
func ReadOldLabelRecord(in *record.Stream, codepage int) (*OldLabelRecord, error) {
	biff2 := in.Tag() == biff8.OldLabel
	h, err := readOldCellHeader(in, biff2)
	if err != nil {
		return nil, err
	}
	var n int
	if biff2 {
		v, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		n = int(v)
	} else {
		v, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		n = int(v)
	}
	r := &OldLabelRecord{OldCellHeader: h, tag: in.Tag(), raw: make([]byte, n), codepage: codepage}
	if err := in.ReadFully(r.raw); err != nil {
		return nil, err
	}
	r.trailing, err = skipRemainder(in)
	return r, err
}

// Value decodes the text with the record's codepage.
func (r *OldLabelRecord) Value() (string, error) {
	s, err := record.DecodeCodepage(r.raw, r.codepage)
	if err != nil {
		return "", errors.Wrapf(err, "records: label at row %d col %d", r.Row, r.Column)
	}
	return s, nil
}

// Raw returns a copy of the undecoded text bytes.
func (r *OldLabelRecord) Raw() []byte { return append([]byte(nil), r.raw...) }

// Codepage returns the codepage Value decodes with.
func (r *OldLabelRecord) Codepage() int { return r.codepage }

// SetCodepage changes the codepage Value decodes with.
func (r *OldLabelRecord) SetCodepage(cp int) { r.codepage = cp }

// Trailing returns the number of unexpected bytes that followed the text.
func (r *OldLabelRecord) Trailing() int { return r.trailing }

func (r *OldLabelRecord) Tag() uint16 { return r.tag }

func (r *OldLabelRecord) String() string {
	var sb strings.Builder
	sb.WriteString("[OLD LABEL]\n")
	r.appendText(&sb)
	v, err := r.Value()
	if err != nil {
		fmt.Fprintf(&sb, "    .value     = <%v>\n", err)
	} else {
		fmt.Fprintf(&sb, "    .value     = %q\n", v)
	}
	sb.WriteString("[/OLD LABEL]")
	return sb.String()
}
