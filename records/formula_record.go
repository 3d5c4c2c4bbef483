package records

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/formula"
	"github.com/TsubasaBE/go-biff/record"
)

// CachedResultType is the type of a formula cell's last calculated result.
type CachedResultType int

const (
	CachedNumber CachedResultType = iota
	CachedString
	CachedBoolean
	CachedError
	CachedEmpty
)

func (t CachedResultType) String() string {
	switch t {
	case CachedNumber:
		return "number"
	case CachedString:
		return "string"
	case CachedBoolean:
		return "boolean"
	case CachedError:
		return "error"
	case CachedEmpty:
		return "empty"
	}
	return fmt.Sprintf("CachedResultType(%d)", int(t))
}

// Special cached value layout: byte 0 is the type, byte 2 the boolean or
// error value and bytes 6-7 are 0xFFFF, which no finite double produces.
const (
	specialString = 0
	specialBool   = 1
	specialError  = 2
	specialEmpty  = 3
)

// Formula option flags.
const (
	FormulaAlwaysCalc uint16 = 0x0001
	FormulaCalcOnLoad uint16 = 0x0002
	FormulaShared     uint16 = 0x0008
)

// FormulaRecord is a formula cell: the cached result of the last
// calculation, option flags and the parsed expression.  Cells that belong
// to a shared formula hold a single Exp token pointing at the anchor; the
// expression itself lives in the following SHRFMLA record.
type FormulaRecord struct {
	CellHeader
	cached  [8]byte
	Options uint16
	// Reserved is the unused 32-bit field (chn), preserved as read.
	Reserved uint32
	expr     *formula.Formula
}

// NewFormulaRecord returns a formula cell with a cached number of 0.
func NewFormulaRecord(h CellHeader, tokens []formula.Token) *FormulaRecord {
	return &FormulaRecord{CellHeader: h, expr: formula.New(tokens)}
}

// ReadFormulaRecord decodes a FORMULA record.  The expression occupies the
// rest of the record, including any array-constant data after the tokens.
func ReadFormulaRecord(in *record.Stream) (*FormulaRecord, error) {
	h, err := readCellHeader(in)
	if err != nil {
		return nil, err
	}
	r := &FormulaRecord{CellHeader: h}
	if err := in.ReadFully(r.cached[:]); err != nil {
		return nil, err
	}
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

func (r *FormulaRecord) special() bool {
	return r.cached[6] == 0xFF && r.cached[7] == 0xFF
}

// CachedResultType returns the type of the cached result.
func (r *FormulaRecord) CachedResultType() CachedResultType {
	if !r.special() {
		return CachedNumber
	}
	switch r.cached[0] {
	case specialString:
		return CachedString
	case specialBool:
		return CachedBoolean
	case specialError:
		return CachedError
	}
	return CachedEmpty
}

// Value returns the cached number; it is 0 when the result is not a number.
func (r *FormulaRecord) Value() float64 {
	if r.special() {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.cached[:]))
}

// CachedBool returns the cached boolean result.
func (r *FormulaRecord) CachedBool() bool {
	return r.CachedResultType() == CachedBoolean && r.cached[2] != 0
}

// CachedError returns the cached error code.
func (r *FormulaRecord) CachedError() uint8 {
	if r.CachedResultType() != CachedError {
		return 0
	}
	return r.cached[2]
}

// SetValue caches a numeric result.
func (r *FormulaRecord) SetValue(v float64) {
	binary.LittleEndian.PutUint64(r.cached[:], math.Float64bits(v))
}

func (r *FormulaRecord) setSpecial(typ, data uint8) {
	r.cached = [8]byte{typ, 0, data, 0, 0, 0, 0xFF, 0xFF}
}

// SetCachedString marks the result as a string; the text follows in a
// STRING record.
func (r *FormulaRecord) SetCachedString() { r.setSpecial(specialString, 0) }

// SetCachedBool caches a boolean result.
func (r *FormulaRecord) SetCachedBool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	r.setSpecial(specialBool, b)
}

// SetCachedError caches an error result.
func (r *FormulaRecord) SetCachedError(code uint8) { r.setSpecial(specialError, code) }

// SetCachedEmpty caches an empty-string result.
func (r *FormulaRecord) SetCachedEmpty() { r.setSpecial(specialEmpty, 0) }

// IsShared reports whether the shared-formula option is set.
func (r *FormulaRecord) IsShared() bool { return r.Options&FormulaShared != 0 }

// Formula returns a copy of the parsed expression.
func (r *FormulaRecord) Formula() *formula.Formula { return r.expr.Copy() }

// Tokens decodes the expression into freshly allocated tokens.
func (r *FormulaRecord) Tokens() ([]formula.Token, error) { return r.expr.Tokens() }

// SetTokens replaces the expression.
func (r *FormulaRecord) SetTokens(tokens []formula.Token) { r.expr = formula.New(tokens) }

func (r *FormulaRecord) Tag() uint16                           { return biff8.Formula }
func (r *FormulaRecord) DataSize() int                         { return cellDataSize(r) }
func (r *FormulaRecord) SerializeData(out record.Output) error { return serializeCell(r, out) }
func (r *FormulaRecord) String() string                        { return cellString(r) }

func (r *FormulaRecord) valueDataSize() int {
	return 8 + 2 + 4 + r.expr.EncodedSize()
}

func (r *FormulaRecord) serializeValue(out record.Output) {
	out.Write(r.cached[:])
	out.WriteUint16(r.Options)
	out.WriteUint32(r.Reserved)
	r.expr.Serialize(out)
}

func (r *FormulaRecord) appendValueText(sb *strings.Builder) {
	switch t := r.CachedResultType(); t {
	case CachedNumber:
		fmt.Fprintf(sb, "    .value  = %v\n", r.Value())
	case CachedBoolean:
		fmt.Fprintf(sb, "    .value  = %v\n", r.CachedBool())
	case CachedError:
		fmt.Fprintf(sb, "    .value  = %s\n", formula.ErrorText(r.CachedError()))
	default:
		fmt.Fprintf(sb, "    .value  = <%s>\n", t)
	}
	fmt.Fprintf(sb, "    .options= 0x%04X\n", r.Options)
	fmt.Fprintf(sb, "    .formula= %s\n", r.expr)
}
