// Package formula decodes and encodes BIFF8 parsed expressions ("ptg"
// token arrays) and translates shared formulas from their anchor cell to
// the other cells of the shared range.
//
// Only the token set needed to walk an expression and rewrite its cell
// references is modelled.  Evaluation is out of scope.
package formula

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/TsubasaBE/go-biff/record"
)

// Operand classes.  Operand tokens occupy 0x20-0x7F: the base identifier in
// 0x20-0x3F is the reference class, +0x20 the value class and +0x40 the
// array class.
const (
	ClassRef   byte = 0x00
	ClassValue byte = 0x20
	ClassArray byte = 0x40
)

// Base token identifiers.
const (
	idExp      = 0x01
	idTbl      = 0x02
	idStr      = 0x17
	idAttr     = 0x19
	idErr      = 0x1C
	idBool     = 0x1D
	idInt      = 0x1E
	idNum      = 0x1F
	idArray    = 0x20
	idFunc     = 0x21
	idFuncVar  = 0x22
	idName     = 0x23
	idRef      = 0x24
	idArea     = 0x25
	idRefN     = 0x2C
	idAreaN    = 0x2D
	idRef3D    = 0x3A
	idArea3D   = 0x3B
	attrChoose = 0x04
)

// Column field flags shared by every cell reference token.
const (
	colMask     = 0x3FFF
	colRelative = 0x4000
	rowRelative = 0x8000
)

// Token is one element of a parsed expression.
type Token interface {
	// ID returns the encoded identifier byte, operand class included.
	ID() byte
	// Size returns the encoded size in bytes, identifier included.
	Size() int
	// Write encodes the token.
	Write(out record.Output)
	String() string
}

// operandBase returns the reference-class identifier of an operand token, or
// id itself for operator and control tokens.
func operandBase(id byte) byte {
	if id < 0x20 || id > 0x7F {
		return id
	}
	return (id-0x20)%0x20 + 0x20
}

func operandClass(id byte) byte {
	return id - operandBase(id)
}

// ── operators and constants ──────────────────────────────────────────────────

var operatorNames = map[byte]string{
	0x03: "+", 0x04: "-", 0x05: "*", 0x06: "/", 0x07: "^", 0x08: "&",
	0x09: "<", 0x0A: "<=", 0x0B: "=", 0x0C: ">=", 0x0D: ">", 0x0E: "<>",
	0x0F: " ", 0x10: ",", 0x11: ":", 0x12: "u+", 0x13: "u-", 0x14: "%",
	0x15: "()", 0x16: "<missing>",
}

// Operator is a single-byte operator or control token (0x03-0x16).
type Operator struct{ Op byte }

func (t *Operator) ID() byte                { return t.Op }
func (t *Operator) Size() int               { return 1 }
func (t *Operator) Write(out record.Output) { out.WriteUint8(t.Op) }
func (t *Operator) String() string          { return operatorNames[t.Op] }

// ExpToken marks a formula cell that belongs to a shared or array formula;
// Row and Column locate the anchor cell holding the real expression.
type ExpToken struct{ Row, Column int }

func (t *ExpToken) ID() byte  { return idExp }
func (t *ExpToken) Size() int { return 5 }
func (t *ExpToken) Write(out record.Output) {
	out.WriteUint8(idExp)
	out.WriteUint16(uint16(t.Row))
	out.WriteUint16(uint16(t.Column))
}
func (t *ExpToken) String() string {
	return fmt.Sprintf("Exp(%s)", cellName(t.Row, t.Column, false, false))
}

// TblToken marks a cell of a data table; Row and Column locate the TABLE
// record's anchor.
type TblToken struct{ Row, Column int }

func (t *TblToken) ID() byte  { return idTbl }
func (t *TblToken) Size() int { return 5 }
func (t *TblToken) Write(out record.Output) {
	out.WriteUint8(idTbl)
	out.WriteUint16(uint16(t.Row))
	out.WriteUint16(uint16(t.Column))
}
func (t *TblToken) String() string {
	return fmt.Sprintf("Tbl(%s)", cellName(t.Row, t.Column, false, false))
}

// StringToken is a string constant.
type StringToken struct{ Value string }

func (t *StringToken) ID() byte { return idStr }
func (t *StringToken) Size() int {
	return 3 + record.EncodedStringSize(t.Value)
}
func (t *StringToken) Write(out record.Output) {
	out.WriteUint8(idStr)
	out.WriteUint8(uint8(record.UTF16Len(t.Value)))
	record.PutStringData(out, t.Value)
}
func (t *StringToken) String() string { return fmt.Sprintf("%q", t.Value) }

// AttrToken carries control information (volatile, if, choose, goto, sum,
// spaces).  JumpTable is only present for the choose variant.
type AttrToken struct {
	Options   uint8
	Data      uint16
	JumpTable []uint16
}

func (t *AttrToken) ID() byte  { return idAttr }
func (t *AttrToken) Size() int { return 4 + 2*len(t.JumpTable) }
func (t *AttrToken) Write(out record.Output) {
	out.WriteUint8(idAttr)
	out.WriteUint8(t.Options)
	out.WriteUint16(t.Data)
	for _, j := range t.JumpTable {
		out.WriteUint16(j)
	}
}
func (t *AttrToken) String() string { return fmt.Sprintf("Attr(0x%02X,%d)", t.Options, t.Data) }

// ErrorToken is an error constant such as #DIV/0!.
type ErrorToken struct{ Code uint8 }

func (t *ErrorToken) ID() byte  { return idErr }
func (t *ErrorToken) Size() int { return 2 }
func (t *ErrorToken) Write(out record.Output) {
	out.WriteUint8(idErr)
	out.WriteUint8(t.Code)
}
func (t *ErrorToken) String() string { return ErrorText(t.Code) }

// BoolToken is a boolean constant.
type BoolToken struct{ Value bool }

func (t *BoolToken) ID() byte  { return idBool }
func (t *BoolToken) Size() int { return 2 }
func (t *BoolToken) Write(out record.Output) {
	out.WriteUint8(idBool)
	if t.Value {
		out.WriteUint8(1)
	} else {
		out.WriteUint8(0)
	}
}
func (t *BoolToken) String() string {
	if t.Value {
		return "TRUE"
	}
	return "FALSE"
}

// IntToken is an unsigned 16-bit integer constant.
type IntToken struct{ Value uint16 }

func (t *IntToken) ID() byte  { return idInt }
func (t *IntToken) Size() int { return 3 }
func (t *IntToken) Write(out record.Output) {
	out.WriteUint8(idInt)
	out.WriteUint16(t.Value)
}
func (t *IntToken) String() string { return fmt.Sprint(t.Value) }

// NumberToken is a floating point constant.
type NumberToken struct{ Value float64 }

func (t *NumberToken) ID() byte  { return idNum }
func (t *NumberToken) Size() int { return 9 }
func (t *NumberToken) Write(out record.Output) {
	out.WriteUint8(idNum)
	out.WriteDouble(t.Value)
}
func (t *NumberToken) String() string { return fmt.Sprint(t.Value) }

// ── operand tokens ───────────────────────────────────────────────────────────

// FuncToken calls a built-in function with a fixed argument count.
type FuncToken struct {
	Class byte
	Index uint16
}

func (t *FuncToken) ID() byte  { return idFunc + t.Class }
func (t *FuncToken) Size() int { return 3 }
func (t *FuncToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	out.WriteUint16(t.Index)
}
func (t *FuncToken) String() string { return fmt.Sprintf("Func(%d)", t.Index) }

// FuncVarToken calls a function with a variable argument count.
type FuncVarToken struct {
	Class byte
	Args  uint8
	Index uint16
}

func (t *FuncVarToken) ID() byte  { return idFuncVar + t.Class }
func (t *FuncVarToken) Size() int { return 4 }
func (t *FuncVarToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	out.WriteUint8(t.Args)
	out.WriteUint16(t.Index)
}
func (t *FuncVarToken) String() string { return fmt.Sprintf("FuncVar(%d,%d)", t.Index, t.Args) }

// NameToken refers to a defined name by its 1-based index.
type NameToken struct {
	Class byte
	Index uint16
}

func (t *NameToken) ID() byte  { return idName + t.Class }
func (t *NameToken) Size() int { return 5 }
func (t *NameToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	out.WriteUint16(t.Index)
	out.WriteUint16(0)
}
func (t *NameToken) String() string { return fmt.Sprintf("Name(%d)", t.Index) }

// CellRef is the row/column pair of a reference token.  For the RefN/AreaN
// tokens used in shared formulas the relative components are offsets from
// the cell the formula is evaluated in.
type CellRef struct {
	Row         int
	Column      int
	RowRelative bool
	ColRelative bool
}

func (c *CellRef) read(in record.Input) error {
	row, err := in.ReadUint16()
	if err != nil {
		return err
	}
	col, err := in.ReadUint16()
	if err != nil {
		return err
	}
	c.Row = int(row)
	c.Column = int(col & colMask)
	c.RowRelative = col&rowRelative != 0
	c.ColRelative = col&colRelative != 0
	return nil
}

func (c CellRef) colField() uint16 {
	v := uint16(c.Column) & colMask
	if c.RowRelative {
		v |= rowRelative
	}
	if c.ColRelative {
		v |= colRelative
	}
	return v
}

func (c CellRef) write(out record.Output) {
	out.WriteUint16(uint16(c.Row))
	out.WriteUint16(c.colField())
}

func (c CellRef) String() string {
	return cellName(c.Row, c.Column, c.RowRelative, c.ColRelative)
}

// AreaRef is the rectangle of an area token.
type AreaRef struct {
	First CellRef
	Last  CellRef
}

func (a *AreaRef) read(in record.Input) error {
	var rows [2]uint16
	var cols [2]uint16
	for i := range rows {
		v, err := in.ReadUint16()
		if err != nil {
			return err
		}
		rows[i] = v
	}
	for i := range cols {
		v, err := in.ReadUint16()
		if err != nil {
			return err
		}
		cols[i] = v
	}
	a.First = CellRef{Row: int(rows[0]), Column: int(cols[0] & colMask), RowRelative: cols[0]&rowRelative != 0, ColRelative: cols[0]&colRelative != 0}
	a.Last = CellRef{Row: int(rows[1]), Column: int(cols[1] & colMask), RowRelative: cols[1]&rowRelative != 0, ColRelative: cols[1]&colRelative != 0}
	return nil
}

func (a AreaRef) write(out record.Output) {
	out.WriteUint16(uint16(a.First.Row))
	out.WriteUint16(uint16(a.Last.Row))
	out.WriteUint16(a.First.colField())
	out.WriteUint16(a.Last.colField())
}

func (a AreaRef) String() string { return a.First.String() + ":" + a.Last.String() }

// RefToken references a single cell.
type RefToken struct {
	Class byte
	CellRef
}

func (t *RefToken) ID() byte  { return idRef + t.Class }
func (t *RefToken) Size() int { return 5 }
func (t *RefToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	t.CellRef.write(out)
}
func (t *RefToken) String() string { return t.CellRef.String() }

// RefNToken is the shared-formula form of RefToken: relative components are
// offsets from the formula cell.
type RefNToken struct {
	Class byte
	CellRef
}

func (t *RefNToken) ID() byte  { return idRefN + t.Class }
func (t *RefNToken) Size() int { return 5 }
func (t *RefNToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	t.CellRef.write(out)
}
func (t *RefNToken) String() string { return "N" + t.CellRef.String() }

// AreaToken references a rectangle of cells.
type AreaToken struct {
	Class byte
	AreaRef
}

func (t *AreaToken) ID() byte  { return idArea + t.Class }
func (t *AreaToken) Size() int { return 9 }
func (t *AreaToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	t.AreaRef.write(out)
}
func (t *AreaToken) String() string { return t.AreaRef.String() }

// AreaNToken is the shared-formula form of AreaToken.
type AreaNToken struct {
	Class byte
	AreaRef
}

func (t *AreaNToken) ID() byte  { return idAreaN + t.Class }
func (t *AreaNToken) Size() int { return 9 }
func (t *AreaNToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	t.AreaRef.write(out)
}
func (t *AreaNToken) String() string { return "N" + t.AreaRef.String() }

// Ref3DToken references a cell on another sheet through the EXTERNSHEET
// table.
type Ref3DToken struct {
	Class       byte
	ExternSheet uint16
	CellRef
}

func (t *Ref3DToken) ID() byte  { return idRef3D + t.Class }
func (t *Ref3DToken) Size() int { return 7 }
func (t *Ref3DToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	out.WriteUint16(t.ExternSheet)
	t.CellRef.write(out)
}
func (t *Ref3DToken) String() string { return fmt.Sprintf("[%d]!%s", t.ExternSheet, t.CellRef) }

// Area3DToken references a rectangle on another sheet.
type Area3DToken struct {
	Class       byte
	ExternSheet uint16
	AreaRef
}

func (t *Area3DToken) ID() byte  { return idArea3D + t.Class }
func (t *Area3DToken) Size() int { return 11 }
func (t *Area3DToken) Write(out record.Output) {
	out.WriteUint8(t.ID())
	out.WriteUint16(t.ExternSheet)
	t.AreaRef.write(out)
}
func (t *Area3DToken) String() string { return fmt.Sprintf("[%d]!%s", t.ExternSheet, t.AreaRef) }

// rawOperandSizes lists operand tokens that are carried as opaque bytes, by
// base identifier, with the size of their body.
var rawOperandSizes = map[byte]int{
	idArray: 7,  // tArray: values live in the trailing array-constant data
	0x26:    6,  // tMemArea
	0x27:    6,  // tMemErr
	0x28:    6,  // tMemNoMem
	0x29:    2,  // tMemFunc
	0x2A:    4,  // tRefErr
	0x2B:    8,  // tAreaErr
	0x2E:    2,  // tMemAreaN
	0x2F:    2,  // tMemNoMemN
	0x39:    6,  // tNameX
	0x3C:    6,  // tRef3dErr
	0x3D:    10, // tArea3dErr
}

// RawToken is an operand token the package does not interpret; its body is
// kept verbatim.
type RawToken struct {
	Op   byte
	Body []byte
}

func (t *RawToken) ID() byte  { return t.Op }
func (t *RawToken) Size() int { return 1 + len(t.Body) }
func (t *RawToken) Write(out record.Output) {
	out.WriteUint8(t.Op)
	out.Write(t.Body)
}
func (t *RawToken) String() string { return fmt.Sprintf("Raw(0x%02X)", t.Op) }

// ── decoding ─────────────────────────────────────────────────────────────────

// ReadTokens decodes size bytes of tokens from in.
func ReadTokens(size int, in record.Input) ([]Token, error) {
	var tokens []Token
	consumed := 0
	for consumed < size {
		t, err := readToken(in)
		if err != nil {
			return nil, errors.Wrapf(err, "formula: token #%d at byte %d", len(tokens), consumed)
		}
		tokens = append(tokens, t)
		consumed += t.Size()
	}
	if consumed != size {
		return nil, errors.Newf("formula: tokens consumed %d bytes, expected %d", consumed, size)
	}
	return tokens, nil
}

func readToken(in record.Input) (Token, error) {
	id, err := in.ReadUint8()
	if err != nil {
		return nil, err
	}
	if _, ok := operatorNames[id]; ok {
		return &Operator{Op: id}, nil
	}
	switch id {
	case idExp, idTbl:
		row, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		col, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		if id == idExp {
			return &ExpToken{Row: int(row), Column: int(col)}, nil
		}
		return &TblToken{Row: int(row), Column: int(col)}, nil
	case idStr:
		n, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		flags, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		width := 1
		if flags&0x01 != 0 {
			width = 2
		}
		raw := make([]byte, int(n)*width)
		if err := in.ReadFully(raw); err != nil {
			return nil, err
		}
		c := record.NewCursor(raw)
		var s string
		if width == 2 {
			s, err = c.ReadUnicodeLEString(int(n))
		} else {
			s, err = c.ReadCompressedString(int(n))
		}
		if err != nil {
			return nil, err
		}
		return &StringToken{Value: s}, nil
	case idAttr:
		opts, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		data, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		t := &AttrToken{Options: opts, Data: data}
		if opts&attrChoose != 0 {
			t.JumpTable = make([]uint16, int(data)+1)
			for i := range t.JumpTable {
				if t.JumpTable[i], err = in.ReadUint16(); err != nil {
					return nil, err
				}
			}
		}
		return t, nil
	case idErr:
		v, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		return &ErrorToken{Code: v}, nil
	case idBool:
		v, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		return &BoolToken{Value: v != 0}, nil
	case idInt:
		v, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		return &IntToken{Value: v}, nil
	case idNum:
		v, err := in.ReadDouble()
		if err != nil {
			return nil, err
		}
		return &NumberToken{Value: v}, nil
	}
	if id < 0x20 || id > 0x7F {
		return nil, errors.Newf("formula: unknown token 0x%02X", id)
	}
	return readOperand(id, in)
}

func readOperand(id byte, in record.Input) (Token, error) {
	class := operandClass(id)
	switch operandBase(id) {
	case idFunc:
		idx, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		return &FuncToken{Class: class, Index: idx}, nil
	case idFuncVar:
		args, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		idx, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		return &FuncVarToken{Class: class, Args: args, Index: idx}, nil
	case idName:
		idx, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		if _, err := in.ReadUint16(); err != nil {
			return nil, err
		}
		return &NameToken{Class: class, Index: idx}, nil
	case idRef:
		t := &RefToken{Class: class}
		return t, t.CellRef.read(in)
	case idRefN:
		t := &RefNToken{Class: class}
		return t, t.CellRef.read(in)
	case idArea:
		t := &AreaToken{Class: class}
		return t, t.AreaRef.read(in)
	case idAreaN:
		t := &AreaNToken{Class: class}
		return t, t.AreaRef.read(in)
	case idRef3D:
		sheet, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		t := &Ref3DToken{Class: class, ExternSheet: sheet}
		return t, t.CellRef.read(in)
	case idArea3D:
		sheet, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		t := &Area3DToken{Class: class, ExternSheet: sheet}
		return t, t.AreaRef.read(in)
	}
	n, ok := rawOperandSizes[operandBase(id)]
	if !ok {
		return nil, errors.Newf("formula: unknown operand token 0x%02X", id)
	}
	body := make([]byte, n)
	if err := in.ReadFully(body); err != nil {
		return nil, err
	}
	return &RawToken{Op: id, Body: body}, nil
}

// ── rendering helpers ────────────────────────────────────────────────────────

var errorTexts = map[uint8]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

// ErrorText returns the display string of a BIFF error code.
func ErrorText(code uint8) string {
	if s, ok := errorTexts[code]; ok {
		return s
	}
	return fmt.Sprintf("#ERR%d!", code)
}

// ColumnName converts a 0-based column index to its letter name (0 → "A").
func ColumnName(col int) string {
	var sb strings.Builder
	col++
	var buf []byte
	for col > 0 {
		col--
		buf = append(buf, byte('A'+col%26))
		col /= 26
	}
	for i := len(buf) - 1; i >= 0; i-- {
		sb.WriteByte(buf[i])
	}
	return sb.String()
}

func cellName(row, col int, rowRel, colRel bool) string {
	var sb strings.Builder
	if !colRel {
		sb.WriteByte('$')
	}
	sb.WriteString(ColumnName(col))
	if !rowRel {
		sb.WriteByte('$')
	}
	fmt.Fprintf(&sb, "%d", row+1)
	return sb.String()
}
