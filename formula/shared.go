package formula

// Rows and columns wrap around instead of overflowing.
const (
	rowWrapMask = 0xFFFF
	colWrapMask = 0xFF
)

// ConvertSharedFormula translates the tokens of a shared formula for the cell
// at (row, col).  The relative components of RefN and AreaN tokens are
// offsets from the formula cell; they are added to row or col modulo 65536
// rows and 256 columns, and the token becomes a plain Ref or Area with the
// same operand class.  Absolute components are left as they are.  All other
// tokens are copied, so the result never aliases the input.
func ConvertSharedFormula(tokens []Token, row, col int) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		switch v := t.(type) {
		case *RefNToken:
			out[i] = &RefToken{Class: v.Class, CellRef: fixupCell(v.CellRef, row, col)}
		case *AreaNToken:
			out[i] = &AreaToken{Class: v.Class, AreaRef: AreaRef{
				First: fixupCell(v.First, row, col),
				Last:  fixupCell(v.Last, row, col),
			}}
		default:
			out[i] = copyToken(t)
		}
	}
	return out
}

func fixupCell(c CellRef, row, col int) CellRef {
	if c.RowRelative {
		c.Row = (c.Row + row) & rowWrapMask
	}
	if c.ColRelative {
		c.Column = (c.Column + col) & colWrapMask
	}
	return c
}

func copyToken(t Token) Token {
	switch v := t.(type) {
	case *Operator:
		c := *v
		return &c
	case *ExpToken:
		c := *v
		return &c
	case *TblToken:
		c := *v
		return &c
	case *StringToken:
		c := *v
		return &c
	case *AttrToken:
		c := *v
		c.JumpTable = append([]uint16(nil), v.JumpTable...)
		return &c
	case *ErrorToken:
		c := *v
		return &c
	case *BoolToken:
		c := *v
		return &c
	case *IntToken:
		c := *v
		return &c
	case *NumberToken:
		c := *v
		return &c
	case *FuncToken:
		c := *v
		return &c
	case *FuncVarToken:
		c := *v
		return &c
	case *NameToken:
		c := *v
		return &c
	case *RefToken:
		c := *v
		return &c
	case *AreaToken:
		c := *v
		return &c
	case *Ref3DToken:
		c := *v
		return &c
	case *Area3DToken:
		c := *v
		return &c
	case *RawToken:
		c := *v
		c.Body = append([]byte(nil), v.Body...)
		return &c
	}
	return t
}
