package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-biff/record"
)

func TestReadTokensFromBytes(t *testing.T) {
	// A1+1 with A1 as a value-class reference.
	raw := []byte{0x44, 0x00, 0x00, 0x00, 0xC0, 0x1E, 0x01, 0x00, 0x03}
	tokens, err := ReadTokens(len(raw), record.NewCursor(raw))
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	ref, ok := tokens[0].(*RefToken)
	require.True(t, ok, "got %T", tokens[0])
	assert.Equal(t, ClassValue, ref.Class)
	assert.Equal(t, byte(0x44), ref.ID())
	assert.True(t, ref.RowRelative)
	assert.True(t, ref.ColRelative)
	assert.Equal(t, "A1", ref.String())

	assert.Equal(t, &IntToken{Value: 1}, tokens[1])
	assert.Equal(t, &Operator{Op: 0x03}, tokens[2])

	f := New(tokens)
	w := record.NewWriter(0)
	f.SerializeTokens(w)
	assert.Equal(t, raw, w.Bytes())
	assert.Equal(t, "A1 1 +", f.String())
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := []Token{
		&NumberToken{Value: 2.5},
		&StringToken{Value: "abc"},
		&StringToken{Value: "Ωmega"},
		&BoolToken{Value: true},
		&ErrorToken{Code: 0x07},
		&AttrToken{Options: attrChoose, Data: 2, JumpTable: []uint16{8, 12, 16}},
		&FuncToken{Class: ClassValue, Index: 15},
		&FuncVarToken{Class: ClassRef, Args: 2, Index: 4},
		&NameToken{Class: ClassRef, Index: 1},
		&AreaToken{Class: ClassRef, AreaRef: AreaRef{
			First: CellRef{Row: 0, Column: 0},
			Last:  CellRef{Row: 9, Column: 2, RowRelative: true},
		}},
		&Ref3DToken{Class: ClassArray, ExternSheet: 1, CellRef: CellRef{Row: 4, Column: 5}},
		&Area3DToken{Class: ClassRef, ExternSheet: 2, AreaRef: AreaRef{Last: CellRef{Row: 1, Column: 1}}},
		&RawToken{Op: 0x2A, Body: []byte{1, 2, 3, 4}},
		&Operator{Op: 0x15},
	}
	f := New(tokens)
	got, err := f.Tokens()
	require.NoError(t, err)
	assert.Equal(t, tokens, got)

	size := 0
	for _, tok := range tokens {
		size += tok.Size()
	}
	assert.Equal(t, size, f.EncodedTokenSize())
	assert.Equal(t, size+2, f.EncodedSize())
}

func TestReadKeepsArrayConstantData(t *testing.T) {
	body := []byte{0x1E, 0x05, 0x00, 0xAA, 0xBB}
	f, err := Read(3, record.NewCursor(body), len(body))
	require.NoError(t, err)
	assert.Equal(t, 7, f.EncodedSize())

	w := record.NewWriter(0)
	f.Serialize(w)
	assert.Equal(t, append([]byte{0x03, 0x00}, body...), w.Bytes())

	w = record.NewWriter(0)
	f.SerializeArrayConstantData(w)
	assert.Equal(t, []byte{0xAA, 0xBB}, w.Bytes())

	_, err = Read(6, record.NewCursor(body), 5)
	require.Error(t, err)
	assert.True(t, record.IsTruncated(err))
}

func TestReadTokensErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		size int
	}{
		{"unknown operator", []byte{0xFF}, 1},
		{"unknown operand", []byte{0x30, 0x00}, 2},
		{"truncated reference", []byte{0x24, 0x00}, 5},
		{"size ends inside a token", []byte{0x1E, 0x01, 0x00}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadTokens(tc.size, record.NewCursor(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestExpReference(t *testing.T) {
	row, col, ok := New([]Token{&ExpToken{Row: 3, Column: 1}}).ExpReference()
	require.True(t, ok)
	assert.Equal(t, 3, row)
	assert.Equal(t, 1, col)

	_, _, ok = New([]Token{&IntToken{Value: 1}}).ExpReference()
	assert.False(t, ok)
	assert.True(t, New([]Token{&TblToken{Row: 1, Column: 1}}).IsShared())
}

func TestFormulaCopyIsIndependent(t *testing.T) {
	f := New([]Token{&IntToken{Value: 7}})
	c := f.Copy()
	c.encoded[1] = 9

	tokens, err := f.Tokens()
	require.NoError(t, err)
	assert.Equal(t, &IntToken{Value: 7}, tokens[0])
}

func TestColumnName(t *testing.T) {
	for col, want := range map[int]string{0: "A", 25: "Z", 26: "AA", 255: "IV", 701: "ZZ", 702: "AAA"} {
		assert.Equal(t, want, ColumnName(col), "column %d", col)
	}
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "#DIV/0!", ErrorText(0x07))
	assert.Equal(t, "#N/A", ErrorText(0x2A))
	assert.Equal(t, "#ERR99!", ErrorText(99))
}

func TestNilFormulaIsEmpty(t *testing.T) {
	var f *Formula
	assert.Equal(t, 2, f.EncodedSize())
	assert.Zero(t, f.EncodedTokenSize())
	assert.Equal(t, "", f.String())
	assert.False(t, f.IsShared())

	tokens, err := f.Tokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)

	w := record.NewWriter(0)
	f.Serialize(w)
	f.SerializeTokens(w)
	f.SerializeArrayConstantData(w)
	assert.Equal(t, []byte{0, 0}, w.Bytes())

	c := f.Copy()
	require.NotNil(t, c)
	assert.Equal(t, 2, c.EncodedSize())
}
