package formula

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/TsubasaBE/go-biff/record"
)

// Formula holds an encoded parsed expression: the token bytes followed by
// any trailing array-constant data.  The bytes are kept verbatim so a
// decoded formula re-encodes unchanged even when it contains tokens the
// package only carries opaquely.  A nil *Formula is an empty expression.
type Formula struct {
	encoded   []byte
	tokenSize int
}

// Read decodes a formula whose token array is tokenSize bytes long and whose
// complete encoding (tokens plus array-constant data) is totalSize bytes.
// The leading 16-bit token size field has already been consumed by the
// caller.
func Read(tokenSize int, in record.Input, totalSize int) (*Formula, error) {
	if tokenSize < 0 || totalSize < tokenSize {
		e := &record.TruncatedDataError{Offset: -1, Requested: tokenSize, Available: totalSize}
		if s, ok := in.(*record.Stream); ok {
			e.Tag, e.Offset = s.Tag(), s.Pos()
		}
		return nil, errors.Wrap(e, "formula: token array")
	}
	buf := make([]byte, totalSize)
	if err := in.ReadFully(buf); err != nil {
		return nil, err
	}
	return &Formula{encoded: buf, tokenSize: tokenSize}, nil
}

// ReadWithSize reads the 16-bit token size and then the token bytes, with no
// trailing data.
func ReadWithSize(in record.Input) (*Formula, error) {
	n, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	return Read(int(n), in, int(n))
}

// New encodes tokens into a formula.
func New(tokens []Token) *Formula {
	size := 0
	for _, t := range tokens {
		size += t.Size()
	}
	w := record.NewWriter(size)
	for _, t := range tokens {
		t.Write(w)
	}
	return &Formula{encoded: w.Bytes(), tokenSize: size}
}

// Tokens decodes the token array.  Every call returns freshly allocated
// tokens, so callers may modify them without affecting f.
func (f *Formula) Tokens() ([]Token, error) {
	if f == nil {
		return nil, nil
	}
	return ReadTokens(f.tokenSize, record.NewCursor(f.encoded[:f.tokenSize]))
}

// EncodedSize is the size of Serialize's output: the 16-bit token size field
// plus the token and array-constant bytes.
func (f *Formula) EncodedSize() int {
	if f == nil {
		return 2
	}
	return 2 + len(f.encoded)
}

// EncodedTokenSize is the size of the token array alone.
func (f *Formula) EncodedTokenSize() int {
	if f == nil {
		return 0
	}
	return f.tokenSize
}

// Serialize writes the token size field, the tokens and the trailing data.
func (f *Formula) Serialize(out record.Output) {
	if f == nil {
		out.WriteUint16(0)
		return
	}
	out.WriteUint16(uint16(f.tokenSize))
	out.Write(f.encoded)
}

// SerializeTokens writes the token bytes only.
func (f *Formula) SerializeTokens(out record.Output) {
	if f == nil {
		return
	}
	out.Write(f.encoded[:f.tokenSize])
}

// SerializeArrayConstantData writes the bytes following the tokens.
func (f *Formula) SerializeArrayConstantData(out record.Output) {
	if f == nil {
		return
	}
	out.Write(f.encoded[f.tokenSize:])
}

// Copy returns an independent copy of f.
func (f *Formula) Copy() *Formula {
	if f == nil {
		return &Formula{}
	}
	return &Formula{encoded: append([]byte(nil), f.encoded...), tokenSize: f.tokenSize}
}

// ExpReference returns the anchor cell of a formula consisting of a single
// Exp or Tbl token, which marks a member of a shared, array or table range.
func (f *Formula) ExpReference() (row, col int, ok bool) {
	if f == nil || f.tokenSize != 5 || len(f.encoded) < 5 {
		return 0, 0, false
	}
	tokens, err := f.Tokens()
	if err != nil || len(tokens) != 1 {
		return 0, 0, false
	}
	switch t := tokens[0].(type) {
	case *ExpToken:
		return t.Row, t.Column, true
	case *TblToken:
		return t.Row, t.Column, true
	}
	return 0, 0, false
}

// IsShared reports whether the formula refers to a shared or array anchor.
func (f *Formula) IsShared() bool {
	_, _, ok := f.ExpReference()
	return ok
}

// String renders the tokens in stored (reverse Polish) order.
func (f *Formula) String() string {
	tokens, err := f.Tokens()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
