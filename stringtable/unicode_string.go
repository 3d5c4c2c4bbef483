package stringtable

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/TsubasaBE/go-biff/record"
)

// Option flag bits of a rich-extended string header.
const (
	flag16Bit = 0x01
	flagExt   = 0x04
	flagRich  = 0x08
)

// FormatRun switches the font from character CharIndex onwards.
type FormatRun struct {
	CharIndex uint16
	FontIndex uint16
}

// UnicodeString is one shared string entry: the text, its rich-text
// formatting runs and the opaque extended (phonetic) data block.
type UnicodeString struct {
	Text    string
	Runs    []FormatRun
	ExtData []byte
}

// NewUnicodeString returns a plain string entry.
func NewUnicodeString(text string) *UnicodeString {
	return &UnicodeString{Text: text}
}

// ReadUnicodeString decodes one entry.  The character data may be split
// across CONTINUE records, each continuation starting with its own encoding
// flag byte; the runs and the extended data follow the characters and may
// also cross record boundaries.
func ReadUnicodeString(in *record.Stream) (*UnicodeString, error) {
	n, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	flags, err := in.ReadUint8()
	if err != nil {
		return nil, err
	}
	var runCount uint16
	if flags&flagRich != 0 {
		if runCount, err = in.ReadUint16(); err != nil {
			return nil, err
		}
	}
	var extSize uint32
	if flags&flagExt != 0 {
		if extSize, err = in.ReadUint32(); err != nil {
			return nil, err
		}
	}
	text, err := in.ReadString(int(n), flags&flag16Bit == 0)
	if err != nil {
		return nil, errors.Wrapf(err, "stringtable: %d character string", n)
	}
	s := &UnicodeString{Text: text}
	if runCount > 0 {
		s.Runs = make([]FormatRun, runCount)
		for i := range s.Runs {
			if s.Runs[i].CharIndex, err = in.ReadUint16(); err != nil {
				return nil, err
			}
			if s.Runs[i].FontIndex, err = in.ReadUint16(); err != nil {
				return nil, err
			}
		}
	}
	if extSize > 0 {
		if int(extSize) > in.Remaining() {
			return nil, errors.Wrap(&record.TruncatedDataError{
				Tag: in.Tag(), Offset: in.Pos(), Requested: int(extSize), Available: in.Remaining(),
			}, "stringtable: extended data")
		}
		s.ExtData = make([]byte, extSize)
		if err := in.ReadFully(s.ExtData); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Serialize writes the entry.  The header and first character stay in one
// record, and no formatting run is split across records.
func (s *UnicodeString) Serialize(out *record.ContinuableOutput) {
	out.WriteString(s.Text, len(s.Runs), len(s.ExtData))
	for _, r := range s.Runs {
		out.WriteContinueIfRequired(4)
		out.WriteUint16(r.CharIndex)
		out.WriteUint16(r.FontIndex)
	}
	if len(s.ExtData) > 0 {
		out.Write(s.ExtData)
	}
}

// Equal reports whether s and o have the same text, runs and extended data.
func (s *UnicodeString) Equal(o *UnicodeString) bool {
	return s.Text == o.Text && slices.Equal(s.Runs, o.Runs) && bytes.Equal(s.ExtData, o.ExtData)
}

// Clone returns a deep copy of s.
func (s *UnicodeString) Clone() *UnicodeString {
	return &UnicodeString{
		Text:    s.Text,
		Runs:    slices.Clone(s.Runs),
		ExtData: bytes.Clone(s.ExtData),
	}
}

// key identifies s for de-duplication.
func (s *UnicodeString) key() string {
	if len(s.Runs) == 0 && len(s.ExtData) == 0 {
		return s.Text
	}
	return fmt.Sprintf("%s\x00%v\x00%x", s.Text, s.Runs, s.ExtData)
}

func (s *UnicodeString) String() string {
	if len(s.Runs) == 0 && len(s.ExtData) == 0 {
		return fmt.Sprintf("%q", s.Text)
	}
	return fmt.Sprintf("%q runs=%d ext=%d", s.Text, len(s.Runs), len(s.ExtData))
}
