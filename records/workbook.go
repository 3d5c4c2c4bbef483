package records

import (
	"fmt"
	"strings"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/numfmt"
	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/stringtable"
)

// Version is the BIFF version of a stream, as announced by its BOF record.
type Version int

const (
	VersionUnknown Version = 0
	BIFF2          Version = 2
	BIFF3          Version = 3
	BIFF4          Version = 4
	BIFF5          Version = 5
	BIFF8          Version = 8
)

func (v Version) String() string {
	if v == VersionUnknown {
		return "unknown"
	}
	return fmt.Sprintf("BIFF%d", int(v))
}

// ── BOF ──────────────────────────────────────────────────────────────────────

// Substream types of a BOF record.
const (
	BOFWorkbook  uint16 = 0x0005
	BOFVBModule  uint16 = 0x0006
	BOFWorksheet uint16 = 0x0010
	BOFChart     uint16 = 0x0020
	BOFMacro     uint16 = 0x0040
	BOFWorkspace uint16 = 0x0100
)

// BOF version words stored by BIFF5 and BIFF8.
const (
	bofVersionBIFF5 = 0x0500
	bofVersionBIFF8 = 0x0600
)

// BOFRecord starts every substream.  Only the BIFF5/BIFF8 tag is encoded;
// the BIFF2-BIFF4 tags are decoded for version detection and are read-only.
type BOFRecord struct {
	tag     uint16
	Version uint16
	Type    uint16
	Build   uint16
	Year    uint16
	// History and RequiredVersion are absent from BIFF5 streams and then 0.
	History         uint32
	RequiredVersion uint32
}

// NewBOFRecord returns a BIFF8 BOF for a substream of type typ.
func NewBOFRecord(typ uint16) *BOFRecord {
	return &BOFRecord{
		tag:             biff8.BOF,
		Version:         bofVersionBIFF8,
		Type:            typ,
		Build:           0x0DBB,
		Year:            0x07CC,
		History:         0x000100C1,
		RequiredVersion: 0x00000006,
	}
}

// ReadBOFRecord decodes a BOF record of any BIFF version.  Trailing fields
// that the record is too short to hold are left 0.
func ReadBOFRecord(in *record.Stream) (*BOFRecord, error) {
	r := &BOFRecord{tag: in.Tag()}
	var err error
	if r.Version, err = in.ReadUint16(); err != nil {
		return nil, err
	}
	if r.Type, err = in.ReadUint16(); err != nil {
		return nil, err
	}
	if in.Remaining() >= 2 {
		if r.Build, err = in.ReadUint16(); err != nil {
			return nil, err
		}
	}
	if in.Remaining() >= 2 {
		if r.Year, err = in.ReadUint16(); err != nil {
			return nil, err
		}
	}
	if in.Remaining() >= 4 {
		if r.History, err = in.ReadUint32(); err != nil {
			return nil, err
		}
	}
	if in.Remaining() >= 4 {
		if r.RequiredVersion, err = in.ReadUint32(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// BIFFVersion derives the stream version from the tag and version word.
func (r *BOFRecord) BIFFVersion() Version {
	switch r.Tag() {
	case biff8.OldBOF2:
		return BIFF2
	case biff8.OldBOF3:
		return BIFF3
	case biff8.OldBOF4:
		return BIFF4
	}
	switch r.Version {
	case bofVersionBIFF8:
		return BIFF8
	case bofVersionBIFF5:
		return BIFF5
	}
	return VersionUnknown
}

// ReadOnly reports true for the BIFF2-BIFF4 variants.
func (r *BOFRecord) ReadOnly() bool { return r.Tag() != biff8.BOF }

func (r *BOFRecord) Tag() uint16 {
	if r.tag == 0 {
		return biff8.BOF
	}
	return r.tag
}

func (r *BOFRecord) DataSize() int { return 16 }

func (r *BOFRecord) SerializeData(out record.Output) error {
	out.WriteUint16(r.Version)
	out.WriteUint16(r.Type)
	out.WriteUint16(r.Build)
	out.WriteUint16(r.Year)
	out.WriteUint32(r.History)
	out.WriteUint32(r.RequiredVersion)
	return nil
}

func (r *BOFRecord) String() string {
	return fmt.Sprintf("[BOF RECORD]\n    .version  = 0x%04X (%s)\n    .type     = 0x%04X\n    .build    = 0x%04X\n"+
		"    .buildyear= %d\n    .history  = 0x%08X\n    .reqver   = 0x%08X\n[/BOF RECORD]",
		r.Version, r.BIFFVersion(), r.Type, r.Build, r.Year, r.History, r.RequiredVersion)
}

// ── EOF ──────────────────────────────────────────────────────────────────────

// EOFRecord ends a substream.  It has no body.
type EOFRecord struct{}

// ReadEOFRecord decodes an EOF record, which has no body.
func ReadEOFRecord(*record.Stream) (*EOFRecord, error) { return &EOFRecord{}, nil }

func (r *EOFRecord) Tag() uint16                       { return biff8.EOF }
func (r *EOFRecord) DataSize() int                     { return 0 }
func (r *EOFRecord) SerializeData(record.Output) error { return nil }
func (r *EOFRecord) String() string                    { return "[EOF]\n[/EOF]" }

// ── CODEPAGE, BACKUP, DATEMODE ───────────────────────────────────────────────

// CodepageRecord names the codepage 8-bit text in the stream is encoded in.
// BIFF8 strings are Unicode; the value matters for BIFF2-BIFF5 records.
type CodepageRecord struct {
	Codepage uint16
}

// ReadCodepageRecord decodes a CODEPAGE record.
func ReadCodepageRecord(in *record.Stream) (*CodepageRecord, error) {
	cp, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	return &CodepageRecord{Codepage: cp}, nil
}

func (r *CodepageRecord) Tag() uint16   { return biff8.Codepage }
func (r *CodepageRecord) DataSize() int { return 2 }
func (r *CodepageRecord) SerializeData(out record.Output) error {
	out.WriteUint16(r.Codepage)
	return nil
}
func (r *CodepageRecord) String() string {
	return fmt.Sprintf("[CODEPAGE]\n    .codepage = %d\n[/CODEPAGE]", r.Codepage)
}

// BackupRecord tells Excel whether to save a backup copy.
type BackupRecord struct {
	Backup bool
}

// ReadBackupRecord decodes a BACKUP record.
func ReadBackupRecord(in *record.Stream) (*BackupRecord, error) {
	v, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	return &BackupRecord{Backup: v != 0}, nil
}

func (r *BackupRecord) Tag() uint16   { return biff8.Backup }
func (r *BackupRecord) DataSize() int { return 2 }
func (r *BackupRecord) SerializeData(out record.Output) error {
	out.WriteUint16(boolWord(r.Backup))
	return nil
}
func (r *BackupRecord) String() string {
	return fmt.Sprintf("[BACKUP]\n    .backup = %v\n[/BACKUP]", r.Backup)
}

// DateWindow1904Record selects the 1904 date system.
type DateWindow1904Record struct {
	Date1904 bool
}

// ReadDateWindow1904Record decodes a DATEMODE record.
func ReadDateWindow1904Record(in *record.Stream) (*DateWindow1904Record, error) {
	v, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	return &DateWindow1904Record{Date1904: v != 0}, nil
}

func (r *DateWindow1904Record) Tag() uint16   { return biff8.DateWindow1904 }
func (r *DateWindow1904Record) DataSize() int { return 2 }
func (r *DateWindow1904Record) SerializeData(out record.Output) error {
	out.WriteUint16(boolWord(r.Date1904))
	return nil
}
func (r *DateWindow1904Record) String() string {
	return fmt.Sprintf("[1904]\n    .is1904 = %v\n[/1904]", r.Date1904)
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// ── XF ───────────────────────────────────────────────────────────────────────

// XF type and protection bits.
const (
	xfLocked = 0x0001
	xfHidden = 0x0002
	xfStyle  = 0x0004
)

// ExtendedFormatRecord is one cell or style format (XF).  Cell records
// refer to XFs by index; the XF points at a FONT and a FORMAT record.
type ExtendedFormatRecord struct {
	FontIndex          uint16
	FormatIndex        uint16
	CellOptions        uint16
	AlignmentOptions   uint16
	IndentionOptions   uint16
	BorderOptions      uint16
	PaletteOptions     uint16
	AdtlPaletteOptions uint32
	FillPaletteOptions uint16
}

// ReadExtendedFormatRecord decodes a 20-byte XF record.
func ReadExtendedFormatRecord(in *record.Stream) (*ExtendedFormatRecord, error) {
	r := &ExtendedFormatRecord{}
	for _, f := range []*uint16{&r.FontIndex, &r.FormatIndex, &r.CellOptions, &r.AlignmentOptions,
		&r.IndentionOptions, &r.BorderOptions, &r.PaletteOptions} {
		v, err := in.ReadUint16()
		if err != nil {
			return nil, err
		}
		*f = v
	}
	var err error
	if r.AdtlPaletteOptions, err = in.ReadUint32(); err != nil {
		return nil, err
	}
	if r.FillPaletteOptions, err = in.ReadUint16(); err != nil {
		return nil, err
	}
	return r, nil
}

// IsStyle reports whether the XF is a style XF rather than a cell XF.
func (r *ExtendedFormatRecord) IsStyle() bool { return r.CellOptions&xfStyle != 0 }

// IsLocked reports the cell protection lock bit.
func (r *ExtendedFormatRecord) IsLocked() bool { return r.CellOptions&xfLocked != 0 }

// IsHidden reports the formula-hidden protection bit.
func (r *ExtendedFormatRecord) IsHidden() bool { return r.CellOptions&xfHidden != 0 }

// ParentIndex returns the index of the parent style XF.
func (r *ExtendedFormatRecord) ParentIndex() int { return int(r.CellOptions>>4) & 0x0FFF }

func (r *ExtendedFormatRecord) Tag() uint16   { return biff8.ExtendedFormat }
func (r *ExtendedFormatRecord) DataSize() int { return 20 }
func (r *ExtendedFormatRecord) SerializeData(out record.Output) error {
	out.WriteUint16(r.FontIndex)
	out.WriteUint16(r.FormatIndex)
	out.WriteUint16(r.CellOptions)
	out.WriteUint16(r.AlignmentOptions)
	out.WriteUint16(r.IndentionOptions)
	out.WriteUint16(r.BorderOptions)
	out.WriteUint16(r.PaletteOptions)
	out.WriteUint32(r.AdtlPaletteOptions)
	out.WriteUint16(r.FillPaletteOptions)
	return nil
}

func (r *ExtendedFormatRecord) String() string {
	return fmt.Sprintf("[EXTENDEDFORMAT]\n    .fontindex   = %d\n    .formatindex = %d\n    .celloptions = 0x%04X\n"+
		"        .style   = %v\n        .parent  = %d\n    .alignment   = 0x%04X\n    .indention   = 0x%04X\n"+
		"    .border      = 0x%04X\n    .palette     = 0x%04X\n    .adtlpalette = 0x%08X\n    .fillpalette = 0x%04X\n[/EXTENDEDFORMAT]",
		r.FontIndex, r.FormatIndex, r.CellOptions, r.IsStyle(), r.ParentIndex(), r.AlignmentOptions,
		r.IndentionOptions, r.BorderOptions, r.PaletteOptions, r.AdtlPaletteOptions, r.FillPaletteOptions)
}

// ── FORMAT ───────────────────────────────────────────────────────────────────

// FormatRecord defines a number format string for an index.  Indexes below
// numfmt.FirstUserIndex are built-in and are usually not stored.
type FormatRecord struct {
	Index  int
	Format string
}

// ReadFormatRecord decodes a FORMAT record: the format index and its string.
func ReadFormatRecord(in *record.Stream) (*FormatRecord, error) {
	idx, err := in.ReadUint16()
	if err != nil {
		return nil, err
	}
	s, err := readShortString(in)
	if err != nil {
		return nil, err
	}
	return &FormatRecord{Index: int(idx), Format: s}, nil
}

// IsDateFormat reports whether the format renders dates or times.
func (r *FormatRecord) IsDateFormat() bool { return numfmt.IsDateFormat(r.Index, r.Format) }

func (r *FormatRecord) Tag() uint16   { return biff8.Format }
func (r *FormatRecord) DataSize() int { return 2 + 3 + record.EncodedStringSize(r.Format) }
func (r *FormatRecord) SerializeData(out record.Output) error {
	out.WriteUint16(uint16(r.Index))
	out.WriteUint16(uint16(record.UTF16Len(r.Format)))
	record.PutStringData(out, r.Format)
	return nil
}
func (r *FormatRecord) String() string {
	return fmt.Sprintf("[FORMAT]\n    .indexcode = %d\n    .formatstr = %q\n[/FORMAT]", r.Index, r.Format)
}

// readShortString reads a 16-bit character count, the encoding flag and the
// characters.
func readShortString(in *record.Stream) (string, error) {
	n, err := in.ReadUint16()
	if err != nil {
		return "", err
	}
	flag, err := in.ReadUint8()
	if err != nil {
		return "", err
	}
	return in.ReadString(int(n), flag&0x01 == 0)
}

// ── HEADER / FOOTER ──────────────────────────────────────────────────────────

// headerFooter is the body shared by HEADER and FOOTER.  An empty text is
// written as an empty body: no length, no flag byte.
type headerFooter struct {
	Text string
}

func readHeaderFooter(in *record.Stream) (headerFooter, error) {
	if in.Remaining() == 0 {
		return headerFooter{}, nil
	}
	n, err := in.ReadUint16()
	if err != nil {
		return headerFooter{}, err
	}
	// Some writers store a zero length with no flag byte after it.
	if n == 0 && in.Remaining() == 0 {
		return headerFooter{}, nil
	}
	flag, err := in.ReadUint8()
	if err != nil {
		return headerFooter{}, err
	}
	s, err := in.ReadString(int(n), flag&0x01 == 0)
	if err != nil {
		return headerFooter{}, err
	}
	return headerFooter{Text: s}, nil
}

func (h *headerFooter) DataSize() int {
	if h.Text == "" {
		return 0
	}
	return 3 + record.EncodedStringSize(h.Text)
}

func (h *headerFooter) SerializeData(out record.Output) error {
	if h.Text == "" {
		return nil
	}
	out.WriteUint16(uint16(record.UTF16Len(h.Text)))
	record.PutStringData(out, h.Text)
	return nil
}

// HeaderRecord is the page header of a sheet.
type HeaderRecord struct{ headerFooter }

// NewHeaderRecord returns a HEADER holding text.
func NewHeaderRecord(text string) *HeaderRecord { return &HeaderRecord{headerFooter{Text: text}} }

// ReadHeaderRecord decodes a HEADER record.  An empty body is the empty text.
func ReadHeaderRecord(in *record.Stream) (*HeaderRecord, error) {
	h, err := readHeaderFooter(in)
	if err != nil {
		return nil, err
	}
	return &HeaderRecord{h}, nil
}

func (r *HeaderRecord) Tag() uint16 { return biff8.Header }
func (r *HeaderRecord) String() string {
	return fmt.Sprintf("[HEADER]\n    .header = %q\n[/HEADER]", r.Text)
}

// FooterRecord is the page footer of a sheet.
type FooterRecord struct{ headerFooter }

// NewFooterRecord returns a FOOTER holding text.
func NewFooterRecord(text string) *FooterRecord { return &FooterRecord{headerFooter{Text: text}} }

// ReadFooterRecord decodes a FOOTER record.  An empty body is the empty text.
func ReadFooterRecord(in *record.Stream) (*FooterRecord, error) {
	h, err := readHeaderFooter(in)
	if err != nil {
		return nil, err
	}
	return &FooterRecord{h}, nil
}

func (r *FooterRecord) Tag() uint16 { return biff8.Footer }
func (r *FooterRecord) String() string {
	return fmt.Sprintf("[FOOTER]\n    .footer = %q\n[/FOOTER]", r.Text)
}

// ── STRING ───────────────────────────────────────────────────────────────────

// StringRecord holds the cached text result of the formula cell before it.
// Long results continue into CONTINUE records.
type StringRecord struct {
	Value string
}

// ReadStringRecord decodes a STRING record, joining its CONTINUE records.
func ReadStringRecord(in *record.Stream) (*StringRecord, error) {
	s, err := readShortString(in)
	if err != nil {
		return nil, err
	}
	return &StringRecord{Value: s}, nil
}

func (r *StringRecord) Tag() uint16 { return biff8.String }

func (r *StringRecord) SerializeContinuable(out *record.ContinuableOutput) error {
	out.WriteUint16(uint16(record.UTF16Len(r.Value)))
	out.WriteStringData(r.Value)
	return nil
}

func (r *StringRecord) String() string {
	return fmt.Sprintf("[STRING]\n    .string = %q\n[/STRING]", r.Value)
}

// ── SST ──────────────────────────────────────────────────────────────────────

// SSTRecord is the shared string table.  It is usually far larger than one
// record; strings and even single characters continue across CONTINUE
// records.
type SSTRecord struct {
	table  *stringtable.Table
	padded int
}

// NewSSTRecord returns an SST over t.
func NewSSTRecord(t *stringtable.Table) *SSTRecord { return &SSTRecord{table: t} }

// maxSSTPadding bounds the number of missing strings ReadSSTRecord pads
// with empty ones.
const maxSSTPadding = 1 << 16

// ReadSSTRecord decodes an SST record and every CONTINUE that belongs to it.
// Some writers declare more unique strings than they store; the missing
// entries become empty strings and are counted by Padded.  A record missing
// more than 65536 strings is malformed.
func ReadSSTRecord(in *record.Stream) (*SSTRecord, error) {
	total, err := in.ReadUint32()
	if err != nil {
		return nil, err
	}
	unique, err := in.ReadUint32()
	if err != nil {
		return nil, err
	}
	r := &SSTRecord{table: stringtable.New()}
	r.table.SetTotal(int(total))
	for i := range int(unique) {
		if in.Remaining() == 0 {
			missing := int(unique) - i
			if missing > maxSSTPadding {
				return nil, &record.MalformedStreamError{Tag: biff8.SST, Offset: in.Offset(),
					Reason: fmt.Sprintf("SST declares %d strings but the record ends after %d", unique, i)}
			}
			for range missing {
				r.table.Append(stringtable.NewUnicodeString(""))
			}
			r.padded = missing
			break
		}
		s, err := stringtable.ReadUnicodeString(in)
		if err != nil {
			return nil, err
		}
		r.table.Append(s)
	}
	return r, nil
}

// Table returns the string table.  It is shared with r.
func (r *SSTRecord) Table() *stringtable.Table { return r.table }

// Padded returns the number of declared strings that were missing.
func (r *SSTRecord) Padded() int { return r.padded }

// Get returns the string at idx, or false when idx is out of range.
func (r *SSTRecord) Get(idx int) (string, bool) {
	s, ok := r.table.Lookup(idx)
	if !ok {
		return "", false
	}
	return s.Text, true
}

func (r *SSTRecord) Tag() uint16 { return biff8.SST }

func (r *SSTRecord) SerializeContinuable(out *record.ContinuableOutput) error {
	out.WriteUint32(uint32(r.table.Total()))
	out.WriteUint32(uint32(r.table.Len()))
	for _, s := range r.table.Strings() {
		s.Serialize(out)
	}
	return nil
}

func (r *SSTRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[SST]\n    .numstrings     = %d\n    .uniquestrings  = %d\n", r.table.Total(), r.table.Len())
	for i, s := range r.table.Strings() {
		fmt.Fprintf(&sb, "    .string_%d      = %s\n", i, s)
	}
	sb.WriteString("[/SST]")
	return sb.String()
}
