// Package biff8 contains the record type tags used in the
// BIFF8 workbook stream of legacy .xls files, plus the handful of older
// BIFF2-BIFF5 variants that the record package can still read.
package biff8

import "fmt"

// Record tags are stored as little-endian uint16 values at the start of every
// record header.  The values follow [MS-XLS] section 2.3.
const (
	// ── Stream structure ──────────────────────────────────────────────────────
	BOF      = 0x0809
	EOF      = 0x000A
	Continue = 0x003C

	// ── Workbook globals ──────────────────────────────────────────────────────
	Codepage       = 0x0042
	Backup         = 0x0040
	DateWindow1904 = 0x0022
	Format         = 0x041E
	ExtendedFormat = 0x00E0
	Font           = 0x0031
	BoundSheet     = 0x0085
	SST            = 0x00FC
	ExtSST         = 0x00FF
	WriteAccess    = 0x005C
	Country        = 0x008C
	Palette        = 0x0092
	Style          = 0x0293

	// ── Worksheet ─────────────────────────────────────────────────────────────
	Dimensions = 0x0200
	Row        = 0x0208
	DBCell     = 0x00D7
	Index      = 0x020B
	Header     = 0x0014
	Footer     = 0x0015
	Window2    = 0x023E
	Selection  = 0x001D
	MergeCells = 0x00E5

	// ── Cell values ───────────────────────────────────────────────────────────
	Blank    = 0x0201
	Number   = 0x0203
	Label    = 0x0204
	BoolErr  = 0x0205
	String   = 0x0207
	RK       = 0x027E
	LabelSST = 0x00FD
	MulRK    = 0x00BD
	MulBlank = 0x00BE
	Formula  = 0x0006

	// ── Shared values ─────────────────────────────────────────────────────────
	SharedFormula = 0x04BC
	Array         = 0x0221
	Table         = 0x0236

	// ── Pre-BIFF8 variants ────────────────────────────────────────────────────
	// OldLabel is the BIFF2 LABEL record.  BIFF3-BIFF5 reuse Label (0x0204)
	// with a different body layout, distinguished by the BOF version.
	OldLabel   = 0x0004
	OldBOF2    = 0x0009
	OldBOF3    = 0x0209
	OldBOF4    = 0x0409
	OldNumber  = 0x0003
	OldFormula = 0x0206

	// ── Drawing (passthrough only) ────────────────────────────────────────────
	Obj            = 0x005D
	TextObject     = 0x01B6
	DrawingGroup   = 0x00EB
	Drawing        = 0x00EC
	DrawingSelect  = 0x00ED
	Note           = 0x001C
	FilePass       = 0x002F
	InterfaceHdr   = 0x00E1
	InterfaceEnd   = 0x00E2
	Mms            = 0x00C1
	CodeName       = 0x01BA
	UseSelfs       = 0x0160
	HideObj        = 0x008D
	CalcMode       = 0x000D
	CalcCount      = 0x000C
	RefMode        = 0x000F
	Iteration      = 0x0011
	Delta          = 0x0010
	SaveRecalc     = 0x005F
	PrintHeaders   = 0x002A
	PrintGridlines = 0x002B
	Gridset        = 0x0082
	Guts           = 0x0080
	DefaultRowHt   = 0x0225
	WsBool         = 0x0081
	DefColWidth    = 0x0055
	ColInfo        = 0x007D
)

var names = map[uint16]string{
	BOF:            "BOF",
	EOF:            "EOF",
	Continue:       "CONTINUE",
	Codepage:       "CODEPAGE",
	Backup:         "BACKUP",
	DateWindow1904: "DATEMODE",
	Format:         "FORMAT",
	ExtendedFormat: "XF",
	Font:           "FONT",
	BoundSheet:     "BOUNDSHEET",
	SST:            "SST",
	ExtSST:         "EXTSST",
	WriteAccess:    "WRITEACCESS",
	Country:        "COUNTRY",
	Palette:        "PALETTE",
	Style:          "STYLE",
	Dimensions:     "DIMENSIONS",
	Row:            "ROW",
	DBCell:         "DBCELL",
	Index:          "INDEX",
	Header:         "HEADER",
	Footer:         "FOOTER",
	Window2:        "WINDOW2",
	Selection:      "SELECTION",
	MergeCells:     "MERGEDCELLS",
	Blank:          "BLANK",
	Number:         "NUMBER",
	Label:          "LABEL",
	BoolErr:        "BOOLERR",
	String:         "STRING",
	RK:             "RK",
	LabelSST:       "LABELSST",
	MulRK:          "MULRK",
	MulBlank:       "MULBLANK",
	Formula:        "FORMULA",
	SharedFormula:  "SHRFMLA",
	Array:          "ARRAY",
	Table:          "TABLE",
	OldLabel:       "LABEL (BIFF2)",
	OldBOF2:        "BOF (BIFF2)",
	OldBOF3:        "BOF (BIFF3)",
	OldBOF4:        "BOF (BIFF4)",
	OldNumber:      "NUMBER (BIFF2)",
	OldFormula:     "FORMULA (BIFF3)",
	Obj:            "OBJ",
	TextObject:     "TXO",
	DrawingGroup:   "MSODRAWINGGROUP",
	Drawing:        "MSODRAWING",
	DrawingSelect:  "MSODRAWINGSELECTION",
	Note:           "NOTE",
	FilePass:       "FILEPASS",
	InterfaceHdr:   "INTERFACEHDR",
	InterfaceEnd:   "INTERFACEEND",
	Mms:            "MMS",
	CodeName:       "CODENAME",
	UseSelfs:       "USESELFS",
	HideObj:        "HIDEOBJ",
	CalcMode:       "CALCMODE",
	CalcCount:      "CALCCOUNT",
	RefMode:        "REFMODE",
	Iteration:      "ITERATION",
	Delta:          "DELTA",
	SaveRecalc:     "SAVERECALC",
	PrintHeaders:   "PRINTHEADERS",
	PrintGridlines: "PRINTGRIDLINES",
	Gridset:        "GRIDSET",
	Guts:           "GUTS",
	DefaultRowHt:   "DEFAULTROWHEIGHT",
	WsBool:         "WSBOOL",
	DefColWidth:    "DEFCOLWIDTH",
	ColInfo:        "COLINFO",
}

// Name returns the conventional upper-case name of tag, or
// "UNKNOWN (0xNNNN)" for tags outside the table.
func Name(tag uint16) string {
	if n, ok := names[tag]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN (0x%04X)", tag)
}

// Known reports whether tag has an entry in the name table.
func Known(tag uint16) bool {
	_, ok := names[tag]
	return ok
}
