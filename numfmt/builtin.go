package numfmt

import "strings"

// builtin holds the format strings a BIFF8 workbook may reference by index
// without a FORMAT record.  Indexes 23-36 and 50-58 are locale dependent and
// always come with an explicit FORMAT record when used.
var builtin = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `"$"#,##0_);("$"#,##0)`,
	6:  `"$"#,##0_);[Red]("$"#,##0)`,
	7:  `"$"#,##0.00_);("$"#,##0.00)`,
	8:  `"$"#,##0.00_);[Red]("$"#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0_);(#,##0)",
	38: "#,##0_);[Red](#,##0)",
	39: "#,##0.00_);(#,##0.00)",
	40: "#,##0.00_);[Red](#,##0.00)",
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* (#,##0);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_);_("$"* (#,##0.00);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

// FirstUserIndex is the lowest index a FORMAT record normally defines.
const FirstUserIndex = 164

// Builtin returns the format string for a built-in index.
func Builtin(index int) (string, bool) {
	s, ok := builtin[index]
	return s, ok
}

// BuiltinIndex returns the built-in index of format, or -1.
func BuiltinIndex(format string) int {
	for i, s := range builtin {
		if s == format {
			return i
		}
	}
	return -1
}

// IsBuiltinDateIndex reports whether a built-in index denotes a date, time
// or elapsed-time format, locale dependent ones included.
func IsBuiltinDateIndex(index int) bool {
	switch {
	case index >= 14 && index <= 22:
		return true
	case index >= 27 && index <= 36:
		return true
	case index >= 45 && index <= 47:
		return true
	case index >= 50 && index <= 58:
		return true
	}
	return false
}

// IsDateFormat reports whether a cell formatted with index/format holds a
// date serial.  Built-in date indexes are recognised directly; for other
// indexes the unquoted, unbracketed part of format is scanned for date and
// time letters.  An exponent marker after a digit placeholder (0.00E+00)
// is not mistaken for the era letter.
func IsDateFormat(index int, format string) bool {
	if IsBuiltinDateIndex(index) {
		return true
	}
	if format == "" {
		format = builtin[index]
	}
	if format == "" || format == "General" {
		return false
	}
	inQuote, inBracket := false, false
	var prev rune
	for _, ch := range format {
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_':
			// escaped or padding character follows
		case prev == '\\' || prev == '_':
		case isDateLetter(ch):
			return true
		case ch == 'e' || ch == 'E':
			if prev != '0' && prev != '#' && prev != '?' && prev != '.' {
				return true
			}
		}
		if !inQuote && !inBracket {
			prev = ch
		}
	}
	return elapsedOnly(format)
}

func isDateLetter(ch rune) bool {
	switch ch {
	case 'd', 'D', 'm', 'M', 'y', 'Y', 'h', 'H', 's', 'S':
		return true
	}
	return false
}

// elapsedOnly catches formats such as "[h]" whose only date part is an
// elapsed-time bracket.
func elapsedOnly(format string) bool {
	lower := strings.ToLower(format)
	for _, tok := range []string{"[h]", "[hh]", "[m]", "[mm]", "[s]", "[ss]"} {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
