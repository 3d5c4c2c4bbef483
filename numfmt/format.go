// Package numfmt resolves BIFF number formats and renders cell values with
// them.  Format strings are tokenized by [github.com/xuri/nfp]; this package
// only picks the section for a value and renders its tokens.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xuri/nfp"
)

// FormatValue renders v with the format identified by index, or by format
// when it is not empty (a FORMAT record overriding or adding the index).
// The dynamic type of v is one of nil, string, bool or float64; anything
// else is rendered with fmt.Sprint.
func FormatValue(v any, index int, format string, date1904 bool) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return formatNumber(val, index, Resolve(index, format), date1904)
	}
	return fmt.Sprint(v)
}

// Resolve returns format when set, else the built-in string for index, else
// "General".
func Resolve(index int, format string) string {
	if format != "" {
		return format
	}
	if s, ok := builtin[index]; ok {
		return s
	}
	return "General"
}

func formatNumber(val float64, index int, format string, date1904 bool) string {
	if strings.EqualFold(format, "General") {
		return General(val)
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(format)
	if len(sections) == 0 {
		return General(val)
	}
	sec, signed := pickSection(sections, val)
	if IsDateFormat(index, format) {
		return renderDate(val, sec, date1904)
	}
	return renderNumber(val, sec, signed)
}

// pickSection chooses the section for val.  signed reports whether the
// chosen section is the dedicated negative one, in which case the sign is
// part of the section's own literals.
//
//	1 section   all values
//	2 sections  positive and zero; negative
//	3+ sections positive; negative; zero
func pickSection(sections []nfp.Section, val float64) (sec nfp.Section, signed bool) {
	switch {
	case len(sections) == 1:
		return sections[0], false
	case val < 0:
		return sections[1], true
	case val == 0 && len(sections) >= 3:
		return sections[2], false
	}
	return sections[0], false
}

// General renders val the way the General format does: integers without a
// decimal point, other values with at most ten significant digits.
func General(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', 10, 64)
}

// ── dates ────────────────────────────────────────────────────────────────────

// SerialToTime converts a date serial to a time in UTC.  In the 1900 system
// serial 60 is the nonexistent 1900-02-29 and later serials are shifted by
// one day to compensate.
func SerialToTime(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, errors.Newf("numfmt: invalid date serial %v", serial)
	}
	days := int(serial)
	secs := time.Duration(max(0, min(86399, int64(math.Round((serial-float64(days))*86400))))) * time.Second
	if date1904 {
		return time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days).Add(secs), nil
	}
	if days >= 61 {
		days--
	}
	if days == 0 {
		days = 1
	}
	return time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days).Add(secs), nil
}

func renderDate(serial float64, sec nfp.Section, date1904 bool) string {
	t, err := SerialToTime(serial, date1904)
	if err != nil {
		return General(serial)
	}
	twelveHour := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			if u := strings.ToUpper(tok.TValue); u == "AM/PM" || u == "A/P" {
				twelveHour = true
			}
		}
	}

	var sb strings.Builder
	// M and MM mean minutes right after an hour token.
	afterHour := false
	for _, tok := range sec.Items {
		upper := strings.ToUpper(tok.TValue)
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			sb.WriteString(dateToken(upper, t, twelveHour, afterHour))
			afterHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeElapsedDateTimes:
			sb.WriteString(elapsedToken(upper, serial))
			afterHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		default:
			afterHour = false
		}
	}
	if sb.Len() == 0 {
		return General(serial)
	}
	return sb.String()
}

func dateToken(upper string, t time.Time, twelveHour, afterHour bool) string {
	hour := t.Hour()
	if twelveHour {
		if hour %= 12; hour == 0 {
			hour = 12
		}
	}
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMMM":
		return t.Month().String()[:1]
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		if afterHour {
			return fmt.Sprintf("%02d", t.Minute())
		}
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		if afterHour {
			return strconv.Itoa(t.Minute())
		}
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		return fmt.Sprintf("%02d", hour)
	case "H":
		return strconv.Itoa(hour)
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

func elapsedToken(upper string, serial float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(serial * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(serial*24*60)%60)
	case "M":
		return strconv.Itoa(int(serial*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(serial*86400)%60)
	case "S":
		return strconv.Itoa(int(serial*86400) % 60)
	}
	return ""
}

// ── numbers ──────────────────────────────────────────────────────────────────

// layout summarises the placeholders of a numeric section.
type layout struct {
	percent    bool
	thousands  bool
	decimal    bool
	intZeros   int
	fracZeros  int
	fracHashes int
	sign       bool
}

func scanLayout(sec nfp.Section) layout {
	var l layout
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			l.percent = true
		case nfp.TokenTypeThousandsSeparator:
			l.thousands = true
		case nfp.TokenTypeDecimalPoint:
			l.decimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if l.decimal {
				l.fracZeros += len(tok.TValue)
			} else {
				l.intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if l.decimal {
				l.fracHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				l.sign = true
			}
		}
	}
	return l
}

// digits splits |val| into integer and fraction digit strings for l.
func (l layout) digits(val float64) (intPart, fracPart string) {
	abs := math.Abs(val)
	if l.percent {
		abs *= 100
	}
	places := l.fracZeros + l.fracHashes
	s := strconv.FormatFloat(abs, 'f', places, 64)
	intPart, fracPart, _ = strings.Cut(s, ".")
	if l.fracHashes > 0 {
		fracPart = strings.TrimRight(fracPart, "0")
		for len(fracPart) < l.fracZeros {
			fracPart += "0"
		}
	}
	for len(intPart) < l.intZeros {
		intPart = "0" + intPart
	}
	if l.thousands {
		intPart = groupThousands(intPart)
	}
	return intPart, fracPart
}

func renderNumber(val float64, sec nfp.Section, signed bool) string {
	l := scanLayout(sec)
	intPart, fracPart := l.digits(val)

	var sb strings.Builder
	if val < 0 && !signed && !l.sign {
		sb.WriteByte('-')
	}
	wroteInt, wroteFrac, inFrac := false, false, false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if fracPart != "" {
				sb.WriteByte('.')
			}
			inFrac = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			switch {
			case inFrac && !wroteFrac:
				sb.WriteString(fracPart)
				wroteFrac = true
			case !inFrac && !wroteInt:
				sb.WriteString(intPart)
				wroteInt = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !wroteInt && !inFrac {
		sb.WriteString(intPart)
	}
	if sb.Len() == 0 {
		return General(val)
	}
	return sb.String()
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
