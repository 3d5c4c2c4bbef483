package record

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCodepage is the codepage assumed for 8-bit text in pre-BIFF8
// records when the stream carries no CODEPAGE record.
const DefaultCodepage = 1252

var codepages = map[int]encoding.Encoding{
	367:   charmap.ISO8859_1, // US-ASCII
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	1200:  unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
	10007: charmap.MacintoshCyrillic,
	20866: charmap.KOI8R,
	21866: charmap.KOI8U,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28593: charmap.ISO8859_3,
	28594: charmap.ISO8859_4,
	28595: charmap.ISO8859_5,
	28596: charmap.ISO8859_6,
	28597: charmap.ISO8859_7,
	28598: charmap.ISO8859_8,
	28599: charmap.ISO8859_9,
	28605: charmap.ISO8859_15,
	32768: charmap.Macintosh,   // Apple Roman, as written by Excel for Mac
	32769: charmap.Windows1252, // "ANSI Latin I" alias used by BIFF2-BIFF4
	65001: unicode.UTF8,
}

// CodepageEncoding returns the text encoding for a Windows codepage number
// as stored in a CODEPAGE record.
func CodepageEncoding(cp int) (encoding.Encoding, error) {
	enc, ok := codepages[cp]
	if !ok {
		return nil, errors.Newf("record: unsupported codepage %d", cp)
	}
	return enc, nil
}

// DecodeCodepage decodes raw 8-bit text using the codepage cp.
func DecodeCodepage(raw []byte, cp int) (string, error) {
	enc, err := CodepageEncoding(cp)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrapf(err, "record: decode codepage %d", cp)
	}
	return string(out), nil
}
