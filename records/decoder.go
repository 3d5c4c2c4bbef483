package records

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/record"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger.  The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.log = l.Sugar() }
}

// WithCodepage sets the codepage for 8-bit text until a CODEPAGE record
// overrides it.  The default is record.DefaultCodepage.
func WithCodepage(cp int) Option {
	return func(d *Decoder) { d.codepage = cp }
}

// WithStrict makes bytes a decoder left unread in a record an error.  By
// default they are logged and skipped.
func WithStrict(strict bool) Option {
	return func(d *Decoder) { d.strict = strict }
}

// Decoder walks a record stream and decodes every record.  It follows the
// BOF records to learn the BIFF version and the CODEPAGE record to decode
// pre-BIFF8 text; records of older versions that have no legacy decoder are
// returned as [record.UnknownRecord].
type Decoder struct {
	in       *record.Stream
	log      *zap.SugaredLogger
	codepage int
	strict   bool
	version  Version
	off      int64
}

// NewDecoder returns a Decoder reading from in.
func NewDecoder(in *record.Stream, opts ...Option) *Decoder {
	d := &Decoder{
		in:       in,
		log:      zap.NewNop().Sugar(),
		codepage: record.DefaultCodepage,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Version returns the BIFF version of the most recent BOF record.
func (d *Decoder) Version() Version { return d.version }

// Codepage returns the codepage in effect.
func (d *Decoder) Codepage() int { return d.codepage }

// Offset returns the stream offset of the record Next last returned.
func (d *Decoder) Offset() int64 { return d.off }

// Next decodes the next record.  It returns io.EOF at the end of the stream.
func (d *Decoder) Next() (record.Record, error) {
	if err := d.in.NextRecord(); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "records: reading record header")
	}
	tag, off := d.in.Tag(), d.in.Offset()
	r, err := d.decode(tag)
	if err != nil {
		return nil, errors.Wrapf(err, "records: decoding %s at offset %d", biff8.Name(tag), off)
	}
	if n := d.in.ChunkRemaining(); n > 0 {
		if d.strict {
			return nil, &record.MalformedStreamError{
				Tag: tag, Offset: off,
				Reason: fmt.Sprintf("%d bytes left unread by the %s decoder", n, biff8.Name(tag)),
			}
		}
		d.log.Infow("skipping unread record bytes", "record", biff8.Name(tag), "offset", off, "bytes", n)
		d.in.ReadChunkRemainder()
	}
	d.off = off
	d.track(r)
	return r, nil
}

// ReadAll decodes records until the end of the stream.
func (d *Decoder) ReadAll() ([]record.Record, error) {
	var recs []record.Record
	for {
		r, err := d.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, r)
	}
}

func (d *Decoder) decode(tag uint16) (record.Record, error) {
	if tag == biff8.OldLabel || (d.legacy() && tag == biff8.Label) {
		return ReadOldLabelRecord(d.in, d.codepage)
	}
	if d.legacy() && !legacyTags[tag] {
		d.log.Debugw("opaque pre-BIFF8 record", "record", biff8.Name(tag), "version", d.version.String())
		return record.ReadUnknownRecord(d.in)
	}
	if !IsRegistered(tag) {
		d.log.Debugw("unknown record", "tag", fmt.Sprintf("0x%04X", tag), "offset", d.in.Offset())
	}
	return CreateRecord(d.in)
}

// legacyTags are the records whose layout is the same in every BIFF
// version.
var legacyTags = map[uint16]bool{
	biff8.BOF:      true,
	biff8.OldBOF2:  true,
	biff8.OldBOF3:  true,
	biff8.OldBOF4:  true,
	biff8.EOF:      true,
	biff8.Codepage: true,
	biff8.Continue: true,
}

func (d *Decoder) legacy() bool {
	return d.version != VersionUnknown && d.version < BIFF8
}

func (d *Decoder) track(r record.Record) {
	switch v := r.(type) {
	case *BOFRecord:
		if ver := v.BIFFVersion(); ver != VersionUnknown {
			d.version = ver
		}
	case *CodepageRecord:
		d.codepage = int(v.Codepage)
		d.log.Debugw("codepage", "codepage", d.codepage)
	}
}
