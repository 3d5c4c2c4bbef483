package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/formula"
	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/records"
	"github.com/TsubasaBE/go-biff/styles"
)

func newDumpCmd(o *options) *cobra.Command {
	var noOffsets, values, full bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print one line per record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, entries, err := o.load(args[0])
			p := &printer{
				w:         cmd.OutOrStdout(),
				noOffsets: noOffsets,
				values:    values,
				full:      full,
				book:      scanBook(entries),
			}
			for _, e := range entries {
				p.print(e)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noOffsets, "no-offsets", false, "Omit stream offsets")
	cmd.Flags().BoolVar(&values, "values", false, "Render cell values with their number formats")
	cmd.Flags().BoolVar(&full, "full", false, "Print every field of decoded records")
	return cmd
}

// book is the workbook-global state cell values are rendered with.
type book struct {
	styles   styles.StyleTable
	sst      *records.SSTRecord
	date1904 bool
}

func scanBook(entries []entry) book {
	recs := make([]record.Record, len(entries))
	for i, e := range entries {
		recs[i] = e.rec
	}
	b := book{styles: styles.Build(recs)}
	for _, r := range recs {
		switch v := r.(type) {
		case *records.SSTRecord:
			if b.sst == nil {
				b.sst = v
			}
		case *records.DateWindow1904Record:
			b.date1904 = v.Date1904
		}
	}
	return b
}

type printer struct {
	w         io.Writer
	noOffsets bool
	values    bool
	full      bool
	book      book

	// pending is the formula cell whose cached string is in the next
	// STRING record.
	pending *records.FormulaRecord
}

func (p *printer) print(e entry) {
	var sb strings.Builder
	if !p.noOffsets {
		fmt.Fprintf(&sb, "%08X  ", e.offset)
	}
	fmt.Fprintf(&sb, "%-14s 0x%04X", biff8.Name(e.rec.Tag()), e.rec.Tag())
	if n, err := record.Size(e.rec); err == nil {
		fmt.Fprintf(&sb, " size=%d", n)
	} else {
		sb.WriteString(" read-only")
	}
	if p.values {
		for _, v := range p.cellValues(e.rec) {
			sb.WriteString("  ")
			sb.WriteString(v)
		}
	}
	fmt.Fprintln(p.w, sb.String())
	if s, ok := e.rec.(fmt.Stringer); ok && p.full {
		fmt.Fprintln(p.w, s.String())
	}
}

// cellValues renders the cells r holds as "REF=value" strings.
func (p *printer) cellValues(r record.Record) []string {
	cell := func(h *records.CellHeader, v any) string {
		return fmt.Sprintf("%s=%s", h.Ref(), p.book.styles.FormatCell(v, h.XFIndex, p.book.date1904))
	}
	switch v := r.(type) {
	case *records.NumberRecord:
		return []string{cell(&v.CellHeader, v.Value)}
	case *records.RKRecord:
		return []string{cell(&v.CellHeader, v.Value())}
	case *records.LabelRecord:
		return []string{cell(&v.CellHeader, v.Value)}
	case *records.LabelSSTRecord:
		s, ok := p.sstString(v.SSTIndex)
		if !ok {
			return []string{fmt.Sprintf("%s=<sst %d missing>", v.Ref(), v.SSTIndex)}
		}
		return []string{cell(&v.CellHeader, s)}
	case *records.BoolErrRecord:
		if v.IsError() {
			return []string{fmt.Sprintf("%s=%s", v.Ref(), formula.ErrorText(v.ErrorValue()))}
		}
		return []string{cell(&v.CellHeader, v.BoolValue())}
	case *records.MulRKRecord:
		var out []string
		for _, n := range v.NumberRecords() {
			out = append(out, cell(&n.CellHeader, n.Value))
		}
		return out
	case *records.OldLabelRecord:
		s, err := v.Value()
		if err != nil {
			return []string{fmt.Sprintf("%s=<%v>", v.Ref(), err)}
		}
		return []string{fmt.Sprintf("%s=%s", v.Ref(), s)}
	case *records.FormulaRecord:
		return []string{p.formulaValue(v)}
	case *records.StringRecord:
		if fr := p.pending; fr != nil {
			p.pending = nil
			return []string{fmt.Sprintf("%s=%s", fr.Ref(), v.Value)}
		}
	}
	return nil
}

func (p *printer) formulaValue(fr *records.FormulaRecord) string {
	switch fr.CachedResultType() {
	case records.CachedNumber:
		return fmt.Sprintf("%s=%s", fr.Ref(), p.book.styles.FormatCell(fr.Value(), fr.XFIndex, p.book.date1904))
	case records.CachedString:
		p.pending = fr
		return fmt.Sprintf("%s=<string follows>", fr.Ref())
	case records.CachedBoolean:
		return fmt.Sprintf("%s=%s", fr.Ref(), p.book.styles.FormatCell(fr.CachedBool(), fr.XFIndex, p.book.date1904))
	case records.CachedError:
		return fmt.Sprintf("%s=%s", fr.Ref(), formula.ErrorText(fr.CachedError()))
	}
	return fmt.Sprintf("%s=", fr.Ref())
}

func (p *printer) sstString(idx int) (string, bool) {
	if p.book.sst == nil {
		return "", false
	}
	return p.book.sst.Get(idx)
}
