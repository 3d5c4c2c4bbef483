// Command biffdump inspects the record stream of a BIFF8 workbook.  The
// input is the "Workbook" stream already extracted from the .xls container.
//
//	biffdump dump Workbook.bin --values
//	biffdump count Workbook.bin
//	biffdump roundtrip Workbook.bin
package main

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-biff/record"
	"github.com/TsubasaBE/go-biff/records"
)

// options holds the flags shared by every command.
type options struct {
	verbose  bool
	strict   bool
	codepage int

	log *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "biffdump",
		Short: "Inspect BIFF8 workbook record streams",
		Long: `biffdump decodes the record stream of a legacy Excel workbook and
prints it, counts its records or checks that it re-encodes byte for byte.

Examples:
  biffdump dump Workbook.bin --values
  biffdump count Workbook.bin
  biffdump roundtrip Workbook.bin`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !o.verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			o.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = o.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log decoder activity to stderr")
	root.PersistentFlags().BoolVar(&o.strict, "strict", false, "Fail on record bytes a decoder leaves unread")
	root.PersistentFlags().IntVar(&o.codepage, "codepage", record.DefaultCodepage, "Codepage of 8-bit text before a CODEPAGE record")

	root.AddCommand(newDumpCmd(o))
	root.AddCommand(newCountCmd(o))
	root.AddCommand(newRoundTripCmd(o))
	return root
}

// entry is one decoded record and where it started.
type entry struct {
	offset int64
	rec    record.Record
}

// load decodes the named file.  Entries decoded before an error are
// returned with it.
func (o *options) load(name string) ([]byte, []entry, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %q", name)
	}
	d := records.NewDecoder(record.NewStream(data),
		records.WithLogger(o.log),
		records.WithStrict(o.strict),
		records.WithCodepage(o.codepage),
	)
	var out []entry
	for {
		r, err := d.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return data, out, nil
			}
			return data, out, err
		}
		out = append(out, entry{offset: d.Offset(), rec: r})
	}
}
