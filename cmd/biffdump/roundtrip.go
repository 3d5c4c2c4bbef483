package main

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/TsubasaBE/go-biff/biff8"
	"github.com/TsubasaBE/go-biff/record"
)

func newRoundTripCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip FILE",
		Short: "Check that the stream re-encodes byte for byte",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, entries, err := o.load(args[0])
			if err != nil {
				return err
			}
			var out []byte
			for _, e := range entries {
				if out, err = record.AppendRecord(out, e.rec); err != nil {
					return errors.Wrapf(err, "%s at offset %d", biff8.Name(e.rec.Tag()), e.offset)
				}
			}
			if bytes.Equal(data, out) {
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d records, %d bytes\n", len(entries), len(data))
				return nil
			}
			at := firstDifference(data, out)
			return errors.Newf("re-encoded stream differs at offset %d (%s): %d bytes in, %d bytes out",
				at, recordAt(entries, int64(at)), len(data), len(out))
		},
	}
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// recordAt names the input record that covers offset.
func recordAt(entries []entry, offset int64) string {
	name := "end of stream"
	for _, e := range entries {
		if e.offset > offset {
			break
		}
		name = biff8.Name(e.rec.Tag())
	}
	return name
}
