package main

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TsubasaBE/go-biff/biff8"
)

func newCountCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE",
		Short: "Count records by type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, entries, err := o.load(args[0])
			if err != nil {
				return err
			}
			counts := make(map[uint16]int)
			for _, e := range entries {
				counts[e.rec.Tag()]++
			}
			// Most frequent first, ties by tag.
			tags := slices.SortedFunc(maps.Keys(counts), func(a, b uint16) int {
				if c := cmp.Compare(counts[b], counts[a]); c != 0 {
					return c
				}
				return cmp.Compare(a, b)
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			for _, tag := range tags {
				fmt.Fprintf(w, "%s\t0x%04X\t%d\n", biff8.Name(tag), tag, counts[tag])
			}
			fmt.Fprintf(w, "total\t\t%d\n", len(entries))
			return nil
		},
	}
}
