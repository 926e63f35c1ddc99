package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"vobscribe/internal/srt"
	"vobscribe/internal/vobsub"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "probe <input.idx>",
		Short: "Inspect a VobSub stream without running recognition",
		Long: `Probe parses the index, decodes every scheduled subtitle packet, and
prints one row per entry: display window, raster position and size, and
whether the packet decoded cleanly. Useful for checking a stream before
spending OCR time on it, and for spotting corrupt entries.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, subPath, err := vobsub.OpenIndex(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(subPath)
			if err != nil {
				return fmt.Errorf("read subtitle stream: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stream:  %s\n", subPath)
			fmt.Fprintf(out, "Frame:   %dx%d\n", index.Width, index.Height)
			fmt.Fprintf(out, "Entries: %d\n\n", len(index.Entries))

			rows := make([][]string, 0, len(index.Entries))
			corrupt := 0
			forced := 0
			for i, entry := range index.Entries {
				row := []string{
					strconv.Itoa(i + 1),
					srt.FormatTimestamp(entry.Timestamp),
					fmt.Sprintf("%09x", entry.Offset),
				}
				sub, err := vobsub.DecodeEntry(data, entry)
				if err != nil {
					corrupt++
					row = append(row, "-", "-", "-", "decode failed: "+err.Error())
				} else {
					if sub.Forced {
						forced++
					}
					row = append(row,
						srt.FormatTimestamp(sub.End),
						fmt.Sprintf("%d,%d", sub.X, sub.Y),
						fmt.Sprintf("%dx%d", sub.Width, sub.Height),
						yesNo(sub.Forced),
					)
				}
				rows = append(rows, row)
			}

			if showAll || len(rows) <= 40 {
				headers := []string{"#", "Start", "Offset", "End", "Position", "Size", "Forced"}
				aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
			} else {
				fmt.Fprintf(out, "(%d entries; use --all to list them)\n", len(rows))
			}

			fmt.Fprintf(out, "\nForced entries:  %d\n", forced)
			fmt.Fprintf(out, "Corrupt entries: %d\n", corrupt)
			if corrupt > 0 {
				return fmt.Errorf("%d of %d entries failed to decode", corrupt, len(index.Entries))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "List every entry regardless of count")
	return cmd
}
