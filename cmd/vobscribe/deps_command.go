package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"vobscribe/internal/deps"
	"vobscribe/internal/language"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that required external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries([]deps.Requirement{
				{
					Name:        "OCR engine",
					Command:     cfg.OCR.Binary,
					Description: "recognizes subtitle text (tesseract)",
				},
			})

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			missing := 0
			for _, status := range statuses {
				label := "ok"
				if !status.Available {
					missing++
					label = "missing"
					if status.Detail != "" {
						label += " (" + status.Detail + ")"
					}
				}
				if colorize {
					if status.Available {
						label = text.FgGreen.Sprint(label)
					} else {
						label = text.FgRed.Sprint(label)
					}
				}
				fmt.Fprintf(out, "%-12s %-12s %s\n", status.Name, status.Command, label)
			}

			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}

			model, err := language.ToModelCode(cfg.OCR.Language)
			if err != nil {
				return fmt.Errorf("configured language %q: %w", cfg.OCR.Language, err)
			}
			ok, err := deps.HasLanguage(cfg.OCR.Binary, model)
			if err != nil {
				fmt.Fprintf(out, "language     %-12s could not query installed models: %v\n", model, err)
				return nil
			}
			label := "ok"
			if !ok {
				label = fmt.Sprintf("missing (install the %s model for %s)", model, cfg.OCR.Binary)
			}
			if colorize {
				if ok {
					label = text.FgGreen.Sprint(label)
				} else {
					label = text.FgRed.Sprint(label)
				}
			}
			fmt.Fprintf(out, "%-12s %-12s %s\n", "language", model, label)
			if !ok {
				return fmt.Errorf("language model %q not installed", model)
			}
			return nil
		},
	}
}
