package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vobscribe/internal/language"
	"vobscribe/internal/logging"
	"vobscribe/internal/ocr"
	"vobscribe/internal/ocrcache"
	"vobscribe/internal/pipeline"
	"vobscribe/internal/srt"
	"vobscribe/internal/vobsub"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		langFlag   string
		workers    int
		threshold  float64
		border     int
		gap        int
		scale      int
		dumpDir    string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input.idx>",
		Short: "Convert a VobSub subtitle stream to SubRip text",
		Long: `Convert decodes every subtitle scheduled in the .idx file, renders each
one to per-line images, recognizes the text through the configured OCR
engine, and writes the result as a SubRip file.

The matching .sub file is located next to the .idx file. Output goes to
stdout unless --output is given. The command exits nonzero when any
subtitle failed to decode or any text line failed to recognize, even
though the remaining output is still written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			logger = logger.With(logging.String("run_id", uuid.NewString()))

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := pipeline.Options{
				Workers:       cfg.Pipeline.Workers,
				Threshold:     cfg.Pipeline.Threshold,
				Border:        cfg.Pipeline.Border,
				Gap:           cfg.Pipeline.LineGap,
				Scale:         cfg.Pipeline.Scale,
				EngineOptions: cfg.OCR.Options,
				OCRTimeout:    time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
				DumpDir:       cfg.Pipeline.DumpDir,
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = threshold
			}
			if cmd.Flags().Changed("border") {
				opts.Border = border
			}
			if cmd.Flags().Changed("gap") {
				opts.Gap = gap
			}
			if cmd.Flags().Changed("scale") {
				opts.Scale = scale
			}
			if cmd.Flags().Changed("dump") {
				opts.DumpDir = dumpDir
			}

			langCode := cfg.OCR.Language
			if cmd.Flags().Changed("language") {
				langCode = langFlag
			}
			model, err := language.ToModelCode(langCode)
			if err != nil {
				return fmt.Errorf("language %q: %w", langCode, err)
			}
			opts.Language = model

			index, subPath, err := vobsub.OpenIndex(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(subPath)
			if err != nil {
				return fmt.Errorf("read subtitle stream: %w", err)
			}
			logger.Info("stream opened",
				logging.String("index", args[0]),
				logging.String("stream", subPath),
				logging.Int("entries", len(index.Entries)),
				logging.String("language", language.DisplayName(model)),
				logging.String("model", model))

			engine := ocr.NewTesseract()
			engine.Binary = cfg.OCR.Binary
			engine.DPI = cfg.OCR.DPI
			engine.Blacklist = cfg.OCR.Blacklist
			if err := engine.Available(); err != nil {
				return fmt.Errorf("recognition engine unavailable: %w", err)
			}

			var cache *ocrcache.Store
			if cfg.Cache.Enabled && !noCache {
				cache, err = ocrcache.Open(cfg.Cache.Path)
				if err != nil {
					logger.Warn("cache unavailable, continuing without it",
						logging.String("path", cfg.Cache.Path),
						logging.Error(err))
					cache = nil
				} else {
					defer cache.Close()
				}
			}

			conv := &pipeline.Converter{
				Index:   index,
				Data:    data,
				Engine:  engine,
				Cache:   cache,
				Logger:  logger,
				Options: opts,
			}
			result, err := conv.Run(runCtx)
			if err != nil {
				return err
			}

			if err := srt.WriteFile(outputPath, result.Cues); err != nil {
				return err
			}

			if result.Skipped > 0 || result.Degraded > 0 {
				return fmt.Errorf("completed with %d undecodable subtitles and %d unrecognized lines",
					result.Skipped, result.Degraded)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output SRT path (default stdout)")
	cmd.Flags().StringVarP(&langFlag, "language", "l", "", "Subtitle language (BCP 47 tag or engine model code)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent recognition workers (0 = all CPUs)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Luminance cutoff for text ink (0..1)")
	cmd.Flags().IntVar(&border, "border", 0, "White margin in pixels around each line crop")
	cmd.Flags().IntVar(&gap, "gap", 0, "Blank rows tolerated inside one text line")
	cmd.Flags().IntVar(&scale, "scale", 0, "Integer upscale factor for crops")
	cmd.Flags().StringVar(&dumpDir, "dump", "", "Write every line crop as PNG into this directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the recognition result cache")

	return cmd
}
