package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"vobscribe/internal/logging"
	"vobscribe/internal/ocr"
	"vobscribe/internal/ocrcache"
	"vobscribe/internal/raster"
	"vobscribe/internal/srt"
	"vobscribe/internal/vobsub"
)

// Options tunes decoding, image preparation, and recognition.
type Options struct {
	// Workers is the number of concurrent recognition workers. Values
	// below 1 use every CPU.
	Workers int
	// Threshold is the relative luminance cutoff for text ink.
	Threshold float64
	// Border is the white margin around each line crop.
	Border int
	// Gap is the blank-row tolerance inside one text line.
	Gap int
	// Scale enlarges crops by an integer factor before recognition.
	Scale int

	// Language is the engine model code (eng, deu, chi_sim, ...).
	Language string
	// EngineOptions are passed through to the engine verbatim.
	EngineOptions map[string]string
	// OCRTimeout bounds a single recognition call. Zero disables it.
	OCRTimeout time.Duration

	// DumpDir, when set, receives every crop as a PNG for threshold and
	// border debugging.
	DumpDir string
}

// Converter runs the conversion for one VobSub stream.
type Converter struct {
	Index  *vobsub.Index
	Data   []byte
	Engine ocr.Engine
	// Cache is optional; nil disables result reuse.
	Cache   *ocrcache.Store
	Logger  *slog.Logger
	Options Options
}

// Result summarizes a finished run.
type Result struct {
	Cues []srt.Cue
	// Skipped counts subtitles dropped because their packet failed to
	// decode.
	Skipped int
	// Degraded counts text lines that came back empty because
	// recognition failed.
	Degraded int
	// CacheHits counts lines answered from the cache.
	CacheHits int
}

// entryOutcome is one worker's result slot. Slots are indexed by entry
// position so workers never contend.
type entryOutcome struct {
	cue       *srt.Cue
	skipped   bool
	degraded  int
	cacheHits int
}

// Run converts every scheduled subtitle and returns the ordered cues.
// Decode and recognition failures degrade the output instead of aborting;
// only context cancellation and invalid construction return an error.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	if c.Index == nil || len(c.Data) == 0 {
		return nil, errors.New("pipeline: index and stream data are required")
	}
	if c.Engine == nil {
		return nil, errors.New("pipeline: recognition engine is required")
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	workers := c.Options.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(c.Index.Entries) {
		workers = len(c.Index.Entries)
	}

	threshold := c.Options.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = raster.DefaultThreshold
	}
	segmenter := raster.Segmenter{
		Border: c.Options.Border,
		Gap:    c.Options.Gap,
		Scale:  c.Options.Scale,
	}
	if c.Options.DumpDir != "" {
		if err := os.MkdirAll(c.Options.DumpDir, 0o755); err != nil {
			return nil, fmt.Errorf("create dump directory: %w", err)
		}
	}

	lum := raster.Luminance(c.Index.Palette)
	outcomes := make([]entryOutcome, len(c.Index.Entries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ix := range jobs {
				c.convertEntry(ctx, ix, lum, threshold, segmenter, logger, &outcomes[ix])
			}
		}()
	}

	canceled := false
feed:
	for ix := range c.Index.Entries {
		select {
		case jobs <- ix:
		case <-ctx.Done():
			canceled = true
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if canceled || ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &Result{}
	for _, outcome := range outcomes {
		if outcome.skipped {
			result.Skipped++
			continue
		}
		result.Degraded += outcome.degraded
		result.CacheHits += outcome.cacheHits
		if outcome.cue != nil {
			outcome.cue.Index = len(result.Cues) + 1
			result.Cues = append(result.Cues, *outcome.cue)
		}
	}

	logger.Info("conversion finished",
		logging.Int("cues", len(result.Cues)),
		logging.Int("skipped", result.Skipped),
		logging.Int("degraded", result.Degraded),
		logging.Int("cache_hits", result.CacheHits))
	return result, nil
}

func (c *Converter) convertEntry(
	ctx context.Context,
	ix int,
	lum [16]float64,
	threshold float64,
	segmenter raster.Segmenter,
	logger *slog.Logger,
	out *entryOutcome,
) {
	entry := c.Index.Entries[ix]

	sub, err := vobsub.DecodeEntry(c.Data, entry)
	if err != nil {
		logger.Warn("subtitle failed to decode",
			logging.Int("entry", ix),
			logging.Duration("timestamp", entry.Timestamp),
			logging.Error(err))
		out.skipped = true
		return
	}

	composited := raster.Composite(sub, lum, threshold)
	crops := segmenter.Split(composited)

	var lines []string
	for lineIx, crop := range crops {
		if ctx.Err() != nil {
			return
		}
		if c.Options.DumpDir != "" {
			c.dumpCrop(ix, lineIx, crop, logger)
		}

		text, hit, err := c.recognizeLine(ctx, crop, logger)
		if hit {
			out.cacheHits++
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("line failed to recognize",
				logging.Int("entry", ix),
				logging.Int("line", lineIx),
				logging.Duration("timestamp", entry.Timestamp),
				logging.Error(err))
			out.degraded++
			continue
		}
		if text != "" {
			lines = append(lines, text)
		}
	}

	out.cue = &srt.Cue{
		Start:  sub.Start,
		End:    sub.End,
		Lines:  lines,
		Forced: sub.Forced,
	}
}

// recognizeLine answers from the cache when possible, otherwise runs the
// engine under the configured timeout and caches the result.
func (c *Converter) recognizeLine(ctx context.Context, crop *image.Gray, logger *slog.Logger) (string, bool, error) {
	var key string
	if c.Cache != nil {
		key = ocrcache.Key(crop, c.Options.Language, c.Options.EngineOptions)
		text, ok, err := c.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache read failed", logging.Error(err))
		} else if ok {
			return text, true, nil
		}
	}

	recognizeCtx := ctx
	if c.Options.OCRTimeout > 0 {
		var cancel context.CancelFunc
		recognizeCtx, cancel = context.WithTimeout(ctx, c.Options.OCRTimeout)
		defer cancel()
	}

	text, err := c.Engine.Recognize(recognizeCtx, ocr.Request{
		Image:    crop,
		Language: c.Options.Language,
		Options:  c.Options.EngineOptions,
	})
	if err != nil {
		return "", false, err
	}

	if c.Cache != nil {
		if err := c.Cache.Put(ctx, key, text); err != nil {
			logger.Warn("cache write failed", logging.Error(err))
		}
	}
	return text, false, nil
}

func (c *Converter) dumpCrop(entryIx, lineIx int, crop *image.Gray, logger *slog.Logger) {
	name := fmt.Sprintf("%06d-%02d.png", entryIx, lineIx)
	path := filepath.Join(c.Options.DumpDir, name)
	file, err := os.Create(path)
	if err != nil {
		logger.Warn("crop dump failed", logging.String("path", path), logging.Error(err))
		return
	}
	defer file.Close()
	if err := png.Encode(file, crop); err != nil {
		logger.Warn("crop dump failed", logging.String("path", path), logging.Error(err))
	}
}
