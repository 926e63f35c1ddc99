package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vobscribe/internal/logging"
	"vobscribe/internal/ocr"
	"vobscribe/internal/ocrcache"
	"vobscribe/internal/pipeline"
	"vobscribe/internal/srt"
	"vobscribe/internal/testsupport"
	"vobscribe/internal/vobsub"
)

// inkPicture renders a single bar of bright opaque pixels whose width
// identifies the subtitle to the stub engine.
func inkPicture(inkWidth int) testsupport.Picture {
	const width, height = 24, 6
	pixels := make([]uint8, width*height)
	for y := 2; y <= 3; y++ {
		for x := 2; x < 2+inkWidth; x++ {
			pixels[y*width+x] = 3
		}
	}
	return testsupport.Picture{
		Width:   width,
		Height:  height,
		Pixels:  pixels,
		X:       100,
		Y:       400,
		Palette: [4]uint8{0, 1, 2, 3},
		Alpha:   [4]uint8{0, 0, 0, 15},
	}
}

// buildFixture wraps the pictures into a program stream and a matching
// parsed index, one entry per second starting at 00:00:01.
func buildFixture(t *testing.T, pics []testsupport.Picture) (*vobsub.Index, []byte) {
	t.Helper()
	var data []byte
	entries := make([]testsupport.IndexEntry, 0, len(pics))
	for i, pic := range pics {
		entries = append(entries, testsupport.IndexEntry{
			Timestamp: fmt.Sprintf("00:00:%02d:000", i+1),
			Offset:    int64(len(data)),
		})
		packet := testsupport.BuildSubtitlePacket(pic)
		data = append(data, testsupport.WrapProgramStream(packet, 0, 0x20)...)
	}

	index, err := vobsub.ParseIndex(strings.NewReader(
		testsupport.IndexFile(720, 480, nil, entries)))
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	return index, data
}

// stubEngine answers by crop width so tests stay independent of worker
// scheduling.
type stubEngine struct {
	mu      sync.Mutex
	calls   int
	byWidth map[int]string
	failFor int
}

func (e *stubEngine) Recognize(_ context.Context, req ocr.Request) (string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	width := req.Image.Bounds().Dx()
	if e.failFor != 0 && width == e.failFor {
		return "", errors.New("engine crashed")
	}
	text, ok := e.byWidth[width]
	if !ok {
		return "", fmt.Errorf("unexpected crop width %d", width)
	}
	return text, nil
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// cropWidth computes the expected crop width for an ink bar: tight bounds
// plus the border on both sides.
func cropWidth(inkWidth, border int) int {
	return inkWidth + 2*border
}

func baseOptions() pipeline.Options {
	return pipeline.Options{
		Workers:   1,
		Threshold: 0.6,
		Border:    2,
		Gap:       1,
		Scale:     1,
		Language:  "eng",
	}
}

func TestRunConvertsEntriesToCues(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{inkPicture(6), inkPicture(8)})
	engine := &stubEngine{byWidth: map[int]string{
		cropWidth(6, 2): "HELLO",
		cropWidth(8, 2): "WORLD",
	}}

	conv := &pipeline.Converter{Index: index, Data: data, Engine: engine, Options: baseOptions()}
	result, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(result.Cues))
	}
	want := []srt.Cue{
		{Index: 1, Start: 1 * time.Second, End: 5 * time.Second, Lines: []string{"HELLO"}},
		{Index: 2, Start: 2 * time.Second, End: 6 * time.Second, Lines: []string{"WORLD"}},
	}
	for i, cue := range result.Cues {
		if cue.Index != want[i].Index || cue.Start != want[i].Start || cue.End != want[i].End {
			t.Fatalf("cue %d timing mismatch: got %+v want %+v", i, cue, want[i])
		}
		if cue.Text() != want[i].Text() {
			t.Fatalf("cue %d text mismatch: got %q want %q", i, cue.Text(), want[i].Text())
		}
	}
	if result.Skipped != 0 || result.Degraded != 0 {
		t.Fatalf("expected clean run, got %+v", result)
	}
}

func TestRunWorkerCountsAgree(t *testing.T) {
	widths := []int{4, 5, 6, 7, 8, 9}
	pics := make([]testsupport.Picture, 0, len(widths))
	byWidth := map[int]string{}
	for _, w := range widths {
		pics = append(pics, inkPicture(w))
		byWidth[cropWidth(w, 2)] = fmt.Sprintf("LINE %d", w)
	}
	index, data := buildFixture(t, pics)

	// Zero means every CPU and must behave like any explicit count.
	var reference []srt.Cue
	for _, workers := range []int{1, 0, 4} {
		opts := baseOptions()
		opts.Workers = workers
		conv := &pipeline.Converter{
			Index:   index,
			Data:    data,
			Engine:  &stubEngine{byWidth: byWidth},
			Options: opts,
		}
		result, err := conv.Run(context.Background())
		if err != nil {
			t.Fatalf("run with %d workers: %v", workers, err)
		}
		if reference == nil {
			reference = result.Cues
			continue
		}
		if len(result.Cues) != len(reference) {
			t.Fatalf("cue count differs across worker counts: %d vs %d", len(result.Cues), len(reference))
		}
		for i := range reference {
			if result.Cues[i].Text() != reference[i].Text() || result.Cues[i].Start != reference[i].Start {
				t.Fatalf("cue %d differs across worker counts", i)
			}
		}
	}
}

func TestRunSkipsUndecodableEntries(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{
		inkPicture(4), inkPicture(5), inkPicture(6), inkPicture(7), inkPicture(9),
	})
	// Point one entry past the end of the stream.
	index.Entries[2].Offset = int64(len(data) + 64)

	engine := &stubEngine{byWidth: map[int]string{
		cropWidth(4, 2): "A",
		cropWidth(5, 2): "B",
		cropWidth(6, 2): "C",
		cropWidth(7, 2): "D",
		cropWidth(9, 2): "E",
	}}
	conv := &pipeline.Converter{Index: index, Data: data, Engine: engine, Options: baseOptions()}
	result, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped entry, got %d", result.Skipped)
	}
	if len(result.Cues) != 4 {
		t.Fatalf("expected 4 cues, got %d", len(result.Cues))
	}
	// Surviving cues renumber contiguously.
	wantText := []string{"A", "B", "D", "E"}
	for i, cue := range result.Cues {
		if cue.Index != i+1 {
			t.Fatalf("cue %d has index %d", i, cue.Index)
		}
		if cue.Text() != wantText[i] {
			t.Fatalf("cue %d text %q, want %q", i, cue.Text(), wantText[i])
		}
	}
}

func TestRunDegradesOnRecognitionFailure(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{inkPicture(6), inkPicture(8)})
	engine := &stubEngine{
		byWidth: map[int]string{cropWidth(6, 2): "KEPT"},
		failFor: cropWidth(8, 2),
	}

	conv := &pipeline.Converter{Index: index, Data: data, Engine: engine, Options: baseOptions()}
	result, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Degraded != 1 {
		t.Fatalf("expected 1 degraded line, got %d", result.Degraded)
	}
	if len(result.Cues) != 2 {
		t.Fatalf("expected both cues kept, got %d", len(result.Cues))
	}
	if result.Cues[0].Text() != "KEPT" {
		t.Fatalf("unexpected first cue text %q", result.Cues[0].Text())
	}
	// The failed line keeps its timing with empty text.
	if result.Cues[1].Text() != "" {
		t.Fatalf("expected empty text for degraded cue, got %q", result.Cues[1].Text())
	}
	if result.Cues[1].Start != 2*time.Second {
		t.Fatalf("degraded cue lost its timing: %v", result.Cues[1].Start)
	}
}

func TestRunReusesCachedResults(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{inkPicture(6), inkPicture(8)})
	byWidth := map[int]string{
		cropWidth(6, 2): "HELLO",
		cropWidth(8, 2): "WORLD",
	}

	cache, err := ocrcache.Open(filepath.Join(t.TempDir(), "ocr.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	first := &stubEngine{byWidth: byWidth}
	conv := &pipeline.Converter{Index: index, Data: data, Engine: first, Cache: cache, Options: baseOptions()}
	if _, err := conv.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.callCount() != 2 {
		t.Fatalf("expected 2 engine calls on cold cache, got %d", first.callCount())
	}

	second := &stubEngine{byWidth: byWidth}
	conv.Engine = second
	result, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.callCount() != 0 {
		t.Fatalf("expected warm cache to avoid engine calls, got %d", second.callCount())
	}
	if result.CacheHits != 2 {
		t.Fatalf("expected 2 cache hits, got %d", result.CacheHits)
	}
	if result.Cues[0].Text() != "HELLO" || result.Cues[1].Text() != "WORLD" {
		t.Fatalf("cached texts mismatch: %q, %q", result.Cues[0].Text(), result.Cues[1].Text())
	}
}

func TestRunSurvivesCacheFailure(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{inkPicture(6)})
	engine := &stubEngine{byWidth: map[int]string{cropWidth(6, 2): "HELLO"}}

	cache, err := ocrcache.Open(filepath.Join(t.TempDir(), "ocr.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	// A closed store fails every Get and Put.
	if err := cache.Close(); err != nil {
		t.Fatalf("close cache: %v", err)
	}

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	conv := &pipeline.Converter{
		Index:   index,
		Data:    data,
		Engine:  engine,
		Cache:   cache,
		Logger:  logger,
		Options: baseOptions(),
	}
	result, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if engine.callCount() != 1 {
		t.Fatalf("expected the engine to answer despite the broken cache, got %d calls", engine.callCount())
	}
	if len(result.Cues) != 1 || result.Cues[0].Text() != "HELLO" {
		t.Fatalf("unexpected cues: %+v", result.Cues)
	}
	logs := buf.String()
	if !strings.Contains(logs, "cache read failed") {
		t.Fatalf("expected a cache read warning, got:\n%s", logs)
	}
	if !strings.Contains(logs, "cache write failed") {
		t.Fatalf("expected a cache write warning, got:\n%s", logs)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{inkPicture(6), inkPicture(8)})
	engine := &stubEngine{byWidth: map[int]string{
		cropWidth(6, 2): "HELLO",
		cropWidth(8, 2): "WORLD",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &pipeline.Converter{Index: index, Data: data, Engine: engine, Options: baseOptions()}
	if _, err := conv.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunDumpsCrops(t *testing.T) {
	index, data := buildFixture(t, []testsupport.Picture{inkPicture(6)})
	engine := &stubEngine{byWidth: map[int]string{cropWidth(6, 2): "HELLO"}}

	opts := baseOptions()
	opts.DumpDir = filepath.Join(t.TempDir(), "crops")
	conv := &pipeline.Converter{Index: index, Data: data, Engine: engine, Options: opts}
	if _, err := conv.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(opts.DumpDir, "000000-00.png")); err != nil {
		t.Fatalf("expected dumped crop: %v", err)
	}
}
