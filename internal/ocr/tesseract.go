package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultBinary is the tesseract executable name.
	DefaultBinary = "tesseract"

	// DefaultDPI is reported to the engine for source resolution. DVD
	// subtitles have no physical resolution, but the value influences
	// recognition quality.
	DefaultDPI = 150

	// DefaultBlacklist removes characters the engine confuses with glyph
	// fragments in subtitle fonts.
	DefaultBlacklist = `|\/` + "`" + `_~`

	// singleLineSegmentation is tesseract's page segmentation mode for
	// exactly one line of text.
	singleLineSegmentation = "7"
)

// Tesseract runs the tesseract CLI on in-memory images.
type Tesseract struct {
	// Binary overrides the executable name or path.
	Binary string
	// DPI is passed as the source resolution.
	DPI int
	// Blacklist holds characters the engine must never emit.
	Blacklist string

	// commandRunner is swapped in tests to avoid spawning processes.
	commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// NewTesseract builds an engine with the package defaults.
func NewTesseract() *Tesseract {
	return &Tesseract{
		Binary:    DefaultBinary,
		DPI:       DefaultDPI,
		Blacklist: DefaultBlacklist,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Tesseract) WithCommandRunner(runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)) {
	t.commandRunner = runner
}

// Available reports whether the engine binary can be found.
func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.binary()); err != nil {
		return fmt.Errorf("tesseract binary: %w", err)
	}
	return nil
}

// Recognize feeds the image to tesseract over stdin and returns the
// recognized line with surrounding whitespace stripped.
func (t *Tesseract) Recognize(ctx context.Context, req Request) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("recognize: image is required")
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, req.Image); err != nil {
		return "", fmt.Errorf("encode line image: %w", err)
	}

	output, err := t.run(ctx, encoded.Bytes(), t.binary(), t.buildArgs(req)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	// Single-line segmentation still emits a trailing form feed and
	// newline; anything beyond that collapses into spaces.
	text := strings.TrimSpace(string(output))
	return strings.Join(strings.Fields(text), " "), nil
}

func (t *Tesseract) buildArgs(req Request) []string {
	args := []string{
		"stdin", "stdout",
		"--psm", singleLineSegmentation,
		"--oem", "1",
		"--dpi", strconv.Itoa(t.dpi()),
		"-c", "classify_enable_learning=0",
	}
	if req.Language != "" {
		args = append(args, "-l", req.Language)
	}
	if t.Blacklist != "" {
		args = append(args, "-c", "tessedit_char_blacklist="+t.Blacklist)
	}

	// Deterministic option order keeps invocations reproducible.
	keys := make([]string, 0, len(req.Options))
	for key := range req.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "-c", key+"="+req.Options[key])
	}
	return args
}

func (t *Tesseract) run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if t.commandRunner != nil {
		return t.commandRunner(ctx, stdin, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (t *Tesseract) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return DefaultBinary
}

func (t *Tesseract) dpi() int {
	if t.DPI > 0 {
		return t.DPI
	}
	return DefaultDPI
}
