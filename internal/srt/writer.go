package srt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Cue is one finished subtitle entry: sequential index, display window,
// and the recognized text lines in top-to-bottom order.
type Cue struct {
	Index  int
	Start  time.Duration
	End    time.Duration
	Lines  []string
	Forced bool
}

// Text joins the cue's lines with newlines.
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// FormatTimestamp renders a duration in the SubRip time format
// HH:MM:SS,mmm. Negative durations clamp to zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// Write emits the cues as numbered SubRip blocks separated by blank lines.
func Write(w io.Writer, cues []Cue) error {
	buffered := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			if _, err := buffered.WriteString("\n"); err != nil {
				return fmt.Errorf("write srt: %w", err)
			}
		}
		if _, err := fmt.Fprintf(buffered, "%d\n%s --> %s\n%s\n",
			cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text()); err != nil {
			return fmt.Errorf("write srt: %w", err)
		}
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// WriteFile writes the cues to path, or to stdout when path is empty.
func WriteFile(path string, cues []Cue) error {
	if path == "" {
		return Write(os.Stdout, cues)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create srt file: %w", err)
	}
	if err := Write(file, cues); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close srt file: %w", err)
	}
	return nil
}
