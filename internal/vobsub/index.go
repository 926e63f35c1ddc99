package vobsub

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one scheduled subtitle: when it appears and where its packet
// starts in the .sub stream.
type Entry struct {
	Timestamp time.Duration
	Offset    int64
}

// Index is the parsed .idx metadata. Immutable once parsed.
type Index struct {
	Width   int
	Height  int
	Palette Palette
	Entries []Entry
}

// ParseIndex reads .idx content and returns the stream index.
//
// Unknown keys and comment lines are ignored; "delay:" lines shift all
// subsequent timestamps as some authoring tools emit them. The index must
// declare a frame size, a palette, and at least one timestamp/offset pair,
// and timestamps must be strictly increasing.
func ParseIndex(r io.Reader) (*Index, error) {
	idx := &Index{}
	var (
		havePalette bool
		haveSize    bool
		delay       time.Duration
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "size":
			width, height, err := parseSize(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedIndex, lineNo, err)
			}
			idx.Width, idx.Height = width, height
			haveSize = true
		case "palette":
			palette, err := ParsePalette(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			idx.Palette = palette
			havePalette = true
		case "delay":
			parsed, err := parseDelay(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedIndex, lineNo, err)
			}
			delay = parsed
		case "timestamp":
			entry, err := parseTimestampLine(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedIndex, lineNo, err)
			}
			entry.Timestamp += delay
			if n := len(idx.Entries); n > 0 && entry.Timestamp <= idx.Entries[n-1].Timestamp {
				return nil, fmt.Errorf("%w: line %d: timestamp %s does not increase", ErrMalformedIndex, lineNo, entry.Timestamp)
			}
			idx.Entries = append(idx.Entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	if !haveSize {
		return nil, fmt.Errorf("%w: missing size declaration", ErrMalformedIndex)
	}
	if !havePalette {
		return nil, fmt.Errorf("%w: missing palette declaration", ErrMalformedIndex)
	}
	if len(idx.Entries) == 0 {
		return nil, fmt.Errorf("%w: no timestamp entries", ErrMalformedIndex)
	}
	return idx, nil
}

// OpenIndex parses the .idx file at path and returns the index together
// with the path of the companion .sub data file.
func OpenIndex(path string) (*Index, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open index: %w", err)
	}
	defer file.Close()

	idx, err := ParseIndex(file)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	subPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".sub"
	return idx, subPath, nil
}

func parseSize(value string) (int, int, error) {
	wText, hText, found := strings.Cut(value, "x")
	if !found {
		return 0, 0, fmt.Errorf("size %q is not WxH", value)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(wText))
	height, errH := strconv.Atoi(strings.TrimSpace(hText))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q is not a positive WxH pair", value)
	}
	return width, height, nil
}

// parseTimestampLine parses "HH:MM:SS:mmm, filepos: <hex>".
func parseTimestampLine(value string) (Entry, error) {
	timeText, rest, found := strings.Cut(value, ",")
	if !found {
		return Entry{}, fmt.Errorf("timestamp %q has no filepos", value)
	}
	timestamp, err := parseTimecode(strings.TrimSpace(timeText))
	if err != nil {
		return Entry{}, err
	}

	rest = strings.TrimSpace(rest)
	posText, ok := strings.CutPrefix(rest, "filepos:")
	if !ok {
		return Entry{}, fmt.Errorf("timestamp %q has no filepos", value)
	}
	offset, err := strconv.ParseInt(strings.TrimSpace(posText), 16, 64)
	if err != nil || offset < 0 {
		return Entry{}, fmt.Errorf("filepos %q is not a hex offset", posText)
	}
	return Entry{Timestamp: timestamp, Offset: offset}, nil
}

// parseTimecode parses "HH:MM:SS:mmm".
func parseTimecode(value string) (time.Duration, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("timecode %q is not HH:MM:SS:mmm", value)
	}
	hours, errH := strconv.Atoi(parts[0])
	minutes, errM := strconv.Atoi(parts[1])
	seconds, errS := strconv.Atoi(parts[2])
	millis, errMS := strconv.Atoi(parts[3])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("timecode %q is not numeric", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// parseDelay parses a delay value, which uses the timecode format with an
// optional leading sign.
func parseDelay(value string) (time.Duration, error) {
	negative := false
	if strings.HasPrefix(value, "-") {
		negative = true
		value = strings.TrimSpace(strings.TrimPrefix(value, "-"))
	} else {
		value = strings.TrimSpace(strings.TrimPrefix(value, "+"))
	}
	parsed, err := parseTimecode(value)
	if err != nil {
		return 0, err
	}
	if negative {
		parsed = -parsed
	}
	return parsed, nil
}
