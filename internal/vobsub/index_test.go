package vobsub_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"vobscribe/internal/testsupport"
	"vobscribe/internal/vobsub"
)

func TestParseIndexReadsEntriesInOrder(t *testing.T) {
	doc := testsupport.IndexFile(720, 576, nil, []testsupport.IndexEntry{
		{Timestamp: "00:00:01:000", Offset: 0x000},
		{Timestamp: "00:01:42:520", Offset: 0x800},
		{Timestamp: "01:02:03:004", Offset: 0x1800},
	})

	idx, err := vobsub.ParseIndex(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	if idx.Width != 720 || idx.Height != 576 {
		t.Fatalf("expected 720x576, got %dx%d", idx.Width, idx.Height)
	}
	if len(idx.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(idx.Entries))
	}

	wantTimes := []time.Duration{
		time.Second,
		time.Minute + 42*time.Second + 520*time.Millisecond,
		time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond,
	}
	wantOffsets := []int64{0x000, 0x800, 0x1800}
	for i, entry := range idx.Entries {
		if entry.Timestamp != wantTimes[i] {
			t.Fatalf("entry %d: expected timestamp %s, got %s", i, wantTimes[i], entry.Timestamp)
		}
		if entry.Offset != wantOffsets[i] {
			t.Fatalf("entry %d: expected offset %#x, got %#x", i, wantOffsets[i], entry.Offset)
		}
	}
	for i := 1; i < len(idx.Entries); i++ {
		if idx.Entries[i].Timestamp <= idx.Entries[i-1].Timestamp {
			t.Fatalf("timestamps not strictly increasing at entry %d", i)
		}
	}
}

func TestParseIndexParsesPalette(t *testing.T) {
	doc := testsupport.IndexFile(720, 480, nil, []testsupport.IndexEntry{
		{Timestamp: "00:00:01:000", Offset: 0},
	})
	idx, err := vobsub.ParseIndex(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	if got := idx.Palette[0]; got != (vobsub.RGB{}) {
		t.Fatalf("expected black palette entry 0, got %+v", got)
	}
	if got := (vobsub.RGB{R: 0xFF, G: 0xFF, B: 0xFF}); idx.Palette[3] != got {
		t.Fatalf("expected white palette entry 3, got %+v", idx.Palette[3])
	}
}

func TestParseIndexAppliesDelay(t *testing.T) {
	doc := strings.Join([]string{
		"size: 720x576",
		"palette: " + strings.Join(testsupport.DefaultPaletteFields(), ", "),
		"timestamp: 00:00:01:000, filepos: 000000000",
		"delay: -00:00:00:500",
		"timestamp: 00:00:03:000, filepos: 000000800",
	}, "\n")

	idx, err := vobsub.ParseIndex(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	if got := idx.Entries[1].Timestamp; got != 2500*time.Millisecond {
		t.Fatalf("expected delayed timestamp 2.5s, got %s", got)
	}
}

func TestParseIndexRejectsIncompleteDocuments(t *testing.T) {
	palette := "palette: " + strings.Join(testsupport.DefaultPaletteFields(), ", ")
	cases := []struct {
		name string
		doc  string
	}{
		{"missing size", palette + "\ntimestamp: 00:00:01:000, filepos: 000000000"},
		{"missing palette", "size: 720x576\ntimestamp: 00:00:01:000, filepos: 000000000"},
		{"no entries", "size: 720x576\n" + palette},
		{"bad timecode", "size: 720x576\n" + palette + "\ntimestamp: 00:00:01, filepos: 000000000"},
		{"bad filepos", "size: 720x576\n" + palette + "\ntimestamp: 00:00:01:000, filepos: zz"},
		{"short palette", "size: 720x576\npalette: 000000, ffffff\ntimestamp: 00:00:01:000, filepos: 000000000"},
		{"non-increasing", "size: 720x576\n" + palette +
			"\ntimestamp: 00:00:02:000, filepos: 000000000" +
			"\ntimestamp: 00:00:02:000, filepos: 000000800"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := vobsub.ParseIndex(strings.NewReader(tc.doc))
			if !errors.Is(err, vobsub.ErrMalformedIndex) {
				t.Fatalf("expected ErrMalformedIndex, got %v", err)
			}
		})
	}
}

func TestParseIndexIgnoresUnknownKeysAndComments(t *testing.T) {
	doc := strings.Join([]string{
		"# comment line",
		"size: 720x576",
		"org: 0, 0",
		"langidx: 0",
		"id: en, index: 0",
		"palette: " + strings.Join(testsupport.DefaultPaletteFields(), ", "),
		"timestamp: 00:00:01:000, filepos: 000000000",
	}, "\n")
	idx, err := vobsub.ParseIndex(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	if len(idx.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(idx.Entries))
	}
}
