package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"vobscribe/internal/logging"
)

func TestConsoleFormatFoldsComponentIntoPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	component := logging.NewComponentLogger(logger, "demux")
	component.Info("packet assembled", logging.Int("fragments", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO demux: packet assembled") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "fragments=3") {
		t.Fatalf("expected attr rendering, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component attr should not repeat as key=value: %q", line)
	}
}

func TestJSONFormatEmitsLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept", logging.String("reason", "test"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
	if record["msg"] != "kept" {
		t.Fatalf("expected only the warn record, got %v", record["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "error", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Debug("nope")
	logger.Info("nope")
	logger.Warn("nope")
	if buf.Len() != 0 {
		t.Fatalf("expected suppressed output, got %q", buf.String())
	}
	logger.Error("yes")
	if !strings.Contains(buf.String(), "ERROR yes") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("goes nowhere", logging.Error(nil))
}
