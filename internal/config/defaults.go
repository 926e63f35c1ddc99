package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultOCRBinary      = "tesseract"
	defaultOCRLanguage    = "eng"
	defaultOCRDPI         = 150
	defaultOCRBlacklist   = `|\/` + "`" + `_~`
	defaultOCRTimeoutSecs = 30

	defaultThreshold = 0.6
	defaultBorder    = 10
	defaultLineGap   = 1
	defaultScale     = 1

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		OCR: OCR{
			Binary:         defaultOCRBinary,
			Language:       defaultOCRLanguage,
			DPI:            defaultOCRDPI,
			Blacklist:      defaultOCRBlacklist,
			TimeoutSeconds: defaultOCRTimeoutSecs,
		},
		Pipeline: Pipeline{
			Threshold: defaultThreshold,
			Border:    defaultBorder,
			LineGap:   defaultLineGap,
			Scale:     defaultScale,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vobscribe", "ocr.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/vobscribe/ocr.db"
	}
	return filepath.Join(home, ".cache", "vobscribe", "ocr.db")
}
