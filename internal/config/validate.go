package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateCache()
}

func (c *Config) validateOCR() error {
	if strings.TrimSpace(c.OCR.Binary) == "" {
		return errors.New("ocr.binary must be set")
	}
	if c.OCR.DPI <= 0 {
		return errors.New("ocr.dpi must be positive")
	}
	if c.OCR.TimeoutSeconds <= 0 {
		return errors.New("ocr.timeout_seconds must be positive")
	}
	for key := range c.OCR.Options {
		if strings.TrimSpace(key) == "" {
			return errors.New("ocr.options keys must not be empty")
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers <= 0 {
		return errors.New("pipeline.workers must be positive")
	}
	if c.Pipeline.Threshold <= 0 || c.Pipeline.Threshold >= 1 {
		return fmt.Errorf("pipeline.threshold must be between 0 and 1 exclusive, got %v", c.Pipeline.Threshold)
	}
	if c.Pipeline.Border < 0 {
		return errors.New("pipeline.border must be >= 0")
	}
	if c.Pipeline.LineGap < 0 {
		return errors.New("pipeline.line_gap must be >= 0")
	}
	if c.Pipeline.Scale < 1 {
		return errors.New("pipeline.scale must be >= 1")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	return nil
}
