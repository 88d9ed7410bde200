package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeBinaries()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if len(c.Ingest.AllowedExtensions) == 0 {
		c.Ingest.AllowedExtensions = []string{"wav"}
	}
	normalized := make([]string, 0, len(c.Ingest.AllowedExtensions))
	for _, ext := range c.Ingest.AllowedExtensions {
		cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if cleaned != "" {
			normalized = append(normalized, cleaned)
		}
	}
	c.Ingest.AllowedExtensions = normalized
}

func (c *Config) normalizeBinaries() {
	c.Separation.Binary = strings.TrimSpace(c.Separation.Binary)
	c.Pitch.Binary = strings.TrimSpace(c.Pitch.Binary)
	c.Render.MuseScoreBinary = strings.TrimSpace(c.Render.MuseScoreBinary)
	c.Render.VerovioBinary = strings.TrimSpace(c.Render.VerovioBinary)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
