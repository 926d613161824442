package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Metadata.Timezone = strings.TrimSpace(c.Metadata.Timezone)
	if c.Metadata.Timezone == "" {
		c.Metadata.Timezone = defaultTimezone
	}
	c.Exiftool.Binary = strings.TrimSpace(c.Exiftool.Binary)
	if c.Exiftool.Binary != "" && strings.ContainsAny(c.Exiftool.Binary, `/\~`) {
		expanded, err := expandPath(c.Exiftool.Binary)
		if err != nil {
			return fmt.Errorf("exiftool.binary: %w", err)
		}
		c.Exiftool.Binary = expanded
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UnmatchedDir) == "" {
		c.Paths.UnmatchedDir = defaultUnmatchedDir
	}
	if c.Paths.UnmatchedDir, err = expandPath(c.Paths.UnmatchedDir); err != nil {
		return fmt.Errorf("paths.unmatched_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
