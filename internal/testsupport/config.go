package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"metafix/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.UnmatchedDir = filepath.Join(base, "unmatched")
	cfgVal.Metadata.Timezone = "UTC"
	cfgVal.Apply.Workers = 2
	cfgVal.Exiftool.Binary = filepath.Join(base, "bin", "exiftool-missing")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTimezone sets the zone capture dates are rendered in.
func WithTimezone(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metadata.Timezone = name
	}
}

// WithWorkers overrides the apply-stage pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Apply.Workers = n
	}
}

// WithStubbedExiftool writes a stub exiftool that exits with the given code
// and points the config at it.
func WithStubbedExiftool(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "exiftool")
		script := []byte("#!/bin/sh\necho 12.76\nexit " + strconv.Itoa(exitCode) + "\n")
		if err := os.WriteFile(target, script, 0o755); err != nil {
			b.t.Fatalf("write stub exiftool: %v", err)
		}
		b.cfg.Exiftool.Binary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
