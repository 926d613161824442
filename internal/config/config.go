package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"metafix/internal/deps"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories metafix writes to outside the archive.
type Paths struct {
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
	UnmatchedDir string `toml:"unmatched_dir"`
}

// Metadata controls how sidecar timestamps are rendered into tags.
type Metadata struct {
	Timezone string `toml:"timezone"`
}

// Exiftool locates the external metadata writer.
type Exiftool struct {
	// Binary is an explicit path. Empty means discover ./exiftool in the
	// working directory, then PATH.
	Binary string `toml:"binary"`
}

// Apply controls the parallel metadata stage.
type Apply struct {
	// Workers is the worker pool size. Zero selects the CPU count with a floor.
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for metafix.
//
// Configuration sections by subsystem:
//   - Paths: journal state, run logs and the inspection area
//   - Metadata: timezone used when rendering capture dates
//   - Exiftool: metadata writer discovery
//   - Apply: worker pool sizing
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Metadata Metadata `toml:"metadata"`
	Exiftool Exiftool `toml:"exiftool"`
	Apply    Apply    `toml:"apply"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The inspection
// area is created lazily by the orphan stage, only when something moves.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath is the sqlite database recording runs and per-item outcomes.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the lock file guarding one archive root against
// concurrent runs.
func (c *Config) LockPath(root string) string {
	name := strings.TrimSuffix(lockNameReplacer.Replace(filepath.Clean(root)), "_")
	name = strings.TrimLeft(name, "_")
	if name == "" {
		name = "root"
	}
	return filepath.Join(c.Paths.StateDir, "locks", name+".lock")
}

var lockNameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")

// Location returns the timezone capture dates are rendered in.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Metadata.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("metadata.timezone: %w", err)
	}
	return loc, nil
}

// Workers returns the apply-stage pool size.
func (c *Config) Workers() int {
	if c.Apply.Workers > 0 {
		return c.Apply.Workers
	}
	return max(runtime.NumCPU(), minWorkers)
}

// ExiftoolBinary resolves the exiftool executable: the configured binary,
// then exiftool in the working directory, then PATH. The returned string is
// the bare name when nothing was found so callers report it verbatim.
func (c *Config) ExiftoolBinary() string {
	if bin := strings.TrimSpace(c.Exiftool.Binary); bin != "" {
		return bin
	}
	if cwd, err := os.Getwd(); err == nil {
		if local, ok := deps.LocalExiftool(cwd); ok {
			return local
		}
	}
	name := "exiftool"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if resolved, err := exec.LookPath(name); err == nil {
		return resolved
	}
	return name
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
