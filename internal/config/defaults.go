package config

const (
	defaultConfigPath       = "~/.config/metafix/config.toml"
	projectConfigName       = "metafix.toml"
	defaultStateDir         = "~/.local/share/metafix"
	defaultLogDir           = "."
	defaultUnmatchedDir     = "unmatched"
	defaultTimezone         = "Local"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 0
	minWorkers              = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
			UnmatchedDir: defaultUnmatchedDir,
		},
		Metadata: Metadata{
			Timezone: defaultTimezone,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
