package config

const (
	defaultConfigPath  = "~/.config/sdsconv/config.toml"
	projectConfigName  = "sdsconv.toml"
	defaultLogDir      = "~/.local/share/sdsconv/logs"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultSteim       = 2
	defaultRetention   = 30
	defaultNtfyTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Convert: Convert{
			Steim: defaultSteim,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetention,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
