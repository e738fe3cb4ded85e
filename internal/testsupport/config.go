package testsupport

import (
	"path/filepath"
	"testing"

	"sdsconv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose log directory lives in a per-test temp
// directory. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithWorkers sets the default worker count.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) { cfg.Convert.Workers = n }
}

// WithSteim sets the default compression profile.
func WithSteim(level int) ConfigOption {
	return func(cfg *config.Config) { cfg.Convert.Steim = level }
}

// WithNetwork sets the default network override.
func WithNetwork(code string) ConfigOption {
	return func(cfg *config.Config) { cfg.Convert.Network = code }
}
