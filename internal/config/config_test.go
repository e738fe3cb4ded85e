package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sdsconv/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "sdsconv", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Convert.Steim != 2 {
		t.Fatalf("expected steim 2 by default, got %d", cfg.Convert.Steim)
	}
	if cfg.Convert.Network != "" {
		t.Fatalf("expected empty network override, got %q", cfg.Convert.Network)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if got := cfg.EffectiveWorkers(); got != runtime.NumCPU() {
		t.Fatalf("EffectiveWorkers = %d, want %d", got, runtime.NumCPU())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "sdsconv.toml")
	payload := struct {
		Paths struct {
			LogDir string `toml:"log_dir"`
		} `toml:"paths"`
		Convert struct {
			Network string `toml:"network"`
			Steim   int    `toml:"steim"`
			Workers int    `toml:"workers"`
		} `toml:"convert"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}{}
	payload.Paths.LogDir = "~/seismo/logs"
	payload.Convert.Network = " xx "
	payload.Convert.Steim = 1
	payload.Convert.Workers = 12
	payload.Logging.Format = "JSON"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "seismo", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Convert.Network != "XX" {
		t.Fatalf("expected normalized network XX, got %q", cfg.Convert.Network)
	}
	if cfg.Convert.Steim != 1 {
		t.Fatalf("unexpected steim: %d", cfg.Convert.Steim)
	}
	if cfg.EffectiveWorkers() != 12 {
		t.Fatalf("unexpected workers: %d", cfg.EffectiveWorkers())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercase format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"steim":   "[convert]\nsteim = 3\n",
		"workers": "[convert]\nworkers = -1\n",
		"network": "[convert]\nnetwork = \"ABC\"\n",
		"symbol":  "[convert]\nnetwork = \"X-\"\n",
		"format":  "[logging]\nformat = \"xml\"\n",
		"unknown": "[convert]\nthreads = 4\n",
		"ntfy":    "[notifications]\nntfy_topic = \"ntfy.sh/topic\"\n",
		"timeout": "[notifications]\nrequest_timeout = -5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile returned error: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected Load to reject %q", body)
			}
		})
	}
}

func TestLogLevelEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SDSCONV_LOG_LEVEL", "DEBUG")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env level debug, got %q", cfg.Logging.Level)
	}
}

func TestProjectConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "sdsconv.toml"), []byte("[convert]\nsteim = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || !strings.HasSuffix(resolved, "sdsconv.toml") {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Convert.Steim != 1 {
		t.Fatalf("expected steim 1 from project config, got %d", cfg.Convert.Steim)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Convert.Steim != 2 {
		t.Fatalf("unexpected sample steim: %d", cfg.Convert.Steim)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/data/../archive")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "archive") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("expected empty path to stay empty, got %q", got)
	}
}
