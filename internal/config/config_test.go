package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Build.Concurrency != 0 {
		t.Errorf("Build.Concurrency = %d, want 0", cfg.Build.Concurrency)
	}
	if cfg.UI.Color != "auto" {
		t.Errorf("UI.Color = %q, want %q", cfg.UI.Color, "auto")
	}
	if cfg.UI.SeparatorWidth != 40 {
		t.Errorf("UI.SeparatorWidth = %d, want 40", cfg.UI.SeparatorWidth)
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled should be false by default")
	}
	if cfg.Tracing.ServiceName != "weft" {
		t.Errorf("Tracing.ServiceName = %q, want %q", cfg.Tracing.ServiceName, "weft")
	}
	if cfg.Watch.DebounceMs != 300 {
		t.Errorf("Watch.DebounceMs = %d, want 300", cfg.Watch.DebounceMs)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Default() does not validate: %v", ValidationErrors(errs))
	}
}

func TestWatchConfig_Debounce(t *testing.T) {
	tests := []struct {
		ms       int
		expected time.Duration
	}{
		{300, 300 * time.Millisecond},
		{1000, time.Second},
		{0, 0},
	}

	for _, tt := range tests {
		cfg := WatchConfig{DebounceMs: tt.ms}
		if got := cfg.Debounce(); got != tt.expected {
			t.Errorf("Debounce() with %dms = %v, want %v", tt.ms, got, tt.expected)
		}
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/weft" {
			t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/weft")
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		want := filepath.Join(home, ".config", "weft")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/weft/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.UI.Color != "auto" {
		t.Errorf("Get().UI.Color = %q, want %q", cfg.UI.Color, "auto")
	}
	if len(cfg.Watch.Ignore) != 3 {
		t.Errorf("Get().Watch.Ignore = %v", cfg.Watch.Ignore)
	}
}

func TestLoad_OverridesAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.SetConfigType("yaml")
	err := viper.ReadConfig(strings.NewReader(`
build:
  concurrency: 4
  skip: [legacy-*]
ui:
  color: never
`))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	viper.AutomaticEnv()
	viper.SetEnvPrefix("WEFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	t.Setenv("WEFT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Build.Concurrency != 4 {
		t.Errorf("Build.Concurrency = %d, want 4", cfg.Build.Concurrency)
	}
	if len(cfg.Build.Skip) != 1 || cfg.Build.Skip[0] != "legacy-*" {
		t.Errorf("Build.Skip = %v", cfg.Build.Skip)
	}
	if cfg.UI.Color != "never" {
		t.Errorf("UI.Color = %q, want never", cfg.UI.Color)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("ui.color", "sometimes")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected validation error")
	}
	if _, ok := err.(ValidationErrors); !ok {
		t.Errorf("Load() error type = %T, want ValidationErrors", err)
	}

	if cfg := Get(); cfg.UI.Color != "auto" {
		t.Errorf("Get() should fall back to defaults, got color %q", cfg.UI.Color)
	}
}
