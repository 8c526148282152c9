// Package config loads weft's user configuration through viper.
//
// Values come, in increasing priority, from the defaults registered by
// SetDefaults, the config file, WEFT_* environment variables and command
// line flags bound by the cmd package.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete weft configuration
type Config struct {
	Build     BuildConfig     `mapstructure:"build" yaml:"build"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	UI        UIConfig        `mapstructure:"ui" yaml:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

// BuildConfig holds the default build options
type BuildConfig struct {
	// Concurrency bounds how many projects resolve at once (0 = unbounded)
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// SourceMaps is the default for --source-maps
	SourceMaps bool `mapstructure:"source_maps" yaml:"source_maps"`
	// Skip lists project ids or glob patterns to skip
	Skip []string `mapstructure:"skip" yaml:"skip"`
	// SkipPre lists pre step ids or glob patterns to skip
	SkipPre []string `mapstructure:"skip_pre" yaml:"skip_pre"`
	// SkipPost lists post step ids or glob patterns to skip
	SkipPost []string `mapstructure:"skip_post" yaml:"skip_post"`
}

// WorkspaceConfig controls how the workspace manifest is found
type WorkspaceConfig struct {
	// Manifest is an explicit manifest path. If empty, the manifest is
	// discovered by walking up from the working directory.
	Manifest string `mapstructure:"manifest" yaml:"manifest"`
	// Plugins overrides the manifest's plugin list when non-empty
	Plugins []string `mapstructure:"plugins" yaml:"plugins"`
}

// UIConfig controls terminal output
type UIConfig struct {
	// Verbose shows debug lines reported by steps
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
	// Color is "auto", "always" or "never" (default: "auto")
	Color string `mapstructure:"color" yaml:"color"`
	// SeparatorWidth is the width of the separator rule (default: 40)
	SeparatorWidth int `mapstructure:"separator_width" yaml:"separator_width"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Enabled controls whether structured logs are written at all (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where build.log is written, relative to the workspace root
	// unless absolute (default: ".weft/logs"). If empty, logs go to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// TracingConfig controls OpenTelemetry export
type TracingConfig struct {
	// Enabled turns on the OTLP exporter (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Endpoint is the OTLP/HTTP collector host:port (default: "localhost:4318")
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Insecure disables TLS to the collector (default: true)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`
	// ServiceName is reported as service.name (default: "weft")
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	// SampleRatio is the fraction of builds traced, 0 to 1 (default: 1)
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

// WatchConfig controls build --watch
type WatchConfig struct {
	// DebounceMs is how long changes must settle before a rebuild (default: 300)
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	// Ignore lists glob patterns, relative to the workspace root, whose
	// changes never trigger a rebuild
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
}

// Debounce returns the debounce interval as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			Concurrency: 0,
			SourceMaps:  false,
			Skip:        []string{},
			SkipPre:     []string{},
			SkipPost:    []string{},
		},
		Workspace: WorkspaceConfig{
			Manifest: "",
			Plugins:  []string{},
		},
		UI: UIConfig{
			Verbose:        false,
			Color:          "auto",
			SeparatorWidth: 40,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     ".weft/logs",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			Insecure:    true,
			ServiceName: "weft",
			SampleRatio: 1,
		},
		Watch: WatchConfig{
			DebounceMs: 300,
			Ignore:     []string{".git/**", ".weft/**", "**/node_modules/**"},
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Build defaults
	viper.SetDefault("build.concurrency", defaults.Build.Concurrency)
	viper.SetDefault("build.source_maps", defaults.Build.SourceMaps)
	viper.SetDefault("build.skip", defaults.Build.Skip)
	viper.SetDefault("build.skip_pre", defaults.Build.SkipPre)
	viper.SetDefault("build.skip_post", defaults.Build.SkipPost)

	// Workspace defaults
	viper.SetDefault("workspace.manifest", defaults.Workspace.Manifest)
	viper.SetDefault("workspace.plugins", defaults.Workspace.Plugins)

	// UI defaults
	viper.SetDefault("ui.verbose", defaults.UI.Verbose)
	viper.SetDefault("ui.color", defaults.UI.Color)
	viper.SetDefault("ui.separator_width", defaults.UI.SeparatorWidth)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.endpoint", defaults.Tracing.Endpoint)
	viper.SetDefault("tracing.insecure", defaults.Tracing.Insecure)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	viper.SetDefault("tracing.sample_ratio", defaults.Tracing.SampleRatio)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	viper.SetDefault("watch.ignore", defaults.Watch.Ignore)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "weft")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".weft"
	}
	return filepath.Join(home, ".config", "weft")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
