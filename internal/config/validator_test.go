package config

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/weft/internal/ui"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"negative concurrency", func(c *Config) { c.Build.Concurrency = -1 }, "build.concurrency"},
		{"huge concurrency", func(c *Config) { c.Build.Concurrency = 5000 }, "build.concurrency"},
		{"empty skip pattern", func(c *Config) { c.Build.Skip = []string{" "} }, "build.skip[0]"},
		{"empty skip pre", func(c *Config) { c.Build.SkipPre = []string{"lint", ""} }, "build.skip_pre[1]"},
		{"empty skip post", func(c *Config) { c.Build.SkipPost = []string{"\t"} }, "build.skip_post[0]"},
		{"unknown color", func(c *Config) { c.UI.Color = "rainbow" }, "ui.color"},
		{"negative separator", func(c *Config) { c.UI.SeparatorWidth = -2 }, "ui.separator_width"},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = "collector"
		}, "tracing.endpoint"},
		{"missing service name", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.ServiceName = ""
		}, "tracing.service_name"},
		{"sample ratio", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRatio = 1.5
		}, "tracing.sample_ratio"},
		{"debounce too small", func(c *Config) { c.Watch.DebounceMs = 1 }, "watch.debounce_ms"},
		{"bad ignore", func(c *Config) { c.Watch.Ignore = []string{"[x"} }, "watch.ignore[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() = %v, want exactly one error", errs)
			}
			if errs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.field)
			}
		})
	}
}

func TestValidate_TracingDisabledSkipsChecks(t *testing.T) {
	cfg := Default()
	cfg.Tracing.Endpoint = "not an address"
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_LevelIsCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "DEBUG"
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	if got := (ValidationErrors{}).Error(); got != "" {
		t.Errorf("empty Error() = %q", got)
	}

	one := ValidationErrors{{Field: "ui.color", Value: "x", Message: "bad"}}
	if got := one.Error(); got != "ui.color: bad (got: x)" {
		t.Errorf("Error() = %q", got)
	}

	two := append(one, ValidationError{Field: "logging.level", Value: "y", Message: "bad"})
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "2. logging.level") {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidate_SkipPatternsAgreeWithMatching(t *testing.T) {
	tests := []struct {
		pattern string
		id      string
	}{
		{"app[", "app["},
		{"[unclosed", "[unclosed"},
		{"@scope/*", "@scope/ui/button"},
		{"web-*", "web-storefront"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			cfg := Default()
			cfg.Build.Skip = []string{tt.pattern}
			cfg.Build.SkipPre = []string{tt.pattern}
			cfg.Build.SkipPost = []string{tt.pattern}
			if errs := cfg.Validate(); len(errs) != 0 {
				t.Fatalf("Validate() = %v, want no errors", errs)
			}
			if !ui.NewSkipFilter(cfg.Build.Skip).Match(tt.id) {
				t.Errorf("skip %q does not match %q", tt.pattern, tt.id)
			}
		})
	}
}
