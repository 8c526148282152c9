package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "ui.color")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidColorModes returns the list of valid ui.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBuild()...)
	errors = append(errors, c.validateUI()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTracing()...)
	errors = append(errors, c.validateWatch()...)

	return errors
}

func (c *Config) validateBuild() []ValidationError {
	var errors []ValidationError

	const maxConcurrency = 1024
	if c.Build.Concurrency < 0 {
		errors = append(errors, ValidationError{
			Field:   "build.concurrency",
			Value:   c.Build.Concurrency,
			Message: "must be non-negative (0 means unbounded)",
		})
	}
	if c.Build.Concurrency > maxConcurrency {
		errors = append(errors, ValidationError{
			Field:   "build.concurrency",
			Value:   c.Build.Concurrency,
			Message: fmt.Sprintf("exceeds maximum of %d", maxConcurrency),
		})
	}

	// Skip entries that are not valid globs still match ids literally, so
	// only empty entries are rejected.
	errors = append(errors, validatePatterns("build.skip", c.Build.Skip, nil)...)
	errors = append(errors, validatePatterns("build.skip_pre", c.Build.SkipPre, nil)...)
	errors = append(errors, validatePatterns("build.skip_post", c.Build.SkipPost, nil)...)

	return errors
}

func (c *Config) validateUI() []ValidationError {
	var errors []ValidationError

	if c.UI.Color != "" && !slices.Contains(ValidColorModes(), c.UI.Color) {
		errors = append(errors, ValidationError{
			Field:   "ui.color",
			Value:   c.UI.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	// 0 means use the default width
	const maxSeparatorWidth = 400
	if c.UI.SeparatorWidth < 0 || c.UI.SeparatorWidth > maxSeparatorWidth {
		errors = append(errors, ValidationError{
			Field:   "ui.separator_width",
			Value:   c.UI.SeparatorWidth,
			Message: fmt.Sprintf("must be between 0 and %d", maxSeparatorWidth),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateTracing() []ValidationError {
	var errors []ValidationError

	if !c.Tracing.Enabled {
		return errors
	}

	if _, _, err := net.SplitHostPort(c.Tracing.Endpoint); err != nil {
		errors = append(errors, ValidationError{
			Field:   "tracing.endpoint",
			Value:   c.Tracing.Endpoint,
			Message: "must be a host:port address",
		})
	}
	if strings.TrimSpace(c.Tracing.ServiceName) == "" {
		errors = append(errors, ValidationError{
			Field:   "tracing.service_name",
			Value:   c.Tracing.ServiceName,
			Message: "must not be empty when tracing is enabled",
		})
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errors = append(errors, ValidationError{
			Field:   "tracing.sample_ratio",
			Value:   c.Tracing.SampleRatio,
			Message: "must be between 0 and 1",
		})
	}

	return errors
}

func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	const minDebounce = 10
	const maxDebounce = 60_000
	if c.Watch.DebounceMs < minDebounce || c.Watch.DebounceMs > maxDebounce {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("must be between %dms and %dms", minDebounce, maxDebounce),
		})
	}

	errors = append(errors, validatePatterns("watch.ignore", c.Watch.Ignore, compilePathPattern)...)

	return errors
}

// compilePathPattern compiles a slash-separated path glob the way the watcher
// does.
func compilePathPattern(p string) (glob.Glob, error) {
	return glob.Compile(p, '/')
}

// validatePatterns reports entries that are empty or that compile rejects.
// A nil compile only checks for empty entries.
func validatePatterns(field string, patterns []string, compile func(string) (glob.Glob, error)) []ValidationError {
	var errors []ValidationError
	for i, p := range patterns {
		name := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(p) == "" {
			errors = append(errors, ValidationError{Field: name, Value: p, Message: "must not be empty"})
			continue
		}
		if compile == nil {
			continue
		}
		if _, err := compile(p); err != nil {
			errors = append(errors, ValidationError{Field: name, Value: p, Message: fmt.Sprintf("invalid pattern: %v", err)})
		}
	}
	return errors
}
