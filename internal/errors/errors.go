// Package errors provides centralized error definitions and error handling utilities
// for weft. It defines the build failure taxonomy, error constructors with context
// wrapping, and classification helpers used by the command layer.
//
// # Error Types
//
// Domain-specific errors follow the failure taxonomy of a build invocation:
//   - TapError: a plugin callback failed while a hook was being dispatched
//   - StepError: a build step's body failed while the runner executed it
//   - ProjectError: resolving a project's step list failed
//   - ManifestError: the workspace manifest could not be loaded or validated
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewTapError("configure", token, cause)
//	err := errors.NewStepError("compile", cause).WithGroup("storefront")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrHookFailed) { ... }
//
//	var tapErr *errors.TapError
//	if errors.As(err, &tapErr) { ... }
//
// # Classification
//
// None of the errors in this package are retryable: every failure is fatal
// to the current build invocation. [ExitCode] maps an error to the process
// exit status used by the CLI.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for errors that might indicate a problem but aren't fatal.
	SeverityWarning Severity = iota
	// SeverityError is for errors that fail the build.
	SeverityError
	// SeverityCritical is for errors caused by an invalid workspace or plugin set.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Pipeline sentinel errors
var (
	// ErrHookFailed indicates that a plugin tap failed during hook dispatch.
	ErrHookFailed = New("hook dispatch failed")
	// ErrStepFailed indicates that a build step failed.
	ErrStepFailed = New("step failed")
	// ErrUnknownPlugin indicates that a manifest referenced an unregistered plugin.
	ErrUnknownPlugin = New("unknown plugin")
	// ErrDuplicatePlugin indicates that two plugins were registered under one name.
	ErrDuplicatePlugin = New("plugin already registered")
	// ErrCapabilityExists indicates that a configuration capability was
	// provided twice for one key.
	ErrCapabilityExists = New("capability already provided")
)

// Workspace sentinel errors
var (
	// ErrManifestNotFound indicates that no workspace manifest could be found.
	ErrManifestNotFound = New("workspace manifest not found")
	// ErrInvalidManifest indicates that the workspace manifest is malformed.
	ErrInvalidManifest = New("invalid workspace manifest")
	// ErrDuplicateProject indicates that two projects share a name.
	ErrDuplicateProject = New("duplicate project name")
	// ErrUnknownProjectKind indicates an unsupported project type tag.
	ErrUnknownProjectKind = New("unknown project kind")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// WeftError is the base interface for all weft errors.
type WeftError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users without further context.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	sentinel   error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is reports whether the target is this error's sentinel or matches its cause.
func (e *baseError) Is(target error) bool {
	if e.sentinel != nil && target == e.sentinel {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "<prefix> [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// Tokener is implemented by registration tokens. It is declared here so the
// error types do not depend on the hook package.
type Tokener interface {
	String() string
}

// TapError represents a plugin callback failing during hook dispatch.
//
// Example:
//
//	err := errors.NewTapError("configure", token, cause)
//	fmt.Println(err) // "hook error [hook=configure, plugin=eslint@1.0.0]: tap failed: boom"
type TapError struct {
	baseError
	Hook   string
	Plugin string
}

// NewTapError creates a new TapError for the named hook and registration token.
func NewTapError(hook string, token Tokener, cause error) *TapError {
	plugin := ""
	if token != nil {
		plugin = token.String()
	}
	return &TapError{
		baseError: baseError{
			message:    "tap failed",
			cause:      cause,
			sentinel:   ErrHookFailed,
			severity:   SeverityError,
			userFacing: true,
		},
		Hook:   hook,
		Plugin: plugin,
	}
}

// Error returns the formatted error message.
func (e *TapError) Error() string {
	var parts []string
	if e.Hook != "" {
		parts = append(parts, fmt.Sprintf("hook=%s", e.Hook))
	}
	if e.Plugin != "" {
		parts = append(parts, fmt.Sprintf("plugin=%s", e.Plugin))
	}
	return e.format("hook error", parts)
}

// Is checks if this error matches the target.
func (e *TapError) Is(target error) bool {
	if _, ok := target.(*TapError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StepError represents a build step failing while it was executed.
type StepError struct {
	baseError
	StepID string
	Group  string
}

// NewStepError creates a new StepError. The label is the step's display label.
func NewStepError(label string, cause error) *StepError {
	if label == "" {
		label = "unlabeled step"
	}
	return &StepError{
		baseError: baseError{
			message:    label,
			cause:      cause,
			sentinel:   ErrStepFailed,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithStepID adds the step id to the error context.
func (e *StepError) WithStepID(id string) *StepError {
	e.StepID = id
	return e
}

// WithGroup adds the id of the project group or phase the step ran in.
func (e *StepError) WithGroup(group string) *StepError {
	e.Group = group
	return e
}

// Label returns the label of the failed step.
func (e *StepError) Label() string {
	return e.message
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	var parts []string
	if e.Group != "" {
		parts = append(parts, fmt.Sprintf("group=%s", e.Group))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.StepID))
	}
	return e.format("step error", parts)
}

// Is checks if this error matches the target.
func (e *StepError) Is(target error) bool {
	if _, ok := target.(*StepError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ProjectError represents a failure while resolving one project's build.
type ProjectError struct {
	baseError
	Project string
	Stage   string
	Variant string
}

// NewProjectError creates a new ProjectError for the named project.
func NewProjectError(project, stage string, cause error) *ProjectError {
	return &ProjectError{
		baseError: baseError{
			message:    fmt.Sprintf("%s failed", stage),
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Project: project,
		Stage:   stage,
	}
}

// WithVariant adds the rendered variant the failure happened in.
func (e *ProjectError) WithVariant(variant string) *ProjectError {
	e.Variant = variant
	return e
}

// Error returns the formatted error message.
func (e *ProjectError) Error() string {
	parts := []string{fmt.Sprintf("project=%s", e.Project)}
	if e.Variant != "" {
		parts = append(parts, fmt.Sprintf("variant=%s", e.Variant))
	}
	return e.format("project error", parts)
}

// Is checks if this error matches the target.
func (e *ProjectError) Is(target error) bool {
	if _, ok := target.(*ProjectError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ManifestError represents a workspace manifest that could not be used.
type ManifestError struct {
	baseError
	Path string
}

// NewManifestError creates a new ManifestError. Cause may be one of the
// workspace sentinels so callers can match with Is.
func NewManifestError(path, message string, cause error) *ManifestError {
	return &ManifestError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			sentinel:   ErrInvalidManifest,
			severity:   SeverityCritical,
			userFacing: true,
		},
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *ManifestError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("manifest error", parts)
}

// Is checks if this error matches the target.
func (e *ManifestError) Is(target error) bool {
	if _, ok := target.(*ManifestError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var weftErr WeftError
	if As(err, &weftErr) {
		return weftErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement WeftError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityWarning
	}
	var weftErr WeftError
	if As(err, &weftErr) {
		return weftErr.Severity()
	}
	return SeverityError
}

// Exit codes returned by the CLI.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitWorkspace = 2
)

// ExitCode maps an error to a process exit status. Manifest and plugin
// resolution failures exit with ExitWorkspace, everything else with
// ExitFailure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case Is(err, ErrInvalidManifest), Is(err, ErrManifestNotFound), Is(err, ErrUnknownPlugin):
		return ExitWorkspace
	default:
		return ExitFailure
	}
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
