// Package logging provides structured logging for weft build invocations.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support. Every build invocation gets its own child
// logger carrying the build id; resolution and step execution derive further
// children carrying the project, variant, phase and plugin they belong to.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(".weft/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	buildLogger := logger.WithBuild(buildID).WithProject("storefront")
//	buildLogger.Info("variants resolved", "count", 2)
//
// # Context Propagation
//
// Loggers travel through context.Context so hook taps and steps can log
// without holding a reference:
//
//	ctx = logging.WithContext(ctx, buildLogger)
//	logging.FromContext(ctx).Debug("tap invoked")
//
// [FromContext] never returns nil; it falls back to [NopLogger].
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output, or [NewWithWriter]
// with a buffer to assert on entries.
package logging
