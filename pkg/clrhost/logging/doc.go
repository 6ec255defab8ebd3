// Package logging provides a minimal logging facade for the runtime host.
//
// The Logger interface wraps a subset of log/slog so applications can plug in
// their own implementation for tests or for integration with an existing
// logging system.
//
// # Default Implementation
//
//	// Use slog.Default()
//	logger := logging.New(nil)
//
//	// Use a custom slog.Logger
//	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	logger := logging.New(slog.New(handler))
//
// # Path Lists
//
// Trusted assembly lists run to hundreds of entries. PathList logs a
// summary instead of the raw value:
//
//	logger.Debug(ctx, "initializing runtime", logging.PathList("tpa", tpa, ":"))
//	// Logs: tpa.entries=163 tpa.bytes=12044
//
// # What Gets Logged
//
// The host logs lifecycle transitions at debug level only. Errors are
// returned to the caller. A cleanup failure that follows an earlier error is
// logged at debug, since the earlier error is the one returned.
package logging
