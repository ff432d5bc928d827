// Package logger provides a structured logging interface for nftmaker.
//
// It wraps zerolog with a small API:
//   - Leveled logging (Debug, Info, Warn, Error)
//   - Structured fields via WithField, WithFields and the *WithFields methods
//   - Colored console output, optionally mirrored to a log file
//   - A global logger for command-line wiring
//   - TestLogger and NewNopLogger for tests
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("entity_id", 25).Info("Generated metadata")
//
// Components take a Logger in their constructors so tests can pass a
// TestLogger and assert on what was logged.
package logger
