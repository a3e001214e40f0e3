// Package logging provides logging utilities for jail.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("starting container", "jail", name, "engine", engine)
//	logging.Warn("engine did not answer", "engine", engine, "timeout", timeout)
//
// # User Output
//
// User-facing messages are prefixed with a status mark, colored when the
// output is a terminal:
//
//	logging.UserInfo("Cloning %s...", source)
//	logging.UserSuccess("Jail %s created", name)
//	logging.UserWarning("SSH agent not available")
//	logging.UserError("%v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: Stdout (os.Stdout by default)
//   - UserWarning, UserError: Stderr (os.Stderr by default)
package logging
