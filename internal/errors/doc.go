// Package errors provides typed errors with exit codes for jail.
//
// # Error Types
//
// JailError is the base error type. It carries a Kind for matching, an exit
// code, a user-facing message and an optional cause:
//
//	type JailError struct {
//	    Kind       Kind   // e.g. KindNameExists
//	    Code       int    // Exit code
//	    Message    string // User-facing message
//	    Op         string // Engine operation (engine failures only)
//	    Diagnostic string // Engine output (engine failures only)
//	    Cause      error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess         = 0  // Success
//	ExitGeneralError    = 1  // General/unknown errors
//	ExitUserError       = 2  // Bad name, collision, missing jail, port conflict
//	ExitEnvironment     = 3  // Config, no runtime, runtime unavailable, platform
//	ExitOperationFailed = 4  // Engine or clone failure
//
// # Matching
//
// Each kind has a sentinel that matches any error of that kind:
//
//	if errors.Is(err, errors.ErrNameExists) { ... }
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
