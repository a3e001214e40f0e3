package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for jail. They separate mistakes the user can fix by changing
// the command line from problems with the host environment and from
// failures of an operation that was otherwise valid.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitUserError       = 2
	ExitEnvironment     = 3
	ExitOperationFailed = 4
)

// Kind classifies a JailError.
type Kind string

const (
	KindGeneral               Kind = "general"
	KindValidation            Kind = "validation"
	KindNameExists            Kind = "name-exists"
	KindNotFound              Kind = "not-found"
	KindPortsRequireRestart   Kind = "ports-require-restart"
	KindConfig                Kind = "config"
	KindNoRuntimeFound        Kind = "no-runtime-found"
	KindRuntimeUnavailable    Kind = "runtime-unavailable"
	KindUnsupportedPlatform   Kind = "unsupported-platform"
	KindEngineOperationFailed Kind = "engine-operation-failed"
	KindCloneFailed           Kind = "clone-failed"
)

// Sentinels for use with errors.Is. Only the Kind is compared.
var (
	ErrValidation            = &JailError{Kind: KindValidation}
	ErrNameExists            = &JailError{Kind: KindNameExists}
	ErrNotFound              = &JailError{Kind: KindNotFound}
	ErrPortsRequireRestart   = &JailError{Kind: KindPortsRequireRestart}
	ErrConfig                = &JailError{Kind: KindConfig}
	ErrNoRuntimeFound        = &JailError{Kind: KindNoRuntimeFound}
	ErrRuntimeUnavailable    = &JailError{Kind: KindRuntimeUnavailable}
	ErrUnsupportedPlatform   = &JailError{Kind: KindUnsupportedPlatform}
	ErrEngineOperationFailed = &JailError{Kind: KindEngineOperationFailed}
	ErrCloneFailed           = &JailError{Kind: KindCloneFailed}
)

// JailError is the base error type for jail
type JailError struct {
	Kind    Kind
	Code    int
	Message string

	// Op and Diagnostic are set for engine failures: the engine operation
	// that failed and whatever the engine printed about it.
	Op         string
	Diagnostic string

	Cause error
}

func (e *JailError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Diagnostic != "" {
		b.WriteString(": ")
		b.WriteString(e.Diagnostic)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *JailError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a JailError of the same kind.
func (e *JailError) Is(target error) bool {
	t, ok := target.(*JailError)
	if !ok {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// ExitCode returns the exit code for this error
func (e *JailError) ExitCode() int {
	return e.Code
}

// New creates a new JailError
func New(code int, message string) *JailError {
	return &JailError{
		Kind:    KindGeneral,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a JailError
func Wrap(code int, message string, cause error) *JailError {
	return &JailError{
		Kind:    KindGeneral,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// User input errors

// ValidationError returns an error for input validation failures
func ValidationError(message string) *JailError {
	return &JailError{Kind: KindValidation, Code: ExitUserError, Message: message}
}

// NameExists returns an error for a sandbox name that is already taken
func NameExists(name string) *JailError {
	return &JailError{Kind: KindNameExists, Code: ExitUserError, Message: fmt.Sprintf("jail %q already exists", name)}
}

// NotFound returns an error for a missing sandbox
func NotFound(name string) *JailError {
	return &JailError{Kind: KindNotFound, Code: ExitUserError, Message: fmt.Sprintf("jail %q not found", name)}
}

// PortsRequireRestart is returned when new ports are requested for a
// container that is already running with a different port set.
func PortsRequireRestart(name string, running, requested []int) *JailError {
	return &JailError{
		Kind: KindPortsRequireRestart,
		Code: ExitUserError,
		Message: fmt.Sprintf("jail %q is running with ports %v; ports %v can only be published after it is stopped (jail stop %s)",
			name, running, requested, name),
	}
}

// Environment errors

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *JailError {
	return &JailError{Kind: KindConfig, Code: ExitEnvironment, Message: message, Cause: cause}
}

// NoRuntimeFound is returned when neither podman nor docker is usable.
func NoRuntimeFound(instructions string) *JailError {
	msg := "no container runtime found"
	if instructions != "" {
		msg += "\n\n" + instructions
	}
	return &JailError{Kind: KindNoRuntimeFound, Code: ExitEnvironment, Message: msg}
}

// RuntimeUnavailable is returned when the engine did not answer in time or
// is installed but not running.
func RuntimeUnavailable(engine, op string, cause error) *JailError {
	return &JailError{
		Kind:    KindRuntimeUnavailable,
		Code:    ExitEnvironment,
		Message: fmt.Sprintf("%s is not responding (%s)", engine, op),
		Op:      op,
		Cause:   cause,
	}
}

// UnsupportedPlatform is returned when no agent forwarding rule exists for
// the platform and engine combination.
func UnsupportedPlatform(platform, engine string) *JailError {
	return &JailError{
		Kind:    KindUnsupportedPlatform,
		Code:    ExitEnvironment,
		Message: fmt.Sprintf("unsupported platform: %s with %s", platform, engine),
	}
}

// Operation failures

// EngineOperationFailed wraps a failed engine invocation together with the
// engine's own diagnostic output.
func EngineOperationFailed(op, diagnostic string, cause error) *JailError {
	return &JailError{
		Kind:       KindEngineOperationFailed,
		Code:       ExitOperationFailed,
		Message:    fmt.Sprintf("container %s failed", op),
		Op:         op,
		Diagnostic: strings.TrimSpace(diagnostic),
		Cause:      cause,
	}
}

// CloneFailed returns an error for a failed clone of the source
func CloneFailed(source string, cause error) *JailError {
	return &JailError{
		Kind:    KindCloneFailed,
		Code:    ExitOperationFailed,
		Message: fmt.Sprintf("failed to clone %s", source),
		Cause:   cause,
	}
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var jailErr *JailError
	if errors.As(err, &jailErr) {
		return jailErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
