// Package runtime defines the container engine control surface for jail.
// Podman and Docker are driven through their command-line interfaces; the
// MockEngine stands in for both in tests.
package runtime

import (
	"context"
	"strings"
)

// Kind identifies a supported container engine.
type Kind string

const (
	Podman Kind = "podman"
	Docker Kind = "docker"
)

// Kinds lists the supported engines in detection preference order.
var Kinds = []Kind{Podman, Docker}

// ParseKind parses an engine name case-insensitively.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Podman:
		return Podman, true
	case Docker:
		return Docker, true
	}
	return "", false
}

// Command returns the engine's executable name.
func (k Kind) Command() string {
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}

// Title returns the engine's display name.
func (k Kind) Title() string {
	switch k {
	case Podman:
		return "Podman"
	case Docker:
		return "Docker"
	}
	return string(k)
}

// ContainerStatus represents the state of a container
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusCreated  ContainerStatus = "created"
	StatusNotFound ContainerStatus = "not-found"
	StatusUnknown  ContainerStatus = "unknown"
)

// ContainerInfo holds information about a container
type ContainerInfo struct {
	Ref       string
	Name      string
	Image     string
	Status    ContainerStatus
	StartedAt string
}

// Exists reports whether the engine knows the container.
func (i *ContainerInfo) Exists() bool {
	return i != nil && i.Status != StatusNotFound
}

// CreateRequest is a fully translated create invocation. Args holds every
// argument after the engine's "create" subcommand, in the engine's dialect.
type CreateRequest struct {
	Name string
	Args []string
}

// ExecResult holds the result of executing a command in a container
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExecOptions holds options for executing a command in a container
type ExecOptions struct {
	User       string   // User to run as
	WorkingDir string   // Working directory
	Env        []string // Environment variables, KEY=VALUE
}

// Engine is the control surface jail needs from a container engine.
type Engine interface {
	// Kind returns which engine this is.
	Kind() Kind

	// Probe succeeds if the engine's client is installed. It does not
	// require a running daemon or VM.
	Probe(ctx context.Context) error

	// Ping succeeds if the engine can serve requests.
	Ping(ctx context.Context) error

	// Create creates a container without starting it and returns its ref.
	Create(ctx context.Context, req CreateRequest) (string, error)

	// Start starts an existing container
	Start(ctx context.Context, ref string) error

	// Stop stops a running container
	Stop(ctx context.Context, ref string) error

	// Remove removes a stopped container
	Remove(ctx context.Context, ref string) error

	// Inspect reports a container's state. A missing container is reported
	// as StatusNotFound, not as an error.
	Inspect(ctx context.Context, ref string) (*ContainerInfo, error)

	// Exec runs a command inside a running container and captures its output.
	Exec(ctx context.Context, ref string, command []string, opts ExecOptions) (*ExecResult, error)

	// ExecInteractive runs a command with the terminal attached and returns
	// the command's exit code once it finishes.
	ExecInteractive(ctx context.Context, ref string, command []string, opts ExecOptions) (int, error)

	// Commit snapshots a container's filesystem into an image.
	Commit(ctx context.Context, ref, image string) error

	// RemoveImage deletes an image.
	RemoveImage(ctx context.Context, image string) error

	// ImageExists reports whether an image is present locally.
	ImageExists(ctx context.Context, image string) (bool, error)

	// BuildImage builds an image from a context directory holding a Containerfile.
	BuildImage(ctx context.Context, tag, contextDir string) error
}

// Factory returns the Engine for a kind.
type Factory func(Kind) Engine
