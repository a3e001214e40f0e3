package sandbox

import (
	"time"

	"github.com/firefly-engineering/jail/internal/attach"
	"github.com/firefly-engineering/jail/internal/audit"
	"github.com/firefly-engineering/jail/internal/health"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
	"github.com/firefly-engineering/jail/internal/workspace"
)

// Options holds the collaborators of a Controller.
type Options struct {
	Registry *registry.Registry

	// Engines returns the engine for a record's runtime_engine.
	Engines runtime.Factory

	Cloner workspace.Cloner

	// Audit is optional; without it no events are recorded.
	Audit *audit.Logger

	// Editor is optional; Code fails without it.
	Editor *attach.Editor

	// Platform is the host platform, "linux" or "darwin".
	Platform string

	// HomeDir is never mounted into a container.
	HomeDir string

	// LookupEnv reads the host environment; defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// AgentRelay is the agent socket inside a Podman machine (macOS).
	AgentRelay string

	Now func() time.Time
}

// CloneOptions holds all options for creating a sandbox from a source.
type CloneOptions struct {
	// Source is a git URL, scp-style reference or local path (required)
	Source string

	// Name overrides the derived sandbox name (optional)
	Name string

	// Ports are published on the host loopback interface
	Ports []int
}

// EnterOptions holds options for an interactive session.
type EnterOptions struct {
	// Ports are added to the sandbox's published ports
	Ports []int

	// Shell is the session command; defaults to a login shell
	Shell []string
}

// EngineStatus is one engine's line in a status report.
type EngineStatus struct {
	runtime.Availability
	Summary string
}

// SandboxStatus is one sandbox's reconciled health.
type SandboxStatus struct {
	Sandbox *registry.Sandbox
	Health  health.Status
	Uptime  string

	// Drift describes a correction made to the record, if any.
	Drift string

	// Err is set when the sandbox's engine could not be queried.
	Err error
}

// Report is the result of Status.
type Report struct {
	Engines   []EngineStatus
	Sandboxes []SandboxStatus
}
