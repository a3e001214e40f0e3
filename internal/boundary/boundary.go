package boundary

import (
	"fmt"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
)

const (
	Linux  = "linux"
	Darwin = "darwin"

	WorkspaceTarget = "/workspace"
	AgentSocket     = "/run/ssh.sock"
	ContainerUser   = "dev"
	ContainerHome   = "/home/dev"

	// LabelName marks containers created by jail with the sandbox name.
	LabelName = "io.github.firefly-engineering.jail.name"
)

// containerEnv is the complete environment a container starts with.
var containerEnv = []string{
	"TERM=xterm-256color",
	"HOME=" + ContainerHome,
	"USER=" + ContainerUser,
	"LANG=C.UTF-8",
}

// keepAlive is the container's main process; sessions attach with exec.
var keepAlive = []string{"sleep", "infinity"}

// HostPlatform returns the platform jail is running on.
func HostPlatform() string {
	return goruntime.GOOS
}

// Mount is a host path bound into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// PortBinding publishes a container port on the host loopback interface.
type PortBinding struct {
	HostIP        string
	HostPort      int
	ContainerPort int
}

// BuildInput is everything Build needs.
type BuildInput struct {
	Sandbox  *registry.Sandbox
	Engine   runtime.Kind
	Platform string

	// JailsRoot is the registry root; the workspace must be directly
	// beneath one sandbox directory in it.
	JailsRoot string
	// HomeDir is the user's home directory, which must never be mounted.
	HomeDir string
	// LookupEnv reads host environment variables. Only SSH_AUTH_SOCK is
	// consulted, and only for its path.
	LookupEnv func(string) (string, bool)

	// AgentRelay is the agent socket inside a Podman machine VM. Without it
	// no agent is forwarded for podman on macOS.
	AgentRelay string

	Ports []int
	Image string
}

// Spec is the complete isolation specification for one container.
type Spec struct {
	Engine        runtime.Kind
	Platform      string
	ContainerName string
	SandboxName   string
	Image         string
	User          string
	WorkingDir    string
	Mounts        []Mount
	Agent         *AgentForward
	// AgentNotice explains a skipped agent forward the user can fix.
	AgentNotice   string
	Env           []string
	Ports         []PortBinding
	Command       []string

	// EngineFlags are dialect-specific create flags chosen by Build.
	EngineFlags []string

	jailsRoot string
	homeDir   string
}

// Build produces the isolation specification for a sandbox.
func Build(in BuildInput) (*Spec, error) {
	if in.Sandbox == nil {
		return nil, fmt.Errorf("boundary: no sandbox given")
	}

	fwd, err := forwarderFor(in.Platform, in.Engine, in.AgentRelay)
	if err != nil {
		return nil, err
	}
	d := dialectFor(in.Platform, in.Engine)

	lookup := in.LookupEnv
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	spec := &Spec{
		Engine:        in.Engine,
		Platform:      in.Platform,
		ContainerName: in.Sandbox.ContainerName,
		SandboxName:   in.Sandbox.Name,
		Image:         in.Image,
		User:          ContainerUser,
		WorkingDir:    WorkspaceTarget,
		Mounts: []Mount{{
			Source: filepath.Clean(in.Sandbox.WorkspacePath),
			Target: WorkspaceTarget,
		}},
		Env:         slices.Clone(containerEnv),
		Command:     slices.Clone(keepAlive),
		EngineFlags: d.flags(),
		jailsRoot:   in.JailsRoot,
		homeDir:     in.HomeDir,
	}

	spec.Agent, spec.AgentNotice = fwd.forward(lookup, in.HomeDir)
	if spec.Agent != nil {
		spec.Env = append(spec.Env, "SSH_AUTH_SOCK="+spec.Agent.Target)
	}

	ports := slices.Clone(in.Ports)
	slices.Sort(ports)
	for _, p := range slices.Compact(ports) {
		spec.Ports = append(spec.Ports, PortBinding{HostIP: "127.0.0.1", HostPort: p, ContainerPort: p})
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate re-checks the isolation invariants. It runs at the end of Build
// and again before a Spec is handed to an engine.
func (s *Spec) Validate() error {
	if len(s.Mounts) != 1 {
		return invalid("expected exactly one mount, got %d", len(s.Mounts))
	}
	m := s.Mounts[0]
	if m.Target != WorkspaceTarget {
		return invalid("mount target %q is not %s", m.Target, WorkspaceTarget)
	}
	if m.ReadOnly {
		return invalid("workspace mount must be read-write")
	}
	if !filepath.IsAbs(m.Source) {
		return invalid("workspace path %q is not absolute", m.Source)
	}
	if filepath.Base(m.Source) != "workspace" {
		return invalid("workspace path %q is not a sandbox workspace", m.Source)
	}
	if s.jailsRoot != "" && filepath.Dir(filepath.Dir(m.Source)) != filepath.Clean(s.jailsRoot) {
		return invalid("workspace path %q is outside %s", m.Source, s.jailsRoot)
	}
	if s.homeDir != "" && covers(m.Source, filepath.Clean(s.homeDir)) {
		return invalid("workspace path %q would expose the home directory", m.Source)
	}
	if err := checkOptionValue(m.Source); err != nil {
		return err
	}

	if s.Agent != nil {
		if s.Agent.Source == "" || !filepath.IsAbs(s.Agent.Source) {
			return invalid("agent socket %q is not absolute", s.Agent.Source)
		}
		if !s.Agent.ReadOnly {
			return invalid("agent socket must be forwarded read-only")
		}
		if err := checkOptionValue(s.Agent.Source); err != nil {
			return err
		}
	}

	for _, p := range s.Ports {
		if p.HostIP != "127.0.0.1" {
			return invalid("port %d must bind to loopback", p.HostPort)
		}
	}

	if s.ContainerName == "" || s.Image == "" {
		return invalid("container name and image are required")
	}
	return nil
}

// covers reports whether mounting path would expose dir: path is dir or
// one of its ancestors.
func covers(path, dir string) bool {
	rel, err := filepath.Rel(path, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func invalid(format string, args ...any) error {
	return errors.Wrap(errors.ExitGeneralError, "invalid boundary spec", fmt.Errorf(format, args...))
}
