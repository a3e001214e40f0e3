package boundary

import (
	"path/filepath"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/runtime"
)

const (
	// DockerDesktopAgentSocket is exposed inside the Docker Desktop VM and
	// relays to the macOS host agent.
	DockerDesktopAgentSocket = "/run/host-services/ssh-auth.sock"
)

// podmanRelayNotice is reported when a macOS host has an agent but no relay
// into the Podman machine is configured.
const podmanRelayNotice = "SSH agent not forwarded: set podman_agent_relay in config.toml to the agent socket inside the Podman machine"

// ForwardVariant names how the agent socket reaches the container.
type ForwardVariant string

const (
	ForwardHostSocket    ForwardVariant = "host-socket"
	ForwardDockerDesktop ForwardVariant = "docker-desktop"
	ForwardPodmanMachine ForwardVariant = "podman-machine"
)

// AgentForward is a read-only SSH agent socket made available in the
// container. It can sign but never exposes key material.
type AgentForward struct {
	Variant  ForwardVariant
	Source   string
	Target   string
	ReadOnly bool
}

// forwarder decides the agent forward for one (platform, engine) pair.
type forwarder interface {
	forward(lookupEnv func(string) (string, bool), homeDir string) (*AgentForward, string)
}

// forwarderFor is the closed allow-list of forwarding rules.
// relay is the VM-side agent socket of a Podman machine; it is only used
// for macOS with podman.
func forwarderFor(platform string, engine runtime.Kind, relay string) (forwarder, error) {
	switch {
	case platform == Linux && (engine == runtime.Podman || engine == runtime.Docker):
		return hostSocketForwarder{}, nil
	case platform == Darwin && engine == runtime.Docker:
		return vmSocketForwarder{variant: ForwardDockerDesktop, socket: DockerDesktopAgentSocket}, nil
	case platform == Darwin && engine == runtime.Podman:
		return vmSocketForwarder{variant: ForwardPodmanMachine, socket: relay, needsHostAgent: true, missingNotice: podmanRelayNotice}, nil
	}
	return nil, errors.UnsupportedPlatform(platform, string(engine))
}

// hostSocketForwarder bind-mounts the host's SSH_AUTH_SOCK. Without a host
// agent nothing is forwarded.
type hostSocketForwarder struct{}

func (hostSocketForwarder) forward(lookupEnv func(string) (string, bool), homeDir string) (*AgentForward, string) {
	sock, ok := lookupEnv("SSH_AUTH_SOCK")
	if !ok || sock == "" || !filepath.IsAbs(sock) {
		return nil, ""
	}
	sock = filepath.Clean(sock)
	if homeDir != "" {
		home := filepath.Clean(homeDir)
		// A directory is never forwarded, even if the variable points at one.
		if covers(sock, home) || sock == filepath.Join(home, ".ssh") {
			return nil, ""
		}
	}
	return &AgentForward{Variant: ForwardHostSocket, Source: sock, Target: AgentSocket, ReadOnly: true}, ""
}

// vmSocketForwarder mounts a socket that lives inside the engine's VM. An
// empty socket means none is known to exist there, and nothing is mounted.
type vmSocketForwarder struct {
	variant        ForwardVariant
	socket         string
	needsHostAgent bool
	missingNotice  string
}

func (f vmSocketForwarder) forward(lookupEnv func(string) (string, bool), _ string) (*AgentForward, string) {
	if f.needsHostAgent {
		if sock, ok := lookupEnv("SSH_AUTH_SOCK"); !ok || sock == "" {
			return nil, ""
		}
	}
	if f.socket == "" {
		return nil, f.missingNotice
	}
	return &AgentForward{Variant: f.variant, Source: filepath.Clean(f.socket), Target: AgentSocket, ReadOnly: true}, ""
}
