package runtime

import (
	"context"
	"fmt"
	goruntime "runtime"
	"sync"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
)

// Resolver selects the engine for one command invocation. The result is
// memoized on the Resolver value, never in package state.
type Resolver struct {
	// Override names an engine that must be used. OverrideSource says where
	// it came from for error messages.
	Override       string
	OverrideSource string

	Factory Factory
	GOOS    string

	once sync.Once
	kind Kind
	err  error
}

// NewResolver creates a resolver for this host.
func NewResolver(override, source string, factory Factory) *Resolver {
	return &Resolver{
		Override:       override,
		OverrideSource: source,
		Factory:        factory,
		GOOS:           goruntime.GOOS,
	}
}

// Resolve returns the selected engine kind.
func (r *Resolver) Resolve(ctx context.Context) (Kind, error) {
	r.once.Do(func() {
		r.kind, r.err = r.resolve(ctx)
	})
	return r.kind, r.err
}

// Engine resolves and returns the selected engine.
func (r *Resolver) Engine(ctx context.Context) (Engine, error) {
	kind, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return r.Factory(kind), nil
}

func (r *Resolver) resolve(ctx context.Context) (Kind, error) {
	if r.Override != "" {
		kind, ok := ParseKind(r.Override)
		if !ok {
			return "", errors.ConfigError(
				fmt.Sprintf("unsupported runtime %q from %s: use podman or docker", r.Override, r.OverrideSource), nil)
		}
		if err := r.Factory(kind).Probe(ctx); err != nil {
			return "", errors.ConfigError(
				fmt.Sprintf("runtime %s selected by %s is not installed", kind, r.OverrideSource), err)
		}
		logging.Debug("using configured runtime", "runtime", kind, "source", r.OverrideSource)
		return kind, nil
	}

	for _, kind := range Kinds {
		if err := r.Factory(kind).Probe(ctx); err != nil {
			logging.Debug("runtime not present", "runtime", kind, "error", err)
			continue
		}
		logging.Debug("detected runtime", "runtime", kind)
		return kind, nil
	}

	return "", errors.NoRuntimeFound(InstallInstructions(r.GOOS))
}

// InstallInstructions returns platform-specific setup hints.
func InstallInstructions(goos string) string {
	switch goos {
	case "darwin":
		return `Install a container runtime:

Podman (recommended):
  brew install podman
  podman machine init
  podman machine start

Docker Desktop:
  brew install --cask docker
  # Then launch Docker.app`
	case "linux":
		return `Install a container runtime:

Podman (recommended):
  sudo apt install podman      # Ubuntu/Debian
  sudo dnf install podman      # Fedora
  sudo pacman -S podman        # Arch

Docker:
  See https://docs.docker.com/engine/install/`
	default:
		return "Please install Docker or Podman for your platform."
	}
}

// Availability describes one engine as reported by `jail status`.
type Availability struct {
	Kind      Kind
	Installed bool
	Reachable bool
	Err       error
}

// Survey probes and pings every supported engine.
func Survey(ctx context.Context, factory Factory) []Availability {
	results := make([]Availability, 0, len(Kinds))
	for _, kind := range Kinds {
		engine := factory(kind)
		a := Availability{Kind: kind}
		if err := engine.Probe(ctx); err != nil {
			a.Err = err
			results = append(results, a)
			continue
		}
		a.Installed = true
		if err := engine.Ping(ctx); err != nil {
			a.Err = err
		} else {
			a.Reachable = true
		}
		results = append(results, a)
	}
	return results
}
