package boundary

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/firefly-engineering/jail/internal/runtime"
)

// dialect holds the engine-specific create flags.
type dialect interface {
	flags() []string
}

func dialectFor(platform string, engine runtime.Kind) dialect {
	if engine == runtime.Podman {
		return podmanDialect{remote: platform != Linux}
	}
	return dockerDialect{}
}

// podmanDialect denies podman's environment inheritance defaults. The remote
// client used with a Podman machine has no --env-host flag and never passes
// the host environment.
type podmanDialect struct {
	remote bool
}

func (d podmanDialect) flags() []string {
	if d.remote {
		return []string{"--http-proxy=false"}
	}
	return []string{"--env-host=false", "--http-proxy=false"}
}

// dockerDialect needs nothing extra: docker does not inherit the host
// environment.
type dockerDialect struct{}

func (dockerDialect) flags() []string {
	return nil
}

// CreateArgs translates the spec into the arguments following "create".
func (s *Spec) CreateArgs() []string {
	args := []string{
		"--name", s.ContainerName,
		"--label", LabelName + "=" + s.SandboxName,
		"--init",
		"--user", s.User,
		"--workdir", s.WorkingDir,
	}
	args = append(args, s.EngineFlags...)

	for _, m := range s.Mounts {
		args = append(args, "--mount", bindOption(m.Source, m.Target, m.ReadOnly))
	}
	if s.Agent != nil {
		args = append(args, "--mount", bindOption(s.Agent.Source, s.Agent.Target, s.Agent.ReadOnly))
	}

	for _, env := range s.Env {
		args = append(args, "--env", env)
	}

	for _, p := range s.Ports {
		args = append(args, "--publish", p.HostIP+":"+strconv.Itoa(p.HostPort)+":"+strconv.Itoa(p.ContainerPort))
	}

	args = append(args, s.Image)
	return append(args, s.Command...)
}

// CreateRequest packages the spec for Engine.Create.
func (s *Spec) CreateRequest() runtime.CreateRequest {
	return runtime.CreateRequest{Name: s.ContainerName, Args: s.CreateArgs()}
}

// SessionOptions returns the exec options for any jail container.
func SessionOptions() runtime.ExecOptions {
	return runtime.ExecOptions{User: ContainerUser, WorkingDir: WorkspaceTarget}
}

// EnvMap returns the container environment as a map.
func (s *Spec) EnvMap() map[string]string {
	m := make(map[string]string, len(s.Env))
	for _, kv := range s.Env {
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	return m
}

// EnvKeys returns the sorted names of the container environment.
func (s *Spec) EnvKeys() []string {
	return slices.Sorted(maps.Keys(s.EnvMap()))
}

func bindOption(source, target string, readOnly bool) string {
	opt := "type=bind,source=" + source + ",target=" + target
	if readOnly {
		opt += ",readonly"
	}
	return opt
}

// checkOptionValue rejects paths that would corrupt a --mount option.
func checkOptionValue(path string) error {
	if strings.ContainsAny(path, ",\n") {
		return invalid("path %q cannot be used in a mount option", path)
	}
	return nil
}

func (p PortBinding) String() string {
	return fmt.Sprintf("%s:%d->%d", p.HostIP, p.HostPort, p.ContainerPort)
}
