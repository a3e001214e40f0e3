package boundary

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
)

const (
	testHome  = "/home/alice"
	testRoot  = "/home/alice/.local/share/jail/jails"
	hostAgent = "/tmp/ssh-XXXX/agent.1234"
)

func testSandbox(name string) *registry.Sandbox {
	return &registry.Sandbox{
		Name:          name,
		ContainerName: naming.ContainerName(name),
		WorkspacePath: filepath.Join(testRoot, naming.DirName(name), "workspace"),
	}
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func input(platform string, engine runtime.Kind, vars map[string]string) BuildInput {
	return BuildInput{
		Sandbox:   testSandbox("acme/widgets"),
		Engine:    engine,
		Platform:  platform,
		JailsRoot: testRoot,
		HomeDir:   testHome,
		LookupEnv: env(vars),
		Image:     "jail-dev:latest",
	}
}

var allPairs = []struct {
	platform string
	engine   runtime.Kind
}{
	{Linux, runtime.Podman},
	{Linux, runtime.Docker},
	{Darwin, runtime.Podman},
	{Darwin, runtime.Docker},
}

func TestBuild_ExactlyOneWorkspaceMount(t *testing.T) {
	for _, pair := range allPairs {
		t.Run(pair.platform+"/"+string(pair.engine), func(t *testing.T) {
			spec, err := Build(input(pair.platform, pair.engine, map[string]string{"SSH_AUTH_SOCK": hostAgent}))
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			if len(spec.Mounts) != 1 {
				t.Fatalf("Mounts = %v, want exactly one", spec.Mounts)
			}
			m := spec.Mounts[0]
			if m.Target != WorkspaceTarget || m.ReadOnly {
				t.Errorf("mount = %+v, want read-write %s", m, WorkspaceTarget)
			}
			if m.Source == testHome || covers(m.Source, testHome) {
				t.Errorf("mount source %q exposes the home directory", m.Source)
			}

			other := filepath.Join(testRoot, naming.DirName("acme/gadgets"), "workspace")
			if covers(m.Source, other) {
				t.Errorf("mount source %q exposes another sandbox's workspace", m.Source)
			}

			mountArgs := 0
			for _, a := range spec.CreateArgs() {
				if a == "--mount" {
					mountArgs++
				}
				for _, secret := range []string{".ssh", ".aws", ".config"} {
					if strings.Contains(a, filepath.Join(testHome, secret)) {
						t.Errorf("create args reference %s: %q", secret, a)
					}
				}
			}
			if mountArgs > 2 {
				t.Errorf("%d mounts in create args, want workspace plus at most the agent socket", mountArgs)
			}
		})
	}
}

func TestBuild_ForwardingVariants(t *testing.T) {
	tests := []struct {
		name       string
		platform   string
		engine     runtime.Kind
		vars       map[string]string
		wantVariant ForwardVariant
		wantSource string
	}{
		{"linux podman", Linux, runtime.Podman, map[string]string{"SSH_AUTH_SOCK": hostAgent}, ForwardHostSocket, hostAgent},
		{"linux docker", Linux, runtime.Docker, map[string]string{"SSH_AUTH_SOCK": hostAgent}, ForwardHostSocket, hostAgent},
		{"linux no agent", Linux, runtime.Docker, nil, "", ""},
		{"linux relative agent", Linux, runtime.Podman, map[string]string{"SSH_AUTH_SOCK": "agent.sock"}, "", ""},
		{"linux agent is home", Linux, runtime.Podman, map[string]string{"SSH_AUTH_SOCK": testHome}, "", ""},
		{"linux agent is ssh dir", Linux, runtime.Podman, map[string]string{"SSH_AUTH_SOCK": testHome + "/.ssh/"}, "", ""},
		{"macos docker", Darwin, runtime.Docker, nil, ForwardDockerDesktop, DockerDesktopAgentSocket},
		{"macos podman without relay", Darwin, runtime.Podman, map[string]string{"SSH_AUTH_SOCK": "/private/tmp/launchd/Listeners"}, "", ""},
		{"macos podman no agent", Darwin, runtime.Podman, nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Build(input(tt.platform, tt.engine, tt.vars))
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			if tt.wantVariant == "" {
				if spec.Agent != nil {
					t.Errorf("Agent = %+v, want none", spec.Agent)
				}
				if _, ok := spec.EnvMap()["SSH_AUTH_SOCK"]; ok {
					t.Error("SSH_AUTH_SOCK set without a forward")
				}
				return
			}

			if spec.Agent == nil {
				t.Fatal("Agent = nil")
			}
			if spec.Agent.Variant != tt.wantVariant || spec.Agent.Source != tt.wantSource {
				t.Errorf("Agent = %+v, want %s from %s", spec.Agent, tt.wantVariant, tt.wantSource)
			}
			if !spec.Agent.ReadOnly || spec.Agent.Target != AgentSocket {
				t.Errorf("Agent = %+v, want read-only at %s", spec.Agent, AgentSocket)
			}
			if spec.EnvMap()["SSH_AUTH_SOCK"] != AgentSocket {
				t.Errorf("SSH_AUTH_SOCK = %q", spec.EnvMap()["SSH_AUTH_SOCK"])
			}
		})
	}
}

func TestBuild_PodmanMachineRelay(t *testing.T) {
	const relay = "/run/user/501/ssh-agent.sock"
	macAgent := map[string]string{"SSH_AUTH_SOCK": "/private/tmp/launchd/Listeners"}

	in := input(Darwin, runtime.Podman, macAgent)
	spec, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if spec.Agent != nil {
		t.Errorf("Agent = %+v, want none without a relay", spec.Agent)
	}
	if spec.AgentNotice == "" {
		t.Error("AgentNotice is empty; the skipped forward should be explained")
	}
	for _, a := range spec.CreateArgs() {
		if strings.Contains(a, "target="+AgentSocket) {
			t.Errorf("agent mount emitted without a relay: %q", a)
		}
	}

	in.AgentRelay = relay
	spec, err = Build(in)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if spec.Agent == nil || spec.Agent.Variant != ForwardPodmanMachine || spec.Agent.Source != relay {
		t.Fatalf("Agent = %+v, want %s from %s", spec.Agent, ForwardPodmanMachine, relay)
	}
	if spec.AgentNotice != "" {
		t.Errorf("AgentNotice = %q, want empty", spec.AgentNotice)
	}

	noAgent := input(Darwin, runtime.Podman, nil)
	noAgent.AgentRelay = relay
	spec, err = Build(noAgent)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if spec.Agent != nil || spec.AgentNotice != "" {
		t.Errorf("Agent = %+v, notice %q; want nothing when the host has no agent", spec.Agent, spec.AgentNotice)
	}

	in.AgentRelay = "relative/agent.sock"
	if _, err := Build(in); err == nil {
		t.Error("Build() accepted a relative relay path")
	}
}

func TestBuild_UnsupportedPlatform(t *testing.T) {
	tests := []struct {
		platform string
		engine   runtime.Kind
	}{
		{"windows", runtime.Docker},
		{"freebsd", runtime.Podman},
		{Linux, runtime.Kind("containerd")},
		{Darwin, runtime.Kind("")},
	}

	for _, tt := range tests {
		t.Run(tt.platform+"/"+string(tt.engine), func(t *testing.T) {
			_, err := Build(input(tt.platform, tt.engine, nil))
			if !errors.Is(err, errors.ErrUnsupportedPlatform) {
				t.Errorf("Build() error = %v, want UnsupportedPlatform", err)
			}
		})
	}
}

func TestBuild_EnvironmentIsFixed(t *testing.T) {
	vars := map[string]string{
		"SSH_AUTH_SOCK":         hostAgent,
		"AWS_SECRET_ACCESS_KEY": "hunter2",
		"GITHUB_TOKEN":          "ghp_x",
		"TERM":                  "host-term",
		"HOME":                  testHome,
	}
	spec, err := Build(input(Linux, runtime.Podman, vars))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"HOME", "LANG", "SSH_AUTH_SOCK", "TERM", "USER"}
	if got := spec.EnvKeys(); !slices.Equal(got, want) {
		t.Errorf("env keys = %v, want %v", got, want)
	}
	envMap := spec.EnvMap()
	if envMap["HOME"] != ContainerHome || envMap["TERM"] == "host-term" {
		t.Errorf("host values leaked into env: %v", envMap)
	}
	for _, a := range spec.CreateArgs() {
		if strings.Contains(a, "hunter2") || strings.Contains(a, "ghp_x") {
			t.Errorf("host secret in create args: %q", a)
		}
	}
}

func TestCreateArgs_PodmanDeniesInheritance(t *testing.T) {
	linux, err := Build(input(Linux, runtime.Podman, nil))
	if err != nil {
		t.Fatal(err)
	}
	args := linux.CreateArgs()
	for _, flag := range []string{"--env-host=false", "--http-proxy=false"} {
		if !slices.Contains(args, flag) {
			t.Errorf("linux podman args missing %s: %v", flag, args)
		}
	}

	mac, err := Build(input(Darwin, runtime.Podman, nil))
	if err != nil {
		t.Fatal(err)
	}
	macArgs := mac.CreateArgs()
	if slices.Contains(macArgs, "--env-host=false") {
		t.Error("remote podman client does not support --env-host")
	}
	if !slices.Contains(macArgs, "--http-proxy=false") {
		t.Error("macos podman args missing --http-proxy=false")
	}

	docker, err := Build(input(Linux, runtime.Docker, nil))
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range docker.CreateArgs() {
		if strings.HasPrefix(a, "--env-host") || strings.HasPrefix(a, "--http-proxy") {
			t.Errorf("docker args contain podman flag %q", a)
		}
	}
}

func TestCreateArgs_Layout(t *testing.T) {
	in := input(Linux, runtime.Docker, map[string]string{"SSH_AUTH_SOCK": hostAgent})
	in.Ports = []int{8080, 3000, 8080}
	spec, err := Build(in)
	if err != nil {
		t.Fatal(err)
	}

	args := spec.CreateArgs()
	joined := strings.Join(args, " ")

	ws := spec.Mounts[0].Source
	for _, want := range []string{
		"--name " + naming.ContainerName("acme/widgets"),
		"--user dev",
		"--workdir /workspace",
		"--mount type=bind,source=" + ws + ",target=/workspace",
		"--mount type=bind,source=" + hostAgent + ",target=/run/ssh.sock,readonly",
		"--publish 127.0.0.1:3000:3000 --publish 127.0.0.1:8080:8080",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("create args missing %q:\n%s", want, joined)
		}
	}

	if !slices.Equal(args[len(args)-3:], []string{"jail-dev:latest", "sleep", "infinity"}) {
		t.Errorf("args should end with image and command: %v", args[len(args)-3:])
	}
	if strings.Contains(joined, "--network") {
		t.Error("network should be left at the engine default")
	}

	req := spec.CreateRequest()
	if req.Name != spec.ContainerName || !slices.Equal(req.Args, args) {
		t.Errorf("CreateRequest() = %+v", req)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Spec {
		spec, err := Build(input(Linux, runtime.Podman, map[string]string{"SSH_AUTH_SOCK": hostAgent}))
		if err != nil {
			t.Fatal(err)
		}
		return spec
	}

	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"second mount", func(s *Spec) {
			s.Mounts = append(s.Mounts, Mount{Source: testHome + "/.aws", Target: "/aws"})
		}},
		{"wrong target", func(s *Spec) { s.Mounts[0].Target = "/home/dev" }},
		{"read-only workspace", func(s *Spec) { s.Mounts[0].ReadOnly = true }},
		{"home directory", func(s *Spec) { s.Mounts[0].Source = testHome }},
		{"ancestor of workspaces", func(s *Spec) { s.Mounts[0].Source = testRoot }},
		{"outside root", func(s *Spec) { s.Mounts[0].Source = "/srv/other/workspace" }},
		{"comma in path", func(s *Spec) { s.Mounts[0].Source = testRoot + "/a,b/workspace" }},
		{"writable agent", func(s *Spec) { s.Agent.ReadOnly = false }},
		{"public port", func(s *Spec) { s.Ports = []PortBinding{{HostIP: "0.0.0.0", HostPort: 80, ContainerPort: 80}} }},
		{"no image", func(s *Spec) { s.Image = "" }},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Validate() on built spec: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base()
			tt.mutate(spec)
			if err := spec.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestBuild_RejectsForeignWorkspace(t *testing.T) {
	in := input(Linux, runtime.Docker, nil)
	in.Sandbox.WorkspacePath = testHome
	if _, err := Build(in); err == nil {
		t.Error("Build() accepted the home directory as a workspace")
	}
}

func TestCovers(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/home/alice", "/home/alice", true},
		{"/home", "/home/alice", true},
		{"/", "/home/alice", true},
		{"/home/alice/x/workspace", "/home/alice", false},
		{"/home/alicex", "/home/alice", false},
		{"/srv", "/home/alice", false},
	}
	for _, tt := range tests {
		if got := covers(tt.path, tt.dir); got != tt.want {
			t.Errorf("covers(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}
