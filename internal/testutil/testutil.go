// Package testutil provides test utilities for command and lifecycle tests
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/firefly-engineering/jail/internal/app"
	"github.com/firefly-engineering/jail/internal/boundary"
	"github.com/firefly-engineering/jail/internal/config"
	"github.com/firefly-engineering/jail/internal/image"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
	"github.com/firefly-engineering/jail/internal/sandbox"
	"github.com/firefly-engineering/jail/internal/system"
)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	TmpDir   string
	HomeDir  string
	Paths    *config.Paths
	Podman   *runtime.MockEngine
	Docker   *runtime.MockEngine
	Executor *system.MockExecutor
	Cloner   *FakeCloner
	Env      map[string]string
	App      *app.App
	cleanup  func()
}

// NewTestEnv creates a new test environment with mock engines. Both engines
// are installed and have the base image; podman is preferred as on a real
// host.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	// Engine selection must not depend on the developer's shell
	t.Setenv(config.RuntimeEnvVar, "")

	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")
	paths := config.NewPaths(filepath.Join(homeDir, ".config", "jail"), filepath.Join(homeDir, ".local", "share", "jail"))

	for _, dir := range []string{paths.ConfigDir, paths.JailsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	podman := runtime.NewMockEngine(runtime.Podman)
	docker := runtime.NewMockEngine(runtime.Docker)
	podman.Images[image.Name] = true
	docker.Images[image.Name] = true

	env := &TestEnv{
		T:        t,
		TmpDir:   tmpDir,
		HomeDir:  homeDir,
		Paths:    paths,
		Podman:   podman,
		Docker:   docker,
		Executor: system.NewMockExecutor(),
		Cloner:   &FakeCloner{Files: map[string]string{"README.md": "# test\n"}},
		Env:      map[string]string{"SSH_AUTH_SOCK": filepath.Join(tmpDir, "agent.sock")},
	}

	testApp, err := app.New(
		app.WithPaths(paths),
		app.WithConfig(&config.Config{}),
		app.WithExecutor(env.Executor),
		app.WithEngines(runtime.MockFactory(podman, docker)),
		app.WithCloner(env.Cloner),
		app.WithHost(homeDir, boundary.Linux, env.lookupEnv),
	)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	env.App = testApp

	// Save original default and set test app
	originalDefault := app.Default
	app.SetDefault(testApp)
	env.cleanup = func() {
		app.SetDefault(originalDefault)
	}

	return env
}

func (e *TestEnv) lookupEnv(key string) (string, bool) {
	v, ok := e.Env[key]
	return v, ok
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// Controller returns the app's lifecycle controller
func (e *TestEnv) Controller() *sandbox.Controller {
	return e.App.Controller()
}

// Registry returns the app's registry
func (e *TestEnv) Registry() *registry.Registry {
	return e.App.Registry
}

// AddSandbox writes a record directly, bypassing the controller. If
// containerStatus is set, a matching container is added to the engine.
func (e *TestEnv) AddSandbox(name string, engine runtime.Kind, state registry.State, containerStatus runtime.ContainerStatus) *registry.Sandbox {
	e.T.Helper()

	sb := &registry.Sandbox{
		Name:          name,
		Source:        naming.ParseSource("https://github.com/" + name),
		RuntimeEngine: engine,
		ContainerName: naming.ContainerName(name),
		State:         state,
	}

	if containerStatus != "" {
		mock := e.Engine(engine)
		ref := "ref-" + naming.Sanitize(name)
		mock.AddContainer(ref, sb.ContainerName, containerStatus)
		sb.ContainerRef = ref
	}

	rec, err := e.Registry().Create(context.Background(), sb, nil)
	if err != nil {
		e.T.Fatalf("Failed to add sandbox %s: %v", name, err)
	}
	return rec
}

// Engine returns the mock engine of a kind
func (e *TestEnv) Engine(kind runtime.Kind) *runtime.MockEngine {
	if kind == runtime.Docker {
		return e.Docker
	}
	return e.Podman
}

// GetSandbox loads a sandbox record, or nil if it does not exist
func (e *TestEnv) GetSandbox(name string) *registry.Sandbox {
	e.T.Helper()

	sb, err := e.Registry().Get(name)
	if err != nil {
		return nil
	}
	return sb
}

// SandboxExists checks if a sandbox exists
func (e *TestEnv) SandboxExists(name string) bool {
	return e.Registry().Exists(name)
}

// FakeCloner populates workspaces with fixed files instead of cloning.
type FakeCloner struct {
	mu sync.Mutex

	// Files are written into every workspace, by relative path
	Files map[string]string

	// Err is returned instead of cloning if set
	Err error

	// OnClone runs before the files are written
	OnClone func(ctx context.Context, src naming.Source, dir string) error

	Calls []naming.Source
}

func (f *FakeCloner) Clone(ctx context.Context, src naming.Source, dir string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, src)
	files := f.Files
	hook := f.OnClone
	err := f.Err
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, src, dir); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	if src.Kind == naming.SourceEmpty {
		return nil
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}
