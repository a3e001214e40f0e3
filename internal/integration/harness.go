package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/jail/internal/app"
	"github.com/firefly-engineering/jail/internal/config"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
	"github.com/firefly-engineering/jail/internal/sandbox"
	"github.com/firefly-engineering/jail/internal/system"
)

// EnableEnvVar turns integration tests on.
const EnableEnvVar = "JAIL_INTEGRATION_TESTS"

// TestHarness provides utilities for integration testing with real containers.
type TestHarness struct {
	t       *testing.T
	tempDir string
	app     *app.App
	engine  runtime.Engine
	names   []string // sandboxes to remove on cleanup
}

// NewHarness creates a new test harness.
// It will skip the test if JAIL_INTEGRATION_TESTS is not set or no engine
// is reachable.
func NewHarness(t *testing.T) *TestHarness {
	t.Helper()

	if os.Getenv(EnableEnvVar) != "1" {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnableEnvVar)
	}

	tempDir := t.TempDir()
	home := filepath.Join(tempDir, "home")
	paths := config.NewPaths(filepath.Join(home, ".config", "jail"), filepath.Join(home, ".local", "share", "jail"))
	for _, dir := range []string{paths.ConfigDir, paths.JailsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	a, err := app.New(
		app.WithPaths(paths),
		app.WithConfig(&config.Config{}),
		app.WithExecutor(system.DefaultExecutor()),
	)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	engine, err := a.Engine(ctx)
	if err != nil {
		t.Skipf("no container engine available: %v", err)
	}

	h := &TestHarness{t: t, tempDir: tempDir, app: a, engine: engine}
	t.Cleanup(h.Cleanup)
	return h
}

// Engine returns the engine new sandboxes are created with.
func (h *TestHarness) Engine() runtime.Engine {
	return h.engine
}

// Controller returns the lifecycle controller under test.
func (h *TestHarness) Controller() *sandbox.Controller {
	return h.app.Controller()
}

// CreateSource writes a small project directory to clone from.
func (h *TestHarness) CreateSource(name string) string {
	h.t.Helper()

	dir := filepath.Join(h.tempDir, "src", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("Failed to create source dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# "+name+"\n"), 0644); err != nil {
		h.t.Fatalf("Failed to write source file: %v", err)
	}
	return dir
}

// Clone creates a sandbox from source and tracks it for cleanup.
func (h *TestHarness) Clone(ctx context.Context, source string, ports ...int) *registry.Sandbox {
	h.t.Helper()

	sb, err := h.Controller().Clone(ctx, h.engine, sandbox.CloneOptions{Source: source, Ports: ports})
	if err != nil {
		h.t.Fatalf("Clone(%s) failed: %v", source, err)
	}
	h.names = append(h.names, sb.Name)
	return sb
}

// RequireState fails the test unless the record is in the given state.
func (h *TestHarness) RequireState(name string, want registry.State) *registry.Sandbox {
	h.t.Helper()

	sb, err := h.Controller().Get(name)
	if err != nil {
		h.t.Fatalf("Get(%s) failed: %v", name, err)
	}
	if sb.State != want {
		h.t.Fatalf("%s: state = %s, want %s", name, sb.State, want)
	}
	return sb
}

// Cleanup removes every tracked sandbox that still exists.
func (h *TestHarness) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, name := range h.names {
		if _, err := h.Controller().Get(name); err != nil {
			continue
		}
		if err := h.Controller().Remove(ctx, name); err != nil {
			h.t.Logf("Warning: failed to remove %s: %v", name, err)
		}
	}
}
