package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/firefly-engineering/jail/internal/health"
	"github.com/firefly-engineering/jail/internal/registry"
)

func TestLifecycle_CloneExecStopStartRemove(t *testing.T) {
	h := NewHarness(t)
	ctrl := h.Controller()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	sb := h.Clone(ctx, h.CreateSource("demo"))
	h.RequireState(sb.Name, registry.StateRunning)

	res, err := ctrl.Exec(ctx, sb.Name, []string{"cat", "/workspace/README.md"})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if res.ExitCode != 0 || !strings.Contains(res.Stdout, "# demo") {
		t.Errorf("Exec = %d %q, want the workspace README", res.ExitCode, res.Stdout)
	}

	if _, err := ctrl.Stop(ctx, sb.Name); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	h.RequireState(sb.Name, registry.StateStopped)

	if _, err := ctrl.Start(ctx, sb.Name, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	started := h.RequireState(sb.Name, registry.StateRunning)

	report := ctrl.Status(ctx)
	found := false
	for _, st := range report.Sandboxes {
		if st.Sandbox.Name == sb.Name {
			found = true
			if st.Health != health.StatusRunning {
				t.Errorf("Status health = %s, want running", st.Health)
			}
		}
	}
	if !found {
		t.Errorf("Status did not report %s", sb.Name)
	}

	if err := ctrl.Remove(ctx, sb.Name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(started.WorkspacePath)); !os.IsNotExist(err) {
		t.Errorf("jail directory still present after Remove: %v", err)
	}
	if info, err := h.Engine().Inspect(ctx, started.ContainerRef); err == nil && info.Exists() {
		t.Error("container still present after Remove")
	}
}

func TestLifecycle_PortsAddedOnStoppedSandbox(t *testing.T) {
	h := NewHarness(t)
	ctrl := h.Controller()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	sb := h.Clone(ctx, h.CreateSource("ports"))
	if _, err := ctrl.Exec(ctx, sb.Name, []string{"sh", "-c", "echo kept > /tmp/marker"}); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if _, err := ctrl.Stop(ctx, sb.Name); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	updated, err := ctrl.Start(ctx, sb.Name, []int{18181})
	if err != nil {
		t.Fatalf("Start with ports failed: %v", err)
	}
	if len(updated.Ports) != 1 || updated.Ports[0] != 18181 {
		t.Errorf("Ports = %v, want [18181]", updated.Ports)
	}

	res, err := ctrl.Exec(ctx, sb.Name, []string{"cat", "/tmp/marker"})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "kept" {
		t.Errorf("container filesystem not preserved across recreate: %q", res.Stdout)
	}
}
