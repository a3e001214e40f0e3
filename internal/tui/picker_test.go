package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/jail/internal/health"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
	"github.com/firefly-engineering/jail/internal/sandbox"
)

func testStatus(name string, h health.Status) sandbox.SandboxStatus {
	return sandbox.SandboxStatus{
		Sandbox: &registry.Sandbox{
			Name:          name,
			Source:        naming.ParseSource("https://github.com/" + name),
			RuntimeEngine: runtime.Podman,
			Ports:         []int{3000},
		},
		Health: h,
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"https://github.com/acme/widgets", 40, "https://github.com/acme/widgets"},
		{"https://github.com/acme/very/long/path/to/repo", 20, "...long/path/to/repo"},
		{"", 10, ""},
		{"exactly10!", 10, "exactly10!"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if got := truncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSandboxItemMethods(t *testing.T) {
	st := testStatus("acme/widgets", health.StatusRunning)
	st.Uptime = "2h30m"
	item := sandboxItem{status: st}

	if got := item.Title(); got != "acme/widgets" {
		t.Errorf("Title() = %q", got)
	}
	if got := item.FilterValue(); got != "acme/widgets" {
		t.Errorf("FilterValue() = %q", got)
	}

	desc := item.Description()
	for _, want := range []string{"✓", "podman", "2h30m", "ports 3000", "github.com/acme/widgets"} {
		if !strings.Contains(desc, want) {
			t.Errorf("Description() = %q, missing %q", desc, want)
		}
	}

	stopped := sandboxItem{status: testStatus("acme/api", health.StatusStopped)}
	if desc := stopped.Description(); !strings.Contains(desc, "stopped") {
		t.Errorf("Description() without uptime = %q, want the health", desc)
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status health.Status
		icon   string
	}{
		{health.StatusRunning, "✓"},
		{health.StatusUnreachable, "⚠"},
		{health.StatusUnknown, "⚠"},
		{health.StatusCreated, "○"},
		{health.StatusMissing, "○"},
		{health.StatusStopped, "●"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := statusIcon(tt.status); got != tt.icon {
				t.Errorf("statusIcon(%q) = %q, want %q", tt.status, got, tt.icon)
			}
		})
	}
}

func TestModelKeyHandling(t *testing.T) {
	statuses := []sandbox.SandboxStatus{testStatus("acme/widgets", health.StatusRunning)}

	t.Run("quit with q", func(t *testing.T) {
		m := NewPicker(statuses)
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
		if !model.quitting {
			t.Error("Model should be quitting")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("quit with esc", func(t *testing.T) {
		m := NewPicker(statuses)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if newModel.(Model).result.Action != ActionQuit {
			t.Error("esc should quit")
		}
	})

	actions := []struct {
		name string
		msg  tea.KeyMsg
		want Action
	}{
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, ActionEnter},
		{"code", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}, ActionCode},
		{"stop", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}, ActionStop},
	}
	for _, tt := range actions {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPicker(statuses)
			newModel, cmd := m.Update(tt.msg)
			result := newModel.(Model).Result()

			if result.Action != tt.want {
				t.Errorf("Action = %v, want %v", result.Action, tt.want)
			}
			if result.Name != "acme/widgets" {
				t.Errorf("Name = %q, want acme/widgets", result.Name)
			}
			if cmd == nil {
				t.Error("Should return tea.Quit command")
			}
		})
	}

	t.Run("window size update", func(t *testing.T) {
		m := NewPicker(statuses)
		newModel, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
		model := newModel.(Model)

		if model.width != 100 || model.height != 50 {
			t.Errorf("size = %dx%d, want 100x50", model.width, model.height)
		}
		if cmd != nil {
			t.Error("Window size update should not return a command")
		}
	})
}

func TestModelNavigationSkipsHeaders(t *testing.T) {
	m := NewPicker([]sandbox.SandboxStatus{
		testStatus("acme/api", health.StatusRunning),
		testStatus("zeta/tool", health.StatusStopped),
	})

	// acme header, acme/api, zeta header, zeta/tool
	if m.list.Index() != 1 {
		t.Fatalf("initial index = %d, want 1", m.list.Index())
	}

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = newModel.(Model)
	if m.list.Index() != 3 {
		t.Errorf("index after down = %d, want 3", m.list.Index())
	}

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = newModel.(Model)
	if m.list.Index() != 1 {
		t.Errorf("index after up = %d, want 1", m.list.Index())
	}
}

func TestModelInit(t *testing.T) {
	m := Model{}
	if cmd := m.Init(); cmd != nil {
		t.Error("Init() should return nil")
	}
}

func TestModelView(t *testing.T) {
	statuses := []sandbox.SandboxStatus{testStatus("acme/widgets", health.StatusRunning)}

	t.Run("normal view contains help", func(t *testing.T) {
		view := NewPicker(statuses).View()
		for _, want := range []string{"[enter] Enter", "[c] Code", "[s] Stop", "[q] Quit"} {
			if !strings.Contains(view, want) {
				t.Errorf("View should contain %q", want)
			}
		}
	})

	t.Run("quitting view is empty", func(t *testing.T) {
		m := NewPicker(statuses)
		m.quitting = true
		if view := m.View(); view != "" {
			t.Errorf("Quitting view should be empty, got %q", view)
		}
	})
}

func TestRunPickerEmpty(t *testing.T) {
	result, err := RunPicker(nil)
	if err != nil {
		t.Fatalf("RunPicker() error = %v", err)
	}
	if result.Action != ActionNone {
		t.Errorf("Action = %v, want ActionNone", result.Action)
	}
}

func TestSimplePicker(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		output := SimplePicker(nil)
		if !strings.Contains(output, "No sandboxes found") {
			t.Error("Should indicate no sandboxes found")
		}
		if !strings.Contains(output, "jail clone") {
			t.Error("Should show how to create a sandbox")
		}
	})

	t.Run("with sandboxes", func(t *testing.T) {
		output := SimplePicker([]sandbox.SandboxStatus{
			testStatus("acme/api", health.StatusRunning),
			testStatus("acme/web", health.StatusStopped),
		})
		for _, want := range []string{"acme/api", "acme/web", "podman", "3000"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})
}

func TestActionConstants(t *testing.T) {
	actions := []Action{ActionNone, ActionEnter, ActionCode, ActionStop, ActionQuit}
	seen := make(map[Action]bool)

	for _, a := range actions {
		if seen[a] {
			t.Errorf("Duplicate action value: %v", a)
		}
		seen[a] = true
	}
}
