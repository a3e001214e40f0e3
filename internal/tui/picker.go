// Package tui provides terminal user interface components for jail
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/jail/internal/health"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/sandbox"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionEnter
	ActionCode
	ActionStop
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Name   string
}

// sandboxItem implements list.Item for sandbox display
type sandboxItem struct {
	status sandbox.SandboxStatus
}

func (i sandboxItem) name() string {
	return i.status.Sandbox.Name
}

func (i sandboxItem) Title() string {
	return i.name()
}

func (i sandboxItem) Description() string {
	sb := i.status.Sandbox

	uptime := i.status.Uptime
	if uptime == "" {
		uptime = string(i.status.Health)
	}

	return fmt.Sprintf("%s %s | %s | ports %s | %s",
		statusIcon(i.status.Health),
		sb.RuntimeEngine,
		uptime,
		port.Format(sb.Ports),
		truncate(sb.Source.String(), 40),
	)
}

func (i sandboxItem) FilterValue() string {
	return i.name()
}

func statusIcon(s health.Status) string {
	switch s {
	case health.StatusRunning:
		return "✓"
	case health.StatusUnreachable, health.StatusUnknown:
		return "⚠"
	case health.StatusCreated, health.StatusMissing:
		return "○"
	}
	return "●"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen+3:]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the sandbox picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new sandbox picker. Sandboxes are grouped by owner.
func NewPicker(statuses []sandbox.SandboxStatus) Model {
	items := buildGroupedItems(statuses)

	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = "jail - Select Sandbox"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	if len(items) > 0 {
		skipHeaders(&l, 1)
	}

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			return m.choose(ActionEnter)
		case "c":
			return m.choose(ActionCode)
		case "s":
			return m.choose(ActionStop)
		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		case "up", "k", "down", "j":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			skipHeaders(&m.list, navigationDirection(msg))
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) choose(action Action) (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(sandboxItem)
	if !ok {
		return m, nil
	}
	m.result = PickerResult{Action: action, Name: item.name()}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Enter  [c] Code  [s] Stop  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive sandbox picker
func RunPicker(statuses []sandbox.SandboxStatus) (PickerResult, error) {
	if len(statuses) == 0 {
		return PickerResult{Action: ActionNone}, nil
	}

	m := NewPicker(statuses)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive picker that just lists sandboxes
func SimplePicker(statuses []sandbox.SandboxStatus) string {
	var b strings.Builder

	b.WriteString("jail - Sandboxes\n")
	b.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(statuses) == 0 {
		b.WriteString("No sandboxes found.\n")
		b.WriteString("Create one with: jail clone <source>\n")
		return b.String()
	}

	for i, st := range statuses {
		sb := st.Sandbox
		b.WriteString(fmt.Sprintf("%d. %s %s (%s)\n",
			i+1, statusIcon(st.Health), sb.Name, sb.RuntimeEngine))
		b.WriteString(fmt.Sprintf("   Ports: %s | Source: %s\n\n",
			port.Format(sb.Ports), truncate(sb.Source.String(), 40)))
	}

	return b.String()
}
