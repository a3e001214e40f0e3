package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/sandbox"
)

// ungrouped labels sandboxes whose name has no owner component.
const ungrouped = "(standalone)"

// headerItem is a non-selectable group separator in the picker list.
type headerItem struct {
	label string
}

func (h headerItem) FilterValue() string { return "" }
func (h headerItem) Title() string       { return h.label }
func (h headerItem) Description() string { return "" }

// groupKey returns the owner of an owner/repo name, or ungrouped.
func groupKey(sb *registry.Sandbox) string {
	if owner, _, ok := strings.Cut(sb.Name, "/"); ok {
		return owner
	}
	return ungrouped
}

// buildGroupedItems groups sandboxes by owner and returns list items with
// headerItem separators. Standalone sandboxes come last.
func buildGroupedItems(statuses []sandbox.SandboxStatus) []list.Item {
	if len(statuses) == 0 {
		return nil
	}

	groupMap := make(map[string][]sandbox.SandboxStatus)
	var keys []string
	for _, st := range statuses {
		if st.Sandbox == nil {
			continue
		}
		key := groupKey(st.Sandbox)
		if _, ok := groupMap[key]; !ok {
			keys = append(keys, key)
		}
		groupMap[key] = append(groupMap[key], st)
	}

	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == ungrouped) != (keys[j] == ungrouped) {
			return keys[j] == ungrouped
		}
		return keys[i] < keys[j]
	})

	var items []list.Item
	for _, key := range keys {
		items = append(items, headerItem{label: key})
		for _, st := range groupMap[key] {
			items = append(items, sandboxItem{status: st})
		}
	}

	return items
}

// headerStyle is the style for group header items.
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("241")).
	PaddingLeft(2)

// groupedDelegate renders both headerItem and sandboxItem in the picker list.
type groupedDelegate struct {
	inner list.DefaultDelegate
}

func newGroupedDelegate() groupedDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	return groupedDelegate{inner: delegate}
}

func (d groupedDelegate) Height() int                             { return d.inner.Height() }
func (d groupedDelegate) Spacing() int                            { return d.inner.Spacing() }
func (d groupedDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d groupedDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if h, ok := item.(headerItem); ok {
		fmt.Fprint(w, headerStyle.Render(h.label))
		return
	}

	d.inner.Render(w, m, index, item)
}

// skipHeaders moves the cursor off a headerItem, preferring direction
// (1 down, -1 up).
func skipHeaders(l *list.Model, direction int) {
	items := l.Items()
	if len(items) == 0 {
		return
	}

	idx := l.Index()
	if _, ok := items[idx].(headerItem); !ok {
		return
	}

	for _, next := range []int{idx + direction, idx - direction} {
		if next >= 0 && next < len(items) {
			if _, ok := items[next].(headerItem); !ok {
				l.Select(next)
				return
			}
		}
	}

	for i := 0; i < len(items); i++ {
		candidate := (idx + i*direction + len(items)) % len(items)
		if _, ok := items[candidate].(headerItem); !ok {
			l.Select(candidate)
			return
		}
	}
}

// navigationDirection returns 1 for down/j keys, -1 for up/k keys.
func navigationDirection(msg tea.KeyMsg) int {
	switch msg.String() {
	case "up", "k":
		return -1
	}
	return 1
}
