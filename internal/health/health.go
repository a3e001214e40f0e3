package health

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-engineering/jail/internal/runtime"
)

// Status represents the observed health of a sandbox container
type Status string

const (
	StatusRunning     Status = "running"
	StatusStopped     Status = "stopped"
	StatusCreated     Status = "created"
	StatusMissing     Status = "missing"
	StatusUnreachable Status = "unreachable"
	StatusUnknown     Status = "unknown"
)

// CheckResult contains the results of a container check
type CheckResult struct {
	Status    Status
	Container runtime.ContainerStatus
	Uptime    string
	Err       error
}

// Running reports whether the container is up.
func (r *CheckResult) Running() bool {
	return r.Status == StatusRunning
}

// Check inspects a container and summarizes it. An empty ref means no
// container was ever created. Engine failures are reported in the result,
// never returned.
func Check(ctx context.Context, engine runtime.Engine, ref string, now time.Time) *CheckResult {
	if ref == "" {
		return &CheckResult{Status: StatusMissing, Container: runtime.StatusNotFound}
	}
	if engine == nil {
		return &CheckResult{Status: StatusUnreachable, Container: runtime.StatusUnknown}
	}

	info, err := engine.Inspect(ctx, ref)
	if err != nil {
		return &CheckResult{Status: StatusUnreachable, Container: runtime.StatusUnknown, Err: err}
	}

	result := &CheckResult{Container: info.Status}
	switch info.Status {
	case runtime.StatusRunning:
		result.Status = StatusRunning
		result.Uptime = Uptime(info.StartedAt, now)
	case runtime.StatusStopped:
		result.Status = StatusStopped
	case runtime.StatusCreated:
		result.Status = StatusCreated
	case runtime.StatusNotFound:
		result.Status = StatusMissing
	default:
		result.Status = StatusUnknown
	}
	return result
}

// DescribeEngine renders an engine's availability the way `jail status`
// prints it.
func DescribeEngine(a runtime.Availability) string {
	switch {
	case a.Reachable:
		return "available"
	case a.Installed:
		return "installed but not running"
	}
	return "not installed"
}

// Uptime returns the time since startedAt in human-readable format.
func Uptime(startedAt string, now time.Time) string {
	if startedAt == "" || startedAt == "n/a" {
		return "unknown"
	}

	// Try common timestamp formats
	var t time.Time
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02T15:04:05.000000000Z",
	}

	for _, format := range formats {
		if parsed, err := time.Parse(format, startedAt); err == nil {
			t = parsed
			break
		}
	}

	if t.IsZero() {
		return startedAt // Return raw value if can't parse
	}

	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	return formatDuration(d)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
