package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestLogger keeps each sandbox's events in root/<name>, creating the
// directory the way the registry would.
func newTestLogger(t *testing.T, names ...string) (*Logger, string) {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0o700); err != nil {
			t.Fatal(err)
		}
	}
	return NewLogger(func(name string) (string, error) {
		return filepath.Join(root, name), nil
	}), root
}

func TestLogger_LogAndEvents(t *testing.T) {
	logger, root := newTestLogger(t, "test-sandbox")

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Type: EventCreate, Sandbox: "test-sandbox", Engine: "podman", Details: "source=github.com/acme/widgets"},
		{Timestamp: now.Add(time.Second), Type: EventStart, Sandbox: "test-sandbox"},
		{Timestamp: now.Add(2 * time.Second), Type: EventEnter, Sandbox: "test-sandbox", Details: "sessions=1"},
		{Timestamp: now.Add(3 * time.Second), Type: EventStop, Sandbox: "test-sandbox"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events("test-sandbox")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
	}
	if result[0].Engine != "podman" {
		t.Errorf("engine = %q, want podman", result[0].Engine)
	}

	if _, err := os.Stat(filepath.Join(root, "test-sandbox", FileName)); err != nil {
		t.Errorf("events not stored in the sandbox directory: %v", err)
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger, _ := newTestLogger(t, "quiet")

	result, err := logger.Events("quiet")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_LogEvent(t *testing.T) {
	logger, _ := newTestLogger(t, "my-sandbox")

	if err := logger.LogEvent(EventCreate, "my-sandbox", "docker", "ports=8080"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events("my-sandbox")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventCreate || e.Sandbox != "my-sandbox" || e.Details != "ports=8080" {
		t.Errorf("event = %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_DoesNotCreateDirectory(t *testing.T) {
	logger, root := newTestLogger(t)

	if err := logger.LogEvent(EventStop, "removed", "", ""); err == nil {
		t.Error("Log should fail once the sandbox directory is gone")
	}
	if _, err := os.Stat(filepath.Join(root, "removed")); !os.IsNotExist(err) {
		t.Error("Log recreated a removed sandbox directory")
	}
}

func TestLogger_SkipsMalformedLines(t *testing.T) {
	logger, root := newTestLogger(t, "messy")

	logger.LogEvent(EventStart, "messy", "", "")
	f, err := os.OpenFile(filepath.Join(root, "messy", FileName), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n\n")
	f.Close()
	logger.LogEvent(EventStop, "messy", "", "")

	events, err := logger.Events("messy")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestLogger_Tail(t *testing.T) {
	logger, _ := newTestLogger(t, "tail")

	for i := 0; i < 5; i++ {
		logger.LogEvent(EventExec, "tail", "", string(rune('A'+i)))
	}

	tests := []struct {
		n     int
		first string
		count int
	}{
		{0, "A", 5},
		{2, "D", 2},
		{10, "A", 5},
	}
	for _, tt := range tests {
		events, err := logger.Tail("tail", tt.n)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != tt.count || events[0].Details != tt.first {
			t.Errorf("Tail(%d) = %d events starting %q, want %d starting %q",
				tt.n, len(events), events[0].Details, tt.count, tt.first)
		}
	}
}

func TestLogger_EventOrder(t *testing.T) {
	logger, _ := newTestLogger(t, "order-test")

	base := time.Now()
	for i := 0; i < 5; i++ {
		logger.Log(Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Type:      EventExec,
			Sandbox:   "order-test",
			Details:   string(rune('A' + i)),
		})
	}

	events, _ := logger.Events("order-test")
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("event %d timestamp before event %d", i, i-1)
		}
	}
}
