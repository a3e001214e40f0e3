// Package audit records sandbox lifecycle events.
// Events are stored as JSON Lines (JSONL) inside each sandbox's directory,
// so a sandbox's history is removed together with the sandbox.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileName is the event log inside a sandbox directory.
const FileName = "events.jsonl"

// EventType classifies a lifecycle event.
type EventType string

const (
	EventCreate    EventType = "create"
	EventStart     EventType = "start"
	EventStop      EventType = "stop"
	EventRecreate  EventType = "recreate"
	EventEnter     EventType = "enter"
	EventLeave     EventType = "leave"
	EventExec      EventType = "exec"
	EventReconcile EventType = "reconcile"
	EventError     EventType = "error"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Sandbox   string    `json:"sandbox"`
	Engine    string    `json:"engine,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// DirFunc maps a sandbox name to its directory.
type DirFunc func(name string) (string, error)

// Logger writes and reads audit events for sandboxes.
type Logger struct {
	dir DirFunc
	now func() time.Time
}

// NewLogger creates a logger that keeps events in the directory dir returns.
func NewLogger(dir DirFunc) *Logger {
	return &Logger{dir: dir, now: time.Now}
}

func (l *Logger) eventPath(sandbox string) (string, error) {
	dir, err := l.dir(sandbox)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Log appends an event to the sandbox's audit log. The sandbox directory
// must exist; Log never creates it.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}

	path, err := l.eventPath(event.Sandbox)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, sandbox, engine, details string) error {
	return l.Log(Event{
		Type:    eventType,
		Sandbox: sandbox,
		Engine:  engine,
		Details: details,
	})
}

// Events reads all events for a sandbox in chronological order.
func (l *Logger) Events(sandbox string) ([]Event, error) {
	path, err := l.eventPath(sandbox)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Tail returns the last n events, or all of them when n <= 0.
func (l *Logger) Tail(sandbox string, n int) ([]Event, error) {
	events, err := l.Events(sandbox)
	if err != nil || n <= 0 || len(events) <= n {
		return events, err
	}
	return events[len(events)-n:], nil
}
