package registry

import (
	"slices"
	"time"

	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/runtime"
)

// State is the declared lifecycle state of a sandbox. There is no removed
// state on disk: removing a sandbox deletes its record.
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Sandbox is the persisted record of one jail.
type Sandbox struct {
	Name          string        `toml:"name" json:"name" yaml:"name"`
	Source        naming.Source `toml:"source" json:"source" yaml:"source"`
	RuntimeEngine runtime.Kind  `toml:"runtime_engine" json:"runtime_engine" yaml:"runtime_engine"`
	ContainerRef  string        `toml:"container_ref,omitempty" json:"container_ref,omitempty" yaml:"container_ref,omitempty"`
	ContainerName string        `toml:"container_name" json:"container_name" yaml:"container_name"`
	State         State         `toml:"state" json:"state" yaml:"state"`
	Ports         []int         `toml:"ports,omitempty" json:"ports,omitempty" yaml:"ports,omitempty"`
	Sessions      int           `toml:"sessions" json:"sessions" yaml:"sessions"`
	CreatedAt     time.Time     `toml:"created_at" json:"created_at" yaml:"created_at"`
	LastUsedAt    time.Time     `toml:"last_used_at" json:"last_used_at" yaml:"last_used_at"`
	WorkspacePath string        `toml:"workspace_path" json:"workspace_path" yaml:"workspace_path"`
}

// HasContainer reports whether a backing container has been created.
func (s *Sandbox) HasContainer() bool {
	return s.ContainerRef != ""
}

// Clone returns a deep copy.
func (s *Sandbox) Clone() *Sandbox {
	c := *s
	c.Ports = slices.Clone(s.Ports)
	return &c
}
