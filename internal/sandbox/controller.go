// Package sandbox provides high-level sandbox lifecycle management.
package sandbox

import (
	"context"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/firefly-engineering/jail/internal/attach"
	"github.com/firefly-engineering/jail/internal/audit"
	"github.com/firefly-engineering/jail/internal/boundary"
	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/image"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
	"github.com/firefly-engineering/jail/internal/workspace"
)

// cleanupTimeout bounds engine calls that undo a failed transition. They run
// even after the caller's context is cancelled.
const cleanupTimeout = 30 * time.Second

// Controller drives sandboxes through created, running and stopped, and
// removes them. Every transition runs under the registry's lock for the
// sandbox and starts by reconciling the record with the engine.
type Controller struct {
	registry  *registry.Registry
	engines   runtime.Factory
	cloner    workspace.Cloner
	audit     *audit.Logger
	editor    *attach.Editor
	platform  string
	homeDir   string
	lookupEnv func(string) (string, bool)
	relay     string
	now       func() time.Time
}

// New creates a Controller.
func New(opts Options) *Controller {
	c := &Controller{
		registry:  opts.Registry,
		engines:   opts.Engines,
		cloner:    opts.Cloner,
		audit:     opts.Audit,
		editor:    opts.Editor,
		platform:  opts.Platform,
		homeDir:   opts.HomeDir,
		lookupEnv: opts.LookupEnv,
		relay:     opts.AgentRelay,
		now:       opts.Now,
	}
	if c.platform == "" {
		c.platform = boundary.HostPlatform()
	}
	if c.lookupEnv == nil {
		c.lookupEnv = os.LookupEnv
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// transition is an audit event waiting for its record to be written.
type transition struct {
	event   audit.EventType
	details string
}

func (c *Controller) engine(kind runtime.Kind) (runtime.Engine, error) {
	if _, ok := runtime.ParseKind(string(kind)); !ok {
		return nil, errors.ConfigError(fmt.Sprintf("jail record names unsupported runtime %q", kind), nil)
	}
	return c.engines(kind), nil
}

// Clone creates a sandbox from a source and starts it.
func (c *Controller) Clone(ctx context.Context, engine runtime.Engine, opts CloneOptions) (*registry.Sandbox, error) {
	name, err := naming.Resolve(opts.Source, opts.Name)
	if err != nil {
		return nil, err
	}
	return c.provision(ctx, engine, name, naming.ParseSource(opts.Source), opts.Ports)
}

// CreateEmpty creates a sandbox with an empty workspace and starts it.
func (c *Controller) CreateEmpty(ctx context.Context, engine runtime.Engine, name string, ports []int) (*registry.Sandbox, error) {
	if err := naming.Validate(name); err != nil {
		return nil, err
	}
	return c.provision(ctx, engine, name, naming.Source{Kind: naming.SourceEmpty}, ports)
}

func (c *Controller) provision(ctx context.Context, engine runtime.Engine, name string, src naming.Source, ports []int) (*registry.Sandbox, error) {
	logging.Debug("provisioning jail", "name", name, "source", src.String(), "engine", engine.Kind())

	// Checked again under the lock by registry.Create; this only avoids
	// building the image for a name that is taken.
	if c.registry.Exists(name) {
		return nil, errors.NameExists(name)
	}
	if err := workspace.CheckSource(src, c.homeDir); err != nil {
		return nil, err
	}

	if err := image.Ensure(ctx, engine); err != nil {
		return nil, err
	}

	sb := &registry.Sandbox{
		Name:          name,
		Source:        src,
		RuntimeEngine: engine.Kind(),
		ContainerName: naming.ContainerName(name),
		State:         registry.StateCreated,
		Ports:         port.Normalize(ports),
	}

	rec, err := c.registry.Create(ctx, sb, func(ctx context.Context, ws string) error {
		return c.cloner.Clone(ctx, src, ws)
	})
	if err != nil {
		return nil, err
	}
	c.record(rec, transition{audit.EventCreate, "source=" + src.String()})

	return c.Start(ctx, name, nil)
}

// Get returns a sandbox record without contacting the engine.
func (c *Controller) Get(name string) (*registry.Sandbox, error) {
	return c.registry.Get(name)
}

// Names returns every sandbox name, sorted.
func (c *Controller) Names() ([]string, error) {
	return c.registry.Names()
}

// List yields every sandbox record ordered by name.
func (c *Controller) List(ctx context.Context) iter.Seq2[*registry.Sandbox, error] {
	return c.registry.List()
}

// Start makes sure the sandbox's container is running. ports are added to
// the published set; a running container cannot publish new ports.
func (c *Controller) Start(ctx context.Context, name string, ports []int) (*registry.Sandbox, error) {
	return c.apply(ctx, name, func(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, info *runtime.ContainerInfo) ([]transition, error) {
		return c.ensureRunning(ctx, engine, sb, info, ports)
	})
}

// Stop stops the sandbox's container. The container is kept so the next
// start reuses it.
func (c *Controller) Stop(ctx context.Context, name string) (*registry.Sandbox, error) {
	return c.apply(ctx, name, func(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, info *runtime.ContainerInfo) ([]transition, error) {
		sb.Sessions = 0
		if info == nil {
			return nil, nil
		}
		if info.Status == runtime.StatusRunning {
			if err := engine.Stop(ctx, sb.ContainerRef); err != nil {
				return nil, err
			}
		}
		if sb.State == registry.StateStopped {
			return nil, nil
		}
		sb.State = registry.StateStopped
		return []transition{{event: audit.EventStop}}, nil
	})
}

// Remove stops and removes the sandbox's container, then deletes its record
// and workspace.
func (c *Controller) Remove(ctx context.Context, name string) error {
	return c.registry.Delete(ctx, name, func(sb *registry.Sandbox) error {
		engine, err := c.engine(sb.RuntimeEngine)
		if err != nil {
			return err
		}

		// Look up by name when no ref is recorded: an interrupted start can
		// leave a container the record never learned about.
		ref := sb.ContainerRef
		if ref == "" {
			ref = sb.ContainerName
		}
		info, err := engine.Inspect(ctx, ref)
		if err != nil {
			return err
		}
		if info.Exists() {
			if info.Ref != "" {
				ref = info.Ref
			}
			if info.Status == runtime.StatusRunning {
				if err := engine.Stop(ctx, ref); err != nil {
					return err
				}
			}
			if err := engine.Remove(ctx, ref); err != nil {
				return err
			}
		}

		snapshot := SnapshotImage(sb.ContainerName)
		if ok, err := engine.ImageExists(ctx, snapshot); err == nil && ok {
			if err := engine.RemoveImage(ctx, snapshot); err != nil {
				logging.Warn("failed to remove snapshot image", "image", snapshot, "error", err)
			}
		}
		return nil
	})
}

// Enter ensures the sandbox is running and attaches an interactive session.
// When the last session exits the container is stopped. It returns the
// session command's exit code.
func (c *Controller) Enter(ctx context.Context, name string, opts EnterOptions) (int, error) {
	shell := opts.Shell
	if len(shell) == 0 {
		shell = attach.DefaultShell
	}

	sb, err := c.apply(ctx, name, func(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, info *runtime.ContainerInfo) ([]transition, error) {
		events, err := c.ensureRunning(ctx, engine, sb, info, opts.Ports)
		if err != nil {
			return nil, err
		}
		sb.Sessions++
		return append(events, transition{audit.EventEnter, fmt.Sprintf("sessions=%d", sb.Sessions)}), nil
	})
	if err != nil {
		return -1, err
	}

	engine, err := c.engine(sb.RuntimeEngine)
	if err != nil {
		return -1, err
	}

	logging.Debug("attaching session", "jail", name, "container", sb.ContainerName, "shell", shell)
	code, execErr := engine.ExecInteractive(ctx, sb.ContainerRef, shell, boundary.SessionOptions())

	if err := c.leave(context.WithoutCancel(ctx), name); err != nil {
		if execErr == nil {
			return code, err
		}
		logging.Warn("failed to end session", "jail", name, "error", err)
	}
	return code, execErr
}

// leave ends one session and stops the container when it was the last.
func (c *Controller) leave(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	var stopErr error
	var events []transition
	rec, err := c.registry.Update(ctx, name, func(sb *registry.Sandbox) error {
		events = events[:0]
		if sb.Sessions > 0 {
			sb.Sessions--
		}
		sb.LastUsedAt = c.registry.Now()
		events = append(events, transition{audit.EventLeave, fmt.Sprintf("sessions=%d", sb.Sessions)})
		if sb.Sessions > 0 || !sb.HasContainer() || sb.State != registry.StateRunning {
			return nil
		}

		engine, err := c.engine(sb.RuntimeEngine)
		if err != nil {
			stopErr = err
			return nil
		}
		// The session count is written even if the stop fails.
		if err := engine.Stop(ctx, sb.ContainerRef); err != nil {
			stopErr = err
			return nil
		}
		sb.State = registry.StateStopped
		events = append(events, transition{event: audit.EventStop, details: "last session exited"})
		return nil
	})
	if errors.Is(err, errors.ErrNotFound) {
		logging.Debug("jail removed during session", "jail", name)
		return nil
	}
	if err != nil {
		return err
	}
	c.record(rec, events...)
	return stopErr
}

// Exec runs a non-interactive command in the sandbox, starting it if needed.
func (c *Controller) Exec(ctx context.Context, name string, argv []string) (*runtime.ExecResult, error) {
	if len(argv) == 0 {
		return nil, errors.ValidationError("no command given")
	}

	sb, err := c.Start(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	engine, err := c.engine(sb.RuntimeEngine)
	if err != nil {
		return nil, err
	}

	result, err := engine.Exec(ctx, sb.ContainerRef, argv, boundary.SessionOptions())
	if err != nil {
		return nil, err
	}
	c.record(sb, transition{audit.EventExec, fmt.Sprintf("%q exit=%d", argv, result.ExitCode)})
	return result, nil
}

// Code ensures the sandbox is running and opens the editor attached to it.
// It returns the folder URI handed to the editor.
func (c *Controller) Code(ctx context.Context, name string) (string, error) {
	if c.editor == nil {
		return "", errors.ConfigError("no editor configured", nil)
	}
	sb, err := c.Start(ctx, name, nil)
	if err != nil {
		return "", err
	}
	return c.editor.Launch(ctx, sb.ContainerName)
}

// Events returns the last n audit events of a sandbox, or all when n <= 0.
func (c *Controller) Events(name string, n int) ([]audit.Event, error) {
	if _, err := c.registry.Get(name); err != nil {
		return nil, err
	}
	if c.audit == nil {
		return nil, nil
	}
	return c.audit.Tail(name, n)
}

func (c *Controller) record(sb *registry.Sandbox, events ...transition) {
	if c.audit == nil || sb == nil {
		return
	}
	for _, t := range events {
		if err := c.audit.LogEvent(t.event, sb.Name, string(sb.RuntimeEngine), t.details); err != nil {
			logging.Debug("failed to write audit event", "jail", sb.Name, "event", t.event, "error", err)
		}
	}
}

// recordFailure logs a failed transition. The record itself is unchanged.
func (c *Controller) recordFailure(name string, err error) {
	if c.audit == nil {
		return
	}
	if logErr := c.audit.LogEvent(audit.EventError, name, "", err.Error()); logErr != nil {
		logging.Debug("failed to write audit event", "jail", name, "event", audit.EventError, "error", logErr)
	}
}
