package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/jail/internal/audit"
	"github.com/firefly-engineering/jail/internal/boundary"
	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/image"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
)

// stepFunc performs one transition on a reconciled record. info is nil when
// the sandbox has no container.
type stepFunc func(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, info *runtime.ContainerInfo) ([]transition, error)

// apply runs step under the sandbox's lock after reconciling the record.
// If step fails the record is left as it was.
func (c *Controller) apply(ctx context.Context, name string, step stepFunc) (*registry.Sandbox, error) {
	var events []transition
	rec, err := c.registry.Update(ctx, name, func(sb *registry.Sandbox) error {
		events = nil
		engine, err := c.engine(sb.RuntimeEngine)
		if err != nil {
			return err
		}

		info, drift, err := c.reconcile(ctx, engine, sb)
		if err != nil {
			return err
		}
		if drift != "" {
			logging.Debug("corrected jail record", "jail", sb.Name, "drift", drift)
			events = append(events, transition{audit.EventReconcile, drift})
		}

		more, err := step(ctx, engine, sb, info)
		if err != nil {
			return err
		}
		events = append(events, more...)
		return nil
	})
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			c.recordFailure(name, err)
		}
		return nil, err
	}
	c.record(rec, events...)
	return rec, nil
}

// reconcile corrects the record from the engine's view of its container and
// returns that view. The engine is ground truth; the record is intent.
func (c *Controller) reconcile(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox) (*runtime.ContainerInfo, string, error) {
	var notes []string

	if !sb.HasContainer() {
		if sb.State == registry.StateRunning {
			sb.State = registry.StateStopped
			notes = append(notes, "no container recorded")
		}
		if sb.Sessions > 0 {
			sb.Sessions = 0
			notes = append(notes, "cleared stale sessions")
		}
		return nil, strings.Join(notes, "; "), nil
	}

	info, err := engine.Inspect(ctx, sb.ContainerRef)
	if err != nil {
		return nil, "", err
	}

	if !info.Exists() {
		notes = append(notes, fmt.Sprintf("container %s no longer exists", shortRef(sb.ContainerRef)))
		sb.ContainerRef = ""
		sb.Sessions = 0
		if sb.State == registry.StateRunning {
			sb.State = registry.StateStopped
		}
		return nil, strings.Join(notes, "; "), nil
	}

	if observed := observedState(info.Status, sb.State); observed != sb.State {
		notes = append(notes, fmt.Sprintf("declared %s, container is %s", sb.State, info.Status))
		sb.State = observed
	}
	if sb.State != registry.StateRunning && sb.Sessions > 0 {
		sb.Sessions = 0
		notes = append(notes, "cleared stale sessions")
	}
	return info, strings.Join(notes, "; "), nil
}

// observedState maps a container status onto a declared state.
func observedState(status runtime.ContainerStatus, declared registry.State) registry.State {
	switch status {
	case runtime.StatusRunning:
		return registry.StateRunning
	case runtime.StatusStopped:
		return registry.StateStopped
	case runtime.StatusCreated:
		// Created but never started: a running record is wrong, a created
		// or stopped one is not.
		if declared == registry.StateRunning {
			return registry.StateStopped
		}
	}
	return declared
}

// ensureRunning starts the sandbox's container, creating or recreating it
// as needed.
func (c *Controller) ensureRunning(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, info *runtime.ContainerInfo, ports []int) ([]transition, error) {
	requested := port.Merge(sb.Ports, ports)
	added := port.Missing(sb.Ports, ports)
	now := c.registry.Now()

	if info == nil {
		img, err := c.baseImage(ctx, engine, sb)
		if err != nil {
			return nil, err
		}
		if err := c.removeUnrecorded(ctx, engine, sb); err != nil {
			return nil, err
		}
		if err := c.createAndStart(ctx, engine, sb, requested, img); err != nil {
			return nil, err
		}
		sb.LastUsedAt = now
		return []transition{{audit.EventStart, fmt.Sprintf("container=%s image=%s ports=%s", shortRef(sb.ContainerRef), img, port.Format(sb.Ports))}}, nil
	}

	if len(added) > 0 {
		if info.Status == runtime.StatusRunning {
			return nil, errors.PortsRequireRestart(sb.Name, sb.Ports, requested)
		}
		if err := c.recreate(ctx, engine, sb, requested); err != nil {
			return nil, err
		}
		sb.LastUsedAt = now
		return []transition{{audit.EventRecreate, "ports=" + port.Format(sb.Ports)}}, nil
	}

	sb.LastUsedAt = now
	if info.Status == runtime.StatusRunning {
		return nil, nil
	}

	if err := engine.Start(ctx, sb.ContainerRef); err != nil {
		return nil, err
	}
	sb.State = registry.StateRunning
	return []transition{{event: audit.EventStart}}, nil
}

// createAndStart creates a container from the sandbox's boundary spec and
// starts it. A container that fails to start is removed again.
func (c *Controller) createAndStart(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, ports []int, img string) error {
	spec, err := boundary.Build(boundary.BuildInput{
		Sandbox:    sb,
		Engine:     engine.Kind(),
		Platform:   c.platform,
		JailsRoot:  c.registry.Root(),
		HomeDir:    c.homeDir,
		LookupEnv:  c.lookupEnv,
		AgentRelay: c.relay,
		Ports:      ports,
		Image:      img,
	})
	if err != nil {
		return err
	}
	switch {
	case spec.AgentNotice != "":
		logging.UserWarning("%s", spec.AgentNotice)
	case spec.Agent == nil:
		logging.Debug("no SSH agent to forward", "jail", sb.Name)
	}

	ref, err := engine.Create(ctx, spec.CreateRequest())
	if err != nil {
		return err
	}
	if err := engine.Start(ctx, ref); err != nil {
		if rmErr := c.discard(ctx, engine, ref); rmErr != nil {
			logging.Warn("failed to remove container that did not start", "container", ref, "error", rmErr)
		}
		return err
	}

	sb.ContainerRef = ref
	sb.State = registry.StateRunning
	sb.Ports = port.Normalize(ports)
	return nil
}

// recreate replaces a stopped container with one publishing ports. The old
// container's filesystem is committed first so installed state survives.
func (c *Controller) recreate(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox, ports []int) error {
	snapshot := SnapshotImage(sb.ContainerName)
	logging.Debug("recreating container", "jail", sb.Name, "snapshot", snapshot, "ports", ports)

	if err := engine.Commit(ctx, sb.ContainerRef, snapshot); err != nil {
		return err
	}
	if err := engine.Remove(ctx, sb.ContainerRef); err != nil {
		return err
	}
	sb.ContainerRef = ""
	return c.createAndStart(ctx, engine, sb, ports, snapshot)
}

// baseImage returns the sandbox's snapshot image if one exists, otherwise
// the base image, building it if needed.
func (c *Controller) baseImage(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox) (string, error) {
	snapshot := SnapshotImage(sb.ContainerName)
	ok, err := engine.ImageExists(ctx, snapshot)
	if err != nil {
		return "", err
	}
	if ok {
		return snapshot, nil
	}
	if err := image.Ensure(ctx, engine); err != nil {
		return "", err
	}
	return image.Name, nil
}

// removeUnrecorded removes a container that carries the sandbox's name but
// is not in its record. Its configuration is unknown, so it is never reused.
func (c *Controller) removeUnrecorded(ctx context.Context, engine runtime.Engine, sb *registry.Sandbox) error {
	info, err := engine.Inspect(ctx, sb.ContainerName)
	if err != nil {
		return err
	}
	if !info.Exists() {
		return nil
	}
	ref := info.Ref
	if ref == "" {
		ref = sb.ContainerName
	}
	logging.Debug("removing unrecorded container", "jail", sb.Name, "container", ref)
	return c.discard(ctx, engine, ref)
}

// discard stops and removes a container. It runs to completion even if ctx
// is cancelled.
func (c *Controller) discard(ctx context.Context, engine runtime.Engine, ref string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := engine.Stop(ctx, ref); err != nil {
		logging.Debug("stop before remove failed", "container", ref, "error", err)
	}
	return engine.Remove(ctx, ref)
}

// SnapshotImage is the image a container is committed to when it has to be
// recreated.
func SnapshotImage(containerName string) string {
	return "jail-snapshot-" + strings.TrimPrefix(containerName, "jail-") + ":latest"
}

func shortRef(ref string) string {
	if len(ref) > 12 {
		return ref[:12]
	}
	return ref
}
