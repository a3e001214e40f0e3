package sandbox

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/jail/internal/audit"
	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/health"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
)

var errUnchanged = fmt.Errorf("record unchanged")

// Status reports engine availability and the reconciled health of every
// sandbox. Drift is corrected in the records. Failures are reported per
// line, never returned.
func (c *Controller) Status(ctx context.Context) *Report {
	report := &Report{}

	for _, a := range runtime.Survey(ctx, c.engines) {
		report.Engines = append(report.Engines, EngineStatus{Availability: a, Summary: health.DescribeEngine(a)})
	}

	for sb, err := range c.registry.List() {
		if err != nil {
			report.Sandboxes = append(report.Sandboxes, SandboxStatus{Sandbox: sb, Health: health.StatusUnknown, Err: err})
			continue
		}
		if st, ok := c.check(ctx, sb); ok {
			report.Sandboxes = append(report.Sandboxes, st)
		}
	}
	return report
}

// check reconciles one sandbox. It reports false if the sandbox was removed
// while the report was being built.
func (c *Controller) check(ctx context.Context, listed *registry.Sandbox) (SandboxStatus, bool) {
	st := SandboxStatus{Sandbox: listed}

	var result *health.CheckResult
	rec, err := c.registry.Update(ctx, listed.Name, func(sb *registry.Sandbox) error {
		engine, err := c.engine(sb.RuntimeEngine)
		if err != nil {
			return err
		}
		_, drift, err := c.reconcile(ctx, engine, sb)
		if err != nil {
			return err
		}
		result = health.Check(ctx, engine, sb.ContainerRef, c.now())
		if result.Status == health.StatusMissing && sb.State == registry.StateCreated {
			result.Status = health.StatusCreated
		}
		st.Drift = drift
		if drift == "" {
			return errUnchanged
		}
		return nil
	})

	switch {
	case errors.Is(err, errors.ErrNotFound):
		return st, false
	case errors.Is(err, errUnchanged):
	case err != nil:
		st.Health = health.StatusUnreachable
		st.Err = err
		return st, true
	default:
		st.Sandbox = rec
		c.record(rec, transition{audit.EventReconcile, st.Drift})
	}

	st.Health = result.Status
	st.Uptime = result.Uptime
	return st, true
}
