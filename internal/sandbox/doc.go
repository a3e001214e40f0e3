// Package sandbox provides high-level sandbox lifecycle management.
//
// A Controller owns every transition of a jail: provisioning a workspace
// and container from a source, starting, stopping, interactive sessions,
// one-off commands, editor attachment and removal.
//
//	ctrl := sandbox.New(sandbox.Options{
//	    Registry: registry.New(paths.JailsDir),
//	    Engines:  runtime.NewFactory(exec, runtime.DefaultTimeout),
//	    Cloner:   workspace.NewProvider(exec, home),
//	})
//
//	sb, err := ctrl.Clone(ctx, engine, sandbox.CloneOptions{
//	    Source: "git@github.com:acme/widgets.git",
//	    Ports:  []int{3000},
//	})
//
// # Reconciliation
//
// The engine is the source of truth for container state; the record holds
// intent. Every transition first inspects the recorded container under the
// sandbox's lock and corrects the record: a container that disappeared is
// forgotten, a stopped container is no longer declared running, and session
// counts of stopped sandboxes are cleared. Corrections are written to the
// audit log as reconcile events.
//
// # Ports
//
// Engines cannot publish ports on an existing container. Adding ports to a
// stopped sandbox commits its container to a snapshot image and recreates
// it; a running sandbox must be stopped first.
package sandbox
