// Package testutil provides a test environment for lifecycle and command
// tests.
//
// NewTestEnv builds an app.App on temporary directories with mock podman
// and docker engines, a mock command executor and a FakeCloner, and installs
// it as app.Default:
//
//	env := testutil.NewTestEnv(t)
//	defer env.Cleanup()
//
//	env.AddSandbox("acme/widgets", runtime.Podman, registry.StateRunning, runtime.StatusRunning)
//	sb, err := env.Controller().Stop(ctx, "acme/widgets")
//
// The host looks like Linux with an SSH agent at TmpDir/agent.sock; change
// env.Env to alter what the boundary builder sees.
package testutil
