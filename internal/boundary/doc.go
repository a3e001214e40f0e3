// Package boundary builds the isolation specification for a sandbox.
//
// Build turns a sandbox record, an engine and a host platform into a Spec: a
// declarative list of mounts, the agent socket forward, the container
// environment, and published ports. It never talks to an engine. The
// lifecycle controller translates a Spec into a create call with CreateArgs.
//
// Every field is an allow-list:
//
//   - exactly one bind mount, the sandbox workspace at /workspace
//   - an SSH agent socket forwarded read-only, never key material or ~/.ssh
//   - a fixed environment; host variables are never passed through
//   - default (unrestricted) networking, published ports bound to 127.0.0.1
//
// There is no code path that adds another host path. Platform and engine
// differences are resolved once, in Build, by picking one forwarding variant
// and one engine dialect:
//
//	linux  × podman, docker   host SSH_AUTH_SOCK bind-mounted read-only
//	darwin × docker           Docker Desktop's VM-side agent socket
//	darwin × podman           the Podman machine's agent relay socket
//
// Any other combination fails with UnsupportedPlatform.
package boundary
