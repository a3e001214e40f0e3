// Package runtime provides the container engine abstraction for jail.
//
// Supported engines:
//   - podman: preferred when present (rootless by default)
//   - docker: fallback
//
// # Resolution
//
// Resolver picks one engine per command invocation. An explicit override
// (JAIL_RUNTIME or config.toml) is honored unconditionally and reported as a
// configuration error if it names an unsupported or absent engine. Otherwise
// podman is probed before docker. Probing only runs `<engine> --version`,
// so a stopped macOS VM does not affect resolution; reachability is checked
// with Ping when the engine is used.
//
// The resolved Kind is passed explicitly to whatever needs it. There is no
// process-wide current runtime.
//
// # Engine Interface
//
// Engine is the control surface used by the lifecycle controller:
//   - Create, Start, Stop, Remove: container lifecycle
//   - Inspect: container state, StatusNotFound when absent
//   - Exec, ExecInteractive: commands and shell sessions
//   - Commit, RemoveImage, ImageExists, BuildImage: image handling
//
// CLIEngine implements it for both engines. Every non-interactive call is
// bounded by a timeout; expiry is reported as RuntimeUnavailable. Other
// failures are EngineOperationFailed with the engine's stderr attached.
//
// # Mock Engine
//
// For testing, use NewMockEngine() and MockFactory() to substitute an engine
// per call and verify the calls made against it.
package runtime
