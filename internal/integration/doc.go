// Package integration provides a test harness for lifecycle tests that run
// against a real container engine.
//
// Integration tests are skipped unless JAIL_INTEGRATION_TESTS=1 is set.
// They require podman or docker on PATH with a responsive daemon or
// machine. JAIL_RUNTIME selects the engine the same way it does for the
// CLI.
//
// Run with: JAIL_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration
