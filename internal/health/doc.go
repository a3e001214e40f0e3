// Package health summarizes container and engine state for `jail status`.
//
// # Container Health
//
// Check inspects one container and maps the engine's view to a Status:
//
//	StatusRunning     - Container is up; Uptime is filled in
//	StatusStopped     - Container exists but is not running
//	StatusCreated     - Container was created but never started
//	StatusMissing     - No container, or the recorded one is gone
//	StatusUnreachable - The engine could not be queried
//
// Check never fails: engine errors become StatusUnreachable so a status
// listing can report every sandbox even when one engine is down.
//
// # Engine Availability
//
// DescribeEngine turns a runtime.Availability into "available",
// "installed but not running" or "not installed".
package health
