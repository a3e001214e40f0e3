// Package port handles the ports a sandbox publishes on the host.
//
// Ports arrive as repeated -p flags and are kept as a sorted, duplicate-free
// set in the sandbox record:
//
//	ports, err := port.Parse([]string{"3000", "8080,8081"})
//
// Requesting ports on an existing sandbox merges them with the ports it
// already publishes. Missing reports which requested ports are new, which
// decides whether the container has to be recreated.
package port
