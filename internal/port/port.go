package port

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/firefly-engineering/jail/internal/errors"
)

// Valid port range for published ports.
const (
	Min = 1
	Max = 65535
)

// Parse validates port flag values and returns them sorted and unique.
// Each value may itself be a comma-separated list.
func Parse(values []string) ([]int, error) {
	var ports []int
	for _, v := range values {
		for _, field := range strings.Split(v, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			p, err := strconv.Atoi(field)
			if err != nil {
				return nil, errors.ValidationError(fmt.Sprintf("invalid port %q: not a number", field))
			}
			if p < Min || p > Max {
				return nil, errors.ValidationError(fmt.Sprintf("invalid port %d: must be between %d and %d", p, Min, Max))
			}
			ports = append(ports, p)
		}
	}
	return Normalize(ports), nil
}

// Normalize returns a sorted copy of ports without duplicates.
func Normalize(ports []int) []int {
	if len(ports) == 0 {
		return nil
	}
	out := slices.Clone(ports)
	slices.Sort(out)
	return slices.Compact(out)
}

// Merge returns the union of two port sets.
func Merge(a, b []int) []int {
	return Normalize(append(slices.Clone(a), b...))
}

// Missing returns the ports in requested that are not in current.
func Missing(current, requested []int) []int {
	var out []int
	for _, p := range Normalize(requested) {
		if !slices.Contains(current, p) {
			out = append(out, p)
		}
	}
	return out
}

// Equal reports whether two port sets contain the same ports.
func Equal(a, b []int) bool {
	return slices.Equal(Normalize(a), Normalize(b))
}

// Format renders a port set for display.
func Format(ports []int) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
