package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/firefly-engineering/jail/internal/app"
	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/sandbox"
	"github.com/firefly-engineering/jail/internal/tui"
)

// isInteractive reports whether both stdin and stdout are terminals.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runPicker is swapped out in tests.
var runPicker = tui.RunPicker

// errCancelled is returned when the user quits a picker or a prompt.
var errCancelled = errors.New(errors.ExitSuccess, "")

// controller returns the application's lifecycle controller.
func controller() (*sandbox.Controller, error) {
	a, err := app.Current()
	if err != nil {
		return nil, err
	}
	return a.Controller(), nil
}

// selectSandbox resolves an optional filter argument to one jail name. An
// exact name wins; otherwise the filter must match exactly one jail, or the
// user picks one when attached to a terminal.
func selectSandbox(ctx context.Context, ctrl *sandbox.Controller, args []string) (string, error) {
	names, err := ctrl.Names()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		if len(args) > 0 {
			return "", errors.NotFound(args[0])
		}
		return "", errors.ValidationError("no jails found; create one with: jail clone <source>")
	}

	candidates := names
	if len(args) > 0 {
		pattern := args[0]
		if name, ok := naming.ExactMatch(names, pattern); ok {
			return name, nil
		}
		candidates = naming.Filter(names, pattern)
		if len(candidates) == 0 {
			return "", errors.NotFound(pattern)
		}
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	if !isInteractive() {
		return "", errors.ValidationError(fmt.Sprintf("several jails match: %s; be more specific", strings.Join(candidates, ", ")))
	}
	return pickSandbox(ctx, ctrl, candidates)
}

// pickSandbox lets the user choose among candidates.
func pickSandbox(ctx context.Context, ctrl *sandbox.Controller, candidates []string) (string, error) {
	statuses := statusesFor(ctx, ctrl, candidates)

	result, err := runPicker(statuses)
	if err != nil {
		return "", fmt.Errorf("picker error: %w", err)
	}
	logging.Debug("picker result", "action", result.Action, "name", result.Name)

	switch result.Action {
	case tui.ActionQuit, tui.ActionNone:
		return "", errCancelled
	}
	return result.Name, nil
}

// statusesFor returns the status lines of the named jails, in order.
func statusesFor(ctx context.Context, ctrl *sandbox.Controller, names []string) []sandbox.SandboxStatus {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []sandbox.SandboxStatus
	for _, st := range ctrl.Status(ctx).Sandboxes {
		if st.Sandbox != nil && want[st.Sandbox.Name] {
			out = append(out, st)
		}
	}
	return out
}

// exitStatus turns a command's exit code into an error that sets the
// process exit code without printing anything.
func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return errors.New(code, "")
}
