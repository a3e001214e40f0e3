package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/sandbox"
	"github.com/firefly-engineering/jail/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive jail picker",
	Long: `Opens an interactive TUI for selecting a jail.

Use arrow keys or j/k to navigate, / to filter.

Actions:
  Enter  - Open a shell in the selected jail
  c      - Open the selected jail in the editor
  s      - Stop the selected jail
  q/Esc  - Quit`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !isInteractive() {
		return errors.ValidationError("jail pick needs a terminal")
	}

	ctrl, err := controller()
	if err != nil {
		return err
	}

	report := ctrl.Status(ctx)
	if len(report.Sandboxes) == 0 {
		logInfo("No jails found. Create one with: jail clone <source>")
		return nil
	}

	result, err := runPicker(report.Sandboxes)
	if err != nil {
		return err
	}
	logging.Debug("picker result", "action", result.Action, "name", result.Name)

	switch result.Action {
	case tui.ActionEnter:
		code, err := ctrl.Enter(ctx, result.Name, sandbox.EnterOptions{})
		if err != nil {
			return err
		}
		return exitStatus(code)

	case tui.ActionCode:
		if _, err := ctrl.Code(ctx, result.Name); err != nil {
			return err
		}
		logSuccess("Opened jail %s in the editor", logging.Highlight(result.Name))

	case tui.ActionStop:
		if _, err := ctrl.Stop(ctx, result.Name); err != nil {
			return err
		}
		logSuccess("Stopped jail %s", logging.Highlight(result.Name))
	}
	return nil
}
