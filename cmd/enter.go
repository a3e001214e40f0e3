package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/attach"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/sandbox"
)

var enterCmd = &cobra.Command{
	Use:     "enter [filter]",
	Aliases: []string{"start"},
	Short:   "Start a jail and open a shell in it",
	Long: `Start a jail if needed and attach an interactive shell at /workspace.

The filter selects the jail by name, owner or repository prefix. When it
matches several jails you can pick one interactively. The jail is stopped
when its last shell exits.

Ports given with -p are added to the jail's published ports. A running jail
cannot publish new ports; stop it first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnter,
}

var (
	enterPorts []string
	enterShell string
)

func init() {
	enterCmd.Flags().StringArrayVarP(&enterPorts, "port", "p", nil, "Port to publish on 127.0.0.1 (repeatable, comma-separated)")
	enterCmd.Flags().StringVar(&enterShell, "shell", "", "Command to run instead of a login shell")
	rootCmd.AddCommand(enterCmd)
}

func runEnter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ports, err := port.Parse(enterPorts)
	if err != nil {
		return err
	}
	shell, err := attach.ShellCommand(enterShell)
	if err != nil {
		return err
	}

	ctrl, err := controller()
	if err != nil {
		return err
	}
	name, err := selectSandbox(ctx, ctrl, args)
	if err != nil {
		return err
	}

	logging.Debug("entering jail", "name", name, "shell", shell)
	code, err := ctrl.Enter(ctx, name, sandbox.EnterOptions{Ports: ports, Shell: shell})
	if err != nil {
		return err
	}
	return exitStatus(code)
}
