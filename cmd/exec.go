package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/errors"
)

var execCmd = &cobra.Command{
	Use:   "exec <name> -- <command>",
	Short: "Execute a command in a jail",
	Long: `Run a non-interactive command in a jail's /workspace as the dev user,
starting the jail if needed. The command's exit code becomes jail's.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dash := cmd.ArgsLenAtDash()
	if dash != 1 || len(args) < 2 {
		return errors.ValidationError("usage: jail exec <name> -- <command>")
	}
	name, argv := args[0], args[dash:]

	ctrl, err := controller()
	if err != nil {
		return err
	}

	result, err := ctrl.Exec(ctx, name, argv)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
	fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
	return exitStatus(result.ExitCode)
}
