package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
)

var removeCmd = &cobra.Command{
	Use:     "remove [filter]",
	Aliases: []string{"rm"},
	Short:   "Remove a jail, its container and its workspace",
	Long: `Stop and remove a jail's container, then delete its record and workspace.

Anything in the workspace that was not pushed elsewhere is lost. You are asked
to confirm unless --force is given; --force is required when not attached to
a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

var removeForce bool

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Remove without asking for confirmation")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, err := controller()
	if err != nil {
		return err
	}
	name, err := selectSandbox(ctx, ctrl, args)
	if err != nil {
		return err
	}

	if !removeForce {
		if !isInteractive() {
			return errors.ValidationError(fmt.Sprintf("refusing to remove %s without --force when not attached to a terminal", name))
		}
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove jail %s and its workspace?", name)) {
			return errCancelled
		}
	}

	logInfo("Removing jail %s...", name)
	if err := ctrl.Remove(ctx, name); err != nil {
		return err
	}

	logSuccess("Removed jail %s", logging.Highlight(name))
	return nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
