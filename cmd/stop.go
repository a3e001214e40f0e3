package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/logging"
)

var stopCmd = &cobra.Command{
	Use:   "stop [filter]",
	Short: "Stop a running jail",
	Long:  "Stop a jail's container. The container and workspace are kept for the next start.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, err := controller()
	if err != nil {
		return err
	}
	name, err := selectSandbox(ctx, ctrl, args)
	if err != nil {
		return err
	}

	logInfo("Stopping jail %s...", name)
	if _, err := ctrl.Stop(ctx, name); err != nil {
		return err
	}

	logSuccess("Stopped jail %s", logging.Highlight(name))
	return nil
}
