package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/app"
	"github.com/firefly-engineering/jail/internal/port"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a jail with an empty workspace and start it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var createPorts []string

func init() {
	createCmd.Flags().StringArrayVarP(&createPorts, "port", "p", nil, "Port to publish on 127.0.0.1 (repeatable, comma-separated)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ports, err := port.Parse(createPorts)
	if err != nil {
		return err
	}

	a, err := app.Current()
	if err != nil {
		return err
	}
	engine, err := a.Engine(ctx)
	if err != nil {
		return err
	}

	logInfo("Creating jail %s...", args[0])
	sb, err := a.Controller().CreateEmpty(ctx, engine, args[0], ports)
	if err != nil {
		return err
	}

	printCreated(cmd.OutOrStdout(), sb)
	return nil
}
