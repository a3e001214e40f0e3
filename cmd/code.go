package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/logging"
)

var codeCmd = &cobra.Command{
	Use:   "code [filter]",
	Short: "Open a jail in the editor",
	Long: `Start a jail if needed and open its /workspace in the editor through the
Dev Containers "attach to running container" support.

The editor command defaults to "code" and can be set with "editor" in the
config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCode,
}

func init() {
	rootCmd.AddCommand(codeCmd)
}

func runCode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, err := controller()
	if err != nil {
		return err
	}
	name, err := selectSandbox(ctx, ctrl, args)
	if err != nil {
		return err
	}

	uri, err := ctrl.Code(ctx, name)
	if err != nil {
		return err
	}

	logSuccess("Opened jail %s in the editor", logging.Highlight(name))
	logging.Debug("editor folder uri", "uri", uri)
	return nil
}
