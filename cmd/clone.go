package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/app"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/sandbox"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <source>",
	Short: "Clone a repository into a new jail and start it",
	Long: `Clone a git repository or copy a local directory into a new jail.

The source may be a URL (https://github.com/acme/widgets), an scp-style
reference (git@github.com:acme/widgets.git) or a local path. Append
#<revision> to a remote reference to check out a branch, tag or commit.

The jail is named owner/repo after the source unless --name is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runClone,
}

var (
	cloneName  string
	clonePorts []string
)

func init() {
	cloneCmd.Flags().StringVarP(&cloneName, "name", "n", "", "Name for the jail (default: derived from the source)")
	cloneCmd.Flags().StringArrayVarP(&clonePorts, "port", "p", nil, "Port to publish on 127.0.0.1 (repeatable, comma-separated)")
	rootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ports, err := port.Parse(clonePorts)
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

	logging.Debug("starting jail creation", "source", args[0], "name", cloneName, "engine", engine.Kind())
	logInfo("Cloning %s into a new jail...", args[0])

	sb, err := a.Controller().Clone(ctx, engine, sandbox.CloneOptions{
		Source: args[0],
		Name:   cloneName,
		Ports:  ports,
	})
	if err != nil {
		return err
	}

	printCreated(cmd.OutOrStdout(), sb)
	return nil
}

func printCreated(w io.Writer, sb *registry.Sandbox) {
	logSuccess("Jail %s is running", logging.Highlight(sb.Name))
	fmt.Fprintf(w, "  Engine:    %s\n", sb.RuntimeEngine)
	fmt.Fprintf(w, "  Workspace: %s\n", sb.WorkspacePath)
	fmt.Fprintf(w, "  Ports:     %s\n", port.Format(sb.Ports))
	fmt.Fprintf(w, "  Enter:     jail enter %s\n", sb.Name)
}
