package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "jail",
	Short: "Sandboxed per-project development environments",
	Long: `jail runs each project in its own container so that code of unknown
trust can be built and run without exposing the host.

Each jail gets:
  - A private copy of the project mounted at /workspace
  - No access to your home directory, credentials or other projects
  - SSH agent forwarding (the agent socket only, never keys)
  - Ports published on 127.0.0.1 only`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

// Execute runs the root command. Interrupts cancel the command's context so
// in-flight engine calls and clones are abandoned cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	reportError(err)
	return err
}

// reportError prints err unless it only carries an exit status.
func reportError(err error) {
	if err == nil {
		return
	}
	var je *errors.JailError
	if errors.As(err, &je) && je.Message == "" && je.Cause == nil {
		return
	}
	logging.UserError("%v", err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
