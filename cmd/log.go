package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Show a jail's lifecycle events",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

var logLines int

func init() {
	logCmd.Flags().IntVarP(&logLines, "lines", "n", 20, "Number of events to show (0 for all)")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	ctrl, err := controller()
	if err != nil {
		return err
	}
	name, err := selectSandbox(cmd.Context(), ctrl, args)
	if err != nil {
		return err
	}

	events, err := ctrl.Events(name, logLines)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		logInfo("No events recorded for %s", name)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Details)
	}
	return w.Flush()
}
