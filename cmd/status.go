package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/jail/internal/health"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/sandbox"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine availability and the health of every jail",
	Long: `Show which container engines are available and check every jail against
its engine. Records that disagree with the engine are corrected.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctrl, err := controller()
	if err != nil {
		return err
	}

	report := ctrl.Status(cmd.Context())
	writeStatus(cmd.OutOrStdout(), report)

	for _, st := range report.Sandboxes {
		if st.Drift != "" {
			logWarning("Corrected %s: %s", st.Sandbox.Name, st.Drift)
		}
	}
	return nil
}

func writeStatus(out io.Writer, report *sandbox.Report) {
	fmt.Fprintln(out, "Engines:")
	for _, e := range report.Engines {
		fmt.Fprintf(out, "  %-8s %s\n", e.Kind, e.Summary)
	}
	fmt.Fprintln(out)

	if len(report.Sandboxes) == 0 {
		fmt.Fprintln(out, "No jails.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENGINE\tSTATE\tHEALTH\tUPTIME\tPORTS")
	for _, st := range report.Sandboxes {
		if st.Sandbox == nil {
			fmt.Fprintf(w, "?\t-\t-\t%s\t-\t%v\n", formatHealth(st.Health), st.Err)
			continue
		}
		sb := st.Sandbox
		uptime := st.Uptime
		if uptime == "" {
			uptime = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sb.Name, sb.RuntimeEngine, sb.State, formatHealth(st.Health), uptime, port.Format(sb.Ports))
	}
	w.Flush()

	for _, st := range report.Sandboxes {
		if st.Err != nil && st.Sandbox != nil {
			fmt.Fprintf(out, "\n%s: %v\n", st.Sandbox.Name, st.Err)
		}
	}
}

func formatHealth(status health.Status) string {
	switch status {
	case health.StatusRunning:
		return "✓ running"
	case health.StatusUnreachable:
		return "⚠ unreachable"
	case health.StatusMissing:
		return "○ missing"
	case health.StatusCreated:
		return "○ created"
	case health.StatusStopped:
		return "● stopped"
	default:
		return string(status)
	}
}
