package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/port"
	"github.com/firefly-engineering/jail/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all jails",
	Long: `List all jails from the registry without contacting the container engine.
Use "jail status" for the engines' view of each jail.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listOutput string

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctrl, err := controller()
	if err != nil {
		return err
	}

	sandboxes := []*registry.Sandbox{}
	for sb, err := range ctrl.List(cmd.Context()) {
		if err != nil {
			logWarning("%v", err)
			continue
		}
		sandboxes = append(sandboxes, sb)
	}

	out := cmd.OutOrStdout()
	switch listOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sandboxes)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(sandboxes); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if len(sandboxes) == 0 {
			logInfo("No jails found. Create one with: jail clone <source>")
			return nil
		}
		return writeTable(out, sandboxes, time.Now())
	}
	return errors.ValidationError(fmt.Sprintf("unknown output format %q: use table, json or yaml", listOutput))
}

func writeTable(out io.Writer, sandboxes []*registry.Sandbox, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENGINE\tSTATE\tPORTS\tSESSIONS\tLAST USED\tSOURCE")
	for _, sb := range sandboxes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			sb.Name, sb.RuntimeEngine, sb.State, port.Format(sb.Ports), sb.Sessions,
			formatAge(sb.LastUsedAt, now), sb.Source.String())
	}
	return w.Flush()
}

// formatAge renders how long ago t was, coarsely.
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
