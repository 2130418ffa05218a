package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	usageCmd.AddCommand(newUsageListCmd())
}

func newUsageListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list <package> <group>",
		Short:   "List the recorded accesses of a capability group",
		Long:    `List the access events recorded for a group and its background sibling, most recent first.`,
		Example: `  permgate usage list com.example.camera location`,
		Args:    cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			// Service call
			events, err := ctx.Container.PermissionService().Usage(ctx.Context, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to load usage: %w", err)
			}

			// Render output
			if len(events) == 0 {
				fmt.Println("No access events recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "TIME\tCAPABILITY\tOPERATION\tMODE\tDURATION"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}

			for _, e := range events {
				duration := "-"
				if e.Duration > 0 {
					duration = e.Duration.Round(time.Millisecond).String()
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Time.Format(time.RFC3339),
					e.Capability,
					e.Operation,
					e.Mode,
					duration,
				); err != nil {
					return fmt.Errorf("failed to write event: %w", err)
				}
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush writer: %w", err)
			}

			return nil
		}),
	}

	return cmd
}
