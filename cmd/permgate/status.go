package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	opts := DefaultOutputOptions()

	cmd := &cobra.Command{
		Use:   "status <package> [group]",
		Short: "Show the grant state of an application's capability groups",
		Long: `Assemble the capability groups an application requests and report
their grant state: membership, effective operation gates, review and
fixation flags, and recent access history.

Without a group every requested group is listed, ordered by label.`,
		Example: `  permgate status com.example.camera
  permgate status com.example.camera location --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			formatter, cleanup, err := opts.Formatter()
			if err != nil {
				return err
			}
			defer cleanup()

			svc := ctx.Container.PermissionService()

			if len(args) == 2 {
				report, err := svc.GroupStatus(ctx.Context, args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to assemble group: %w", err)
				}
				return formatter.Format(report)
			}

			reports, err := svc.ListGroups(ctx.Context, args[0])
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}
			return formatter.FormatList(reports)
		}),
	}

	opts.RegisterFlags(cmd)
	return cmd
}
