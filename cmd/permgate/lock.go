package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLockCmd())
}

func newLockCmd() *cobra.Command {
	opts := DefaultOutputOptions()

	cmd := &cobra.Command{
		Use:   "lock <package> <group>",
		Short: "Lock a capability group by device policy",
		Long: `Mark every member of a group policy-fixed. A locked group keeps its
current grant state; neither the user nor the application can change it
until the policy is lifted.`,
		Example: `  permgate lock com.example.kiosk camera`,
		Args:    cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			formatter, cleanup, err := opts.Formatter()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := ctx.Container.PermissionService().SetPolicyFixed(ctx.Context, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to lock group: %w", err)
			}
			return formatter.Format(report)
		}),
	}

	opts.RegisterFlags(cmd)
	return cmd
}
