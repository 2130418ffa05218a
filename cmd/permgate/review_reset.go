package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	reviewCmd.AddCommand(newReviewResetCmd())
}

func newReviewResetCmd() *cobra.Command {
	opts := DefaultOutputOptions()

	cmd := &cobra.Command{
		Use:     "reset <package> <group>",
		Short:   "Clear the pending review of a capability group",
		Long:    `Clear the review-required flag on every member of a group once the user has reviewed the grant.`,
		Example: `  permgate review reset com.example.legacy contacts`,
		Args:    cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			formatter, cleanup, err := opts.Formatter()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := ctx.Container.PermissionService().ResetReview(ctx.Context, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to reset review: %w", err)
			}
			return formatter.Format(report)
		}),
	}

	opts.RegisterFlags(cmd)
	return cmd
}
