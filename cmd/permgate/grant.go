package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permgate-dev/permgate/internal/application/dto"
)

func init() {
	rootCmd.AddCommand(newGrantCmd())
}

func newGrantCmd() *cobra.Command {
	var (
		userFixed bool
		assumeYes bool
	)
	opts := DefaultOutputOptions()

	cmd := &cobra.Command{
		Use:   "grant <package> <group> [capability...]",
		Short: "Grant a capability group to an application",
		Long: `Grant the requested capabilities of a group. Without explicit
capability names the whole group is granted. Capabilities that belong to
the group's background sibling are routed there automatically.

System- and policy-fixed capabilities never change; a grant that runs
into one reports as incomplete.`,
		Example: `  permgate grant com.example.camera location --yes
  permgate grant com.example.camera location location.background --fixed`,
		Args: cobra.MinimumNArgs(2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			svc := ctx.Container.PermissionService()

			report, err := svc.Grant(ctx.Context, dto.MutationRequest{
				Package:      args[0],
				Group:        args[1],
				Capabilities: args[2:],
				UserFixed:    userFixed,
				AssumeYes:    assumeYes,
			})
			if err != nil {
				return fmt.Errorf("grant failed: %w", err)
			}
			if !report.Confirmed {
				fmt.Println("Cancelled.")
				return nil
			}

			if err := printGroupStatus(ctx, &opts, args[0], args[1]); err != nil {
				return err
			}
			if !report.Applied {
				return fmt.Errorf("grant incomplete: fixed capabilities were skipped")
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&userFixed, "fixed", false, "Mark the decision user-fixed (no further prompts)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	opts.RegisterFlags(cmd)
	return cmd
}

// printGroupStatus renders the group's state after a mutation so the
// outcome is visible without a second command.
func printGroupStatus(ctx *CommandContext, opts *OutputOptions, pkg, group string) error {
	formatter, cleanup, err := opts.Formatter()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := ctx.Container.PermissionService().GroupStatus(ctx.Context, pkg, group)
	if err != nil {
		return fmt.Errorf("failed to assemble group: %w", err)
	}
	return formatter.Format(report)
}
