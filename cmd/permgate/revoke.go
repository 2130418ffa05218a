package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permgate-dev/permgate/internal/application/dto"
)

func init() {
	rootCmd.AddCommand(newRevokeCmd())
}

func newRevokeCmd() *cobra.Command {
	var (
		userFixed bool
		assumeYes bool
	)
	opts := DefaultOutputOptions()

	cmd := &cobra.Command{
		Use:   "revoke <package> <group> [capability...]",
		Short: "Revoke a capability group from an application",
		Long: `Revoke the requested capabilities of a group. Without explicit
capability names the whole group is revoked. With --fixed the revocation
also pins the decision so the application cannot re-request it.

Legacy-gated applications keep their grants nominally; revoking flips
their operation gates and restarts the affected processes instead.`,
		Example: `  permgate revoke com.example.camera location --yes
  permgate revoke com.example.camera location --fixed --yes`,
		Args: cobra.MinimumNArgs(2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			svc := ctx.Container.PermissionService()

			report, err := svc.Revoke(ctx.Context, dto.MutationRequest{
				Package:      args[0],
				Group:        args[1],
				Capabilities: args[2:],
				UserFixed:    userFixed,
				AssumeYes:    assumeYes,
			})
			if err != nil {
				return fmt.Errorf("revoke failed: %w", err)
			}
			if !report.Confirmed {
				fmt.Println("Cancelled.")
				return nil
			}

			if err := printGroupStatus(ctx, &opts, args[0], args[1]); err != nil {
				return err
			}
			if !report.Applied {
				return fmt.Errorf("revoke incomplete: fixed capabilities were skipped")
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&userFixed, "fixed", false, "Pin the revocation (application cannot re-request)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	opts.RegisterFlags(cmd)
	return cmd
}
