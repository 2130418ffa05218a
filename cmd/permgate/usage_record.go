package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/permgate-dev/permgate/internal/application/dto"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

func init() {
	usageCmd.AddCommand(newUsageRecordCmd())
}

func newUsageRecordCmd() *cobra.Command {
	var (
		mode     string
		at       string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record <package> <capability>",
		Short: "Record one capability access event",
		Long: `Ingest an attributed capability access into the usage history. The
event's group and operation resolve through the catalog; the uid comes
from the application's manifest.`,
		Example: `  permgate usage record com.example.camera location.precise
  permgate usage record com.example.camera camera.capture --mode foreground --duration 2s`,
		Args: cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			when := time.Time{}
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at timestamp: %w", err)
				}
				when = parsed
			}

			report, err := ctx.Container.PermissionService().RecordAccess(ctx.Context, dto.AccessRecordRequest{
				Package:    args[0],
				Capability: args[1],
				Mode:       values.GateMode(mode),
				Time:       when,
				Duration:   duration,
			})
			if err != nil {
				return fmt.Errorf("failed to record access: %w", err)
			}

			fmt.Printf("Recorded %s access of %s at %s.\n",
				report.Mode, report.Capability, report.Time.Format(time.RFC3339))
			return nil
		}),
	}

	cmd.Flags().StringVar(&mode, "mode", string(values.GateModeAllowed), "Gate mode the access saw: allowed, foreground, ignored")
	cmd.Flags().StringVar(&at, "at", "", "Event time (RFC3339, default: now)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "How long the access lasted")
	return cmd
}
