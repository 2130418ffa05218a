package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/permgate-dev/permgate/internal/application/ports"
	"github.com/permgate-dev/permgate/internal/infrastructure/output"
)

// OutputOptions contains the report output flags shared across commands.
type OutputOptions struct {
	Format  string
	OutFile string
	NoColor bool
}

// DefaultOutputOptions returns sensible defaults.
func DefaultOutputOptions() OutputOptions {
	return OutputOptions{Format: "table"}
}

// RegisterFlags adds the output flags to a cobra command.
func (opts *OutputOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: table, json, yaml")
	cmd.Flags().StringVarP(&opts.OutFile, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false,
		"Disable colored output")
}

// Formatter opens the destination and builds the configured formatter.
// The returned cleanup closes the output file when one was requested.
func (opts *OutputOptions) Formatter() (ports.Formatter, func(), error) {
	writer := os.Stdout
	cleanup := func() {}
	if opts.OutFile != "" {
		//nolint:gosec // G304: User-controlled output file path is intentional
		file, err := os.Create(opts.OutFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		writer = file
		cleanup = func() {
			_ = file.Close() // Best-effort cleanup
		}
	}

	formatter, err := output.NewFormatterFactory().Create(opts.Format, writer, output.Options{
		Indent:  true,
		NoColor: opts.NoColor,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return formatter, cleanup, nil
}
