// Package output renders group reports for the CLI.
package output

import (
	"fmt"
	"io"

	"github.com/permgate-dev/permgate/internal/application/ports"
)

// Options tune formatter construction.
type Options struct {
	// Indent pretty-prints JSON output.
	Indent bool
	// NoColor disables ANSI colors in table output.
	NoColor bool
}

// FormatterFactory builds report formatters by name.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(format string, writer io.Writer, options Options) (ports.Formatter, error) {
	switch format {
	case "table":
		formatter := NewTableFormatter(writer)
		formatter.EnableColor = !options.NoColor
		return formatter, nil
	case "json":
		return NewJSONFormatter(writer, options.Indent), nil
	case "yaml":
		return NewYAMLFormatter(writer), nil
	default:
		return nil, fmt.Errorf(
			"unknown format: %s (supported: %v)",
			format, f.SupportedFormats(),
		)
	}
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	return []string{"table", "json", "yaml"}
}
