package output

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/permgate-dev/permgate/internal/application/dto"
	"github.com/permgate-dev/permgate/internal/application/ports"
)

// YAMLFormatter renders group reports as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

var _ ports.Formatter = (*YAMLFormatter)(nil)

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes one group report as YAML.
func (f *YAMLFormatter) Format(report *dto.GroupReport) error {
	return f.encode(report)
}

// FormatList writes the reports as a YAML sequence.
func (f *YAMLFormatter) FormatList(reports []*dto.GroupReport) error {
	return f.encode(reports)
}

func (f *YAMLFormatter) encode(v any) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2), yaml.IndentSequence(true))

	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}
