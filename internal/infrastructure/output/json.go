package output

import (
	"encoding/json"
	"io"

	"github.com/permgate-dev/permgate/internal/application/dto"
	"github.com/permgate-dev/permgate/internal/application/ports"
)

// JSONFormatter renders group reports as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

var _ ports.Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output will be pretty-printed with indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// Format writes one group report as JSON.
func (f *JSONFormatter) Format(report *dto.GroupReport) error {
	return f.write(report)
}

// FormatList writes the reports as a JSON array.
func (f *JSONFormatter) FormatList(reports []*dto.GroupReport) error {
	if reports == nil {
		reports = []*dto.GroupReport{}
	}
	return f.write(reports)
}

func (f *JSONFormatter) write(v any) error {
	var data []byte
	var err error

	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err := f.writer.Write(data); err != nil {
		return err
	}

	// Add newline for better terminal output
	_, err = f.writer.Write([]byte("\n"))
	return err
}
