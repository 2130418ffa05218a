package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/permgate-dev/permgate/internal/application/dto"
	"github.com/permgate-dev/permgate/internal/application/ports"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter renders group reports as human-readable text.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

var _ ports.Formatter = (*TableFormatter)(nil)

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// Format writes one group report.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) Format(report *dto.GroupReport) error {
	if report == nil {
		fmt.Fprintln(f.writer, "No group to report.")
		return nil
	}
	f.formatGroup(report, false)
	return nil
}

// FormatList writes a set of group reports separated by rules.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatList(reports []*dto.GroupReport) error {
	if len(reports) == 0 {
		fmt.Fprintln(f.writer, "No capability groups.")
		return nil
	}

	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
		}
		f.formatGroup(report, false)
	}
	fmt.Fprintf(f.writer, "%d group(s)\n", len(reports))
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatGroup(r *dto.GroupReport, background bool) {
	title := r.Label
	if title == "" {
		title = r.Group
	}
	heading := fmt.Sprintf("%s (%s)", title, r.Group)
	if background {
		heading = "Background: " + heading
	}
	fmt.Fprintln(f.writer, f.colorize(heading, colorBold))

	if !background {
		if r.Description != "" {
			fmt.Fprintf(f.writer, "%s\n", r.Description)
		}
		fmt.Fprintf(f.writer, "Package: %s (uid %d, user %s)\n", r.Package, r.UID, r.User)
		fmt.Fprintf(f.writer, "Model: %s, commits %s\n", r.Model, r.Batch)
	}
	fmt.Fprintf(f.writer, "Status: %s\n", f.statusLine(r))

	if len(r.Capabilities) > 0 {
		fmt.Fprintln(f.writer, "Capabilities:")
		for _, c := range r.Capabilities {
			f.formatCapability(c)
		}
	}

	if len(r.Usage) > 0 {
		fmt.Fprintln(f.writer, "Recent access:")
		for _, a := range r.Usage {
			f.formatAccess(a)
		}
	}

	if r.Background != nil {
		fmt.Fprintln(f.writer)
		f.formatGroup(r.Background, true)
	}
	if !background {
		fmt.Fprintln(f.writer)
	}
}

func (f *TableFormatter) statusLine(r *dto.GroupReport) string {
	var parts []string
	if r.Granted {
		parts = append(parts, f.colorize("granted", colorGreen))
	} else {
		parts = append(parts, f.colorize("not granted", colorRed))
	}
	if r.ReviewRequired {
		parts = append(parts, f.colorize("review required", colorYellow))
	}
	if !r.GrantingAllowed {
		parts = append(parts, f.colorize("granting disabled", colorYellow))
	}
	if r.UserFixed {
		parts = append(parts, f.colorize("user-fixed", colorGray))
	}
	if r.SystemFixed {
		parts = append(parts, f.colorize("system-fixed", colorGray))
	}
	if r.PolicyFixed {
		parts = append(parts, f.colorize("policy-fixed", colorGray))
	}
	return strings.Join(parts, ", ")
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatCapability(c dto.CapabilityReport) {
	symbol := f.colorize("✗", colorRed)
	if c.Granted {
		symbol = f.colorize("✓", colorGreen)
	}

	line := fmt.Sprintf("  %s %s", symbol, c.Name)
	if c.Operation != "" {
		state := "blocked"
		if c.Allowed {
			state = "allowed"
		}
		line += fmt.Sprintf(" (%s: %s)", f.colorize(c.Operation, colorCyan), state)
	}
	if c.Flags != "" && c.Flags != "none" {
		line += " " + f.colorize("["+c.Flags+"]", colorGray)
	}
	fmt.Fprintln(f.writer, line)
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatAccess(a dto.AccessReport) {
	line := fmt.Sprintf("  %s  %s (%s)", a.Time.Format(time.RFC3339), a.Capability, a.Mode)
	if a.Duration > 0 {
		line += fmt.Sprintf(" for %s", a.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(f.writer, line)
}
