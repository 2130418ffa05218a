package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permgate-dev/permgate/internal/application/dto"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

// createTestReport creates a sample group report for testing.
func createTestReport() *dto.GroupReport {
	return &dto.GroupReport{
		Group:           "location",
		Label:           "Location",
		Description:     "Access to this device's location",
		Authority:       "platform",
		Package:         "com.example.app",
		UID:             10007,
		User:            "owner",
		Model:           values.AppModelModern,
		Batch:           values.BatchImmediate,
		Granted:         true,
		GrantingAllowed: true,
		Capabilities: []dto.CapabilityReport{
			{
				Name:      "location.precise",
				Operation: "op.fine_location",
				Granted:   true,
				Allowed:   true,
				Flags:     "user-set",
			},
			{
				Name:  "location.coarse",
				Flags: "none",
			},
		},
		Background: &dto.GroupReport{
			Group:   "location",
			Label:   "Location",
			Package: "com.example.app",
			UID:     10007,
			User:    "owner",
			Capabilities: []dto.CapabilityReport{
				{
					Name:      "location.background",
					Operation: "op.background_location",
					Flags:     "system-fixed",
				},
			},
			SystemFixed: true,
		},
		Usage: []dto.AccessReport{
			{
				Capability: "location.precise",
				Operation:  "op.fine_location",
				Mode:       values.GateModeAllowed,
				Time:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
				Duration:   3 * time.Second,
			},
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	report := createTestReport()
	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)
	formatter.EnableColor = false // Disable color for deterministic string comparison

	err := formatter.Format(report)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Location (location)")
	assert.Contains(t, output, "Package: com.example.app (uid 10007, user owner)")
	assert.Contains(t, output, "Model: modern-runtime, commits immediate")
	assert.Contains(t, output, "Status: granted")
	assert.Contains(t, output, "✓ location.precise (op.fine_location: allowed) [user-set]")
	assert.Contains(t, output, "✗ location.coarse")
	assert.Contains(t, output, "Background: Location (location)")
	assert.Contains(t, output, "system-fixed")
	assert.Contains(t, output, "Recent access:")
	assert.Contains(t, output, "2026-03-14T09:00:00Z")
}

func TestTableFormatter_StatusFlags(t *testing.T) {
	report := createTestReport()
	report.Granted = false
	report.GrantingAllowed = false
	report.ReviewRequired = true
	report.PolicyFixed = true
	report.Background = nil
	report.Usage = nil

	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)
	formatter.EnableColor = false

	require.NoError(t, formatter.Format(report))

	output := buf.String()
	assert.Contains(t, output, "not granted")
	assert.Contains(t, output, "review required")
	assert.Contains(t, output, "granting disabled")
	assert.Contains(t, output, "policy-fixed")
}

func TestTableFormatter_FormatList(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)
	formatter.EnableColor = false

	second := createTestReport()
	second.Group = "contacts"
	second.Label = "Contacts"
	second.Background = nil

	err := formatter.FormatList([]*dto.GroupReport{createTestReport(), second})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Location (location)")
	assert.Contains(t, output, "Contacts (contacts)")
	assert.Contains(t, output, "2 group(s)")
}

func TestTableFormatter_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)
	formatter.EnableColor = false

	require.NoError(t, formatter.FormatList(nil))
	assert.Contains(t, buf.String(), "No capability groups.")
}

func TestJSONFormatter_Format_Indented(t *testing.T) {
	t.Parallel()
	report := createTestReport()
	var buf bytes.Buffer

	formatter := NewJSONFormatter(&buf, true)
	err := formatter.Format(report)
	require.NoError(t, err)

	output := buf.String()

	// Verify it's valid JSON
	var decoded dto.GroupReport
	err = json.Unmarshal([]byte(output), &decoded)
	require.NoError(t, err)

	// Verify content
	assert.Equal(t, "location", decoded.Group)
	assert.Equal(t, "com.example.app", decoded.Package)
	assert.Len(t, decoded.Capabilities, 2)
	require.NotNil(t, decoded.Background)
	assert.Equal(t, "location.background", decoded.Background.Capabilities[0].Name)

	// Verify indentation (pretty-printed)
	assert.Contains(t, output, "  ")
	assert.Contains(t, output, "\n")
}

func TestJSONFormatter_Format_Compact(t *testing.T) {
	t.Parallel()
	report := createTestReport()
	var buf bytes.Buffer

	formatter := NewJSONFormatter(&buf, false)
	err := formatter.Format(report)
	require.NoError(t, err)

	output := buf.String()

	var decoded dto.GroupReport
	err = json.Unmarshal([]byte(output), &decoded)
	require.NoError(t, err)
	assert.Equal(t, "location", decoded.Group)

	// Verify no indentation (compact)
	lines := strings.Split(output, "\n")
	assert.LessOrEqual(t, len(lines), 3)
}

func TestJSONFormatter_FormatList_Empty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	formatter := NewJSONFormatter(&buf, false)
	require.NoError(t, formatter.FormatList(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	t.Parallel()
	report := createTestReport()
	var buf bytes.Buffer

	formatter := NewYAMLFormatter(&buf)
	err := formatter.Format(report)
	require.NoError(t, err)

	output := buf.String()

	// Verify it's valid YAML
	var decoded dto.GroupReport
	err = yaml.Unmarshal([]byte(output), &decoded)
	require.NoError(t, err)

	// Verify content
	assert.Equal(t, "location", decoded.Group)
	assert.Equal(t, 10007, decoded.UID)
	assert.Len(t, decoded.Capabilities, 2)

	// Verify YAML structure
	assert.Contains(t, output, "group: location")
	assert.Contains(t, output, "package: com.example.app")
	assert.Contains(t, output, "capabilities:")
	assert.Contains(t, output, "background:")
}

func TestFormatterFactory_Create(t *testing.T) {
	t.Parallel()
	factory := NewFormatterFactory()

	for _, format := range factory.SupportedFormats() {
		var buf bytes.Buffer
		formatter, err := factory.Create(format, &buf, Options{})
		require.NoError(t, err, format)
		require.NotNil(t, formatter, format)
	}

	_, err := factory.Create("sarif", &bytes.Buffer{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestFormatterFactory_NoColor(t *testing.T) {
	t.Parallel()
	factory := NewFormatterFactory()

	var buf bytes.Buffer
	formatter, err := factory.Create("table", &buf, Options{NoColor: true})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(createTestReport()))
	assert.NotContains(t, buf.String(), "\033[")
}
