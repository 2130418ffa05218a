// Package catalog loads capability and group definitions from YAML
// documents and serves them as the metadata catalog.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

//go:embed schema.json
var schemaDocument []byte

// Document is one catalog file's worth of definitions.
type Document struct {
	Capabilities []CapabilityDef `yaml:"capabilities"`
	Groups       []GroupDef      `yaml:"groups"`
}

// CapabilityDef declares one capability.
type CapabilityDef struct {
	Name        string `yaml:"name"`
	Authority   string `yaml:"authority"`
	Group       string `yaml:"group"`
	Protection  string `yaml:"protection"`
	Operation   string `yaml:"operation,omitempty"`
	Background  string `yaml:"background,omitempty"`
	RuntimeOnly bool   `yaml:"runtime_only,omitempty"`
	Ephemeral   bool   `yaml:"ephemeral,omitempty"`
	Installed   *bool  `yaml:"installed,omitempty"`
	Removed     bool   `yaml:"removed,omitempty"`
}

// GroupDef declares one capability group.
type GroupDef struct {
	Name        string `yaml:"name"`
	Authority   string `yaml:"authority"`
	Label       string `yaml:"label"`
	Description string `yaml:"description,omitempty"`
}

// Load loads and validates a single self-contained catalog file.
func Load(path string) (*Document, error) {
	doc, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateStructure(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDir loads every .yaml/.yml file of a directory into one merged
// document. Definitions may reference across files; the structure is
// validated once over the merged result.
func LoadDir(dir string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	merged := &Document{}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		doc, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("catalog file %s: %w", entry.Name(), err)
		}
		merged.Capabilities = append(merged.Capabilities, doc.Capabilities...)
		merged.Groups = append(merged.Groups, doc.Groups...)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no catalog files in %s", dir)
	}

	if err := validateStructure(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// LoadFromReader loads and validates a catalog document from an io.Reader.
// This is useful for testing with in-memory YAML data.
func LoadFromReader(r io.Reader) (*Document, error) {
	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}
	if err := validateStructure(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// loadFile loads one file without cross-reference validation so LoadDir
// can merge before checking the structure.
func loadFile(path string) (*Document, error) {
	// Security: Use os.OpenRoot to prevent path traversal attacks
	// resolving symlinks or escaping the intended directory.
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog directory: %w", err)
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	return decodeDocument(file)
}

// decodeDocument runs the schema check and the strict decode.
func decodeDocument(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true) // Strict parsing - reject unknown fields

	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	applyDefaults(&doc)
	return &doc, nil
}

// validateSchema checks the raw document against the embedded JSON Schema
// before any Go-level interpretation happens.
func validateSchema(raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if generic == nil {
		return fmt.Errorf("catalog document is empty")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("catalog.json", bytes.NewReader(schemaDocument)); err != nil {
		return fmt.Errorf("failed to add catalog schema resource: %w", err)
	}
	schema, err := compiler.Compile("catalog.json")
	if err != nil {
		return fmt.Errorf("failed to compile catalog schema: %w", err)
	}

	if err := schema.Validate(generic); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("catalog validation failed: %w", err)
	}
	return nil
}

// formatSchemaValidationError formats a JSON Schema validation error into a
// readable message.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collectErrors func(*jsonschema.ValidationError)
	collectErrors = func(e *jsonschema.ValidationError) {
		if e.Message != "" {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collectErrors(cause)
		}
	}
	collectErrors(err)

	if len(messages) == 0 {
		return fmt.Errorf("catalog validation failed")
	}
	return fmt.Errorf("catalog validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}

// applyDefaults fills in defaulted fields. Individual definition values
// take precedence.
func applyDefaults(doc *Document) {
	for i := range doc.Capabilities {
		def := &doc.Capabilities[i]
		if def.Authority == "" {
			def.Authority = capabilities.PlatformAuthority
		}
		if def.Protection == "" {
			def.Protection = string(values.ProtectionConfirmable)
		}
		if def.Installed == nil {
			installed := true
			def.Installed = &installed
		}
	}
	for i := range doc.Groups {
		if doc.Groups[i].Authority == "" {
			doc.Groups[i].Authority = capabilities.PlatformAuthority
		}
	}
}

// validateStructure checks cross-references the schema cannot express.
func validateStructure(doc *Document) error {
	var errs []string

	groupNames := make(map[string]bool)
	for _, g := range doc.Groups {
		if groupNames[g.Name] {
			errs = append(errs, fmt.Sprintf("duplicate group %s", g.Name))
		}
		groupNames[g.Name] = true
	}

	capNames := make(map[string]bool)
	for _, c := range doc.Capabilities {
		if capNames[c.Name] {
			errs = append(errs, fmt.Sprintf("duplicate capability %s", c.Name))
		}
		capNames[c.Name] = true
	}

	for _, c := range doc.Capabilities {
		if !groupNames[c.Group] {
			errs = append(errs, fmt.Sprintf("capability %s references unknown group %s", c.Name, c.Group))
		}
		if c.Background != "" && !capNames[c.Background] {
			errs = append(errs, fmt.Sprintf("capability %s references unknown background capability %s", c.Name, c.Background))
		}
		if c.Operation != "" && c.Authority != capabilities.PlatformAuthority {
			errs = append(errs, fmt.Sprintf("capability %s declares an operation outside the platform authority", c.Name))
		}
		if p := values.Protection(c.Protection); p.Validate() != nil {
			errs = append(errs, fmt.Sprintf("capability %s has invalid protection %q", c.Name, c.Protection))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
