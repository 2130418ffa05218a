// Package manifest resolves application declarations from YAML manifests.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/permgate-dev/permgate/internal/application/ports"
	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

// manifestFile mirrors one application manifest on disk.
type manifestFile struct {
	Package        string         `yaml:"package"`
	UID            int            `yaml:"uid"`
	TargetPlatform string         `yaml:"target_platform"`
	Ephemeral      bool           `yaml:"ephemeral"`
	Requests       []requestEntry `yaml:"requests"`
}

type requestEntry struct {
	Capability string `yaml:"capability"`
	Granted    bool   `yaml:"granted"`
}

// DirectorySource serves application manifests from a directory of YAML
// files, one application per file. Files are read once at construction.
type DirectorySource struct {
	apps map[string]capabilities.Application
}

var _ ports.ManifestSource = (*DirectorySource)(nil)

// NewDirectorySource loads every .yaml/.yml manifest under dir. An empty
// directory is valid; a missing one is not.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest directory: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open manifest directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	source := &DirectorySource{apps: make(map[string]capabilities.Application)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		file, err := root.Open(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("open manifest %s: %w", entry.Name(), err)
		}
		app, err := decodeManifest(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", entry.Name(), err)
		}

		if _, exists := source.apps[app.Package]; exists {
			return nil, fmt.Errorf("manifest %s: duplicate package %s", entry.Name(), app.Package)
		}
		source.apps[app.Package] = app
	}

	return source, nil
}

// ApplicationByPackage returns the declared manifest of one package.
func (s *DirectorySource) ApplicationByPackage(_ context.Context, pkg string) (capabilities.Application, error) {
	app, ok := s.apps[pkg]
	if !ok {
		return capabilities.Application{}, fmt.Errorf("package %s: %w", pkg, capabilities.ErrNotFound)
	}
	return app, nil
}

// Applications returns every known manifest, ordered by package name.
func (s *DirectorySource) Applications(_ context.Context) ([]capabilities.Application, error) {
	apps := make([]capabilities.Application, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Package < apps[j].Package })
	return apps, nil
}

func decodeManifest(r io.Reader) (capabilities.Application, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m manifestFile
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return capabilities.Application{}, errors.New("manifest is empty")
		}
		return capabilities.Application{}, fmt.Errorf("decode manifest: %w", err)
	}

	if err := validateManifest(m); err != nil {
		return capabilities.Application{}, err
	}

	app := capabilities.Application{
		Package:        m.Package,
		UID:            m.UID,
		TargetPlatform: m.TargetPlatform,
		Ephemeral:      m.Ephemeral,
	}
	for _, req := range m.Requests {
		app.Requests = append(app.Requests, capabilities.CapabilityRequest{
			Name:    req.Capability,
			Granted: req.Granted,
		})
	}
	return app, nil
}

func validateManifest(m manifestFile) error {
	if m.Package == "" {
		return errors.New("package is required")
	}
	if m.UID <= 0 {
		return fmt.Errorf("package %s: uid must be positive", m.Package)
	}
	if _, err := values.AppModelForTarget(m.TargetPlatform); err != nil {
		return fmt.Errorf("package %s: %w", m.Package, err)
	}
	for i, req := range m.Requests {
		if req.Capability == "" {
			return fmt.Errorf("package %s: request %d has no capability name", m.Package, i)
		}
	}
	return nil
}
