// Package state provides file-based persistence for grant state and
// capability flags.
package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// GrantRecord is one persisted (package, user, capability) entry.
type GrantRecord struct {
	Package    string `yaml:"package"`
	User       string `yaml:"user"`
	Capability string `yaml:"capability"`
	Granted    bool   `yaml:"granted"`
	Flags      uint16 `yaml:"flags,omitempty"`
}

// stateFile represents the YAML structure of the grant state file.
type stateFile struct {
	Grants []GrantRecord `yaml:"grants"`
}

type entryKey struct {
	pkg  string
	user string
	cap  string
}

// FileStore is a write-through YAML store of grant state. Every mutation
// rewrites the backing file.
type FileStore struct {
	path string

	mu      sync.RWMutex
	entries map[entryKey]GrantRecord
}

var _ capabilities.PersistentStore = (*FileStore)(nil)

// NewFileStore opens (or initializes) the store at path. A missing file
// yields an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[entryKey]GrantRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the path of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var file stateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	for _, rec := range file.Grants {
		s.entries[entryKey{rec.Package, rec.User, rec.Capability}] = rec
	}
	return nil
}

// save rewrites the backing file. Caller holds the write lock.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	file := stateFile{Grants: make([]GrantRecord, 0, len(s.entries))}
	for _, rec := range s.entries {
		file.Grants = append(file.Grants, rec)
	}
	sort.Slice(file.Grants, func(i, j int) bool {
		a, b := file.Grants[i], file.Grants[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.User != b.User {
			return a.User < b.User
		}
		return a.Capability < b.Capability
	})

	data, err := yaml.MarshalWithOptions(file, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal state to YAML: %w", err)
	}

	return os.WriteFile(s.path, data, 0o600)
}

// SetGranted persists the grant bit of one capability.
func (s *FileStore) SetGranted(_ context.Context, pkg, capability, user string, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{pkg, user, capability}
	rec := s.entries[key]
	rec.Package, rec.User, rec.Capability = pkg, user, capability
	rec.Granted = granted
	s.entries[key] = rec

	return s.save()
}

// SetFlags overlays the masked flag bits of one capability.
func (s *FileStore) SetFlags(_ context.Context, capability, pkg, user string, mask, value capabilities.Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{pkg, user, capability}
	rec := s.entries[key]
	rec.Package, rec.User, rec.Capability = pkg, user, capability
	rec.Flags = uint16(capabilities.Flags(rec.Flags).Apply(mask, value))
	s.entries[key] = rec

	return s.save()
}

// Granted returns the persisted grant bit of one capability.
func (s *FileStore) Granted(pkg, capability, user string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[entryKey{pkg, user, capability}].Granted
}

// Lookup returns the record of one capability and whether it exists.
func (s *FileStore) Lookup(pkg, capability, user string) (GrantRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[entryKey{pkg, user, capability}]
	return rec, ok
}

// FlagsFor returns the persisted flag bitset of one capability. It
// serves as the catalog's flags source.
func (s *FileStore) FlagsFor(_ context.Context, pkg, capability, user string) (capabilities.Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capabilities.Flags(s.entries[entryKey{pkg, user, capability}].Flags), nil
}

// Snapshot returns every record sorted by package, user and capability.
func (s *FileStore) Snapshot() []GrantRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]GrantRecord, 0, len(s.entries))
	for _, rec := range s.entries {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.User != b.User {
			return a.User < b.User
		}
		return a.Capability < b.Capability
	})
	return out
}
