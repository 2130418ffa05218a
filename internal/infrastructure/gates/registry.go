// Package gates tracks per-operation gate modes, optionally persisted
// to a YAML file.
package gates

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

type gateKey struct {
	op  string
	uid int
}

// gateRecord is one persisted (operation, uid) entry.
type gateRecord struct {
	Operation string          `yaml:"operation"`
	UID       int             `yaml:"uid"`
	Mode      values.GateMode `yaml:"mode"`
}

// gatesFile represents the YAML structure of the gates file.
type gatesFile struct {
	Gates []gateRecord `yaml:"gates"`
}

// ForegroundFunc reports whether a package currently runs foregrounded.
// The registry resolves foreground-only gates through it.
type ForegroundFunc func(pkg string, uid int) bool

// Registry tracks per-(operation, uid) gate modes. Unset entries read as
// the default mode. Safe for concurrent use.
type Registry struct {
	path string

	mu         sync.RWMutex
	modes      map[gateKey]values.GateMode
	foreground ForegroundFunc
	logger     *slog.Logger
}

var _ capabilities.GateController = (*Registry)(nil)

// NewRegistry creates an in-memory registry. With a nil foreground func
// every foreground-only gate resolves as backgrounded.
func NewRegistry(foreground ForegroundFunc, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		modes:      make(map[gateKey]values.GateMode),
		foreground: foreground,
		logger:     logger,
	}
}

// NewFileRegistry creates a registry that rewrites the file at path on
// every mode change. A missing file yields an empty registry.
func NewFileRegistry(path string, foreground ForegroundFunc, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(foreground, logger)
	r.path = path
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read gates file: %w", err)
	}

	var file gatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse gates file: %w", err)
	}

	for _, rec := range file.Gates {
		if err := rec.Mode.Validate(); err != nil {
			return fmt.Errorf("gate %s/%d: %w", rec.Operation, rec.UID, err)
		}
		r.modes[gateKey{rec.Operation, rec.UID}] = rec.Mode
	}
	return nil
}

// save rewrites the backing file. Caller holds the write lock.
func (r *Registry) save() error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create gates directory: %w", err)
	}

	file := gatesFile{Gates: make([]gateRecord, 0, len(r.modes))}
	for key, mode := range r.modes {
		file.Gates = append(file.Gates, gateRecord{Operation: key.op, UID: key.uid, Mode: mode})
	}
	sort.Slice(file.Gates, func(i, j int) bool {
		a, b := file.Gates[i], file.Gates[j]
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		return a.UID < b.UID
	})

	data, err := yaml.MarshalWithOptions(file, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal gates to YAML: %w", err)
	}

	return os.WriteFile(r.path, data, 0o600)
}

// Mode returns the effective mode of a gate: a stored foreground-only
// mode resolves against the package's current foreground state.
func (r *Registry) Mode(_ context.Context, op string, uid int, pkg string) (values.GateMode, error) {
	mode := r.stored(op, uid)
	if mode != values.GateModeForeground {
		return mode, nil
	}

	if r.foreground != nil && r.foreground(pkg, uid) {
		return values.GateModeAllowed, nil
	}
	return values.GateModeIgnored, nil
}

// RawMode returns the stored mode without foreground resolution.
func (r *Registry) RawMode(_ context.Context, op string, uid int, _ string) (values.GateMode, error) {
	return r.stored(op, uid), nil
}

// SetMode stores the mode of a gate.
func (r *Registry) SetMode(_ context.Context, op string, uid int, mode values.GateMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.modes[gateKey{op, uid}] = mode
	if r.path != "" {
		if err := r.save(); err != nil {
			return err
		}
	}

	r.logger.Debug("gate mode set", "op", op, "uid", uid, "mode", mode)
	return nil
}

func (r *Registry) stored(op string, uid int) values.GateMode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mode, ok := r.modes[gateKey{op, uid}]; ok {
		return mode
	}
	return values.GateModeDefault
}
