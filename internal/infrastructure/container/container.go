// Package container provides dependency injection for the application.
package container

import (
	"fmt"
	"log/slog"

	apperrors "github.com/permgate-dev/permgate/internal/application/errors"
	"github.com/permgate-dev/permgate/internal/application/ports"
	"github.com/permgate-dev/permgate/internal/application/services"
	"github.com/permgate-dev/permgate/internal/config"
	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/infrastructure/catalog"
	"github.com/permgate-dev/permgate/internal/infrastructure/collation"
	"github.com/permgate-dev/permgate/internal/infrastructure/gates"
	"github.com/permgate-dev/permgate/internal/infrastructure/manifest"
	"github.com/permgate-dev/permgate/internal/infrastructure/policy"
	"github.com/permgate-dev/permgate/internal/infrastructure/process"
	"github.com/permgate-dev/permgate/internal/infrastructure/prompt"
	"github.com/permgate-dev/permgate/internal/infrastructure/recheck"
	"github.com/permgate-dev/permgate/internal/infrastructure/state"
	"github.com/permgate-dev/permgate/internal/infrastructure/usage"
)

// usageStore is what both history backends provide: the assembler reads
// events and the record use case writes them.
type usageStore interface {
	capabilities.UsageHistoryProvider
	ports.UsageRecorder
}

// Container holds all application dependencies.
type Container struct {
	permissionService *services.PermissionService
	scheduler         *recheck.Scheduler
	sqlite            *usage.SQLiteHistory
	cfg               *config.Config
	logger            *slog.Logger
}

// Options configure the container. Empty fields fall back to the system
// configuration.
type Options struct {
	Logger      *slog.Logger
	ConfigPath  string
	CatalogDir  string
	ManifestDir string
	StatePath   string
	UsageDB     string
	User        string
	Prompter    ports.Prompter
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts)

	doc, err := catalog.LoadDir(cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := state.NewFileStore(cfg.StatePath)
	if err != nil {
		return nil, apperrors.NewStateError(cfg.StatePath, "open grant state", err)
	}
	provider := catalog.NewProvider(doc, store)

	// No live process table in a CLI invocation: foreground-only gates
	// resolve as backgrounded.
	registry, err := gates.NewFileRegistry(cfg.GatesPath, nil, opts.Logger)
	if err != nil {
		return nil, apperrors.NewStateError(cfg.GatesPath, "open gate registry", err)
	}

	scheduler := recheck.NewScheduler(cfg.Recheck.Delay, func() {
		opts.Logger.Info("deferred grant recheck due")
	}, opts.Logger)

	var history usageStore
	var sqlite *usage.SQLiteHistory
	if cfg.UsageDB != "" {
		sqlite, err = usage.NewSQLiteHistory(cfg.UsageDB)
		if err != nil {
			return nil, fmt.Errorf("open usage history: %w", err)
		}
		history = sqlite
	} else {
		history = usage.NewMemoryHistory()
	}

	var restriction capabilities.RestrictionPolicy
	if cfg.Restriction.Enabled {
		expr, err := policy.NewExpressionPolicy(cfg.Restriction.Filter, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("restriction policy: %w", err)
		}
		restriction = expr
	}

	assembler := capabilities.NewAssembler(capabilities.AssemblerConfig{
		Metadata:    provider,
		Gates:       registry,
		Store:       store,
		Processes:   process.NewSupervisor(opts.Logger),
		Recheck:     scheduler,
		Usage:       history,
		Restriction: restriction,
		Comparer:    collation.NewComparer(cfg.Locale),
		Batch:       cfg.BatchMode(),
		Logger:      opts.Logger,
	})

	source, err := manifest.NewDirectorySource(cfg.ManifestDir)
	if err != nil {
		return nil, fmt.Errorf("load manifests: %w", err)
	}
	manifests := manifest.NewStateOverlay(source, store, cfg.User)

	prompter := opts.Prompter
	if prompter == nil {
		prompter = prompt.NewTerminalPrompter()
	}

	permissionService := services.NewPermissionService(
		assembler,
		provider,
		manifests,
		prompter,
		history,
		cfg.User,
		opts.Logger,
	)

	return &Container{
		permissionService: permissionService,
		scheduler:         scheduler,
		sqlite:            sqlite,
		cfg:               cfg,
		logger:            opts.Logger,
	}, nil
}

// applyOverrides replaces configured values with command-line ones.
func applyOverrides(cfg *config.Config, opts Options) {
	if opts.CatalogDir != "" {
		cfg.CatalogDir = opts.CatalogDir
	}
	if opts.ManifestDir != "" {
		cfg.ManifestDir = opts.ManifestDir
	}
	if opts.StatePath != "" {
		cfg.StatePath = opts.StatePath
	}
	if opts.UsageDB != "" {
		cfg.UsageDB = opts.UsageDB
	}
	if opts.User != "" {
		cfg.User = opts.User
	}
}

// PermissionService returns the grant management service.
func (c *Container) PermissionService() *services.PermissionService {
	return c.permissionService
}

// Config returns the effective system configuration.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Close stops the recheck scheduler and releases the usage history.
func (c *Container) Close() error {
	c.scheduler.Stop()
	if c.sqlite != nil {
		return c.sqlite.Close()
	}
	return nil
}
