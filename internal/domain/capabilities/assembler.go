package capabilities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// AssemblerConfig carries the collaborators an Assembler injects into the
// groups it builds. Restriction, Comparer, Usage and Logger are optional;
// the remaining ports are required.
type AssemblerConfig struct {
	Metadata    MetadataProvider
	Gates       GateController
	Store       PersistentStore
	Processes   ProcessSupervisor
	Recheck     DeferredRecheckScheduler
	Usage       UsageHistoryProvider
	Restriction RestrictionPolicy
	Comparer    LabelComparer
	Batch       values.BatchMode
	Logger      *slog.Logger
}

// Assembler builds CapabilityGroups from an application's declared
// requests and the capability catalog.
type Assembler struct {
	meta     MetadataProvider
	gates    GateController
	store    PersistentStore
	procs    ProcessSupervisor
	recheck  DeferredRecheckScheduler
	usage    UsageHistoryProvider
	restrict RestrictionPolicy
	compare  LabelComparer
	batch    values.BatchMode
	logger   *slog.Logger
}

// NewAssembler creates an assembler. An empty batch mode defaults to
// immediate commits.
func NewAssembler(cfg AssemblerConfig) *Assembler {
	batch := cfg.Batch
	if batch == "" {
		batch = values.BatchImmediate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{
		meta:     cfg.Metadata,
		gates:    cfg.Gates,
		store:    cfg.Store,
		procs:    cfg.Processes,
		recheck:  cfg.Recheck,
		usage:    cfg.Usage,
		restrict: cfg.Restriction,
		compare:  cfg.Comparer,
		batch:    batch,
		logger:   logger,
	}
}

// Assemble builds the capability group of the given name for one
// application and user. It returns nil without error when the group is
// unknown or no requested capability survives filtering: there is nothing
// to manage.
//
// Filtering drops requests that are not confirmable, removed, or not
// installed, and for legacy apps every capability of a non-platform
// group. Surviving entries are seeded with their install-time grant
// state, operation mapping, effective gate allowance and persisted
// flags, then linked foreground to background and split into the primary
// group and its background sibling.
func (a *Assembler) Assemble(ctx context.Context, app Application, groupName, user string) (*CapabilityGroup, error) {
	model, err := values.AppModelForTarget(app.TargetPlatform)
	if err != nil {
		return nil, fmt.Errorf("derive app model for %s: %w", app.Package, err)
	}

	groupMeta, err := a.meta.GroupByName(ctx, groupName)
	if errors.Is(err, ErrNotFound) {
		a.logger.Debug("unknown capability group", "group", groupName, "package", app.Package)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve group %s: %w", groupName, err)
	}

	inGroup, err := a.groupMembership(ctx, groupName)
	if err != nil {
		return nil, err
	}

	group := a.newGroup(app, user, model, groupMeta)

	all := make(map[string]*Capability)
	metaByName := make(map[string]CapabilityMeta)

	for _, req := range app.Requests {
		m, ok := inGroup[req.Name]
		if !ok {
			continue
		}

		if !m.Protection.IsConfirmable() || m.Removed || !m.Installed {
			continue
		}

		// Legacy apps only toggle gates of platform-owned groups.
		if !model.SupportsRuntime() && groupMeta.Authority != PlatformAuthority {
			continue
		}

		var operation string
		if m.Authority == PlatformAuthority {
			operation, _ = a.meta.OperationForCapability(m.Name)
		}

		operationAllowed := false
		if operation != "" {
			mode, err := a.gates.Mode(ctx, operation, app.UID, app.Package)
			if err != nil {
				return nil, fmt.Errorf("read gate mode for %s: %w", m.Name, err)
			}
			operationAllowed = mode == values.GateModeAllowed
		}

		flags, err := a.meta.CapabilityFlags(ctx, app.Package, m.Name, user)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("read flags for %s: %w", m.Name, err)
		}

		if m.Background != "" {
			group.hasSplitCapability = true
		}

		all[m.Name] = &Capability{
			name:              m.Name,
			authority:         m.Authority,
			granted:           req.Granted,
			runtimeOnly:       m.RuntimeOnly,
			ephemeralEligible: m.EphemeralEligible,
			operation:         operation,
			operationAllowed:  operationAllowed,
			flags:             flags,
			backgroundName:    m.Background,
		}
		metaByName[m.Name] = m
	}

	if len(all) == 0 {
		return nil, nil
	}

	group.index = all
	names := sortedCapabilityNames(all)

	// Link foreground and background counterparts. The background
	// capability's allowance refers to the background state of the
	// foreground operation, so it is seeded once from the raw gate mode.
	for _, name := range names {
		c := all[name]
		if c.backgroundName == "" {
			continue
		}
		bg := all[c.backgroundName]
		if bg == nil {
			continue
		}

		bg.foregroundNames = append(bg.foregroundNames, c.name)

		if c.operation != "" {
			raw, err := a.gates.RawMode(ctx, c.operation, app.UID, app.Package)
			if err != nil {
				return nil, fmt.Errorf("read raw gate mode for %s: %w", c.name, err)
			}
			if raw == values.GateModeAllowed {
				bg.operationAllowed = true
			}
		}
	}

	// Split background variants into the sibling group and apply the
	// restriction policy to the remaining primary members.
	for _, name := range names {
		c := all[name]

		if c.IsBackgroundVariant() {
			if group.background == nil {
				sibling := a.newGroup(app, user, model, groupMeta)
				sibling.index = all
				sibling.usage, err = a.fetchUsage(ctx, app, groupName)
				if err != nil {
					return nil, err
				}
				group.background = sibling
			}
			group.background.addCapability(c)
			continue
		}

		if a.restrict != nil && a.restrict.Restricted(metaByName[name]) && c.operation != "" {
			raw, err := a.gates.RawMode(ctx, c.operation, app.UID, app.Package)
			if err != nil {
				return nil, fmt.Errorf("read raw gate mode for %s: %w", name, err)
			}
			if raw.IsDefault() {
				a.logger.Debug("capability excluded by restriction policy",
					"capability", name, "package", app.Package)
				continue
			}
		}

		group.addCapability(c)
	}

	group.usage, err = a.fetchUsage(ctx, app, groupName)
	if err != nil {
		return nil, err
	}

	return group, nil
}

// groupMembership indexes the group's capability definitions by name.
func (a *Assembler) groupMembership(ctx context.Context, groupName string) (map[string]CapabilityMeta, error) {
	defs, err := a.meta.CapabilitiesInGroup(ctx, groupName)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list capabilities of group %s: %w", groupName, err)
	}

	byName := make(map[string]CapabilityMeta, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	return byName, nil
}

func (a *Assembler) fetchUsage(ctx context.Context, app Application, groupName string) ([]AccessEvent, error) {
	if a.usage == nil {
		return nil, nil
	}

	events, err := a.usage.EventsForGroup(ctx, app.Package, app.UID, groupName)
	if errors.Is(err, ErrUnsupported) {
		a.logger.Debug("usage history unavailable", "group", groupName)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list usage events for %s: %w", groupName, err)
	}

	sortEventsByRecency(events)
	return events, nil
}

func (a *Assembler) newGroup(app Application, user string, model values.AppModel, meta GroupMeta) *CapabilityGroup {
	return &CapabilityGroup{
		name:        meta.Name,
		authority:   meta.Authority,
		label:       meta.Label,
		description: meta.Description,
		app:         app,
		user:        user,
		model:       model,
		batch:       a.batch,
		members:     make(map[string]*Capability),
		gates:       a.gates,
		store:       a.store,
		procs:       a.procs,
		recheck:     a.recheck,
		compare:     a.compare,
	}
}

func sortedCapabilityNames(m map[string]*Capability) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
