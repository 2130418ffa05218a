// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/permgate-dev/permgate/internal/application/dto"
	apperrors "github.com/permgate-dev/permgate/internal/application/errors"
	"github.com/permgate-dev/permgate/internal/application/ports"
	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

// PermissionService orchestrates grant management use cases.
// Coordinates the domain assembler and infrastructure adapters.
type PermissionService struct {
	assembler *capabilities.Assembler
	metadata  capabilities.MetadataProvider
	manifests ports.ManifestSource
	prompter  ports.Prompter
	usage     ports.UsageRecorder
	user      string
	logger    *slog.Logger
}

// NewPermissionService creates a permission service. The prompter may be
// nil; mutations then require AssumeYes. The recorder may be nil;
// RecordAccess then fails.
func NewPermissionService(
	assembler *capabilities.Assembler,
	metadata capabilities.MetadataProvider,
	manifests ports.ManifestSource,
	prompter ports.Prompter,
	usage ports.UsageRecorder,
	user string,
	logger *slog.Logger,
) *PermissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionService{
		assembler: assembler,
		metadata:  metadata,
		manifests: manifests,
		prompter:  prompter,
		usage:     usage,
		user:      user,
		logger:    logger,
	}
}

// GroupStatus assembles one capability group and reports its state.
func (s *PermissionService) GroupStatus(ctx context.Context, pkg, group string) (*dto.GroupReport, error) {
	g, err := s.assembleGroup(ctx, pkg, group)
	if err != nil {
		return nil, err
	}
	return dto.NewGroupReport(g), nil
}

// ListGroups assembles every group the application requests capabilities
// from, ordered by collated label.
func (s *PermissionService) ListGroups(ctx context.Context, pkg string) ([]*dto.GroupReport, error) {
	app, err := s.manifests.ApplicationByPackage(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("load manifest for %s: %w", pkg, err)
	}

	names, err := s.requestedGroups(ctx, app)
	if err != nil {
		return nil, err
	}

	// Groups assemble independently; collect them in parallel.
	var mu sync.Mutex
	var groups []*capabilities.CapabilityGroup

	eg, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		eg.Go(func() error {
			g, err := s.assembler.Assemble(gctx, app, name, s.user)
			if err != nil {
				return apperrors.NewExecutionError(name, "assembly failed", err)
			}
			if g == nil {
				return nil
			}
			mu.Lock()
			groups = append(groups, g)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Compare(groups[j]) < 0 })

	s.logger.Debug("listed capability groups", "package", pkg, "groups", len(groups))
	return lo.Map(groups, func(g *capabilities.CapabilityGroup, _ int) *dto.GroupReport {
		return dto.NewGroupReport(g)
	}), nil
}

// Grant grants the requested capabilities of a group, confirming with the
// user first unless the request assumes yes.
func (s *PermissionService) Grant(ctx context.Context, req dto.MutationRequest) (*dto.MutationReport, error) {
	return s.mutate(ctx, req, true)
}

// Revoke revokes the requested capabilities of a group, confirming with
// the user first unless the request assumes yes.
func (s *PermissionService) Revoke(ctx context.Context, req dto.MutationRequest) (*dto.MutationReport, error) {
	return s.mutate(ctx, req, false)
}

func (s *PermissionService) mutate(ctx context.Context, req dto.MutationRequest, grant bool) (*dto.MutationReport, error) {
	g, err := s.assembleGroup(ctx, req.Package, req.Group)
	if err != nil {
		return nil, err
	}

	verb := "revoke"
	if grant {
		verb = "grant"
	}

	report := &dto.MutationReport{Group: req.Group, Package: req.Package}

	if grant && !g.IsGrantingAllowed() {
		s.logger.Warn("granting not allowed for group", "package", req.Package, "group", req.Group)
	}

	confirmed, err := s.confirm(ctx, g, req, verb)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		s.logger.Info("mutation declined", "package", req.Package, "group", req.Group, "op", verb)
		report.Granted = g.AnyGranted(nil)
		return report, nil
	}
	report.Confirmed = true

	primary, background := s.splitTargets(g, req.Capabilities)

	applied := true
	if len(req.Capabilities) == 0 || len(primary) > 0 {
		applied, err = s.apply(ctx, g, grant, req.UserFixed, primary)
		if err != nil {
			return nil, apperrors.NewExecutionError(req.Group, verb+" failed", err)
		}
	}
	if len(background) > 0 && g.Background() != nil {
		ok, err := s.apply(ctx, g.Background(), grant, req.UserFixed, background)
		if err != nil {
			return nil, apperrors.NewExecutionError(req.Group, "background "+verb+" failed", err)
		}
		applied = applied && ok
	}

	if g.Batch().IsDeferred() {
		if err := s.commitAll(ctx, g); err != nil {
			return nil, apperrors.NewExecutionError(req.Group, "commit failed", err)
		}
	}

	report.Applied = applied
	report.Granted = g.AnyGranted(nil)
	s.logger.Info("mutation applied",
		"package", req.Package,
		"group", req.Group,
		"op", verb,
		"complete", applied)
	return report, nil
}

func (s *PermissionService) apply(ctx context.Context, g *capabilities.CapabilityGroup, grant, userFixed bool, filter []string) (bool, error) {
	if grant {
		return g.Grant(ctx, userFixed, filter)
	}
	return g.Revoke(ctx, userFixed, filter)
}

// splitTargets partitions requested capability names between the primary
// group and its background sibling. Unknown names stay with the primary
// group so the engine's filter semantics report them as no-ops.
func (s *PermissionService) splitTargets(g *capabilities.CapabilityGroup, names []string) (primary, background []string) {
	bg := g.Background()
	for _, name := range names {
		if bg != nil && bg.HasCapability(name) {
			background = append(background, name)
			continue
		}
		primary = append(primary, name)
	}
	return primary, background
}

func (s *PermissionService) confirm(ctx context.Context, g *capabilities.CapabilityGroup, req dto.MutationRequest, verb string) (bool, error) {
	if req.AssumeYes {
		return true, nil
	}
	if s.prompter == nil {
		return false, apperrors.NewValidationError("confirm", "no prompter available, pass --yes to proceed")
	}

	targets := req.Capabilities
	if len(targets) == 0 {
		targets = lo.Map(g.Capabilities(), func(c *capabilities.Capability, _ int) string {
			return c.Name()
		})
	}

	title := fmt.Sprintf("%s %s for %s?", strings.ToUpper(verb[:1])+verb[1:], g.Label(), g.App().Package)
	description := "Capabilities: " + strings.Join(targets, ", ")

	ok, err := s.prompter.Confirm(ctx, title, description)
	if err != nil {
		return false, fmt.Errorf("confirm %s: %w", verb, err)
	}
	return ok, nil
}

// commitAll commits the primary group and, when present, its background
// sibling. Restarts are handled here since deferred mutations skip them.
func (s *PermissionService) commitAll(ctx context.Context, g *capabilities.CapabilityGroup) error {
	errs := []error{g.Commit(ctx, true)}
	if bg := g.Background(); bg != nil {
		errs = append(errs, bg.Commit(ctx, false))
	}
	return errors.Join(errs...)
}

// ResetReview clears pending review flags on a group.
func (s *PermissionService) ResetReview(ctx context.Context, pkg, group string) (*dto.GroupReport, error) {
	g, err := s.assembleGroup(ctx, pkg, group)
	if err != nil {
		return nil, err
	}

	if err := g.ResetReviewRequired(ctx); err != nil {
		return nil, apperrors.NewExecutionError(group, "review reset failed", err)
	}
	if g.Batch().IsDeferred() {
		if err := g.Commit(ctx, false); err != nil {
			return nil, apperrors.NewExecutionError(group, "commit failed", err)
		}
	}

	s.logger.Info("review flags cleared", "package", pkg, "group", group)
	return dto.NewGroupReport(g), nil
}

// SetPolicyFixed locks a group by device policy.
func (s *PermissionService) SetPolicyFixed(ctx context.Context, pkg, group string) (*dto.GroupReport, error) {
	g, err := s.assembleGroup(ctx, pkg, group)
	if err != nil {
		return nil, err
	}

	if err := g.SetPolicyFixed(ctx); err != nil {
		return nil, apperrors.NewExecutionError(group, "policy lock failed", err)
	}
	if g.Batch().IsDeferred() {
		if err := g.Commit(ctx, false); err != nil {
			return nil, apperrors.NewExecutionError(group, "commit failed", err)
		}
	}

	s.logger.Info("group locked by policy", "package", pkg, "group", group)
	return dto.NewGroupReport(g), nil
}

// RecordAccess ingests one capability access event. The event's group,
// operation and attribution uid resolve through the catalog and manifest.
func (s *PermissionService) RecordAccess(ctx context.Context, req dto.AccessRecordRequest) (*dto.AccessReport, error) {
	if s.usage == nil {
		return nil, apperrors.NewConfigurationError("usage", "no usage recorder configured", nil)
	}

	app, err := s.manifests.ApplicationByPackage(ctx, req.Package)
	if err != nil {
		return nil, fmt.Errorf("load manifest for %s: %w", req.Package, err)
	}

	meta, err := s.metadata.CapabilityByName(ctx, req.Capability)
	if err != nil {
		return nil, apperrors.NewCatalogError("capability", req.Capability, err)
	}

	mode := req.Mode
	if mode == "" {
		mode = values.GateModeAllowed
	}
	if err := mode.Validate(); err != nil {
		return nil, apperrors.NewValidationError("mode", err.Error())
	}

	when := req.Time
	if when.IsZero() {
		when = time.Now().UTC()
	}

	op, _ := s.metadata.OperationForCapability(req.Capability)
	event := capabilities.AccessEvent{
		Capability: req.Capability,
		Operation:  op,
		Mode:       mode,
		Time:       when,
		Duration:   req.Duration,
	}

	if err := s.usage.Record(ctx, app.Package, app.UID, meta.Group, event); err != nil {
		return nil, apperrors.NewExecutionError(meta.Group, "record access failed", err)
	}

	s.logger.Debug("access recorded",
		"package", app.Package,
		"capability", req.Capability,
		"group", meta.Group,
		"mode", mode)
	return &dto.AccessReport{
		Capability: event.Capability,
		Operation:  event.Operation,
		Mode:       event.Mode,
		Time:       event.Time,
		Duration:   event.Duration,
	}, nil
}

// Usage returns the recorded access events of a group and its background
// sibling, most recent first.
func (s *PermissionService) Usage(ctx context.Context, pkg, group string) ([]dto.AccessReport, error) {
	g, err := s.assembleGroup(ctx, pkg, group)
	if err != nil {
		return nil, err
	}

	report := dto.NewGroupReport(g)
	events := report.Usage
	if report.Background != nil {
		events = append(events, report.Background.Usage...)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time.After(events[j].Time) })
	return events, nil
}

func (s *PermissionService) assembleGroup(ctx context.Context, pkg, group string) (*capabilities.CapabilityGroup, error) {
	app, err := s.manifests.ApplicationByPackage(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("load manifest for %s: %w", pkg, err)
	}

	g, err := s.assembler.Assemble(ctx, app, group, s.user)
	if err != nil {
		return nil, apperrors.NewExecutionError(group, "assembly failed", err)
	}
	if g == nil {
		return nil, apperrors.NewCatalogError("group", group, capabilities.ErrNotFound)
	}
	return g, nil
}

// requestedGroups derives the distinct group names behind an application's
// capability requests. Unknown capabilities are skipped with a warning.
func (s *PermissionService) requestedGroups(ctx context.Context, app capabilities.Application) ([]string, error) {
	var names []string
	for _, req := range app.Requests {
		meta, err := s.metadata.CapabilityByName(ctx, req.Name)
		if err != nil {
			if errors.Is(err, capabilities.ErrNotFound) {
				s.logger.Warn("unknown capability in manifest", "package", app.Package, "capability", req.Name)
				continue
			}
			return nil, apperrors.NewCatalogError("capability", req.Name, err)
		}
		names = append(names, meta.Group)
	}

	names = lo.Uniq(names)
	sort.Strings(names)
	return names, nil
}
