package manifest

import (
	"context"

	"github.com/samber/lo"

	"github.com/permgate-dev/permgate/internal/application/ports"
	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/infrastructure/state"
)

// GrantStateSource looks up persisted grant records.
type GrantStateSource interface {
	Lookup(pkg, capability, user string) (state.GrantRecord, bool)
}

// StateOverlay decorates a manifest source with persisted grant state.
// A manifest's declared grant holds only until a record exists for the
// capability; from then on the record wins.
type StateOverlay struct {
	source ports.ManifestSource
	store  GrantStateSource
	user   string
}

var _ ports.ManifestSource = (*StateOverlay)(nil)

// NewStateOverlay wraps source with the grant records of one user.
func NewStateOverlay(source ports.ManifestSource, store GrantStateSource, user string) *StateOverlay {
	return &StateOverlay{source: source, store: store, user: user}
}

// ApplicationByPackage returns the manifest of one package with stored
// grants applied.
func (o *StateOverlay) ApplicationByPackage(ctx context.Context, pkg string) (capabilities.Application, error) {
	app, err := o.source.ApplicationByPackage(ctx, pkg)
	if err != nil {
		return capabilities.Application{}, err
	}
	return o.overlay(app), nil
}

// Applications returns every known manifest with stored grants applied.
func (o *StateOverlay) Applications(ctx context.Context) ([]capabilities.Application, error) {
	apps, err := o.source.Applications(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(apps, func(app capabilities.Application, _ int) capabilities.Application {
		return o.overlay(app)
	}), nil
}

func (o *StateOverlay) overlay(app capabilities.Application) capabilities.Application {
	// lo.Map copies the slice; the source may hand out shared requests.
	app.Requests = lo.Map(app.Requests, func(req capabilities.CapabilityRequest, _ int) capabilities.CapabilityRequest {
		if rec, ok := o.store.Lookup(app.Package, req.Name, o.user); ok {
			req.Granted = rec.Granted
		}
		return req
	})
	return app
}
