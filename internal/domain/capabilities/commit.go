package capabilities

import (
	"context"
	"errors"
	"fmt"
)

// KillReasonGateChange is the reason passed to the process supervisor
// when an application is restarted over a gate change.
const KillReasonGateChange = "capability gate changed"

// Commit writes the group's buffered state to the persistent store and
// applies the resolved gate modes. Every primary member is processed to
// completion even when a collaborator fails; the failures are returned
// joined.
//
// Any member with a gate marks the application for a restart. With
// mayKill the restart happens here; without it the caller is responsible
// (immediate-mode grant and revoke pass false and kill selectively).
//
// Commit covers this group only. A background sibling has its own
// buffered state and is committed through Background().Commit.
func (g *CapabilityGroup) Commit(ctx context.Context, mayKill bool) error {
	var errs []error
	shouldKill := false

	for _, c := range g.sortedMembers() {
		if err := g.store.SetGranted(ctx, g.app.Package, c.name, g.user, c.granted); err != nil {
			errs = append(errs, fmt.Errorf("persist grant of %s: %w", c.name, err))
		}

		if err := g.store.SetFlags(ctx, c.name, g.app.Package, g.user, CommitFlagsMask, c.flags&CommitFlagsMask); err != nil {
			errs = append(errs, fmt.Errorf("persist flags of %s: %w", c.name, err))
		}

		if c.HasGate() {
			var err error
			if c.operationAllowed {
				err = g.applyAllowMode(ctx, c)
			} else {
				err = g.applyDisallowMode(ctx, c)
			}
			if err != nil {
				errs = append(errs, err)
			}

			// A gate write can leave the app holding state it no longer
			// should have, so the app has to go.
			shouldKill = true
		}
	}

	if mayKill && shouldKill {
		g.procs.KillUID(ctx, g.app.UID, KillReasonGateChange)
	}

	return errors.Join(errs...)
}
