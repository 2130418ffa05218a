package capabilities

// Grant and Revoke walk the primary members in name order and apply the
// per-capability decision tree for the application's grant model. The
// background sibling group is never touched implicitly; callers invoke
// the same operations on Background() when background access is meant.

import "context"

// Grant grants the primary member capabilities, optionally restricted to
// the named ones. Capabilities absent from a non-nil filter are skipped
// entirely and do not count against the result.
//
// The returned bool is false when a system-fixed capability was hit;
// processing stops there and earlier mutations are kept. Under immediate
// batch mode the mutations are committed before returning and a legacy
// gate change kills the application's processes.
func (g *CapabilityGroup) Grant(ctx context.Context, userFixed bool, filter []string) (bool, error) {
	killApp := false
	allGranted := true

	for _, c := range g.sortedMembers() {
		if filter != nil && !containsName(filter, c.name) {
			continue
		}
		if !c.IsGrantingAllowed(g.app.Ephemeral, g.model) {
			continue
		}

		wasLive := c.granted && c.operationAllowed

		if g.model.SupportsRuntime() {
			if c.IsSystemFixed() {
				allGranted = false
				break
			}

			// The gate has to be open before the grant becomes visible.
			if c.HasGate() && !c.operationAllowed {
				c.operationAllowed = true
			}

			if !c.granted {
				c.granted = true
			}

			if !userFixed {
				// The app may prompt again now that the user no longer
				// has the capability fixed in a denied state.
				if c.IsUserFixed() || c.IsUserSet() {
					c.flags = c.flags.Without(FlagUserFixed | FlagUserSet)
				}
			}
		} else {
			// Legacy apps hold their grants from install time; this path
			// only reopens gates.
			if !c.granted {
				continue
			}

			if c.HasGate() {
				if !c.operationAllowed {
					c.operationAllowed = true

					// Legacy apps cache gate state and need a restart to
					// observe the change.
					killApp = true
				}

				if c.ShouldRevokeOnUpgrade() {
					c.flags = c.flags.Without(FlagRevokeOnUpgrade)
				}
			}

			// Granting explicitly counts as the user having reviewed it.
			if c.IsReviewRequired() {
				c.flags = c.flags.Without(FlagReviewRequired)
			}
		}

		if !wasLive && c.granted && c.operationAllowed {
			g.maybeScheduleLocationRecheck(ctx, c)
		}
	}

	if !g.batch.IsDeferred() {
		if err := g.Commit(ctx, false); err != nil {
			return allGranted, err
		}
		if killApp {
			g.procs.KillUID(ctx, g.app.UID, KillReasonGateChange)
		}
	}

	return allGranted, nil
}

// maybeScheduleLocationRecheck arms a deferred re-confirmation when this
// call newly completed live background location access: either precise
// location came live while its background counterpart already was, or
// the background counterpart came live while precise location already
// was.
func (g *CapabilityGroup) maybeScheduleLocationRecheck(ctx context.Context, c *Capability) {
	switch c.name {
	case CapabilityPreciseLocation:
		bg := g.linkedBackground(c)
		if bg != nil && bg.granted && bg.operationAllowed {
			g.recheck.ScheduleSoon(ctx)
		}
	case CapabilityBackgroundLocation:
		for _, fg := range g.linkedForegrounds(c) {
			if fg.name != CapabilityPreciseLocation {
				continue
			}
			if fg.granted && fg.operationAllowed {
				g.recheck.ScheduleSoon(ctx)
			}
			break
		}
	}
}
