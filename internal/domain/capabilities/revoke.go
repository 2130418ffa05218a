package capabilities

import "context"

// Revoke revokes the primary member capabilities, optionally restricted
// to the named ones. Filter semantics, the system-fixed abort and the
// immediate-mode commit mirror Grant.
//
// With userFixed the revocation is recorded as "don't ask again";
// without it the capability stays promptable.
func (g *CapabilityGroup) Revoke(ctx context.Context, userFixed bool, filter []string) (bool, error) {
	killApp := false
	allRevoked := true

	for _, c := range g.sortedMembers() {
		if filter != nil && !containsName(filter, c.name) {
			continue
		}

		if g.model.SupportsRuntime() {
			if c.IsSystemFixed() {
				allRevoked = false
				break
			}

			if c.granted {
				c.granted = false
			}

			if userFixed {
				if c.IsUserSet() || !c.IsUserFixed() {
					c.flags = c.flags.Without(FlagUserSet).With(FlagUserFixed)
				}
			} else {
				if !c.IsUserSet() || c.IsUserFixed() {
					c.flags = c.flags.With(FlagUserSet).Without(FlagUserFixed)
				}
			}

			if c.HasGate() {
				c.operationAllowed = false
			}
		} else {
			// Legacy apps keep the grant itself; revocation closes the
			// gate and marks the grant for removal on upgrade.
			if !c.granted {
				continue
			}

			if c.HasGate() {
				if c.operationAllowed {
					c.operationAllowed = false

					// Closing a gate can leave the app holding state it
					// no longer should have, so it gets restarted.
					killApp = true
				}

				if !c.ShouldRevokeOnUpgrade() {
					c.flags = c.flags.With(FlagRevokeOnUpgrade)
				}
			}
		}
	}

	if !g.batch.IsDeferred() {
		if err := g.Commit(ctx, false); err != nil {
			return allRevoked, err
		}
		if killApp {
			g.procs.KillUID(ctx, g.app.UID, KillReasonGateChange)
		}
	}

	return allRevoked, nil
}
