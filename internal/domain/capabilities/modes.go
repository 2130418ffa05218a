package capabilities

import (
	"context"
	"errors"
	"fmt"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// applyAllowMode writes the gate transition for a capability whose
// operation became allowed. Three cases:
//
//   - A background variant never owns a gate of its own; allowing it
//     upgrades every linked foreground operation that is itself allowed
//     to the unrestricted mode.
//   - A foreground capability with a declared background counterpart is
//     capped at foreground-only access unless the counterpart was
//     assembled and is allowed.
//   - A capability without background linkage is simply allowed.
func (g *CapabilityGroup) applyAllowMode(ctx context.Context, c *Capability) error {
	if c.IsBackgroundVariant() {
		var errs []error
		for _, fg := range g.linkedForegrounds(c) {
			if !fg.operationAllowed || !fg.HasGate() {
				continue
			}
			if err := g.gates.SetMode(ctx, fg.operation, g.app.UID, values.GateModeAllowed); err != nil {
				errs = append(errs, fmt.Errorf("set gate %s allowed: %w", fg.operation, err))
			}
		}
		return errors.Join(errs...)
	}

	if c.backgroundName != "" {
		mode := values.GateModeForeground
		if bg := g.linkedBackground(c); bg != nil && bg.operationAllowed {
			mode = values.GateModeAllowed
		}
		if err := g.gates.SetMode(ctx, c.operation, g.app.UID, mode); err != nil {
			return fmt.Errorf("set gate %s %s: %w", c.operation, mode, err)
		}
		return nil
	}

	if err := g.gates.SetMode(ctx, c.operation, g.app.UID, values.GateModeAllowed); err != nil {
		return fmt.Errorf("set gate %s allowed: %w", c.operation, err)
	}
	return nil
}

// applyDisallowMode writes the gate transition for a capability whose
// operation became disallowed. Disallowing a background variant only
// downgrades the linked foreground operations to foreground-only; it
// never revokes foreground access outright.
func (g *CapabilityGroup) applyDisallowMode(ctx context.Context, c *Capability) error {
	if c.IsBackgroundVariant() {
		var errs []error
		for _, fg := range g.linkedForegrounds(c) {
			if !fg.operationAllowed || !fg.HasGate() {
				continue
			}
			if err := g.gates.SetMode(ctx, fg.operation, g.app.UID, values.GateModeForeground); err != nil {
				errs = append(errs, fmt.Errorf("set gate %s foreground: %w", fg.operation, err))
			}
		}
		return errors.Join(errs...)
	}

	if err := g.gates.SetMode(ctx, c.operation, g.app.UID, values.GateModeIgnored); err != nil {
		return fmt.Errorf("set gate %s ignored: %w", c.operation, err)
	}
	return nil
}
