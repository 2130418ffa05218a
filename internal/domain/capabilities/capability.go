// Package capabilities implements the grant state machine for
// user-confirmable capability groups: assembly from metadata and an
// application's declared requests, foreground/background linking, the
// grant/revoke decision trees, operation-mode derivation, and batched
// commit of the resulting mutations.
package capabilities

import "github.com/permgate-dev/permgate/internal/domain/values"

// Platform capability names with cross-capability semantics. Granting
// live access to precise location while its background counterpart is
// allowed triggers a deferred re-confirmation of that choice.
const (
	CapabilityPreciseLocation    = "location.precise"
	CapabilityBackgroundLocation = "location.background"
)

// Capability is the mutable grant state of one requested capability.
// Instances are created by the Assembler and owned by exactly one
// CapabilityGroup; the foreground/background relation is kept as names
// and resolved through the assembly index, never as owning references
// in both directions.
type Capability struct {
	name              string
	authority         string
	granted           bool
	runtimeOnly       bool
	ephemeralEligible bool

	// operation is the low-level gate backing this capability, empty for
	// capabilities with no gate.
	operation        string
	operationAllowed bool

	flags Flags

	backgroundName  string
	foregroundNames []string
}

// Name returns the capability identity.
func (c *Capability) Name() string { return c.name }

// Authority returns the declaring namespace.
func (c *Capability) Authority() string { return c.authority }

// Operation returns the backing gate's operation name, empty if the
// capability has no gate.
func (c *Capability) Operation() string { return c.operation }

// HasGate returns true if the capability maps to a low-level operation.
func (c *Capability) HasGate() bool { return c.operation != "" }

// IsGranted returns the current in-memory grant state.
func (c *Capability) IsGranted() bool { return c.granted }

// IsOperationAllowed returns the current in-memory gate allowance. For a
// background variant this refers to the background state of the linked
// foreground capabilities' operations.
func (c *Capability) IsOperationAllowed() bool { return c.operationAllowed }

// Flags returns the capability's flag bitset.
func (c *Capability) Flags() Flags { return c.flags }

func (c *Capability) IsUserSet() bool             { return c.flags.Has(FlagUserSet) }
func (c *Capability) IsUserFixed() bool           { return c.flags.Has(FlagUserFixed) }
func (c *Capability) IsSystemFixed() bool         { return c.flags.Has(FlagSystemFixed) }
func (c *Capability) IsPolicyFixed() bool         { return c.flags.Has(FlagPolicyFixed) }
func (c *Capability) IsReviewRequired() bool      { return c.flags.Has(FlagReviewRequired) }
func (c *Capability) ShouldRevokeOnUpgrade() bool { return c.flags.Has(FlagRevokeOnUpgrade) }
func (c *Capability) IsGrantedByDefault() bool    { return c.flags.Has(FlagGrantedByDefault) }

// IsRuntimeOnly returns true if the capability exists only under the
// runtime grant model.
func (c *Capability) IsRuntimeOnly() bool { return c.runtimeOnly }

// IsEphemeralEligible returns true if ephemeral installs may hold this
// capability.
func (c *Capability) IsEphemeralEligible() bool { return c.ephemeralEligible }

// BackgroundName returns the declared background counterpart's name,
// empty if this capability is not foreground-splittable.
func (c *Capability) BackgroundName() string { return c.backgroundName }

// ForegroundNames returns the names of the foreground capabilities linked
// to this background variant.
func (c *Capability) ForegroundNames() []string { return c.foregroundNames }

// IsBackgroundVariant returns true if this capability is the background
// counterpart of at least one linked foreground capability.
func (c *Capability) IsBackgroundVariant() bool { return len(c.foregroundNames) > 0 }

// IsGrantingAllowed reports whether this capability may be granted to an
// application: ephemeral installs need an ephemeral-eligible capability,
// and apps outside the runtime grant model can only hold pre-runtime
// capabilities.
func (c *Capability) IsGrantingAllowed(ephemeralApp bool, model values.AppModel) bool {
	return (!ephemeralApp || c.ephemeralEligible) &&
		(model.SupportsRuntime() || !c.runtimeOnly)
}
