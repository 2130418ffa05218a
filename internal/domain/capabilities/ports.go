package capabilities

import (
	"context"
	"errors"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// PlatformAuthority is the namespace of platform-declared capabilities
// and groups. Operation mappings exist only for platform capabilities,
// and legacy apps may only toggle platform-owned groups.
const PlatformAuthority = "platform"

var (
	// ErrNotFound is returned by lookups for unknown capability or group
	// names. Assembly treats it as exclude-and-continue.
	ErrNotFound = errors.New("not found")
	// ErrUnsupported is returned by collaborators that cannot serve a
	// lookup at all. Usage retrieval degrades to an empty result.
	ErrUnsupported = errors.New("unsupported lookup")
)

// CapabilityMeta is the static definition of a capability.
type CapabilityMeta struct {
	Name              string
	Authority         string
	Group             string
	Protection        values.Protection
	Background        string
	RuntimeOnly       bool
	EphemeralEligible bool
	Installed         bool
	Removed           bool
}

// GroupMeta is the static definition of a capability group.
type GroupMeta struct {
	Name        string
	Authority   string
	Label       string
	Description string
}

// Application is the snapshot of a requesting application used during
// assembly. Requests carry the install-time grant state as recorded by
// the platform.
type Application struct {
	Package        string
	UID            int
	TargetPlatform string
	Ephemeral      bool
	Requests       []CapabilityRequest
}

// CapabilityRequest is one entry of an application's declared requests.
type CapabilityRequest struct {
	Name    string
	Granted bool
}

// MetadataProvider resolves capability and group definitions plus the
// persisted per-application flag state.
type MetadataProvider interface {
	CapabilityByName(ctx context.Context, name string) (CapabilityMeta, error)
	GroupByName(ctx context.Context, name string) (GroupMeta, error)
	CapabilitiesInGroup(ctx context.Context, group string) ([]CapabilityMeta, error)
	// OperationForCapability maps a capability to its low-level operation.
	// A missing mapping is a normal false, not a failure.
	OperationForCapability(name string) (string, bool)
	CapabilityFlags(ctx context.Context, pkg, capability, user string) (Flags, error)
}

// GateController reads and writes low-level operation modes. Mode
// resolves a foreground-only mode against the application's current
// attribution; RawMode returns the stored mode unresolved.
type GateController interface {
	Mode(ctx context.Context, operation string, uid int, pkg string) (values.GateMode, error)
	RawMode(ctx context.Context, operation string, uid int, pkg string) (values.GateMode, error)
	SetMode(ctx context.Context, operation string, uid int, mode values.GateMode) error
}

// ProcessSupervisor kills the processes of an application identifier.
// The call is advisory; the core never awaits termination.
type ProcessSupervisor interface {
	KillUID(ctx context.Context, uid int, reason string)
}

// PersistentStore writes durable grant state and flag bitsets.
type PersistentStore interface {
	SetGranted(ctx context.Context, pkg, capability, user string, granted bool) error
	SetFlags(ctx context.Context, capability, pkg, user string, mask, value Flags) error
}

// DeferredRecheckScheduler arms a later re-confirmation of a sensitive
// grant. Opaque trigger, fire-and-forget.
type DeferredRecheckScheduler interface {
	ScheduleSoon(ctx context.Context)
}

// UsageHistoryProvider lists prior access events for a capability group.
type UsageHistoryProvider interface {
	EventsForGroup(ctx context.Context, pkg string, uid int, group string) ([]AccessEvent, error)
}

// LabelComparer supplies collation for group ordering so target
// platforms can inject their own locale rules.
type LabelComparer interface {
	Compare(a, b string) int
}

// RestrictionPolicy is the system-wide kill-switch for a capability
// class. A restricted capability whose gate still sits at the default
// mode is excluded from grant management entirely.
type RestrictionPolicy interface {
	Restricted(meta CapabilityMeta) bool
}
