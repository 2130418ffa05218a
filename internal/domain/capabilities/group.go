package capabilities

import (
	"context"
	"sort"
	"strings"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// CapabilityGroup is the set of capabilities presented to the user as one
// grant decision for one (application, group, user) triple. Background
// variants live in a lazily created sibling group reachable through
// Background; the sibling shares the assembly index so name links resolve
// across the split.
//
// A group is not safe for concurrent mutation; callers serialize access.
type CapabilityGroup struct {
	name        string
	authority   string
	label       string
	description string

	app  Application
	user string

	model values.AppModel
	batch values.BatchMode

	members map[string]*Capability
	// index spans primary and background members of the assembly and is
	// shared with the sibling group for weak-link resolution.
	index      map[string]*Capability
	background *CapabilityGroup

	hasSplitCapability bool
	containsEphemeral  bool
	containsPreRuntime bool

	usage []AccessEvent

	gates   GateController
	store   PersistentStore
	procs   ProcessSupervisor
	recheck DeferredRecheckScheduler
	compare LabelComparer
}

// addCapability registers a capability as a primary member and folds its
// static properties into the group-level aggregates.
func (g *CapabilityGroup) addCapability(c *Capability) {
	g.members[c.name] = c
	if c.ephemeralEligible {
		g.containsEphemeral = true
	}
	if !c.runtimeOnly {
		g.containsPreRuntime = true
	}
}

// linkedBackground resolves the background counterpart of c by name, nil
// when c declares none or the counterpart was not assembled.
func (g *CapabilityGroup) linkedBackground(c *Capability) *Capability {
	if c.backgroundName == "" {
		return nil
	}
	return g.index[c.backgroundName]
}

// linkedForegrounds resolves the foreground capabilities linked to the
// background variant c.
func (g *CapabilityGroup) linkedForegrounds(c *Capability) []*Capability {
	out := make([]*Capability, 0, len(c.foregroundNames))
	for _, name := range c.foregroundNames {
		if fg := g.index[name]; fg != nil {
			out = append(out, fg)
		}
	}
	return out
}

// sortedMembers returns the primary members in name order. Grant, revoke
// and commit iterate this way so partial aborts are reproducible.
func (g *CapabilityGroup) sortedMembers() []*Capability {
	names := make([]string, 0, len(g.members))
	for name := range g.members {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Capability, 0, len(names))
	for _, name := range names {
		out = append(out, g.members[name])
	}
	return out
}

// Name returns the group identity.
func (g *CapabilityGroup) Name() string { return g.name }

// Authority returns the declaring namespace of the group.
func (g *CapabilityGroup) Authority() string { return g.authority }

// Label returns the presentation label used for ordering.
func (g *CapabilityGroup) Label() string { return g.label }

// Description returns the presentation description.
func (g *CapabilityGroup) Description() string { return g.description }

// App returns the requesting application snapshot.
func (g *CapabilityGroup) App() Application { return g.app }

// User returns the user identity the group was assembled for.
func (g *CapabilityGroup) User() string { return g.user }

// Model returns the application's grant model.
func (g *CapabilityGroup) Model() values.AppModel { return g.model }

// Batch returns the group's batch mode.
func (g *CapabilityGroup) Batch() values.BatchMode { return g.batch }

// Background returns the background sibling group, nil if no background
// variant was assembled.
func (g *CapabilityGroup) Background() *CapabilityGroup { return g.background }

// HasSplitCapability returns true if any member declares a background
// counterpart, whether or not that counterpart was requested.
func (g *CapabilityGroup) HasSplitCapability() bool { return g.hasSplitCapability }

// HasCapability returns true if name is a primary member.
func (g *CapabilityGroup) HasCapability(name string) bool {
	return g.members[name] != nil
}

// Capability returns the primary member with the given name, nil if absent.
func (g *CapabilityGroup) Capability(name string) *Capability {
	return g.members[name]
}

// Capabilities returns the primary members in name order.
func (g *CapabilityGroup) Capabilities() []*Capability {
	return g.sortedMembers()
}

// AccessHistory returns the group's recorded access events, most recent
// first.
func (g *CapabilityGroup) AccessHistory() []AccessEvent {
	return g.usage
}

// IsGrantingAllowed reports whether grant operations can do anything for
// this group: ephemeral installs need at least one ephemeral-eligible
// member, and apps outside the runtime grant model need at least one
// pre-runtime member.
func (g *CapabilityGroup) IsGrantingAllowed() bool {
	return (!g.app.Ephemeral || g.containsEphemeral) &&
		(g.model.SupportsRuntime() || g.containsPreRuntime)
}

// IsReviewRequired returns true if any member still awaits the user's
// review. Apps on the runtime grant model never require review.
func (g *CapabilityGroup) IsReviewRequired() bool {
	if g.model.SupportsRuntime() {
		return false
	}
	for _, c := range g.members {
		if c.IsReviewRequired() {
			return true
		}
	}
	return false
}

// IsUserFixed returns true if any member was fixed by the user.
func (g *CapabilityGroup) IsUserFixed() bool {
	return g.anyMember((*Capability).IsUserFixed)
}

// IsUserSet returns true if any member carries an explicit user choice.
func (g *CapabilityGroup) IsUserSet() bool {
	return g.anyMember((*Capability).IsUserSet)
}

// IsSystemFixed returns true if any member is locked by the system.
func (g *CapabilityGroup) IsSystemFixed() bool {
	return g.anyMember((*Capability).IsSystemFixed)
}

// IsPolicyFixed returns true if any member is locked by device policy.
func (g *CapabilityGroup) IsPolicyFixed() bool {
	return g.anyMember((*Capability).IsPolicyFixed)
}

// HasGrantedByDefault returns true if any member was granted by the
// platform installer.
func (g *CapabilityGroup) HasGrantedByDefault() bool {
	return g.anyMember((*Capability).IsGrantedByDefault)
}

func (g *CapabilityGroup) anyMember(pred func(*Capability) bool) bool {
	for _, c := range g.members {
		if pred(c) {
			return true
		}
	}
	return false
}

// AnyGranted reports whether the group counts as granted, optionally
// restricted to the named capabilities. Under the legacy model a member
// only counts when its gate (if any) is allowed and no review is pending.
func (g *CapabilityGroup) AnyGranted(filter []string) bool {
	for _, c := range g.members {
		if filter != nil && !containsName(filter, c.name) {
			continue
		}
		if g.model.SupportsRuntime() {
			if c.granted {
				return true
			}
		} else if c.granted && (!c.HasGate() || c.operationAllowed) && !c.IsReviewRequired() {
			return true
		}
	}
	return false
}

// ResetReviewRequired clears the review flag on every member. Under
// immediate batch mode the change is committed right away.
func (g *CapabilityGroup) ResetReviewRequired(ctx context.Context) error {
	for _, c := range g.members {
		if c.IsReviewRequired() {
			c.flags = c.flags.Without(FlagReviewRequired)
		}
	}

	if !g.batch.IsDeferred() {
		return g.Commit(ctx, false)
	}
	return nil
}

// SetPolicyFixed locks every member by device policy. Under immediate
// batch mode the change is committed right away.
func (g *CapabilityGroup) SetPolicyFixed(ctx context.Context) error {
	for _, c := range g.members {
		c.flags = c.flags.With(FlagPolicyFixed)
	}

	if !g.batch.IsDeferred() {
		return g.Commit(ctx, false)
	}
	return nil
}

// Equal reports identity: same group for the same package and user.
func (g *CapabilityGroup) Equal(other *CapabilityGroup) bool {
	if other == nil {
		return false
	}
	return g.name == other.name &&
		g.app.Package == other.app.Package &&
		g.user == other.user
}

// Compare orders groups by collated label, tie-broken by application
// identifier. Without an injected comparator labels fall back to their
// natural byte order.
func (g *CapabilityGroup) Compare(other *CapabilityGroup) int {
	var r int
	if g.compare != nil {
		r = g.compare.Compare(g.label, other.label)
	} else {
		r = strings.Compare(g.label, other.label)
	}
	if r != 0 {
		return r
	}
	return g.app.UID - other.app.UID
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
