package capabilities

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// Test doubles for the collaborator ports plus a catalog fixture shared
// by the assembler, grant/revoke and commit tests.

type fakeMetadata struct {
	caps   map[string]CapabilityMeta
	groups map[string]GroupMeta
	ops    map[string]string
	flags  map[string]Flags
}

func (f *fakeMetadata) CapabilityByName(_ context.Context, name string) (CapabilityMeta, error) {
	m, ok := f.caps[name]
	if !ok {
		return CapabilityMeta{}, fmt.Errorf("capability %s: %w", name, ErrNotFound)
	}
	return m, nil
}

func (f *fakeMetadata) GroupByName(_ context.Context, name string) (GroupMeta, error) {
	g, ok := f.groups[name]
	if !ok {
		return GroupMeta{}, fmt.Errorf("group %s: %w", name, ErrNotFound)
	}
	return g, nil
}

func (f *fakeMetadata) CapabilitiesInGroup(_ context.Context, group string) ([]CapabilityMeta, error) {
	var out []CapabilityMeta
	for _, m := range f.caps {
		if m.Group == group {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeMetadata) OperationForCapability(name string) (string, bool) {
	op, ok := f.ops[name]
	return op, ok
}

func (f *fakeMetadata) CapabilityFlags(_ context.Context, _, capability, _ string) (Flags, error) {
	return f.flags[capability], nil
}

type gateKey struct {
	op  string
	uid int
}

type modeCall struct {
	op   string
	uid  int
	mode values.GateMode
}

type fakeGates struct {
	modes    map[gateKey]values.GateMode
	setCalls []modeCall
	setErr   error
}

func newFakeGates() *fakeGates {
	return &fakeGates{modes: make(map[gateKey]values.GateMode)}
}

func (f *fakeGates) set(op string, uid int, mode values.GateMode) {
	f.modes[gateKey{op, uid}] = mode
}

func (f *fakeGates) stored(op string, uid int) values.GateMode {
	if mode, ok := f.modes[gateKey{op, uid}]; ok {
		return mode
	}
	return values.GateModeDefault
}

// Mode resolves foreground-only as a backgrounded app would see it.
func (f *fakeGates) Mode(_ context.Context, op string, uid int, _ string) (values.GateMode, error) {
	mode := f.stored(op, uid)
	if mode == values.GateModeForeground {
		return values.GateModeIgnored, nil
	}
	return mode, nil
}

func (f *fakeGates) RawMode(_ context.Context, op string, uid int, _ string) (values.GateMode, error) {
	return f.stored(op, uid), nil
}

func (f *fakeGates) SetMode(_ context.Context, op string, uid int, mode values.GateMode) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.modes[gateKey{op, uid}] = mode
	f.setCalls = append(f.setCalls, modeCall{op, uid, mode})
	return nil
}

// lastMode returns the mode of the most recent SetMode call for op.
func (f *fakeGates) lastMode(t *testing.T, op string) values.GateMode {
	t.Helper()
	for i := len(f.setCalls) - 1; i >= 0; i-- {
		if f.setCalls[i].op == op {
			return f.setCalls[i].mode
		}
	}
	t.Fatalf("no SetMode call for %s", op)
	return ""
}

func (f *fakeGates) setModeCount(op string) int {
	n := 0
	for _, c := range f.setCalls {
		if c.op == op {
			n++
		}
	}
	return n
}

type fakeStore struct {
	granted  map[string]bool
	flags    map[string]Flags
	writes   int
	grantErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{granted: make(map[string]bool), flags: make(map[string]Flags)}
}

func storeKey(pkg, capability, user string) string {
	return pkg + "/" + capability + "/" + user
}

func (f *fakeStore) SetGranted(_ context.Context, pkg, capability, user string, granted bool) error {
	f.writes++
	if f.grantErr != nil {
		return f.grantErr
	}
	f.granted[storeKey(pkg, capability, user)] = granted
	return nil
}

func (f *fakeStore) SetFlags(_ context.Context, capability, pkg, user string, mask, value Flags) error {
	f.writes++
	key := storeKey(pkg, capability, user)
	f.flags[key] = f.flags[key].Apply(mask, value)
	return nil
}

type killCall struct {
	uid    int
	reason string
}

type fakeSupervisor struct {
	kills []killCall
}

func (f *fakeSupervisor) KillUID(_ context.Context, uid int, reason string) {
	f.kills = append(f.kills, killCall{uid, reason})
}

type fakeRecheck struct {
	scheduled int
}

func (f *fakeRecheck) ScheduleSoon(context.Context) {
	f.scheduled++
}

type fakeUsage struct {
	events []AccessEvent
	err    error
}

func (f *fakeUsage) EventsForGroup(context.Context, string, int, string) ([]AccessEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

// reverseComparer orders labels backwards to prove comparator injection.
type reverseComparer struct{}

func (reverseComparer) Compare(a, b string) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return 1
	default:
		return -1
	}
}

type fixture struct {
	meta    *fakeMetadata
	gates   *fakeGates
	store   *fakeStore
	procs   *fakeSupervisor
	recheck *fakeRecheck
	usage   *fakeUsage
}

func newFixture() *fixture {
	meta := &fakeMetadata{
		caps: map[string]CapabilityMeta{
			"location.precise": {
				Name: "location.precise", Authority: PlatformAuthority, Group: "location",
				Protection: values.ProtectionConfirmable, Background: "location.background",
				RuntimeOnly: true, EphemeralEligible: true, Installed: true,
			},
			"location.coarse": {
				Name: "location.coarse", Authority: PlatformAuthority, Group: "location",
				Protection: values.ProtectionConfirmable, Background: "location.background",
				RuntimeOnly: true, EphemeralEligible: true, Installed: true,
			},
			"location.background": {
				Name: "location.background", Authority: PlatformAuthority, Group: "location",
				Protection: values.ProtectionConfirmable,
				RuntimeOnly: true, EphemeralEligible: true, Installed: true,
			},
			"contacts.export": {
				Name: "contacts.export", Authority: PlatformAuthority, Group: "contacts",
				Protection: values.ProtectionConfirmable, RuntimeOnly: true, Installed: true,
			},
			"contacts.read": {
				Name: "contacts.read", Authority: PlatformAuthority, Group: "contacts",
				Protection: values.ProtectionConfirmable, RuntimeOnly: true, Installed: true,
			},
			"contacts.write": {
				Name: "contacts.write", Authority: PlatformAuthority, Group: "contacts",
				Protection: values.ProtectionConfirmable, RuntimeOnly: true, Installed: true,
			},
			"storage.external": {
				Name: "storage.external", Authority: PlatformAuthority, Group: "storage",
				Protection: values.ProtectionConfirmable, Installed: true,
			},
			"vendor.telemetry": {
				Name: "vendor.telemetry", Authority: "com.vendor", Group: "vendor.analytics",
				Protection: values.ProtectionConfirmable, Installed: true,
			},
		},
		groups: map[string]GroupMeta{
			"location":         {Name: "location", Authority: PlatformAuthority, Label: "Location"},
			"contacts":         {Name: "contacts", Authority: PlatformAuthority, Label: "Contacts"},
			"storage":          {Name: "storage", Authority: PlatformAuthority, Label: "Storage"},
			"vendor.analytics": {Name: "vendor.analytics", Authority: "com.vendor", Label: "Analytics"},
		},
		ops: map[string]string{
			"location.precise":    "op.location.precise",
			"location.coarse":     "op.location.coarse",
			"location.background": "op.location.background",
			"contacts.export":     "op.contacts.export",
			"contacts.read":       "op.contacts.read",
			"contacts.write":      "op.contacts.write",
			"storage.external":    "op.storage.external",
		},
		flags: make(map[string]Flags),
	}

	return &fixture{
		meta:    meta,
		gates:   newFakeGates(),
		store:   newFakeStore(),
		procs:   &fakeSupervisor{},
		recheck: &fakeRecheck{},
		usage:   &fakeUsage{},
	}
}

func (f *fixture) assembler(batch values.BatchMode) *Assembler {
	return NewAssembler(AssemblerConfig{
		Metadata:  f.meta,
		Gates:     f.gates,
		Store:     f.store,
		Processes: f.procs,
		Recheck:   f.recheck,
		Usage:     f.usage,
		Batch:     batch,
	})
}

func (f *fixture) assemble(t *testing.T, app Application, group string, batch values.BatchMode) *CapabilityGroup {
	t.Helper()
	g, err := f.assembler(batch).Assemble(context.Background(), app, group, "owner")
	require.NoError(t, err)
	require.NotNil(t, g)
	return g
}

const (
	testPackage = "com.example.maps"
	testUID     = 10042
)

func modernApp(requests ...CapabilityRequest) Application {
	return Application{
		Package:        testPackage,
		UID:            testUID,
		TargetPlatform: "7.1.0",
		Requests:       requests,
	}
}

func legacyApp(requests ...CapabilityRequest) Application {
	return Application{
		Package:        testPackage,
		UID:            testUID,
		TargetPlatform: "5.0.0",
		Requests:       requests,
	}
}
