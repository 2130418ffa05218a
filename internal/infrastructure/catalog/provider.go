package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

// FlagsSource serves per-(package, capability, user) flag bitsets. The
// catalog itself stays static data; flags live with the grant state.
type FlagsSource interface {
	FlagsFor(ctx context.Context, pkg, capability, user string) (capabilities.Flags, error)
}

// Provider serves catalog lookups for the assembler.
type Provider struct {
	caps    map[string]capabilities.CapabilityMeta
	groups  map[string]capabilities.GroupMeta
	byGroup map[string][]string
	ops     map[string]string
	flags   FlagsSource
}

var _ capabilities.MetadataProvider = (*Provider)(nil)

// NewProvider builds a provider over a loaded document. The flags source
// may be nil; flag lookups then return empty bitsets.
func NewProvider(doc *Document, flags FlagsSource) *Provider {
	p := &Provider{
		caps:    make(map[string]capabilities.CapabilityMeta, len(doc.Capabilities)),
		groups:  make(map[string]capabilities.GroupMeta, len(doc.Groups)),
		byGroup: make(map[string][]string),
		ops:     make(map[string]string),
		flags:   flags,
	}

	for _, g := range doc.Groups {
		p.groups[g.Name] = capabilities.GroupMeta{
			Name:        g.Name,
			Authority:   g.Authority,
			Label:       g.Label,
			Description: g.Description,
		}
	}

	for _, c := range doc.Capabilities {
		installed := c.Installed == nil || *c.Installed
		p.caps[c.Name] = capabilities.CapabilityMeta{
			Name:              c.Name,
			Authority:         c.Authority,
			Group:             c.Group,
			Protection:        values.Protection(c.Protection),
			Background:        c.Background,
			RuntimeOnly:       c.RuntimeOnly,
			EphemeralEligible: c.Ephemeral,
			Installed:         installed,
			Removed:           c.Removed,
		}
		p.byGroup[c.Group] = append(p.byGroup[c.Group], c.Name)
		if c.Operation != "" {
			p.ops[c.Name] = c.Operation
		}
	}

	for _, names := range p.byGroup {
		sort.Strings(names)
	}
	return p
}

// CapabilityByName returns the declaration of one capability.
func (p *Provider) CapabilityByName(_ context.Context, name string) (capabilities.CapabilityMeta, error) {
	m, ok := p.caps[name]
	if !ok {
		return capabilities.CapabilityMeta{}, fmt.Errorf("capability %s: %w", name, capabilities.ErrNotFound)
	}
	return m, nil
}

// GroupByName returns the declaration of one group.
func (p *Provider) GroupByName(_ context.Context, name string) (capabilities.GroupMeta, error) {
	g, ok := p.groups[name]
	if !ok {
		return capabilities.GroupMeta{}, fmt.Errorf("group %s: %w", name, capabilities.ErrNotFound)
	}
	return g, nil
}

// CapabilitiesInGroup returns the group's member declarations in name
// order.
func (p *Provider) CapabilitiesInGroup(_ context.Context, group string) ([]capabilities.CapabilityMeta, error) {
	names := p.byGroup[group]
	out := make([]capabilities.CapabilityMeta, 0, len(names))
	for _, name := range names {
		out = append(out, p.caps[name])
	}
	return out, nil
}

// OperationForCapability returns the gate operation mapped to a
// capability. A missing mapping is a normal false, not a failure.
func (p *Provider) OperationForCapability(name string) (string, bool) {
	op, ok := p.ops[name]
	return op, ok
}

// CapabilityFlags resolves the persisted flag bitset through the flags
// source.
func (p *Provider) CapabilityFlags(ctx context.Context, pkg, capability, user string) (capabilities.Flags, error) {
	if p.flags == nil {
		return 0, nil
	}
	return p.flags.FlagsFor(ctx, pkg, capability, user)
}
