// Package dto contains data transfer objects for application layer use cases.
package dto

import (
	"time"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

// GroupReport is the externally visible snapshot of one capability group
// for one application and user.
type GroupReport struct {
	Group       string `json:"group" yaml:"group"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Authority   string `json:"authority" yaml:"authority"`

	Package string `json:"package" yaml:"package"`
	UID     int    `json:"uid" yaml:"uid"`
	User    string `json:"user" yaml:"user"`

	Model values.AppModel  `json:"model" yaml:"model"`
	Batch values.BatchMode `json:"batch" yaml:"batch"`

	Granted         bool `json:"granted" yaml:"granted"`
	GrantingAllowed bool `json:"granting_allowed" yaml:"granting_allowed"`
	ReviewRequired  bool `json:"review_required" yaml:"review_required"`
	UserSet         bool `json:"user_set" yaml:"user_set"`
	UserFixed       bool `json:"user_fixed" yaml:"user_fixed"`
	SystemFixed     bool `json:"system_fixed" yaml:"system_fixed"`
	PolicyFixed     bool `json:"policy_fixed" yaml:"policy_fixed"`

	Capabilities []CapabilityReport `json:"capabilities" yaml:"capabilities"`
	Background   *GroupReport       `json:"background,omitempty" yaml:"background,omitempty"`
	Usage        []AccessReport     `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// CapabilityReport describes one capability's grant state.
type CapabilityReport struct {
	Name      string `json:"name" yaml:"name"`
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`
	Granted   bool   `json:"granted" yaml:"granted"`
	Allowed   bool   `json:"allowed" yaml:"allowed"`
	Flags     string `json:"flags" yaml:"flags"`
}

// AccessReport describes one recorded access to a group member.
type AccessReport struct {
	Capability string          `json:"capability" yaml:"capability"`
	Operation  string          `json:"operation,omitempty" yaml:"operation,omitempty"`
	Mode       values.GateMode `json:"mode" yaml:"mode"`
	Time       time.Time       `json:"time" yaml:"time"`
	Duration   time.Duration   `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// MutationReport describes the outcome of a grant or revoke call.
type MutationReport struct {
	Group     string `json:"group" yaml:"group"`
	Package   string `json:"package" yaml:"package"`
	Applied   bool   `json:"applied" yaml:"applied"`
	Granted   bool   `json:"granted" yaml:"granted"`
	Confirmed bool   `json:"confirmed" yaml:"confirmed"`
}

// NewGroupReport builds a report from an assembled group, following the
// background sibling one level deep.
func NewGroupReport(g *capabilities.CapabilityGroup) *GroupReport {
	if g == nil {
		return nil
	}

	r := &GroupReport{
		Group:           g.Name(),
		Label:           g.Label(),
		Description:     g.Description(),
		Authority:       g.Authority(),
		Package:         g.App().Package,
		UID:             g.App().UID,
		User:            g.User(),
		Model:           g.Model(),
		Batch:           g.Batch(),
		Granted:         g.AnyGranted(nil),
		GrantingAllowed: g.IsGrantingAllowed(),
		ReviewRequired:  g.IsReviewRequired(),
		UserSet:         g.IsUserSet(),
		UserFixed:       g.IsUserFixed(),
		SystemFixed:     g.IsSystemFixed(),
		PolicyFixed:     g.IsPolicyFixed(),
	}

	for _, c := range g.Capabilities() {
		r.Capabilities = append(r.Capabilities, CapabilityReport{
			Name:      c.Name(),
			Operation: c.Operation(),
			Granted:   c.IsGranted(),
			Allowed:   c.IsOperationAllowed(),
			Flags:     c.Flags().String(),
		})
	}

	for _, e := range g.AccessHistory() {
		r.Usage = append(r.Usage, AccessReport{
			Capability: e.Capability,
			Operation:  e.Operation,
			Mode:       e.Mode,
			Time:       e.Time,
			Duration:   e.Duration,
		})
	}

	r.Background = NewGroupReport(g.Background())
	return r
}
