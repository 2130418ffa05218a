package capabilities

import "strings"

// Flags is the per-capability flag bitset persisted alongside grant state.
type Flags uint16

const (
	// FlagUserSet records that the user made an explicit choice
	FlagUserSet Flags = 1 << iota
	// FlagUserFixed records that the user denied with "don't ask again"
	FlagUserFixed
	// FlagSystemFixed marks a capability the system forbids changing
	FlagSystemFixed
	// FlagPolicyFixed marks a capability locked by device policy
	FlagPolicyFixed
	// FlagReviewRequired marks a legacy grant the user still has to review
	FlagReviewRequired
	// FlagRevokeOnUpgrade marks a legacy grant that must be dropped once
	// the app moves to the runtime grant model
	FlagRevokeOnUpgrade
	// FlagGrantedByDefault marks a grant applied by the platform installer
	FlagGrantedByDefault
)

// CommitFlagsMask covers the flags written back to the store on commit.
// SystemFixed and GrantedByDefault are owned by the platform and never
// written by grant management.
const CommitFlagsMask = FlagUserSet | FlagUserFixed | FlagRevokeOnUpgrade |
	FlagPolicyFixed | FlagReviewRequired

// Has returns true if all bits of flag are set
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// With returns a copy with the given bits set
func (f Flags) With(flag Flags) Flags {
	return f | flag
}

// Without returns a copy with the given bits cleared
func (f Flags) Without(flag Flags) Flags {
	return f &^ flag
}

// Apply overlays the masked bits of value onto f, leaving other bits alone
func (f Flags) Apply(mask, value Flags) Flags {
	return (f &^ mask) | (value & mask)
}

func (f Flags) String() string {
	names := []struct {
		flag Flags
		name string
	}{
		{FlagUserSet, "user-set"},
		{FlagUserFixed, "user-fixed"},
		{FlagSystemFixed, "system-fixed"},
		{FlagPolicyFixed, "policy-fixed"},
		{FlagReviewRequired, "review-required"},
		{FlagRevokeOnUpgrade, "revoke-on-upgrade"},
		{FlagGrantedByDefault, "granted-by-default"},
	}

	var set []string
	for _, n := range names {
		if f.Has(n.flag) {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ",")
}
