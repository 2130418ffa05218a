package values

import "fmt"

// Protection classifies how a capability may be obtained.
type Protection string

const (
	// ProtectionConfirmable requires explicit user confirmation; only
	// confirmable capabilities are subject to grant management
	ProtectionConfirmable Protection = "confirmable"
	// ProtectionStandard is granted implicitly at install time
	ProtectionStandard Protection = "standard"
	// ProtectionPrivileged is reserved for platform-signed packages
	ProtectionPrivileged Protection = "privileged"
)

// IsConfirmable returns true if the capability needs user confirmation
func (p Protection) IsConfirmable() bool {
	return p == ProtectionConfirmable
}

// Validate returns an error if the protection value is invalid
func (p Protection) Validate() error {
	switch p {
	case ProtectionConfirmable, ProtectionStandard, ProtectionPrivileged:
		return nil
	default:
		return fmt.Errorf("invalid protection class: %s", p)
	}
}
