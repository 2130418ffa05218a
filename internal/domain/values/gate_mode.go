package values

import (
	"database/sql/driver"
	"fmt"
)

// GateMode represents the enforcement mode of a low-level operation gate.
type GateMode string

const (
	// GateModeAllowed permits the operation unconditionally
	GateModeAllowed GateMode = "allowed"
	// GateModeForeground permits the operation only while the owning
	// application is attributed as foreground
	GateModeForeground GateMode = "foreground"
	// GateModeIgnored denies the operation at the resource level
	GateModeIgnored GateMode = "ignored"
	// GateModeDefault means no explicit mode was ever set for the gate
	GateModeDefault GateMode = "default"
)

// IsDefault returns true if no explicit mode has been set
func (m GateMode) IsDefault() bool {
	return m == GateModeDefault
}

// Permits returns true if the mode grants any access at all
func (m GateMode) Permits() bool {
	return m == GateModeAllowed || m == GateModeForeground
}

// Validate returns an error if the mode value is invalid
func (m GateMode) Validate() error {
	switch m {
	case GateModeAllowed, GateModeForeground, GateModeIgnored, GateModeDefault:
		return nil
	default:
		return fmt.Errorf("invalid gate mode: %s", m)
	}
}

// Value implements driver.Valuer for database/sql
func (m GateMode) Value() (driver.Value, error) {
	return string(m), nil
}

// Scan implements sql.Scanner for database/sql
func (m *GateMode) Scan(value interface{}) error {
	if value == nil {
		*m = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		mode := GateMode(v)
		if err := mode.Validate(); err != nil {
			return err
		}
		*m = mode
		return nil
	case []byte:
		mode := GateMode(v)
		if err := mode.Validate(); err != nil {
			return err
		}
		*m = mode
		return nil
	default:
		return fmt.Errorf("cannot scan %T into GateMode", value)
	}
}
