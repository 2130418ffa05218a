package values

import (
	"database/sql/driver"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// AppModel represents how an application participates in capability grants.
type AppModel string

const (
	// AppModelModern indicates the app targets the runtime grant model and
	// receives explicit grant/revoke prompting
	AppModelModern AppModel = "modern-runtime"
	// AppModelLegacy indicates the app predates the runtime grant model;
	// access is controlled solely by toggling operation gates
	AppModelLegacy AppModel = "legacy-gated"
)

// runtimeGrantVersion is the first platform version with runtime grants.
var runtimeGrantVersion = semver.MustParse("6.0.0")

// AppModelForTarget derives the grant model from the platform version an
// application declares as its target.
func AppModelForTarget(target string) (AppModel, error) {
	v, err := semver.NewVersion(target)
	if err != nil {
		return "", fmt.Errorf("invalid target platform version %q: %w", target, err)
	}
	if v.LessThan(runtimeGrantVersion) {
		return AppModelLegacy, nil
	}
	return AppModelModern, nil
}

// SupportsRuntime returns true if the app takes part in runtime grants
func (m AppModel) SupportsRuntime() bool {
	return m == AppModelModern
}

// Validate returns an error if the model value is invalid
func (m AppModel) Validate() error {
	switch m {
	case AppModelModern, AppModelLegacy:
		return nil
	default:
		return fmt.Errorf("invalid app model: %s", m)
	}
}

// Value implements driver.Valuer for database/sql
func (m AppModel) Value() (driver.Value, error) {
	return string(m), nil
}

// Scan implements sql.Scanner for database/sql
func (m *AppModel) Scan(value interface{}) error {
	if value == nil {
		*m = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		model := AppModel(v)
		if err := model.Validate(); err != nil {
			return err
		}
		*m = model
		return nil
	case []byte:
		model := AppModel(v)
		if err := model.Validate(); err != nil {
			return err
		}
		*m = model
		return nil
	default:
		return fmt.Errorf("cannot scan %T into AppModel", value)
	}
}
