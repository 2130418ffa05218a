package dto

import (
	"time"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// MutationRequest encapsulates the inputs of a grant or revoke use case.
type MutationRequest struct {
	Package      string
	Group        string
	Capabilities []string // empty means every member
	UserFixed    bool
	AssumeYes    bool
}

// AccessRecordRequest describes one capability access to ingest into the
// usage history.
type AccessRecordRequest struct {
	Package    string
	Capability string
	Mode       values.GateMode
	Time       time.Time // zero means now
	Duration   time.Duration
}
