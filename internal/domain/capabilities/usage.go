package capabilities

import (
	"sort"
	"time"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// AccessEvent is one recorded use of a capability by an application.
type AccessEvent struct {
	ID         string
	Capability string
	Operation  string
	Mode       values.GateMode
	Time       time.Time
	Duration   time.Duration
}

// sortEventsByRecency orders events most recent first.
func sortEventsByRecency(events []AccessEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.After(events[j].Time)
	})
}
