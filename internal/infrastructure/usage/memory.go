// Package usage stores and serves capability access history.
package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// Recorder accepts access events for later retrieval.
type Recorder interface {
	Record(ctx context.Context, pkg string, uid int, group string, event capabilities.AccessEvent) error
}

type historyKey struct {
	pkg   string
	uid   int
	group string
}

// MemoryHistory keeps access events in memory.
type MemoryHistory struct {
	mu     sync.RWMutex
	events map[historyKey][]capabilities.AccessEvent
}

var (
	_ capabilities.UsageHistoryProvider = (*MemoryHistory)(nil)
	_ Recorder                          = (*MemoryHistory)(nil)
)

// NewMemoryHistory creates an empty in-memory history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{events: make(map[historyKey][]capabilities.AccessEvent)}
}

// Record stores one access event. An empty event ID gets a generated one.
func (h *MemoryHistory) Record(_ context.Context, pkg string, uid int, group string, event capabilities.AccessEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	key := historyKey{pkg, uid, group}
	h.mu.Lock()
	h.events[key] = append(h.events[key], event)
	h.mu.Unlock()
	return nil
}

// EventsForGroup returns the recorded events of one (package, uid, group).
func (h *MemoryHistory) EventsForGroup(_ context.Context, pkg string, uid int, group string) ([]capabilities.AccessEvent, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stored := h.events[historyKey{pkg, uid, group}]
	out := make([]capabilities.AccessEvent, len(stored))
	copy(out, stored)
	return out, nil
}
