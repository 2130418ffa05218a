package state

import (
	"context"
	"sync"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// MemoryStore keeps grant state in memory. It backs tests and the
// ephemeral configuration.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[entryKey]GrantRecord
}

var _ capabilities.PersistentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryKey]GrantRecord)}
}

// SetGranted records the grant bit of one capability.
func (s *MemoryStore) SetGranted(_ context.Context, pkg, capability, user string, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{pkg, user, capability}
	rec := s.entries[key]
	rec.Package, rec.User, rec.Capability = pkg, user, capability
	rec.Granted = granted
	s.entries[key] = rec
	return nil
}

// SetFlags overlays the masked flag bits of one capability.
func (s *MemoryStore) SetFlags(_ context.Context, capability, pkg, user string, mask, value capabilities.Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{pkg, user, capability}
	rec := s.entries[key]
	rec.Package, rec.User, rec.Capability = pkg, user, capability
	rec.Flags = uint16(capabilities.Flags(rec.Flags).Apply(mask, value))
	s.entries[key] = rec
	return nil
}

// Granted returns the recorded grant bit of one capability.
func (s *MemoryStore) Granted(pkg, capability, user string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[entryKey{pkg, user, capability}].Granted
}

// Lookup returns the record of one capability and whether it exists.
func (s *MemoryStore) Lookup(pkg, capability, user string) (GrantRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[entryKey{pkg, user, capability}]
	return rec, ok
}

// FlagsFor returns the recorded flag bitset of one capability.
func (s *MemoryStore) FlagsFor(_ context.Context, pkg, capability, user string) (capabilities.Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capabilities.Flags(s.entries[entryKey{pkg, user, capability}].Flags), nil
}
