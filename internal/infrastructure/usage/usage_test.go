package usage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

func Test_MemoryHistory_RecordAndRetrieve(t *testing.T) {
	t.Parallel()

	history := NewMemoryHistory()
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "location", capabilities.AccessEvent{
		ID:         "evt-1",
		Capability: "location.precise",
		Operation:  "op.fine_location",
		Mode:       values.GateModeAllowed,
		Time:       base,
		Duration:   3 * time.Second,
	}))
	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "location", capabilities.AccessEvent{
		ID:         "evt-2",
		Capability: "location.background",
		Mode:       values.GateModeIgnored,
		Time:       base.Add(time.Minute),
	}))

	events, err := history.EventsForGroup(ctx, "com.example.app", 20001, "location")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "location.precise", events[0].Capability)
	assert.Equal(t, 3*time.Second, events[0].Duration)
	assert.Equal(t, "evt-2", events[1].ID)
}

func Test_MemoryHistory_GeneratesEventIDs(t *testing.T) {
	t.Parallel()

	history := NewMemoryHistory()
	ctx := context.Background()

	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "camera", capabilities.AccessEvent{
		Capability: "camera.capture",
		Mode:       values.GateModeAllowed,
		Time:       time.Now(),
	}))

	events, err := history.EventsForGroup(ctx, "com.example.app", 20001, "camera")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
}

func Test_MemoryHistory_IsolatesByPackageAndUID(t *testing.T) {
	t.Parallel()

	history := NewMemoryHistory()
	ctx := context.Background()

	event := capabilities.AccessEvent{
		ID:         "evt-1",
		Capability: "contacts.read",
		Mode:       values.GateModeAllowed,
		Time:       time.Now(),
	}
	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "contacts", event))

	other, err := history.EventsForGroup(ctx, "com.example.app", 20002, "contacts")
	require.NoError(t, err)
	assert.Empty(t, other)

	other, err = history.EventsForGroup(ctx, "com.other.app", 20001, "contacts")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func Test_SQLiteHistory_RoundTrip(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "usage", "events.db")
	history, err := NewSQLiteHistory(dbPath)
	require.NoError(t, err)
	defer history.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "location", capabilities.AccessEvent{
		ID:         "evt-old",
		Capability: "location.precise",
		Operation:  "op.fine_location",
		Mode:       values.GateModeAllowed,
		Time:       base,
		Duration:   1500 * time.Millisecond,
	}))
	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "location", capabilities.AccessEvent{
		ID:         "evt-new",
		Capability: "location.precise",
		Operation:  "op.fine_location",
		Mode:       values.GateModeForeground,
		Time:       base.Add(time.Hour),
	}))

	events, err := history.EventsForGroup(ctx, "com.example.app", 20001, "location")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "evt-new", events[0].ID)
	assert.Equal(t, values.GateModeForeground, events[0].Mode)
	assert.Equal(t, "evt-old", events[1].ID)
	assert.Equal(t, values.GateModeAllowed, events[1].Mode)
	assert.Equal(t, base, events[1].Time)
	assert.Equal(t, 1500*time.Millisecond, events[1].Duration)
}

func Test_SQLiteHistory_GeneratesEventIDs(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "events.db")
	history, err := NewSQLiteHistory(dbPath)
	require.NoError(t, err)
	defer history.Close()

	ctx := context.Background()
	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "camera", capabilities.AccessEvent{
		Capability: "camera.capture",
		Mode:       values.GateModeAllowed,
		Time:       time.Now(),
	}))

	events, err := history.EventsForGroup(ctx, "com.example.app", 20001, "camera")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
}

func Test_SQLiteHistory_SurvivesReopen(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	history, err := NewSQLiteHistory(dbPath)
	require.NoError(t, err)
	require.NoError(t, history.Record(ctx, "com.example.app", 20001, "storage", capabilities.AccessEvent{
		ID:         "evt-1",
		Capability: "storage.read",
		Mode:       values.GateModeAllowed,
		Time:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	require.NoError(t, history.Close())

	reopened, err := NewSQLiteHistory(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.EventsForGroup(ctx, "com.example.app", 20001, "storage")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
}
