package usage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
	"github.com/permgate-dev/permgate/internal/domain/values"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS access_events (
    id          TEXT PRIMARY KEY,
    package     TEXT NOT NULL,
    uid         INTEGER NOT NULL,
    group_name  TEXT NOT NULL,
    capability  TEXT NOT NULL,
    operation   TEXT NOT NULL DEFAULT '',
    mode        TEXT NOT NULL,
    occurred_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_access_events_lookup ON access_events(package, uid, group_name, occurred_at);
`

// SQLiteHistory stores access events in a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

var (
	_ capabilities.UsageHistoryProvider = (*SQLiteHistory)(nil)
	_ Recorder                          = (*SQLiteHistory)(nil)
)

// NewSQLiteHistory opens (or creates) the database at dbPath and ensures
// the schema exists.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create usage db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	// WAL keeps concurrent readers off the writer's back.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create usage schema: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// Record stores one access event. An empty event ID gets a generated one.
func (h *SQLiteHistory) Record(ctx context.Context, pkg string, uid int, group string, event capabilities.AccessEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO access_events
			(id, package, uid, group_name, capability, operation, mode, occurred_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		pkg,
		uid,
		group,
		event.Capability,
		event.Operation,
		event.Mode,
		event.Time.UTC().Format(time.RFC3339Nano),
		event.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record access event: %w", err)
	}
	return nil
}

// EventsForGroup returns the recorded events of one (package, uid, group),
// most recent first.
func (h *SQLiteHistory) EventsForGroup(ctx context.Context, pkg string, uid int, group string) ([]capabilities.AccessEvent, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, capability, operation, mode, occurred_at, duration_ms
		FROM access_events
		WHERE package = ? AND uid = ? AND group_name = ?
		ORDER BY occurred_at DESC`,
		pkg, uid, group,
	)
	if err != nil {
		return nil, fmt.Errorf("query access events: %w", err)
	}
	defer rows.Close()

	var out []capabilities.AccessEvent
	for rows.Next() {
		var (
			event      capabilities.AccessEvent
			mode       values.GateMode
			occurredAt string
			durationMS int64
		)
		if err := rows.Scan(&event.ID, &event.Capability, &event.Operation, &mode, &occurredAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan access event: %w", err)
		}

		event.Mode = mode
		event.Time, err = time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse access event time: %w", err)
		}
		event.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access events: %w", err)
	}
	return out, nil
}
