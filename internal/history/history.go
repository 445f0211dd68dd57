package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearth-home/hearth-core/internal/hub"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// writeTimeout bounds sink inserts so a stuck database cannot stall
	// hub goroutines.
	writeTimeout = 5 * time.Second
)

// schema is created on open. Timestamps are stored as RFC 3339 text so
// ordering and pruning work with plain string comparison.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	subject    TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
`

// Logger abstracts structured logging so the package stays decoupled
// from the logging implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entry is one persisted hub event.
type Entry struct {
	ID        int64          `json:"id"`
	EventID   string         `json:"event_id"`
	Kind      string         `json:"kind"`
	Subject   string         `json:"subject"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Log stores hub events in SQLite and serves them back newest first.
type Log struct {
	db  *sql.DB
	log Logger
}

// New prepares the event log, creating its schema if needed.
//
// Parameters:
//   - db: Open SQLite connection used for all queries
//   - logger: structured logger, or nil for no logging
//
// Returns:
//   - *Log: ready for use
//   - error: if the schema cannot be created
func New(db *sql.DB, logger Logger) (*Log, error) {
	if db == nil {
		return nil, fmt.Errorf("history: database is required")
	}
	if logger == nil {
		logger = noopLogger{}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &Log{db: db, log: logger}, nil
}

// RecordEvent satisfies hub.EventSink. Failures are logged and dropped;
// the hub never sees a history error.
func (l *Log) RecordEvent(e hub.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := l.Record(ctx, e); err != nil {
		l.log.Error("recording event failed",
			"event_id", e.ID,
			"kind", string(e.Kind),
			"error", err)
	}
}

// Record inserts one event.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - e: Event to persist
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (l *Log) Record(ctx context.Context, e hub.Event) error {
	detail := e.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshalling detail: %w", err)
	}

	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err = l.db.ExecContext(ctx,
		"INSERT INTO events (event_id, kind, subject, detail, created_at) VALUES (?, ?, ?, ?, ?)",
		e.ID,
		string(e.Kind),
		e.Subject,
		string(detailJSON),
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// Recent returns the latest events, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Entry: entries ordered newest first
//   - error: nil on success, otherwise the underlying query error
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, event_id, kind, subject, detail, created_at
		 FROM events
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var detailJSON string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.Kind, &entry.Subject, &detailJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if err := json.Unmarshal([]byte(detailJSON), &entry.Detail); err != nil {
			return nil, fmt.Errorf("unmarshalling detail: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp: %w", err)
		}
		entry.CreatedAt = ts

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return entries, nil
}

// Prune deletes events older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Retention window (entries older than now-olderThan go)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (l *Log) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := l.db.ExecContext(ctx,
		"DELETE FROM events WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}
