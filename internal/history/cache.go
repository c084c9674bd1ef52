// Package history keeps a local copy of recently seen call records so the
// history view renders immediately on launch, before (or without) the
// backend answering. The cache is advisory: failures degrade to an empty
// page, never to a user-facing error.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dialdesk/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id            TEXT PRIMARY KEY,
	phone_number  TEXT NOT NULL,
	status        TEXT NOT NULL,
	ai_persona    TEXT NOT NULL DEFAULT '',
	duration      INTEGER NOT NULL DEFAULT 0,
	recording_url TEXT NOT NULL DEFAULT '',
	started_at    TEXT,
	ended_at      TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at DESC);
`

// Cache is a SQLite-backed mirror of the backend's call list. All methods
// tolerate a nil receiver so callers need no cache-enabled branch.
type Cache struct {
	db *sql.DB
}

// Open creates (or reuses) the cache database. An empty path disables
// caching and returns a nil cache.
func Open(path string) (*Cache, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", trimmed, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache %s: %w", trimmed, err)
	}
	return &Cache{db: db}, nil
}

// Upsert stores or refreshes the given call records.
func (c *Cache) Upsert(calls []domain.Call) error {
	if c == nil || len(calls) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO calls (id, phone_number, status, ai_persona, duration, recording_url, started_at, ended_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phone_number  = excluded.phone_number,
			status        = excluded.status,
			ai_persona    = excluded.ai_persona,
			duration      = excluded.duration,
			recording_url = excluded.recording_url,
			started_at    = excluded.started_at,
			ended_at      = excluded.ended_at,
			updated_at    = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, call := range calls {
		if call.ID == "" {
			continue
		}
		_, err := stmt.Exec(
			call.ID,
			call.PhoneNumber,
			string(call.Status),
			call.AIPersona,
			call.DurationSeconds,
			call.RecordingURL,
			encodeTime(call.StartedAt),
			encodeTime(call.EndedAt),
			call.CreatedAt.UTC().Format(time.RFC3339Nano),
			call.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upsert call %s: %w", call.ID, err)
		}
	}

	return tx.Commit()
}

// Recent returns the most recently created calls, newest first.
func (c *Cache) Recent(limit int) ([]domain.Call, error) {
	if c == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.Query(`
		SELECT id, phone_number, status, ai_persona, duration, recording_url, started_at, ended_at, created_at, updated_at
		FROM calls ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent calls: %w", err)
	}
	defer rows.Close()

	var calls []domain.Call
	for rows.Next() {
		var call domain.Call
		var status, created, updated string
		var started, ended sql.NullString
		err := rows.Scan(
			&call.ID, &call.PhoneNumber, &status, &call.AIPersona,
			&call.DurationSeconds, &call.RecordingURL,
			&started, &ended, &created, &updated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		call.Status = domain.CallStatus(status)
		call.StartedAt = decodeTime(started)
		call.EndedAt = decodeTime(ended)
		call.CreatedAt = parseTime(created)
		call.UpdatedAt = parseTime(updated)
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func encodeTime(ts *time.Time) any {
	if ts == nil {
		return nil
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

func decodeTime(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil
	}
	return &ts
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
