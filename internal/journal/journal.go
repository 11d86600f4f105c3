// Package journal provides a local SQLite record of coordinator lifecycle
// events. It implements the notifier contract, so it tees off the same
// event stream the observability collector sees.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maestro-sh/maestro/internal/notify"
)

// DefaultPath returns the project-local journal database location.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".maestro", "journal.db")
}

// Journal wraps an SQLite database holding the event log.
type Journal struct {
	conn *sql.DB
	path string
}

// Open opens the journal database at the given path, creating parent
// directories and the schema as needed. WAL mode is enabled for
// concurrent reads.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	j := &Journal{conn: conn, path: path}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
`
	if _, err := j.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

// Notify implements notify.Notifier. Write failures are logged and
// swallowed; a broken journal never affects engine state.
func (j *Journal) Notify(ctx context.Context, eventType string, payload notify.Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[journal] could not encode %s event: %v", eventType, err)
		return
	}

	_, err = j.conn.ExecContext(ctx,
		"INSERT INTO events (event_type, payload, created_at) VALUES (?, ?, ?)",
		eventType, string(body), time.Now().UTC())
	if err != nil {
		log.Printf("[journal] could not record %s event: %v", eventType, err)
	}
}

// Entry is one recorded lifecycle event.
type Entry struct {
	// ID is the journal row id.
	ID int64
	// EventType is the lifecycle event name.
	EventType string
	// Payload holds the event fields.
	Payload notify.Payload
	// CreatedAt is when the event was recorded.
	CreatedAt time.Time
}

// Summary renders a short human-readable line from the payload fields.
func (e Entry) Summary() string {
	var parts []string
	if title, ok := e.Payload["title"].(string); ok && title != "" {
		parts = append(parts, fmt.Sprintf("%q", title))
	} else if taskID, ok := e.Payload["task_id"].(string); ok && taskID != "" {
		parts = append(parts, "task "+taskID)
	}
	if agentID, ok := e.Payload["agent_id"].(string); ok && agentID != "" {
		parts = append(parts, "agent "+agentID)
	}
	if errMsg, ok := e.Payload["error"].(string); ok && errMsg != "" {
		parts = append(parts, "error: "+errMsg)
	}
	return strings.Join(parts, ", ")
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.conn.Query(
		"SELECT id, event_type, payload, created_at FROM events ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var body string
		if err := rows.Scan(&e.ID, &e.EventType, &body, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if err := json.Unmarshal([]byte(body), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode journal payload: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByType returns how many events of each type have been recorded.
func (j *Journal) CountByType() (map[string]int, error) {
	rows, err := j.conn.Query("SELECT event_type, COUNT(*) FROM events GROUP BY event_type")
	if err != nil {
		return nil, fmt.Errorf("query journal counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("scan journal count: %w", err)
		}
		counts[eventType] = n
	}
	return counts, rows.Err()
}

var _ notify.Notifier = (*Journal)(nil)
