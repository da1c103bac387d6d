package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS episodic_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id      TEXT NOT NULL UNIQUE,
	timestamp     TEXT NOT NULL,
	question      TEXT NOT NULL,
	tool          TEXT NOT NULL,
	answer        TEXT NOT NULL,
	metadata_json TEXT
);
`

// #endregion schema

// #region sqlite-struct
// SQLite stores events in an episodic_events table. Row order is append order.
type SQLite struct {
	db        *sql.DB
	maxEvents int
	logger    *zap.Logger
}

// NewSQLite opens (creating if needed) a database file and runs migrations.
func NewSQLite(path string, maxEvents int, logger *zap.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create memory dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	return NewSQLiteWithDB(db, maxEvents, logger)
}

// NewSQLiteWithDB runs migrations on an already-open database.
func NewSQLiteWithDB(db *sql.DB, maxEvents int, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db, maxEvents: maxEvents, logger: logger.Named("memory")}, nil
}

// Close closes the underlying database connection.
func (m *SQLite) Close() error {
	return m.db.Close()
}

// #endregion sqlite-struct

// #region append
// Append inserts one event and trims the table to maxEvents when capped.
func (m *SQLite) Append(question, tool, answer string, metadata map[string]any) (Event, error) {
	ev := NewEvent(question, tool, answer, metadata)
	metaJSON, err := json.Marshal(ev.Metadata)
	if err != nil {
		return Event{}, fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO episodic_events (event_id, timestamp, question, tool, answer, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), ev.Timestamp, ev.Question, ev.Tool, ev.Answer, string(metaJSON),
	)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}

	if m.maxEvents > 0 {
		_, err = tx.Exec(
			`DELETE FROM episodic_events WHERE id NOT IN (
				SELECT id FROM episodic_events ORDER BY id DESC LIMIT ?
			)`, m.maxEvents,
		)
		if err != nil {
			return Event{}, fmt.Errorf("trim events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

// #endregion append

// #region read
// All returns every readable event in append order.
func (m *SQLite) All() ([]Event, error) {
	return m.query(`SELECT id, timestamp, question, tool, answer, metadata_json
		FROM episodic_events ORDER BY id ASC`)
}

// LoadRecent returns up to limit of the newest readable events, oldest first.
func (m *SQLite) LoadRecent(limit int) ([]Event, error) {
	events, err := m.All()
	if err != nil {
		return nil, err
	}
	return tail(events, limit), nil
}

func (m *SQLite) query(q string, args ...any) ([]Event, error) {
	rows, err := m.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var id int64
		var ev Event
		var metaJSON sql.NullString
		if err := rows.Scan(&id, &ev.Timestamp, &ev.Question, &ev.Tool, &ev.Answer, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		ev.Metadata = map[string]any{}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &ev.Metadata); err != nil {
				m.logger.Debug("skipping malformed record", zap.Int64("id", id), zap.Error(err))
				continue
			}
			if ev.Metadata == nil {
				ev.Metadata = map[string]any{}
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// #endregion read
