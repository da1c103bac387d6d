package state

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS awareness_frames (
	frame_id      TEXT PRIMARY KEY,
	step          INTEGER NOT NULL,
	axes_json     TEXT NOT NULL,
	summaries_json TEXT NOT NULL,
	meta_json     TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS frame_vectors (
	frame_id      TEXT NOT NULL,
	axis_name     TEXT NOT NULL,
	dim           INTEGER NOT NULL,
	vector        BLOB NOT NULL,
	PRIMARY KEY (frame_id, axis_name),
	FOREIGN KEY (frame_id) REFERENCES awareness_frames(frame_id)
);
`

// #endregion schema

// #region timestamps
// createdLayout is fixed width so created_at sorts correctly as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion timestamps

// #region store-struct
// FrameStore persists awareness frames in SQLite.
type FrameStore struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewFrameStore opens a SQLite database and runs migrations.
func NewFrameStore(dbPath string) (*FrameStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	return NewFrameStoreWithDB(db)
}

// NewFrameStoreWithDB runs migrations on an already-open database.
func NewFrameStoreWithDB(db *sql.DB) (*FrameStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &FrameStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *FrameStore) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region save
// Save writes a frame and its vectors in one transaction and returns the new frame ID.
func (s *FrameStore) Save(f Frame) (string, error) {
	id := uuid.New().String()

	axesJSON, err := json.Marshal(f.Axes)
	if err != nil {
		return "", fmt.Errorf("marshal axes: %w", err)
	}
	sumJSON, err := json.Marshal(f.Summaries)
	if err != nil {
		return "", fmt.Errorf("marshal summaries: %w", err)
	}
	var metaPtr interface{}
	if len(f.Meta) > 0 {
		metaJSON, err := json.Marshal(f.Meta)
		if err != nil {
			return "", fmt.Errorf("marshal meta: %w", err)
		}
		metaPtr = string(metaJSON)
	}
	created := f.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO awareness_frames (frame_id, step, axes_json, summaries_json, meta_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, f.Step, string(axesJSON), string(sumJSON), metaPtr, created.UTC().Format(createdLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert frame: %w", err)
	}

	for _, name := range f.Axes {
		vec := f.Vectors[name]
		_, err = tx.Exec(
			`INSERT INTO frame_vectors (frame_id, axis_name, dim, vector) VALUES (?, ?, ?, ?)`,
			id, name, len(vec), encodeVector(vec),
		)
		if err != nil {
			return "", fmt.Errorf("insert vector %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// #endregion save

// #region get
// Get retrieves a frame by ID.
func (s *FrameStore) Get(id string) (Frame, error) {
	var f Frame
	var axesJSON, sumJSON, createdStr string
	var metaJSON sql.NullString

	err := s.db.QueryRow(
		`SELECT frame_id, step, axes_json, summaries_json, meta_json, created_at
		 FROM awareness_frames WHERE frame_id = ?`, id,
	).Scan(&f.ID, &f.Step, &axesJSON, &sumJSON, &metaJSON, &createdStr)
	if err != nil {
		return Frame{}, fmt.Errorf("get frame %s: %w", id, err)
	}
	if err := decodeFrame(&f, axesJSON, sumJSON, metaJSON, createdStr); err != nil {
		return Frame{}, err
	}
	if err := s.loadVectors(&f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// #endregion get

// #region list
// List returns the most recent frames, newest first.
func (s *FrameStore) List(limit int) ([]Frame, error) {
	rows, err := s.db.Query(
		`SELECT frame_id, step, axes_json, summaries_json, meta_json, created_at
		 FROM awareness_frames ORDER BY created_at DESC, step DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var frames []Frame
	for rows.Next() {
		var f Frame
		var axesJSON, sumJSON, createdStr string
		var metaJSON sql.NullString
		if err := rows.Scan(&f.ID, &f.Step, &axesJSON, &sumJSON, &metaJSON, &createdStr); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := decodeFrame(&f, axesJSON, sumJSON, metaJSON, createdStr); err != nil {
			rows.Close()
			return nil, err
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range frames {
		if err := s.loadVectors(&frames[i]); err != nil {
			return nil, err
		}
	}
	return frames, nil
}

// #endregion list

// #region helpers
func decodeFrame(f *Frame, axesJSON, sumJSON string, metaJSON sql.NullString, createdStr string) error {
	if err := json.Unmarshal([]byte(axesJSON), &f.Axes); err != nil {
		return fmt.Errorf("unmarshal axes: %w", err)
	}
	if err := json.Unmarshal([]byte(sumJSON), &f.Summaries); err != nil {
		return fmt.Errorf("unmarshal summaries: %w", err)
	}
	f.Meta = map[string]any{}
	if metaJSON.Valid {
		if err := json.Unmarshal([]byte(metaJSON.String), &f.Meta); err != nil {
			return fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	ts, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	f.Timestamp = ts
	return nil
}

func (s *FrameStore) loadVectors(f *Frame) error {
	rows, err := s.db.Query(
		`SELECT axis_name, dim, vector FROM frame_vectors WHERE frame_id = ?`, f.ID,
	)
	if err != nil {
		return fmt.Errorf("load vectors %s: %w", f.ID, err)
	}
	defer rows.Close()

	f.Vectors = make(map[string][]float64, len(f.Axes))
	for rows.Next() {
		var name string
		var dim int
		var blob []byte
		if err := rows.Scan(&name, &dim, &blob); err != nil {
			return fmt.Errorf("scan vector: %w", err)
		}
		f.Vectors[name] = decodeVector(blob, dim)
	}
	return rows.Err()
}

// #endregion helpers

// #region vector-encoding
func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// decodeVector always returns dim values; short blobs are zero-padded.
func decodeVector(b []byte, dim int) []float64 {
	v := make([]float64, dim)
	for i := range v {
		if i*8+8 <= len(b) {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
	}
	return v
}

// #endregion vector-encoding
