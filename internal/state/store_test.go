package state

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/awareness-core/internal/axis"
	_ "modernc.org/sqlite"
)

func tempStore(t *testing.T) *FrameStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFrameStore(filepath.Join(dir, "frames.db"))
	if err != nil {
		t.Fatalf("NewFrameStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// memStore opens an in-memory SQLite pinned to one connection so every query
// sees the same database.
func memStore(t *testing.T) (*FrameStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	s, err := NewFrameStoreWithDB(db)
	if err != nil {
		t.Fatalf("NewFrameStoreWithDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return s, db
}

func sampleFrame(t *testing.T, text string) Frame {
	t.Helper()
	a := axis.NewTextAxis("text", 12)
	b := axis.NewTextAxis("aux", 3)
	s, err := New(4, a, b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.UpdateAxis("text", axis.Features{axis.KeyExternalText: text}); err != nil {
		t.Fatalf("UpdateAxis: %v", err)
	}
	return s.ToFrame(map[string]any{"mode": "external"})
}

func TestSaveAndGet(t *testing.T) {
	s := tempStore(t)
	f := sampleFrame(t, "persist me")

	id, err := s.Save(f)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty frame ID")
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != id {
		t.Fatalf("expected id %s, got %s", id, got.ID)
	}
	if got.Step != f.Step {
		t.Fatalf("expected step %d, got %d", f.Step, got.Step)
	}
	if len(got.Axes) != 2 || got.Axes[0] != "text" || got.Axes[1] != "aux" {
		t.Fatalf("axis order not preserved: %v", got.Axes)
	}
	for _, name := range f.Axes {
		want := f.Vectors[name]
		have := got.Vectors[name]
		if len(have) != len(want) {
			t.Fatalf("%s: expected %d values, got %d", name, len(want), len(have))
		}
		for i := range want {
			if want[i] != have[i] {
				t.Fatalf("%s[%d]: %f != %f", name, i, want[i], have[i])
			}
		}
	}
	if got.Meta["mode"] != "external" {
		t.Fatalf("expected meta mode external, got %v", got.Meta["mode"])
	}
	if got.Summaries["text"].Extras[axis.KeyExternalText] != "persist me" {
		t.Fatalf("summary extras not persisted: %v", got.Summaries["text"].Extras)
	}
}

func TestListNewestFirst(t *testing.T) {
	s, _ := memStore(t)

	first := sampleFrame(t, "one")
	first.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := sampleFrame(t, "two")
	second.Timestamp = first.Timestamp.Add(time.Second)

	id1, err := s.Save(first)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	id2, err := s.Save(second)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	frames, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].ID != id2 || frames[1].ID != id1 {
		t.Fatalf("expected newest first, got %s then %s", frames[0].ID, frames[1].ID)
	}
	if len(frames[0].Vectors["text"]) != 12 {
		t.Fatalf("expected vectors loaded, got %v", frames[0].Vectors)
	}
}

func TestListOrdersWithinSameSecond(t *testing.T) {
	s, _ := memStore(t)

	older := sampleFrame(t, "older")
	older.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 100_000_000, time.UTC)
	newer := sampleFrame(t, "newer")
	newer.Timestamp = older.Timestamp.Add(20 * time.Millisecond)

	idOld, err := s.Save(older)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	idNew, err := s.Save(newer)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	frames, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(frames) != 2 || frames[0].ID != idNew || frames[1].ID != idOld {
		t.Fatalf("expected %s then %s, got %+v", idNew, idOld, frames)
	}
	if !frames[0].Timestamp.Equal(newer.Timestamp) || !frames[1].Timestamp.Equal(older.Timestamp) {
		t.Fatalf("timestamps not preserved: %v, %v", frames[0].Timestamp, frames[1].Timestamp)
	}

	one, err := s.List(1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(one) != 1 || one[0].ID != idNew {
		t.Fatalf("expected only the newest frame, got %+v", one)
	}
}

func TestGetBadCreatedAt(t *testing.T) {
	s, db := memStore(t)
	db.Exec(
		`INSERT INTO awareness_frames (frame_id, step, axes_json, summaries_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`, "bad-time", 1, `["text"]`, "{}", "yesterday",
	)
	if _, err := s.Get("bad-time"); err == nil {
		t.Fatal("expected parse error for bad created_at")
	}
	if _, err := s.List(10); err == nil {
		t.Fatal("expected parse error listing a bad created_at")
	}
}

func TestSaveEmptyMeta(t *testing.T) {
	s, db := memStore(t)
	f := sampleFrame(t, "no meta")
	f.Meta = nil

	id, err := s.Save(f)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	var meta sql.NullString
	db.QueryRow("SELECT meta_json FROM awareness_frames WHERE frame_id = ?", id).Scan(&meta)
	if meta.Valid {
		t.Fatal("expected NULL meta_json for empty meta")
	}
	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Meta == nil || len(got.Meta) != 0 {
		t.Fatalf("expected empty meta map, got %v", got.Meta)
	}
}

func TestGetNotFound(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get("nonexistent-id"); err == nil {
		t.Fatal("expected error for nonexistent frame")
	}
}

func TestGetBadSummaryJSON(t *testing.T) {
	s, db := memStore(t)
	db.Exec(
		`INSERT INTO awareness_frames (frame_id, step, axes_json, summaries_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`, "bad", 1, `["text"]`, "not-json", time.Now().UTC().Format(time.RFC3339Nano),
	)
	if _, err := s.Get("bad"); err == nil {
		t.Fatal("expected unmarshal error for bad summaries JSON")
	}
}

func TestListBadAxesJSON(t *testing.T) {
	s, db := memStore(t)
	db.Exec(
		`INSERT INTO awareness_frames (frame_id, step, axes_json, summaries_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`, "bad-list", 1, "%%%", "{}", time.Now().UTC().Format(time.RFC3339Nano),
	)
	if _, err := s.List(10); err == nil {
		t.Fatal("expected unmarshal error for bad axes JSON")
	}
}

func TestSaveVectorsTableMissing(t *testing.T) {
	s, db := memStore(t)
	db.Exec("DROP TABLE frame_vectors")

	if _, err := s.Save(sampleFrame(t, "x")); err == nil {
		t.Fatal("expected error when frame_vectors table is missing")
	}
	var count int
	db.QueryRow("SELECT COUNT(*) FROM awareness_frames").Scan(&count)
	if count != 0 {
		t.Fatalf("expected rollback to leave 0 frames, got %d", count)
	}
}

func TestSaveOnClosedDB(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFrameStore(filepath.Join(dir, "frames.db"))
	if err != nil {
		t.Fatalf("NewFrameStore: %v", err)
	}
	s.Close()

	if _, err := s.Save(sampleFrame(t, "closed")); err == nil {
		t.Fatal("expected error on closed DB")
	}
	if _, err := s.List(5); err == nil {
		t.Fatal("expected error on closed DB")
	}
}

func TestNewFrameStoreInvalidPath(t *testing.T) {
	_, err := NewFrameStore(filepath.Join(string(os.PathSeparator), "nonexistent", "deep", "path", "frames.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestVectorRoundTrip(t *testing.T) {
	original := []float64{-1, -0.5, 0, 0.25, 1, math.SmallestNonzeroFloat64}
	decoded := decodeVector(encodeVector(original), len(original))
	for i := range original {
		if original[i] != decoded[i] {
			t.Fatalf("mismatch at %d: %f != %f", i, original[i], decoded[i])
		}
	}
}

func TestDecodeVectorPadsShortBlob(t *testing.T) {
	decoded := decodeVector(encodeVector([]float64{0.5}), 3)
	if len(decoded) != 3 || decoded[0] != 0.5 || decoded[1] != 0 || decoded[2] != 0 {
		t.Fatalf("expected [0.5 0 0], got %v", decoded)
	}
}
