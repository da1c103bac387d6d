package memory

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// #region jsonl-struct
// JSONL stores events as newline-delimited JSON in a single file. Reads rescan
// the whole file.
type JSONL struct {
	path       string
	maxEvents  int
	logger     *zap.Logger
	createTemp func(dir, pattern string) (*os.File, error)
}

// NewJSONL creates the file (and its parent directory) if absent. maxEvents > 0
// caps the log at the newest maxEvents records.
func NewJSONL(path string, maxEvents int, logger *zap.Logger) (*JSONL, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create memory dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create memory file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close memory file: %w", err)
	}
	return &JSONL{
		path:      path,
		maxEvents:  maxEvents,
		logger:     logger.Named("memory"),
		createTemp: os.CreateTemp,
	}, nil
}

// Path returns the backing file.
func (m *JSONL) Path() string { return m.path }

// Close is a no-op; every operation opens and closes the file itself.
func (m *JSONL) Close() error { return nil }

// #endregion jsonl-struct

// #region append
// Append writes one event as a single line. Once the line is written the
// event counts as recorded: a failed compaction is logged and the file is left
// over the cap until the next append compacts it.
func (m *JSONL) Append(question, tool, answer string, metadata map[string]any) (Event, error) {
	ev := NewEvent(question, tool, answer, metadata)
	line, err := encodeLine(ev)
	if err != nil {
		return Event{}, fmt.Errorf("encode event: %w", err)
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Event{}, fmt.Errorf("open memory file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return Event{}, fmt.Errorf("write event: %w", err)
	}
	if err := f.Close(); err != nil {
		return Event{}, fmt.Errorf("close memory file: %w", err)
	}

	if m.maxEvents > 0 {
		if err := m.compact(); err != nil {
			m.logger.Warn("compaction failed", zap.String("path", m.path), zap.Error(err))
		}
	}
	return ev, nil
}

// #endregion append

// #region read
// All returns every readable event in append order.
func (m *JSONL) All() ([]Event, error) {
	recs, err := m.scan()
	if err != nil {
		return nil, err
	}
	events := make([]Event, len(recs))
	for i, r := range recs {
		events[i] = r.event
	}
	return events, nil
}

// LoadRecent returns up to limit of the newest readable events, oldest first.
func (m *JSONL) LoadRecent(limit int) ([]Event, error) {
	events, err := m.All()
	if err != nil {
		return nil, err
	}
	return tail(events, limit), nil
}

type record struct {
	event Event
	line  []byte
}

// scan decodes the file line by line, skipping lines that are not valid events.
func (m *JSONL) scan() ([]record, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()

	var recs []record
	r := bufio.NewReader(f)
	lineNo := 0
	for {
		raw, readErr := r.ReadBytes('\n')
		if len(raw) > 0 {
			lineNo++
			line := bytes.TrimSpace(raw)
			if len(line) > 0 {
				ev, err := decodeLine(line)
				if err != nil {
					m.logger.Debug("skipping malformed record",
						zap.String("path", m.path), zap.Int("line", lineNo), zap.Error(err))
				} else {
					recs = append(recs, record{event: ev, line: append(line, '\n')})
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read memory file: %w", readErr)
		}
	}
	return recs, nil
}

// #endregion read

// #region compact
// compact rewrites the file with only the newest maxEvents records.
func (m *JSONL) compact() error {
	recs, err := m.scan()
	if err != nil {
		return err
	}
	if len(recs) <= m.maxEvents {
		return nil
	}
	keep := recs[len(recs)-m.maxEvents:]

	tmp, err := m.createTemp(filepath.Dir(m.path), ".episodic-*.jsonl")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, r := range keep {
		if _, err := w.Write(r.line); err != nil {
			tmp.Close()
			return fmt.Errorf("write temp: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("replace memory file: %w", err)
	}
	m.logger.Debug("compacted episodic log",
		zap.Int("dropped", len(recs)-len(keep)), zap.Int("kept", len(keep)))
	return nil
}

// #endregion compact

// #region codec
func encodeLine(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var errMissingTimestamp = errors.New("missing timestamp")

func decodeLine(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, err
	}
	if ev.Timestamp == "" {
		return Event{}, errMissingTimestamp
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}
	return ev, nil
}

// #endregion codec
