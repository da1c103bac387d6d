package memory

import "time"

// #region event
// Event is one episodic memory record, serialized as a single JSON object.
type Event struct {
	Timestamp string         `json:"timestamp"` // ISO-8601, UTC
	Question  string         `json:"question"`
	Tool      string         `json:"tool"`
	Answer    string         `json:"answer"`
	Metadata  map[string]any `json:"metadata"`
}

// NewEvent stamps a record with the current UTC time.
func NewEvent(question, tool, answer string, metadata map[string]any) Event {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Question:  question,
		Tool:      tool,
		Answer:    answer,
		Metadata:  metadata,
	}
}

// #endregion event

// #region interfaces
// Sink is an append-only episodic log.
type Sink interface {
	Append(question, tool, answer string, metadata map[string]any) (Event, error)
}

// Reader reads an episodic log back in append order. Records that cannot be
// decoded are skipped.
type Reader interface {
	All() ([]Event, error)
	LoadRecent(limit int) ([]Event, error)
}

// Store is a sink that can also be read and closed.
type Store interface {
	Sink
	Reader
	Close() error
}

// #endregion interfaces

// #region helpers
func tail(events []Event, limit int) []Event {
	if limit <= 0 {
		return []Event{}
	}
	if len(events) > limit {
		return events[len(events)-limit:]
	}
	return events
}

// #endregion helpers
