package memory

// #region recorder
// Recorder keeps events in memory. Used for replays and tests.
type Recorder struct {
	events []Event
	err    error
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes every subsequent Append return err.
func (r *Recorder) FailWith(err error) {
	r.err = err
}

func (r *Recorder) Append(question, tool, answer string, metadata map[string]any) (Event, error) {
	if r.err != nil {
		return Event{}, r.err
	}
	ev := NewEvent(question, tool, answer, metadata)
	r.events = append(r.events, ev)
	return ev, nil
}

func (r *Recorder) All() ([]Event, error) {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out, nil
}

func (r *Recorder) LoadRecent(limit int) ([]Event, error) {
	all, _ := r.All()
	return tail(all, limit), nil
}

func (r *Recorder) Close() error { return nil }

// #endregion recorder
