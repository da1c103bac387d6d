package state

import (
	"fmt"
	"maps"
	"time"

	"github.com/danielpatrickdp/awareness-core/internal/axis"
)

// #region awareness-state
// AwarenessState is the registry of axes that together make up s(t).
// It is owned by a single loop and is not safe for concurrent use.
type AwarenessState struct {
	axes    map[string]axis.Axis
	order   []string
	step    int
	history *history
	now     func() time.Time
}

// New creates a state keeping the last historySize frames (0 disables history)
// and registers the given axes in order.
func New(historySize int, axes ...axis.Axis) (*AwarenessState, error) {
	s := &AwarenessState{
		axes:    make(map[string]axis.Axis),
		history: newHistory(historySize),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, a := range axes {
		if err := s.RegisterAxis(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// #endregion awareness-state

// #region register
// RegisterAxis adds an axis. A duplicate name leaves the existing axis in place.
func (s *AwarenessState) RegisterAxis(a axis.Axis) error {
	name := a.Name()
	if _, ok := s.axes[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateAxis)
	}
	s.axes[name] = a
	s.order = append(s.order, name)
	return nil
}

// Names returns the registered axis names in registration order.
func (s *AwarenessState) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Axis looks up a registered axis by name.
func (s *AwarenessState) Axis(name string) (axis.Axis, error) {
	a, ok := s.axes[name]
	if !ok {
		return nil, fmt.Errorf("axis %q: %w", name, ErrUnknownAxis)
	}
	return a, nil
}

// #endregion register

// #region reset-update
// Reset resets every registered axis.
func (s *AwarenessState) Reset() {
	for _, name := range s.order {
		s.axes[name].Reset()
	}
}

// UpdateAxis feeds features into the named axis.
func (s *AwarenessState) UpdateAxis(name string, features axis.Features) error {
	a, err := s.Axis(name)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	a.UpdateFromInput(features)
	return nil
}

// #endregion reset-update

// #region frames
// ToFrame exports the current vectors, advances the step counter and records
// the frame in history.
func (s *AwarenessState) ToFrame(meta map[string]any) Frame {
	s.step++
	f := s.build(s.step, meta)
	s.history.push(f)
	return f
}

// Snapshot builds a frame without touching the step counter or history.
func (s *AwarenessState) Snapshot(meta map[string]any) Frame {
	return s.build(s.step, meta)
}

// RecentFrames returns up to limit of the most recent frames, oldest first.
func (s *AwarenessState) RecentFrames(limit int) []Frame {
	return s.history.recent(limit)
}

// Step returns the number of frames exported so far.
func (s *AwarenessState) Step() int {
	return s.step
}

func (s *AwarenessState) build(step int, meta map[string]any) Frame {
	f := Frame{
		Timestamp: s.now(),
		Step:      step,
		Axes:      s.Names(),
		Vectors:   make(map[string][]float64, len(s.order)),
		Summaries: make(map[string]axis.Summary, len(s.order)),
		Meta:      map[string]any{},
	}
	for _, name := range s.order {
		a := s.axes[name]
		f.Vectors[name] = a.ToVector()
		f.Summaries[name] = copySummary(a.Summary())
	}
	maps.Copy(f.Meta, meta)
	return f
}

// #endregion frames

// #region summary
// Summary returns one summary per axis in registration order.
func (s *AwarenessState) Summary() []axis.Summary {
	out := make([]axis.Summary, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.axes[name].Summary())
	}
	return out
}

func copySummary(sum axis.Summary) axis.Summary {
	extras := make(map[string]any, len(sum.Extras))
	maps.Copy(extras, sum.Extras)
	sum.Extras = extras
	return sum
}

// #endregion summary
