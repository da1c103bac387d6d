package state

import (
	"errors"
	"maps"
	"time"

	"github.com/danielpatrickdp/awareness-core/internal/axis"
)

// #region errors
var (
	// ErrDuplicateAxis is returned when registering a name that is already taken.
	ErrDuplicateAxis = errors.New("duplicate axis")
	// ErrUnknownAxis is returned when addressing a name that was never registered.
	ErrUnknownAxis = errors.New("unknown axis")
)

// #endregion errors

// #region frame
// Frame is a timestamped snapshot of every axis vector. Frames returned by
// AwarenessState own their data; nothing else holds a reference to it.
type Frame struct {
	ID        string                  `json:"id,omitempty"` // set by FrameStore.Save
	Timestamp time.Time               `json:"timestamp"`
	Step      int                     `json:"step"`
	Axes      []string                `json:"axes"` // registration order
	Vectors   map[string][]float64    `json:"vectors"`
	Summaries map[string]axis.Summary `json:"summaries"`
	Meta      map[string]any          `json:"meta"`
}

// Vector returns a copy of the named axis vector.
func (f Frame) Vector(name string) ([]float64, bool) {
	v, ok := f.Vectors[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// clone returns a frame sharing no maps or slices with f. Meta values are
// copied shallowly.
func (f Frame) clone() Frame {
	out := f
	out.Axes = append([]string(nil), f.Axes...)
	if f.Vectors != nil {
		out.Vectors = make(map[string][]float64, len(f.Vectors))
		for k, v := range f.Vectors {
			out.Vectors[k] = append([]float64(nil), v...)
		}
	}
	if f.Summaries != nil {
		out.Summaries = make(map[string]axis.Summary, len(f.Summaries))
		for k, sum := range f.Summaries {
			out.Summaries[k] = copySummary(sum)
		}
	}
	if f.Meta != nil {
		out.Meta = make(map[string]any, len(f.Meta))
		maps.Copy(out.Meta, f.Meta)
	}
	return out
}

// #endregion frame
