package protoself

import (
	"math"
	"runtime"
	"sort"
)

// #region constants
const DefaultDim = 6

// #endregion constants

// #region metrics
// Metric is one named measurement.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Metrics is an ordered list of measurements. Order decides which values land
// in which vector slot.
type Metrics []Metric

// MetricsFromMap converts a map into Metrics sorted by name.
func MetricsFromMap(m map[string]float64) Metrics {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make(Metrics, 0, len(names))
	for _, n := range names {
		out = append(out, Metric{Name: n, Value: m[n]})
	}
	return out
}

// Map returns the metrics as a name → value map. Later duplicates win.
func (m Metrics) Map() map[string]float64 {
	out := make(map[string]float64, len(m))
	for _, x := range m {
		out[x.Name] = x.Value
	}
	return out
}

// #endregion metrics

// #region proto-state
// ProtoState is the proto-self vector p(t) plus the metrics it was built from.
type ProtoState struct {
	Vector          []float64 `json:"vector"`
	SystemMetrics   Metrics   `json:"system_metrics"`
	LearningMetrics Metrics   `json:"learning_metrics"`
}

// #endregion proto-state

// #region encoder
// ProtoSelf turns system and learning metrics into a fixed-length vector in [0, 1].
type ProtoSelf struct {
	dim int
}

// New creates an encoder. A non-positive dim falls back to DefaultDim.
func New(dim int) *ProtoSelf {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &ProtoSelf{dim: dim}
}

// Dim returns the output vector length.
func (p *ProtoSelf) Dim() int { return p.dim }

// Encode concatenates system then learning values, keeps the first Dim,
// clips each to [0, 1] and zero-pads to exactly Dim entries.
func (p *ProtoSelf) Encode(system, learning Metrics) ProtoState {
	vec := make([]float64, 0, p.dim)
	for _, src := range []Metrics{system, learning} {
		for _, m := range src {
			if len(vec) == p.dim {
				break
			}
			vec = append(vec, clip(m.Value))
		}
	}
	for len(vec) < p.dim {
		vec = append(vec, 0)
	}
	return ProtoState{
		Vector:          vec,
		SystemMetrics:   append(Metrics{}, system...),
		LearningMetrics: append(Metrics{}, learning...),
	}
}

// #endregion encoder

// #region source
// Source supplies live metrics to the loop.
type Source interface {
	Metrics() (system, learning Metrics)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (system, learning Metrics)

func (f SourceFunc) Metrics() (Metrics, Metrics) { return f() }

// RuntimeSource reports Go runtime load as system metrics scaled into [0, 1]
// against the given ceilings.
type RuntimeSource struct {
	MaxGoroutines int
	MaxHeapBytes  uint64
}

// DefaultRuntimeSource uses 1000 goroutines and 1 GiB of heap as ceilings.
func DefaultRuntimeSource() RuntimeSource {
	return RuntimeSource{MaxGoroutines: 1000, MaxHeapBytes: 1 << 30}
}

func (r RuntimeSource) Metrics() (Metrics, Metrics) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	system := Metrics{
		{Name: "goroutines", Value: ratio(float64(runtime.NumGoroutine()), float64(r.MaxGoroutines))},
		{Name: "heap", Value: ratio(float64(ms.HeapAlloc), float64(r.MaxHeapBytes))},
	}
	return system, nil
}

// #endregion source

// #region helpers
// clip restricts v to [0, 1]. NaN maps to 0.
func clip(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ratio(v, ceiling float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	return v / ceiling
}

// #endregion helpers
