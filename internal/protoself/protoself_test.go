package protoself

import (
	"math"
	"testing"
)

func checkVector(t *testing.T, v []float64, dim int) {
	t.Helper()
	if len(v) != dim {
		t.Fatalf("expected %d entries, got %d", dim, len(v))
	}
	for i, x := range v {
		if x < 0 || x > 1 || math.IsNaN(x) {
			t.Fatalf("index %d out of [0,1]: %f", i, x)
		}
	}
}

func TestEncodeLengthForAnyMetricCount(t *testing.T) {
	p := New(4)
	cases := map[string]struct {
		system, learning Metrics
	}{
		"none":      {},
		"fewer":     {system: Metrics{{"a", 0.5}}},
		"exact":     {system: Metrics{{"a", 0.1}, {"b", 0.2}}, learning: Metrics{{"c", 0.3}, {"d", 0.4}}},
		"more":      {system: Metrics{{"a", 1}, {"b", 1}, {"c", 1}}, learning: Metrics{{"d", 1}, {"e", 1}, {"f", 1}}},
		"only-more": {learning: Metrics{{"a", 0}, {"b", 0}, {"c", 0}, {"d", 0}, {"e", 0}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ps := p.Encode(tc.system, tc.learning)
			checkVector(t, ps.Vector, 4)
		})
	}
}

func TestEncodeOrderAndPadding(t *testing.T) {
	p := New(5)
	ps := p.Encode(Metrics{{"cpu", 0.3}, {"mem", 0.7}}, Metrics{{"loss", 0.1}})
	want := []float64{0.3, 0.7, 0.1, 0, 0}
	for i := range want {
		if ps.Vector[i] != want[i] {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], ps.Vector[i])
		}
	}
}

func TestEncodeTruncatesSystemFirst(t *testing.T) {
	p := New(2)
	ps := p.Encode(Metrics{{"a", 0.2}, {"b", 0.4}, {"c", 0.6}}, Metrics{{"d", 0.8}})
	if ps.Vector[0] != 0.2 || ps.Vector[1] != 0.4 {
		t.Fatalf("expected first two system values, got %v", ps.Vector)
	}
}

func TestEncodeClips(t *testing.T) {
	p := New(4)
	ps := p.Encode(Metrics{{"neg", -3}, {"big", 42}, {"nan", math.NaN()}, {"inf", math.Inf(1)}}, nil)
	want := []float64{0, 1, 0, 1}
	for i := range want {
		if ps.Vector[i] != want[i] {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], ps.Vector[i])
		}
	}
}

func TestEncodeKeepsSourceMetrics(t *testing.T) {
	p := New(2)
	sys := Metrics{{"cpu", 5}}
	ps := p.Encode(sys, nil)
	sys[0].Value = 0
	if ps.SystemMetrics[0].Value != 5 {
		t.Fatal("proto state must hold its own copy of the metrics")
	}
	if ps.LearningMetrics == nil || len(ps.LearningMetrics) != 0 {
		t.Fatalf("expected empty learning metrics, got %v", ps.LearningMetrics)
	}
}

func TestDefaultDim(t *testing.T) {
	if New(0).Dim() != DefaultDim || New(-2).Dim() != DefaultDim {
		t.Fatal("non-positive dims should fall back to the default")
	}
	checkVector(t, New(0).Encode(nil, nil).Vector, DefaultDim)
}

func TestMetricsFromMapSorted(t *testing.T) {
	m := MetricsFromMap(map[string]float64{"zeta": 1, "alpha": 0.5, "mid": 0.2})
	if len(m) != 3 || m[0].Name != "alpha" || m[1].Name != "mid" || m[2].Name != "zeta" {
		t.Fatalf("expected sorted metrics, got %v", m)
	}
	back := m.Map()
	if back["alpha"] != 0.5 || back["zeta"] != 1 {
		t.Fatalf("unexpected map: %v", back)
	}
}

func TestRuntimeSource(t *testing.T) {
	sys, learn := DefaultRuntimeSource().Metrics()
	if len(sys) != 2 || learn != nil {
		t.Fatalf("expected 2 system metrics and no learning metrics, got %v / %v", sys, learn)
	}
	ps := New(DefaultDim).Encode(sys, learn)
	checkVector(t, ps.Vector, DefaultDim)
	if ps.Vector[0] <= 0 {
		t.Fatal("a running test has at least one goroutine")
	}

	zero := RuntimeSource{}
	sys, _ = zero.Metrics()
	if sys[0].Value != 0 || sys[1].Value != 0 {
		t.Fatalf("zero ceilings should report 0, got %v", sys)
	}
}

func TestSourceFunc(t *testing.T) {
	var src Source = SourceFunc(func() (Metrics, Metrics) {
		return Metrics{{"a", 0.5}}, Metrics{{"b", 0.25}}
	})
	sys, learn := src.Metrics()
	if sys[0].Value != 0.5 || learn[0].Value != 0.25 {
		t.Fatalf("unexpected metrics %v %v", sys, learn)
	}
}
