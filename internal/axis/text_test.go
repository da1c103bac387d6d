package axis

import (
	"crypto/sha256"
	"strings"
	"testing"
)

// #region helpers
func allZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func equalVec(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// #endregion helpers

// #region construction-tests
func TestNewTextAxisDefaults(t *testing.T) {
	a := NewTextAxis("", 0)
	if a.Name() != DefaultTextAxisName {
		t.Fatalf("expected name %q, got %q", DefaultTextAxisName, a.Name())
	}
	if a.Dim() != DefaultTextAxisDim {
		t.Fatalf("expected dim %d, got %d", DefaultTextAxisDim, a.Dim())
	}
	v := a.ToVector()
	if len(v) != DefaultTextAxisDim || !allZero(v) {
		t.Fatalf("expected %d zeros, got %v", DefaultTextAxisDim, v)
	}
}

func TestTextAxisImplementsAxis(t *testing.T) {
	var _ Axis = NewTextAxis("text", 4)
}

// #endregion construction-tests

// #region encoding-tests
func TestEncodeMatchesDigest(t *testing.T) {
	a := NewTextAxis("text", 40)
	a.UpdateFromInput(Features{KeyExternalText: "hello"})

	digest := sha256.Sum256([]byte("hello"))
	v := a.ToVector()
	if len(v) != 40 {
		t.Fatalf("expected 40 values, got %d", len(v))
	}
	for i, x := range v {
		want := (float64(digest[i%32])/255.0)*2 - 1
		if x != want {
			t.Fatalf("index %d: expected %f, got %f", i, want, x)
		}
		if x < -1 || x > 1 {
			t.Fatalf("index %d out of range: %f", i, x)
		}
	}
	// wrap-around
	if v[32] != v[0] || v[39] != v[7] {
		t.Fatal("expected digest bytes to wrap after 32 positions")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a := NewTextAxis("text", 12)
	b := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyExternalText: "the same words"})
	b.UpdateFromInput(Features{KeyExternalText: "the same words"})
	if !equalVec(a.ToVector(), b.ToVector()) {
		t.Fatal("identical text must give identical vectors")
	}
}

func TestEncodeAvalanche(t *testing.T) {
	samples := [][2]string{
		{"hello world", "hello worle"},
		{"awareness", "Awareness"},
		{"a", "b"},
		{"question one", "question two"},
	}
	for _, s := range samples {
		a := NewTextAxis("text", 12)
		b := NewTextAxis("text", 12)
		a.UpdateFromInput(Features{KeyExternalText: s[0]})
		b.UpdateFromInput(Features{KeyExternalText: s[1]})
		va, vb := a.ToVector(), b.ToVector()
		diff := 0
		for i := range va {
			if va[i] != vb[i] {
				diff++
			}
		}
		if diff < len(va)/2 {
			t.Errorf("%q vs %q: only %d of %d coordinates differ", s[0], s[1], diff, len(va))
		}
	}
}

func TestCombinedTextJoinsWithSpace(t *testing.T) {
	a := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyExternalText: "left", KeyInternalText: "right"})

	want := NewTextAxis("text", 12)
	want.UpdateFromInput(Features{KeyExternalText: "left right"})

	if !equalVec(a.ToVector(), want.ToVector()) {
		t.Fatal("expected vector of \"left right\"")
	}
}

func TestInternalOnly(t *testing.T) {
	a := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyInternalText: "inner"})

	want := NewTextAxis("text", 12)
	want.UpdateFromInput(Features{KeyExternalText: "inner"})

	if !equalVec(a.ToVector(), want.ToVector()) {
		t.Fatal("internal-only text should encode without a separator")
	}
}

func TestEmptyFeaturesGiveZeros(t *testing.T) {
	a := NewTextAxis("text", 8)
	a.UpdateFromInput(Features{})
	if !allZero(a.ToVector()) {
		t.Fatal("expected zeros with no text")
	}
	a.UpdateFromInput(Features{KeyExternalText: nil})
	if !allZero(a.ToVector()) {
		t.Fatal("nil value should count as absent")
	}
}

// #endregion encoding-tests

// #region update-tests
func TestAbsentKeysKeepPreviousValue(t *testing.T) {
	a := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyExternalText: "first"})
	a.UpdateFromInput(Features{KeyInternalText: "reply"})

	ext, ok := a.ExternalText()
	if !ok || ext != "first" {
		t.Fatalf("expected external text to survive, got %q (%v)", ext, ok)
	}
	in, ok := a.InternalText()
	if !ok || in != "reply" {
		t.Fatalf("expected internal text reply, got %q (%v)", in, ok)
	}
}

func TestNonStringFeaturesAreCoerced(t *testing.T) {
	a := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyExternalText: 42})
	ext, ok := a.ExternalText()
	if !ok || ext != "42" {
		t.Fatalf("expected \"42\", got %q", ext)
	}
}

func TestToVectorReturnsCopy(t *testing.T) {
	a := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyExternalText: "copy me"})
	v := a.ToVector()
	v[0] = 99
	if a.ToVector()[0] == 99 {
		t.Fatal("mutating the returned vector must not touch the axis")
	}
}

func TestResetRestoresEmptyState(t *testing.T) {
	a := NewTextAxis("text", 12)
	a.UpdateFromInput(Features{KeyExternalText: "x", KeyInternalText: "y"})
	a.Reset()

	v := a.ToVector()
	if len(v) != 12 || !allZero(v) {
		t.Fatalf("expected 12 zeros after reset, got %v", v)
	}
	if _, ok := a.ExternalText(); ok {
		t.Fatal("external text should be cleared")
	}
	if _, ok := a.InternalText(); ok {
		t.Fatal("internal text should be cleared")
	}
}

// #endregion update-tests

// #region summary-tests
func TestSummaryUnset(t *testing.T) {
	s := NewTextAxis("text", 12).Summary()
	if s.Name != "text" || s.Dim != 12 {
		t.Fatalf("unexpected summary header: %+v", s)
	}
	if s.Extras[KeyExternalText] != nil || s.Extras[KeyInternalText] != nil {
		t.Fatalf("expected nil extras, got %v", s.Extras)
	}
}

func TestSummaryTruncation(t *testing.T) {
	a := NewTextAxis("text", 12)

	exact := strings.Repeat("a", 53)
	a.UpdateFromInput(Features{KeyExternalText: exact})
	if got := a.Summary().Extras[KeyExternalText]; got != exact {
		t.Fatalf("53 characters should not be truncated, got %v", got)
	}

	long := strings.Repeat("b", 54)
	a.UpdateFromInput(Features{KeyExternalText: long})
	want := strings.Repeat("b", 50) + "..."
	if got := a.Summary().Extras[KeyExternalText]; got != want {
		t.Fatalf("expected %q, got %v", want, got)
	}
}

func TestSummaryTruncatesOnRuneBoundaries(t *testing.T) {
	a := NewTextAxis("text", 12)
	text := strings.Repeat("意", 60)
	a.UpdateFromInput(Features{KeyInternalText: text})

	got, ok := a.Summary().Extras[KeyInternalText].(string)
	if !ok {
		t.Fatal("expected string preview")
	}
	want := strings.Repeat("意", 50) + "..."
	if got != want {
		t.Fatalf("expected 50 runes plus ellipsis, got %q", got)
	}
}

// #endregion summary-tests
