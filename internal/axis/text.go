package axis

import (
	"crypto/sha256"
	"unicode/utf8"
)

// #region constants
const (
	DefaultTextAxisName = "text"
	DefaultTextAxisDim  = 12

	previewRunes = 50
	previewLimit = 53
)

// #endregion constants

// #region text-axis
// TextAxis tracks the latest external and internal text and encodes them
// into a deterministic pseudo-embedding. It is not a semantic embedding:
// similar strings do not produce similar vectors.
type TextAxis struct {
	name     string
	dim      int
	external *string
	internal *string
	vector   []float64
}

// NewTextAxis creates a text axis. A non-positive dim falls back to DefaultTextAxisDim.
func NewTextAxis(name string, dim int) *TextAxis {
	if name == "" {
		name = DefaultTextAxisName
	}
	if dim <= 0 {
		dim = DefaultTextAxisDim
	}
	return &TextAxis{name: name, dim: dim, vector: make([]float64, dim)}
}

func (a *TextAxis) Name() string { return a.name }

func (a *TextAxis) Dim() int { return a.dim }

// Reset clears both texts and zeroes the cached vector.
func (a *TextAxis) Reset() {
	a.external = nil
	a.internal = nil
	a.vector = make([]float64, a.dim)
}

// UpdateFromInput overwrites the texts present in features and re-encodes.
func (a *TextAxis) UpdateFromInput(features Features) {
	if s, ok := features.Text(KeyExternalText); ok {
		a.external = &s
	}
	if s, ok := features.Text(KeyInternalText); ok {
		a.internal = &s
	}
	a.vector = a.encode(a.combined())
}

// ToVector returns a copy of the cached vector.
func (a *TextAxis) ToVector() []float64 {
	out := make([]float64, len(a.vector))
	copy(out, a.vector)
	return out
}

func (a *TextAxis) Summary() Summary {
	return Summary{
		Name: a.name,
		Dim:  a.dim,
		Extras: map[string]any{
			KeyExternalText: preview(a.external),
			KeyInternalText: preview(a.internal),
		},
	}
}

// ExternalText returns the stored external text and whether it is set.
func (a *TextAxis) ExternalText() (string, bool) {
	if a.external == nil {
		return "", false
	}
	return *a.external, true
}

// InternalText returns the stored internal text and whether it is set.
func (a *TextAxis) InternalText() (string, bool) {
	if a.internal == nil {
		return "", false
	}
	return *a.internal, true
}

// #endregion text-axis

// #region encoding
// combined joins the non-empty texts with a single space.
func (a *TextAxis) combined() string {
	var out string
	for _, p := range []*string{a.external, a.internal} {
		if p == nil || *p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += *p
	}
	return out
}

// encode maps SHA-256(text) onto [-1, 1], wrapping the 32-byte digest when dim > 32.
func (a *TextAxis) encode(text string) []float64 {
	vec := make([]float64, a.dim)
	if text == "" {
		return vec
	}
	digest := sha256.Sum256([]byte(text))
	for i := range vec {
		b := digest[i%len(digest)]
		vec[i] = (float64(b)/255.0)*2 - 1
	}
	return vec
}

// #endregion encoding

// #region helpers
// preview truncates on rune boundaries. Unset text maps to nil.
func preview(s *string) any {
	if s == nil {
		return nil
	}
	if utf8.RuneCountInString(*s) <= previewLimit {
		return *s
	}
	runes := []rune(*s)
	return string(runes[:previewRunes]) + "..."
}

// #endregion helpers
