package axis

import "fmt"

// #region feature-keys
const (
	KeyExternalText = "external_text"
	KeyInternalText = "internal_text"
)

// #endregion feature-keys

// #region features
// Features carries upstream input for an axis update. A nil value is treated
// the same as a missing key.
type Features map[string]any

// Text returns the value under key coerced to a string.
// ok is false when the key is absent or nil.
func (f Features) Text(key string) (string, bool) {
	v, present := f[key]
	if !present || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// #endregion features

// #region summary
// Summary is a lightweight view of an axis for logging.
type Summary struct {
	Name   string         `json:"name"`
	Dim    int            `json:"dim"`
	Extras map[string]any `json:"extras"`
}

// #endregion summary

// #region axis-interface
// Axis is one named, fixed-dimension component of the awareness vector.
// ToVector must always return exactly Dim() values.
type Axis interface {
	Name() string
	Dim() int
	Reset()
	UpdateFromInput(features Features)
	ToVector() []float64
	Summary() Summary
}

// #endregion axis-interface
