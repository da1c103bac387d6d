package adapter

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// #region constants
// SalienceLength is the character count at which input reaches full salience.
const SalienceLength = 80

// #endregion constants

// #region types
// TextFeatures are the normalized features extracted from raw input text.
type TextFeatures struct {
	ExternalText string
	Salience     float64
	Metadata     map[string]string
}

// #endregion types

// #region encode
// Encode trims text and scores its salience as min(1, chars/80).
// Empty or whitespace-only input yields ok == false.
func Encode(text string) (TextFeatures, bool) {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return TextFeatures{}, false
	}
	n := utf8.RuneCountInString(stripped)
	salience := float64(n) / SalienceLength
	if salience > 1 {
		salience = 1
	}
	return TextFeatures{
		ExternalText: stripped,
		Salience:     salience,
		Metadata:     map[string]string{"length": strconv.Itoa(n)},
	}, true
}

// #endregion encode
