package question

import (
	"fmt"

	"github.com/danielpatrickdp/awareness-core/internal/axis"
)

// #region constants
const (
	DefaultTargetAxis   = "text"
	DefaultExpectedType = "explanation"
	DefaultTopic        = "the current input"
)

// #endregion constants

// #region types
// Question is what the loop sends to the tool.
type Question struct {
	Text         string
	TargetAxis   string
	ExpectedType string
}

// #endregion types

// #region generate
// Generate builds a question about the current topic, reading the topic from
// the axis named DefaultTargetAxis.
func Generate(summaries []axis.Summary, uncertainty float64, hint string) Question {
	return GenerateFor(DefaultTargetAxis, summaries, uncertainty, hint)
}

// GenerateFor is Generate with an explicit target axis. The topic is the hint
// when given, else the target axis's external_text preview, else DefaultTopic.
// An empty targetAxis means DefaultTargetAxis.
func GenerateFor(targetAxis string, summaries []axis.Summary, uncertainty float64, hint string) Question {
	if targetAxis == "" {
		targetAxis = DefaultTargetAxis
	}
	topic := hint
	if topic == "" {
		topic = topicFromSummaries(targetAxis, summaries)
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return Question{
		Text:         fmt.Sprintf("Please explain and expand on: %s (uncertainty=%.2f)", topic, uncertainty),
		TargetAxis:   targetAxis,
		ExpectedType: DefaultExpectedType,
	}
}

func topicFromSummaries(targetAxis string, summaries []axis.Summary) string {
	for _, s := range summaries {
		if s.Name != targetAxis {
			continue
		}
		if t, ok := s.Extras[axis.KeyExternalText].(string); ok {
			return t
		}
	}
	return ""
}

// #endregion generate
