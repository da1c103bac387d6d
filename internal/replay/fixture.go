package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/awareness-core/internal/config"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string         `json:"description"`
	Config      FixtureConfig  `json:"config"`
	Inputs      []FixtureInput `json:"inputs"`
}

// FixtureInput is one step's input text and, optionally, the mode it should produce.
type FixtureInput struct {
	Text         string `json:"text"`
	ExpectedMode string `json:"expected_mode,omitempty"`
}

// FixtureConfig overrides loop settings. Absent fields keep config.Default values.
type FixtureConfig struct {
	InternalThinkThreshold    *float64 `json:"internal_think_threshold,omitempty"`
	ExternalSalienceThreshold *float64 `json:"external_salience_threshold,omitempty"`
	CuriosityWithInput        *float64 `json:"curiosity_with_input,omitempty"`
	CuriosityIdle             *float64 `json:"curiosity_idle,omitempty"`
	ProtoSelfDim              *int     `json:"proto_self_dim,omitempty"`
	HistorySize               *int     `json:"history_size,omitempty"`
	Provider                  string   `json:"provider,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the fixture overrides on base.
func (fc FixtureConfig) Apply(base config.Config) config.Config {
	if fc.InternalThinkThreshold != nil {
		base.InternalThinkThreshold = *fc.InternalThinkThreshold
	}
	if fc.ExternalSalienceThreshold != nil {
		base.ExternalSalienceThreshold = *fc.ExternalSalienceThreshold
	}
	if fc.CuriosityWithInput != nil {
		base.Drives.CuriosityWithInput = *fc.CuriosityWithInput
	}
	if fc.CuriosityIdle != nil {
		base.Drives.CuriosityIdle = *fc.CuriosityIdle
	}
	if fc.ProtoSelfDim != nil {
		base.ProtoSelfDim = *fc.ProtoSelfDim
	}
	if fc.HistorySize != nil {
		base.HistorySize = *fc.HistorySize
	}
	if fc.Provider != "" {
		base.Tool.Provider = fc.Provider
	}
	return base
}

// #endregion fixture-loader
