// Package config loads the awareness loop settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/awareness-core/internal/memory"
	"github.com/danielpatrickdp/awareness-core/internal/scheduler"
)

// #region env
const (
	EnvConfigPath = "AWARENESS_CONFIG"
)

// #endregion env

// #region tool-kinds
const (
	ToolLLM  = "llm"
	ToolGRPC = "grpc"
)

// #endregion tool-kinds

// #region types
// AxisConfig describes one registered axis.
type AxisConfig struct {
	Name        string `yaml:"name"`
	Dim         int    `yaml:"dim"`
	Description string `yaml:"description,omitempty"`
}

// Drives are the curiosity levels used with and without external input.
type Drives struct {
	CuriosityWithInput float64 `yaml:"curiosity_with_input"`
	CuriosityIdle      float64 `yaml:"curiosity_idle"`
}

// Memory selects the episodic memory backend.
type Memory struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	MaxEvents int    `yaml:"max_events"`
}

// Frames configures optional frame persistence. An empty path disables it.
type Frames struct {
	Path string `yaml:"path"`
}

// Tool selects the tool the loop asks.
type Tool struct {
	Kind     string        `yaml:"kind"`
	Provider string        `yaml:"provider"`
	Addr     string        `yaml:"addr"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Config is the full loop configuration.
type Config struct {
	Axes                      []AxisConfig `yaml:"axes"`
	InternalThinkThreshold    float64      `yaml:"internal_think_threshold"`
	ExternalSalienceThreshold float64      `yaml:"external_salience_threshold"`
	ProtoSelfDim              int          `yaml:"proto_self_dim"`
	HistorySize               int          `yaml:"history_size"`
	Drives                    Drives       `yaml:"drives"`
	Memory                    Memory       `yaml:"memory"`
	Frames                    Frames       `yaml:"frames"`
	Tool                      Tool         `yaml:"tool"`
}

// #endregion types

// #region defaults
// Default returns the standard configuration.
func Default() Config {
	return Config{
		Axes: []AxisConfig{
			{Name: "text", Dim: 12, Description: "hashed text features"},
		},
		InternalThinkThreshold:    0.5,
		ExternalSalienceThreshold: 0.2,
		ProtoSelfDim:              6,
		HistorySize:               50,
		Drives: Drives{
			CuriosityWithInput: 0.6,
			CuriosityIdle:      0.8,
		},
		Memory: Memory{
			Backend: memory.BackendJSONL,
			Path:    "data/episodic_memory.jsonl",
		},
		Tool: Tool{
			Kind:    ToolLLM,
			Timeout: 30 * time.Second,
		},
	}
}

// #endregion defaults

// #region load
// Load reads a YAML file and overlays it on Default. Keys missing from the
// file keep their default values; an axes list in the file replaces the
// default list.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when non-empty, otherwise returns Default.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// #endregion load

// #region validate
var ErrInvalid = errors.New("invalid config")

// Validate checks the values the loop relies on.
func (c Config) Validate() error {
	if len(c.Axes) == 0 {
		return fmt.Errorf("%w: no axes", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Axes))
	for _, a := range c.Axes {
		if a.Name == "" {
			return fmt.Errorf("%w: axis with empty name", ErrInvalid)
		}
		if a.Dim <= 0 {
			return fmt.Errorf("%w: axis %q dim %d", ErrInvalid, a.Name, a.Dim)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate axis %q", ErrInvalid, a.Name)
		}
		seen[a.Name] = true
	}
	if c.ProtoSelfDim <= 0 {
		return fmt.Errorf("%w: proto_self_dim %d", ErrInvalid, c.ProtoSelfDim)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("%w: history_size %d", ErrInvalid, c.HistorySize)
	}
	if c.Memory.MaxEvents < 0 {
		return fmt.Errorf("%w: memory.max_events %d", ErrInvalid, c.Memory.MaxEvents)
	}
	switch c.Memory.Backend {
	case "", memory.BackendJSONL, memory.BackendSQLite:
	default:
		return fmt.Errorf("%w: memory.backend %q", ErrInvalid, c.Memory.Backend)
	}
	switch c.Tool.Kind {
	case "", ToolLLM:
	case ToolGRPC:
		if c.Tool.Addr == "" {
			return fmt.Errorf("%w: tool.addr required for grpc", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: tool.kind %q", ErrInvalid, c.Tool.Kind)
	}
	return nil
}

// #endregion validate

// #region accessors
// Axis returns the named axis entry.
func (c Config) Axis(name string) (AxisConfig, bool) {
	for _, a := range c.Axes {
		if a.Name == name {
			return a, true
		}
	}
	return AxisConfig{}, false
}

// Scheduler returns the scheduler thresholds.
func (c Config) Scheduler() scheduler.Config {
	return scheduler.Config{
		ExternalSalienceThreshold: c.ExternalSalienceThreshold,
		InternalThinkThreshold:    c.InternalThinkThreshold,
	}
}

// #endregion accessors
