// Package replay runs recorded inputs through the loop with the stub tool and
// an in-memory episodic log, so mode decisions can be checked offline.
package replay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/awareness-core/internal/config"
	"github.com/danielpatrickdp/awareness-core/internal/loop"
	"github.com/danielpatrickdp/awareness-core/internal/memory"
	"github.com/danielpatrickdp/awareness-core/internal/scheduler"
	"github.com/danielpatrickdp/awareness-core/internal/tool"
)

// #region types
// ReplayResult captures the outcome of replaying one input.
type ReplayResult struct {
	Index        int
	Text         string
	Mode         scheduler.Mode
	ExpectedMode string
	Salience     float64
	Uncertainty  float64
	Answer       string
}

// Mismatch reports whether an expected mode was given and differs.
func (r ReplayResult) Mismatch() bool {
	return r.ExpectedMode != "" && r.ExpectedMode != string(r.Mode)
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSteps    int
	External      int
	InternalThink int
	Idle          int
	Mismatches    int
	Events        []memory.Event
}

// #endregion types

// #region replay
// Replay runs every input of the fixture through a fresh loop built from
// cfg with the fixture overrides applied. The loop always uses the stub LLM
// tool and a Recorder, so nothing touches disk or network.
func Replay(ctx context.Context, f *Fixture, cfg config.Config, logger *zap.Logger) ([]ReplayResult, ReplaySummary, error) {
	cfg = f.Config.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, ReplaySummary{}, fmt.Errorf("replay config: %w", err)
	}

	rec := memory.NewRecorder()
	lp, err := loop.New(cfg, tool.NewLLMTool(cfg.Tool.Provider), rec, loop.WithLogger(logger))
	if err != nil {
		return nil, ReplaySummary{}, fmt.Errorf("replay: %w", err)
	}

	results := make([]ReplayResult, 0, len(f.Inputs))
	for i, in := range f.Inputs {
		res, err := lp.Step(ctx, in.Text)
		if err != nil {
			return results, ReplaySummary{}, fmt.Errorf("replay step %d: %w", i, err)
		}
		r := ReplayResult{
			Index:        i,
			Text:         in.Text,
			Mode:         res.Mode,
			ExpectedMode: in.ExpectedMode,
			Salience:     res.ExternalSalience,
			Uncertainty:  res.Uncertainty,
		}
		if res.Result != nil {
			r.Answer = res.Result.Content
		}
		results = append(results, r)
	}

	events, _ := rec.All()
	s := Summarize(results)
	s.Events = events
	return results, s, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalSteps: len(results)}
	for _, r := range results {
		switch r.Mode {
		case scheduler.ModeExternal:
			s.External++
		case scheduler.ModeInternalThink:
			s.InternalThink++
		case scheduler.ModeIdle:
			s.Idle++
		}
		if r.Mismatch() {
			s.Mismatches++
		}
	}
	return s
}

// #endregion replay
