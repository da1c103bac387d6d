// Package loop runs one awareness step at a time: encode input, decide a mode,
// ask a tool when not idle, and record what happened.
package loop

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/awareness-core/internal/adapter"
	"github.com/danielpatrickdp/awareness-core/internal/axis"
	"github.com/danielpatrickdp/awareness-core/internal/config"
	"github.com/danielpatrickdp/awareness-core/internal/memory"
	"github.com/danielpatrickdp/awareness-core/internal/protoself"
	"github.com/danielpatrickdp/awareness-core/internal/question"
	"github.com/danielpatrickdp/awareness-core/internal/scheduler"
	"github.com/danielpatrickdp/awareness-core/internal/state"
	"github.com/danielpatrickdp/awareness-core/internal/tool"
)

// #region types
// FrameSaver persists frames. *state.FrameStore satisfies it.
type FrameSaver interface {
	Save(f state.Frame) (string, error)
}

// StepResult describes one completed step. On idle steps only Mode and
// ExternalSalience are set.
type StepResult struct {
	Mode             scheduler.Mode
	ExternalSalience float64
	Uncertainty      float64
	ProtoState       protoself.ProtoState
	Question         *question.Question
	Result           *tool.Result
	Event            *memory.Event
	Frame            *state.Frame
	FrameID          string
}

// Option customizes a Loop.
type Option func(*Loop)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithProtoSelf replaces the proto-self encoder built from config.
func WithProtoSelf(p *protoself.ProtoSelf) Option {
	return func(lp *Loop) { lp.proto = p }
}

// WithMetricsSource feeds live metrics into the proto-self encoder each step.
func WithMetricsSource(src protoself.Source) Option {
	return func(lp *Loop) { lp.metrics = src }
}

// WithTextAxis supplies the text axis instead of building one from config.
func WithTextAxis(a *axis.TextAxis) Option {
	return func(lp *Loop) { lp.text = a }
}

// WithFrameStore persists every frame the loop takes.
func WithFrameStore(fs FrameSaver) Option {
	return func(lp *Loop) { lp.frames = fs }
}

// #endregion types

// #region loop
// Loop owns the awareness state and runs steps sequentially. Not safe for
// concurrent use.
type Loop struct {
	cfg       config.Config
	state     *state.AwarenessState
	text      *axis.TextAxis
	scheduler *scheduler.Scheduler
	proto     *protoself.ProtoSelf
	metrics   protoself.Source
	tool      tool.Tool
	sink      memory.Sink
	frames    FrameSaver
	logger    *zap.Logger
}

// New wires a loop from configuration. Every configured axis is registered
// as a text axis; the one named "text" (or the one given by WithTextAxis)
// receives input and tool replies.
func New(cfg config.Config, t tool.Tool, sink memory.Sink, opts ...Option) (*Loop, error) {
	if t == nil {
		return nil, fmt.Errorf("new loop: nil tool")
	}
	if sink == nil {
		return nil, fmt.Errorf("new loop: nil sink")
	}
	lp := &Loop{
		cfg:       cfg,
		scheduler: scheduler.New(cfg.Scheduler()),
		tool:      t,
		sink:      sink,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lp)
	}
	lp.logger = lp.logger.Named("loop")
	if lp.proto == nil {
		lp.proto = protoself.New(cfg.ProtoSelfDim)
	}

	textName := question.DefaultTargetAxis
	if lp.text != nil {
		textName = lp.text.Name()
	}
	axes := make([]axis.Axis, 0, len(cfg.Axes)+1)
	for _, ac := range cfg.Axes {
		if ac.Name == textName {
			if lp.text == nil {
				lp.text = axis.NewTextAxis(ac.Name, ac.Dim)
			}
			axes = append(axes, lp.text)
			continue
		}
		axes = append(axes, axis.NewTextAxis(ac.Name, ac.Dim))
	}
	if lp.text == nil {
		return nil, fmt.Errorf("new loop: axis %q: %w", textName, state.ErrUnknownAxis)
	}
	if _, ok := cfg.Axis(textName); !ok {
		axes = append(axes, lp.text)
	}

	st, err := state.New(cfg.HistorySize, axes...)
	if err != nil {
		return nil, fmt.Errorf("new loop: %w", err)
	}
	lp.state = st
	return lp, nil
}

// State exposes the awareness state.
func (lp *Loop) State() *state.AwarenessState { return lp.state }

// TextAxis returns the axis that receives input and replies.
func (lp *Loop) TextAxis() *axis.TextAxis { return lp.text }

// #endregion loop

// #region step
// Step runs one iteration. A tool failure returns an error matching
// tool.ErrToolFailure and records nothing; memory errors are returned as-is
// after wrapping.
func (lp *Loop) Step(ctx context.Context, text string) (StepResult, error) {
	features, hasInput := adapter.Encode(text)
	salience := 0.0
	if hasInput {
		salience = features.Salience
		if err := lp.state.UpdateAxis(lp.text.Name(), axis.Features{
			axis.KeyExternalText: features.ExternalText,
		}); err != nil {
			return StepResult{}, fmt.Errorf("step: %w", err)
		}
	}

	proto := lp.encodeProto()
	drives := lp.drives(hasInput)
	mode := lp.scheduler.Decide(salience, drives)

	log := lp.logger.With(
		zap.Int("step", lp.state.Step()),
		zap.String("mode", string(mode)),
		zap.Float64("salience", salience),
	)

	if mode == scheduler.ModeIdle {
		log.Debug("idle")
		return StepResult{Mode: mode, ExternalSalience: salience, ProtoState: proto}, nil
	}

	uncertainty := 1 - salience
	if uncertainty < 0 {
		uncertainty = 0
	}
	q := question.GenerateFor(lp.text.Name(), lp.state.Summary(), uncertainty, features.ExternalText)

	res, err := lp.tool.Call(ctx, tool.Query{
		Content: q.Text,
		Context: map[string]any{
			"mode":          string(mode),
			"target_axis":   q.TargetAxis,
			"expected_type": q.ExpectedType,
		},
	})
	if err != nil {
		log.Warn("tool call failed", zap.String("tool", lp.tool.Name()), zap.Error(err))
		return StepResult{}, &tool.CallError{Tool: lp.tool.Name(), Err: err}
	}

	if err := lp.state.UpdateAxis(lp.text.Name(), axis.Features{
		axis.KeyInternalText: res.Content,
	}); err != nil {
		return StepResult{}, fmt.Errorf("step: %w", err)
	}

	ev, err := lp.sink.Append(q.Text, lp.tool.Name(), res.Content, map[string]any{
		"mode":              string(mode),
		"external_salience": salience,
		"uncertainty":       uncertainty,
		"proto_state":       proto.Vector,
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("append event: %w", err)
	}

	frame := lp.state.ToFrame(map[string]any{"mode": string(mode)})
	out := StepResult{
		Mode:             mode,
		ExternalSalience: salience,
		Uncertainty:      uncertainty,
		ProtoState:       proto,
		Question:         &q,
		Result:           &res,
		Event:            &ev,
		Frame:            &frame,
	}

	if lp.frames != nil {
		id, err := lp.frames.Save(frame)
		if err != nil {
			return out, fmt.Errorf("save frame: %w", err)
		}
		out.FrameID = id
	}

	log.Info("step complete",
		zap.Float64("uncertainty", uncertainty),
		zap.String("tool", lp.tool.Name()),
		zap.Int("answer_len", len(res.Content)),
	)
	return out, nil
}

// #endregion step

// #region helpers
func (lp *Loop) encodeProto() protoself.ProtoState {
	var system, learning protoself.Metrics
	if lp.metrics != nil {
		system, learning = lp.metrics.Metrics()
	}
	return lp.proto.Encode(system, learning)
}

func (lp *Loop) drives(hasInput bool) map[string]float64 {
	curiosity := lp.cfg.Drives.CuriosityIdle
	if hasInput {
		curiosity = lp.cfg.Drives.CuriosityWithInput
	}
	return map[string]float64{scheduler.DriveCuriosity: curiosity}
}

// #endregion helpers
