// Command awareness runs the awareness loop and its supporting tools.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/awareness-core/internal/config"
	"github.com/danielpatrickdp/awareness-core/internal/loop"
	"github.com/danielpatrickdp/awareness-core/internal/memory"
	"github.com/danielpatrickdp/awareness-core/internal/protoself"
	"github.com/danielpatrickdp/awareness-core/internal/state"
	"github.com/danielpatrickdp/awareness-core/internal/tool"
)

// #region globals
var (
	configPath string
	debug      bool

	logger = zap.NewNop()
)

// #endregion globals

// #region root
var rootCmd = &cobra.Command{
	Use:   "awareness",
	Short: "Run and inspect the awareness loop",
	Long: `awareness drives a single-process awareness loop.

Each step folds optional input text into the awareness state, decides
between external processing, internal thinking and idling, and when not
idle asks a tool a question and records the exchange in episodic memory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", envOr(config.EnvConfigPath, ""),
		"YAML config file (or set "+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(toolServerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion root

// #region wiring
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// buildTool returns the configured tool and a closer for it.
func buildTool(cfg config.Config) (tool.Tool, io.Closer, error) {
	switch cfg.Tool.Kind {
	case config.ToolGRPC:
		t, err := tool.NewGRPCTool(cfg.Tool.Addr, "grpc", cfg.Tool.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	default:
		return tool.NewLLMTool(cfg.Tool.Provider), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// session holds everything a loop command opens.
type session struct {
	loop    *loop.Loop
	memory  memory.Store
	closers []io.Closer
}

func (r *session) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
}

func openSession(cfg config.Config, log *zap.Logger) (*session, error) {
	rt := &session{}

	mem, err := memory.Open(cfg.Memory.Backend, cfg.Memory.Path, cfg.Memory.MaxEvents, log)
	if err != nil {
		return nil, fmt.Errorf("open memory: %w", err)
	}
	rt.memory = mem
	rt.closers = append(rt.closers, mem)

	t, closer, err := buildTool(cfg)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build tool: %w", err)
	}
	rt.closers = append(rt.closers, closer)

	opts := []loop.Option{
		loop.WithLogger(log),
		loop.WithMetricsSource(protoself.DefaultRuntimeSource()),
	}
	if cfg.Frames.Path != "" {
		fs, err := state.NewFrameStore(cfg.Frames.Path)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open frame store: %w", err)
		}
		rt.closers = append(rt.closers, fs)
		opts = append(opts, loop.WithFrameStore(fs))
	}

	lp, err := loop.New(cfg, t, mem, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.loop = lp
	return rt, nil
}

// #endregion wiring

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
