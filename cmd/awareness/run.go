package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/awareness-core/internal/config"
	"github.com/danielpatrickdp/awareness-core/internal/loop"
	"github.com/danielpatrickdp/awareness-core/internal/scheduler"
	"github.com/danielpatrickdp/awareness-core/internal/tool"
)

// #region command
var runOnce []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the loop interactively",
	Long: `Read lines from stdin and run one step per line.

An empty line runs a step without external input. Type 'quit' or 'exit'
to stop. With --input the given texts are stepped in order and the
command exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		s, err := openSession(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		if len(runOnce) > 0 {
			for _, text := range runOnce {
				if err := step(cmd.Context(), s.loop, text, out); err != nil {
					return err
				}
			}
			return nil
		}

		fmt.Fprintln(out, "Awareness loop ready.")
		fmt.Fprintf(out, "  Memory: %s (%s) | Tool: %s\n", cfg.Memory.Path, cfg.Memory.Backend, cfg.Tool.Kind)
		fmt.Fprintln(out, "Type input (empty line to think, 'quit' to exit):")
		return repl(cmd.Context(), s.loop, cmd.InOrStdin(), out)
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&runOnce, "input", nil, "Step once per value and exit (repeatable)")
}

// #endregion command

// #region repl
func repl(ctx context.Context, lp *loop.Loop, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "quit", "exit":
			return nil
		}
		if err := step(ctx, lp, line, out); err != nil {
			if errors.Is(err, tool.ErrToolFailure) {
				logger.Warn("step failed", zap.Error(err))
				continue
			}
			return err
		}
	}
	return scanner.Err()
}

func step(ctx context.Context, lp *loop.Loop, text string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := lp.Step(ctx, text)
	if err != nil {
		return err
	}
	if res.Mode == scheduler.ModeIdle {
		fmt.Fprintf(out, "[step %d] mode=idle salience=%.2f\n", lp.State().Step(), res.ExternalSalience)
		return nil
	}
	fmt.Fprintf(out, "\n%s\n\n", res.Result.Content)
	fmt.Fprintf(out, "[step %d] mode=%s salience=%.2f uncertainty=%.2f\n",
		lp.State().Step(), res.Mode, res.ExternalSalience, res.Uncertainty)
	return nil
}

// #endregion repl
