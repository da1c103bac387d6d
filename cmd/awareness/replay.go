package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/awareness-core/internal/config"
	"github.com/danielpatrickdp/awareness-core/internal/replay"
)

// #region command
var replayJSON bool

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Replay a fixture through the loop with the stub tool",
	Long: `Run every input of a JSON fixture through a fresh loop using the stub LLM
tool and an in-memory episodic log. Steps whose mode differs from the
fixture's expected_mode are flagged and make the command fail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		f, err := replay.LoadFixture(args[0])
		if err != nil {
			return err
		}
		results, summary, err := replay.Replay(cmd.Context(), f, cfg, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if replayJSON {
			if err := printJSON(out, map[string]any{"results": results, "summary": summary}); err != nil {
				return err
			}
		} else {
			printReplay(out, f, results, summary)
		}
		if summary.Mismatches > 0 {
			return fmt.Errorf("%d of %d steps did not match expected_mode", summary.Mismatches, summary.TotalSteps)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Output as JSON instead of table")
}

// #endregion command

// #region output
func printReplay(w io.Writer, f *replay.Fixture, results []replay.ReplayResult, s replay.ReplaySummary) {
	if f.Description != "" {
		fmt.Fprintf(w, "%s\n\n", f.Description)
	}
	fmt.Fprintf(w, "%-4s  %-14s  %-14s  %8s  %11s  %s\n", "#", "MODE", "EXPECTED", "SALIENCE", "UNCERTAINTY", "INPUT")
	for _, r := range results {
		mark := ""
		if r.Mismatch() {
			mark = " !"
		}
		fmt.Fprintf(w, "%-4d  %-14s  %-14s  %8.2f  %11.2f  %q%s\n",
			r.Index, r.Mode, r.ExpectedMode, r.Salience, r.Uncertainty, preview(r.Text, 40), mark)
	}
	fmt.Fprintf(w, "\nsteps=%d external=%d internal_think=%d idle=%d mismatches=%d events=%d\n",
		s.TotalSteps, s.External, s.InternalThink, s.Idle, s.Mismatches, len(s.Events))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// #endregion output
