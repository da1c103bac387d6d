package main

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/awareness-core/internal/config"
	"github.com/danielpatrickdp/awareness-core/internal/memory"
	"github.com/danielpatrickdp/awareness-core/internal/state"
)

// #region command
var (
	inspectLast   int
	inspectFrames bool
	inspectFrame  string
	inspectJSON   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show recent episodic events or stored frames",
	Long: `List the most recent episodic memory events from the configured backend.
With --frames, list persisted awareness frames instead; --frame <id>
shows one frame in detail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if inspectFrames || inspectFrame != "" {
			if cfg.Frames.Path == "" {
				return fmt.Errorf("no frame store configured (frames.path)")
			}
			fs, err := state.NewFrameStore(cfg.Frames.Path)
			if err != nil {
				return fmt.Errorf("open frame store: %w", err)
			}
			defer fs.Close()
			if inspectFrame != "" {
				return runFrameDetail(out, fs, inspectFrame)
			}
			return runFrameList(out, fs, inspectLast)
		}

		mem, err := memory.Open(cfg.Memory.Backend, cfg.Memory.Path, 0, logger)
		if err != nil {
			return fmt.Errorf("open memory: %w", err)
		}
		defer mem.Close()
		return runEventList(out, mem, inspectLast)
	},
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "Show N most recent entries")
	inspectCmd.Flags().BoolVar(&inspectFrames, "frames", false, "List stored frames instead of events")
	inspectCmd.Flags().StringVar(&inspectFrame, "frame", "", "Show a single frame in detail")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON instead of table")
}

// #endregion command

// #region events
func runEventList(w io.Writer, r memory.Reader, last int) error {
	events, err := r.LoadRecent(last)
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(w, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "no events found")
		return nil
	}
	fmt.Fprintf(w, "%-30s  %-14s  %-6s  %s\n", "TIMESTAMP", "MODE", "TOOL", "QUESTION")
	for _, ev := range events {
		mode, _ := ev.Metadata["mode"].(string)
		fmt.Fprintf(w, "%-30s  %-14s  %-6s  %s\n", ev.Timestamp, mode, ev.Tool, preview(ev.Question, 60))
	}
	return nil
}

// #endregion events

// #region frames
type frameRow struct {
	ID    string             `json:"id"`
	Step  int                `json:"step"`
	Mode  any                `json:"mode"`
	Time  string             `json:"timestamp"`
	Norms map[string]float64 `json:"norms"`
}

func toFrameRow(f state.Frame) frameRow {
	norms := make(map[string]float64, len(f.Axes))
	for _, name := range f.Axes {
		v, _ := f.Vector(name)
		norms[name] = vectorNorm(v)
	}
	return frameRow{
		ID:    f.ID,
		Step:  f.Step,
		Mode:  f.Meta["mode"],
		Time:  f.Timestamp.Format("2006-01-02 15:04:05"),
		Norms: norms,
	}
}

func runFrameList(w io.Writer, fs *state.FrameStore, last int) error {
	frames, err := fs.List(last)
	if err != nil {
		return err
	}
	rows := make([]frameRow, len(frames))
	for i, f := range frames {
		rows[i] = toFrameRow(f)
	}
	if inspectJSON {
		return printJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no frames found")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %6s  %-14s  %-19s  %s\n", "ID", "STEP", "MODE", "CREATED", "AXIS NORMS")
	for _, r := range rows {
		fmt.Fprintf(w, "%-36s  %6d  %-14v  %-19s  %s\n", r.ID, r.Step, r.Mode, r.Time, formatNorms(r.Norms))
	}
	return nil
}

func runFrameDetail(w io.Writer, fs *state.FrameStore, id string) error {
	f, err := fs.Get(id)
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(w, f)
	}
	fmt.Fprintf(w, "Frame:   %s\n", f.ID)
	fmt.Fprintf(w, "Step:    %d\n", f.Step)
	fmt.Fprintf(w, "Created: %s\n", f.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Mode:    %v\n", f.Meta["mode"])
	for _, name := range f.Axes {
		v, _ := f.Vector(name)
		fmt.Fprintf(w, "\nAxis %s (dim %d, norm %.4f)\n", name, len(v), vectorNorm(v))
		sum := f.Summaries[name]
		keys := make([]string, 0, len(sum.Extras))
		for k := range sum.Extras {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-14s %v\n", k, sum.Extras[k])
		}
	}
	return nil
}

// #endregion frames

// #region helpers
func vectorNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func formatNorms(norms map[string]float64) string {
	names := make([]string, 0, len(norms))
	for n := range norms {
		names = append(names, n)
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.4f", n, norms[n])
	}
	return out
}

// #endregion helpers
