package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seiflow/seiflow/internal/caselog"
	"github.com/seiflow/seiflow/internal/config"
	"github.com/seiflow/seiflow/internal/flowgraph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the process-flow diagram of a case",
	Long: `Build the process-flow diagram of a case: one lane per unit, events
left to right in chronological order, chained by connections.

Example:
  seiflow graph --file case.json
  seiflow graph --case 00002.000123/2024-11 --summarized=false --format dot | neato -n -Tsvg`,
	RunE: runGraph,
}

// graphMemo serves repeated layouts of the same case within one process.
var graphMemo = flowgraph.NewMemo(16)

func init() {
	addCaseSourceFlags(graphCmd)
	graphCmd.Flags().Bool("summarized", true, "Draw lifecycle milestones only (default from config)")
	graphCmd.Flags().String("format", "", "Output format: text, json or dot (default from config)")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	export, err := loadCaseInput(cmd, cfg)
	if err != nil {
		return err
	}

	summarized := cfg.Display.Summarized
	if cmd.Flags().Changed("summarized") {
		summarized, _ = cmd.Flags().GetBool("summarized")
	}

	events := caselog.AttachSummaries(caselog.Normalize(export.Events()), export.Summaries)
	g := graphMemo.Build(events, summarized, cfg.Layout.Layout())
	slog.Debug("Graph built", "case", export.Case, "events", len(events), "nodes", len(g.Nodes), "lanes", len(g.Lanes), "summarized", summarized)

	w := cmd.OutOrStdout()
	switch format := outputFormat(cmd, cfg); format {
	case config.FormatJSON:
		return printJSON(w, g)
	case config.FormatDOT:
		return flowgraph.WriteDOT(w, g)
	case config.FormatText:
		renderGraphText(w, export.Case, g)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
