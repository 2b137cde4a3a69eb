package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seiflow/seiflow/internal/caselog"
	"github.com/seiflow/seiflow/internal/config"
)

var (
	timelineCmd = &cobra.Command{
		Use:   "timeline",
		Short: "List the lifecycle milestones of a case",
		RunE:  runTimeline,
	}

	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Show who created a case and when",
		RunE:  runSummary,
	}
)

// now is replaced in tests.
var now = time.Now

func init() {
	addCaseSourceFlags(timelineCmd)
	timelineCmd.Flags().String("format", "", "Output format: text or json (default from config)")
	addCaseSourceFlags(summaryCmd)
	summaryCmd.Flags().Bool("json", false, "Output machine-readable JSON")
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(summaryCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	export, err := loadCaseInput(cmd, cfg)
	if err != nil {
		return err
	}

	entries := caselog.Timeline(export.Events())
	format := outputFormat(cmd, cfg)
	if format == config.FormatDOT && !cmd.Flags().Changed("format") {
		// a configured dot default applies to graph only
		format = config.FormatText
	}
	switch format {
	case config.FormatJSON:
		if entries == nil {
			entries = []caselog.ProcessedEvent{}
		}
		return printJSON(cmd.OutOrStdout(), entries)
	case config.FormatText:
		renderTimelineText(cmd.OutOrStdout(), export.Case, entries)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	export, err := loadCaseInput(cmd, cfg)
	if err != nil {
		return err
	}

	summary := caselog.Creation(export.Events(), now())
	if asJSON {
		return printJSON(cmd.OutOrStdout(), summary)
	}
	renderCreationText(cmd.OutOrStdout(), summary)
	return nil
}
