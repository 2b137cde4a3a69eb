package cli

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/seiflow/seiflow/internal/config"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/seiflow/seiflow/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"           _  __ _\n" +
		"  ___  ___(_)/ _| | _____      __\n" +
		" / __|/ _ \\ | |_| |/ _ \\ \\ /\\ / /\n" +
		" \\__ \\  __/ |  _| | (_) \\ V  V /\n" +
		" |___/\\___|_|_| |_|\\___/ \\_/\\_/\n"
)

var rootCmd = &cobra.Command{
	Use:   "seiflow",
	Short: "seiflow - case lifecycle diagrams",
	Long: color.CyanString(logo) + "\nTurns the event log of an administrative case into a process-flow\n" +
		"diagram and links document mentions inside its narratives.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		noColor, _ := cmd.Flags().GetBool("no-color")
		setupLogging(cmd, verbose)
		if !noColor {
			if cfg, err := config.Load(); err == nil {
				noColor = cfg.Display.NoColor
			}
		}
		if noColor {
			color.NoColor = true
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "seiflow %s\n", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
