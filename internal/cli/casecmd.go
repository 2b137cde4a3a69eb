package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/seiflow/seiflow/internal/config"
	"github.com/seiflow/seiflow/internal/ingest"
)

var (
	caseCmd = &cobra.Command{
		Use:   "case",
		Short: "Manage the local case store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	caseImportCmd = &cobra.Command{
		Use:   "import <file>",
		Short: "Import a case export or event page into the local store",
		Args:  cobra.ExactArgs(1),
		RunE:  runCaseImport,
	}

	caseListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored cases",
		RunE:  runCaseList,
	}

	caseDeleteCmd = &cobra.Command{
		Use:   "delete <case>",
		Short: "Remove a case from the local store",
		Args:  cobra.ExactArgs(1),
		RunE:  runCaseDelete,
	}

	casePublishCmd = &cobra.Command{
		Use:   "publish <file>",
		Short: "Publish a case export to the ingest topic",
		Args:  cobra.ExactArgs(1),
		RunE:  runCasePublish,
	}

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Consume case exports from Kafka into the local store",
		RunE:  runIngest,
	}

	ingestCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Check broker connectivity and topic visibility",
		RunE:  runIngestCheck,
	}
)

func init() {
	caseImportCmd.Flags().String("id", "", "Case id (default: from the file)")
	caseListCmd.Flags().Bool("json", false, "Output machine-readable JSON")
	caseCmd.AddCommand(caseImportCmd)
	caseCmd.AddCommand(caseListCmd)
	caseCmd.AddCommand(caseDeleteCmd)
	caseCmd.AddCommand(casePublishCmd)
	rootCmd.AddCommand(caseCmd)

	ingestCmd.PersistentFlags().String("brokers", "", "Kafka brokers, comma separated (default from config)")
	ingestCmd.PersistentFlags().String("topic", "", "Topic to consume (default from config)")
	ingestCmd.Flags().String("group", "", "Consumer group (default from config)")
	ingestCheckCmd.Flags().Duration("timeout", 10*time.Second, "Per-step timeout")
	ingestCheckCmd.Flags().Bool("json", false, "Output machine-readable JSON")
	ingestCmd.AddCommand(ingestCheckCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runCaseImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	export, err := readExportFile(args[0])
	if err != nil {
		return err
	}
	if id, _ := cmd.Flags().GetString("id"); strings.TrimSpace(id) != "" {
		export.Case = strings.TrimSpace(id)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	importID, err := store.ImportCase(export)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported case %s (%d events, %d documents, import %s)\n",
		export.Case, len(export.Events()), len(export.Documents), importID)
	return nil
}

func runCaseList(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cases, err := store.ListCases()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if asJSON {
		if cases == nil {
			return printJSON(w, []any{})
		}
		return printJSON(w, cases)
	}
	if len(cases) == 0 {
		fmt.Fprintln(w, "No cases stored.")
		return nil
	}
	for _, c := range cases {
		fmt.Fprintf(w, "%-24s %4d events %3d docs  %s\n", c.CaseID, c.EventCount, c.DocumentCount, c.Title)
	}
	return nil
}

func runCaseDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteCase(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted case %s\n", args[0])
	return nil
}

func runCasePublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	export, err := readExportFile(args[0])
	if err != nil {
		return err
	}

	pub := ingest.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer pub.Close()
	if err := pub.Publish(cmd.Context(), export); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published case %s to %s\n", export.Case, cfg.Kafka.Topic)
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	brokers := flagOr(cmd, "brokers", cfg.Kafka.Brokers)
	topic := flagOr(cmd, "topic", cfg.Kafka.Topic)
	group := flagOr(cmd, "group", cfg.Kafka.ConsumerGroup)
	if brokers == "" || topic == "" {
		return fmt.Errorf("kafka brokers and topic are required")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := ingest.NewKafkaConsumer(brokers, group, []string{topic})
	defer consumer.Close()
	// readers must see cancellation before Close waits for them
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Consuming %s from %s (group %s)\n", topic, brokers, group)
	stats, err := ingest.Run(runCtx, consumer, store)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cases, rejected %d messages\n", stats.Imported, stats.Rejected)
	return err
}

func runIngestCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	asJSON, _ := cmd.Flags().GetBool("json")
	brokers := flagOr(cmd, "brokers", cfg.Kafka.Brokers)
	topic := flagOr(cmd, "topic", cfg.Kafka.Topic)

	report := ingest.Check(cmd.Context(), brokers, topic, timeout)
	w := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(w, report); err != nil {
			return err
		}
	} else {
		for _, row := range report.Rows {
			status := string(row.Status)
			switch row.Status {
			case ingest.CheckOK:
				status = color.GreenString(status)
			case ingest.CheckFail:
				status = color.RedString(status)
			}
			fmt.Fprintf(w, "%-5s %-6s %-24s %s\n", status, row.Step, row.Target, row.Detail)
			if row.Hint != "" {
				fmt.Fprintf(w, "             %s\n", dimColor.Sprint(row.Hint))
			}
		}
	}
	if report.Failed() {
		return fmt.Errorf("broker check failed")
	}
	return nil
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
