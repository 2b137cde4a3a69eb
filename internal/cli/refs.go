package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seiflow/seiflow/internal/caselog"
	"github.com/seiflow/seiflow/internal/config"
	"github.com/seiflow/seiflow/internal/refs"
)

var (
	refsCmd = &cobra.Command{
		Use:   "refs",
		Short: "Document reference utilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	refsExtractCmd = &cobra.Command{
		Use:   "extract [text...]",
		Short: "Extract the most trusted document number from a narrative",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRefsExtract,
	}

	refsLinkCmd = &cobra.Command{
		Use:   "link [text...]",
		Short: "Link document and activity mentions against a case",
		Long: `Link document and activity mentions against a case.

Without text arguments every event narrative of the case is linked.

Example:
  seiflow refs link --file case.json "Ver Documento SEI-1234567"`,
		RunE: runRefsLink,
	}
)

func init() {
	refsExtractCmd.Flags().Bool("explain", false, "List every candidate with its rule")
	refsExtractCmd.Flags().Bool("json", false, "Output machine-readable JSON")
	addCaseSourceFlags(refsLinkCmd)
	refsLinkCmd.Flags().Bool("json", false, "Output segments as JSON")
	refsCmd.AddCommand(refsExtractCmd)
	refsCmd.AddCommand(refsLinkCmd)
	rootCmd.AddCommand(refsCmd)
}

func runRefsExtract(cmd *cobra.Command, args []string) error {
	explain, _ := cmd.Flags().GetBool("explain")
	asJSON, _ := cmd.Flags().GetBool("json")
	text := strings.Join(args, " ")
	w := cmd.OutOrStdout()

	id, ok := refs.Extract(text)
	if asJSON {
		payload := map[string]any{"text": text, "found": ok, "id": id}
		if explain {
			payload["candidates"] = refs.ExtractAll(text)
		}
		return printJSON(w, payload)
	}

	if ok {
		fmt.Fprintln(w, id)
	} else {
		fmt.Fprintln(w, "no identifier found")
	}
	if explain {
		for _, c := range refs.ExtractAll(text) {
			fmt.Fprintf(w, "  %-10s p%d  %s\n", c.Rule, c.Priority, c.Value)
		}
	}
	return nil
}

func runRefsLink(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// the case is optional: without it nothing resolves
	export := &caselog.CaseExport{}
	file, _ := cmd.Flags().GetString("file")
	caseID, _ := cmd.Flags().GetString("case")
	if strings.TrimSpace(file) != "" || strings.TrimSpace(caseID) != "" {
		if export, err = loadCaseInput(cmd, cfg); err != nil {
			return err
		}
	}
	events := export.Events()
	resolver := refs.NewResolver(export.Documents, events)

	var texts []string
	if len(args) > 0 {
		texts = []string{strings.Join(args, " ")}
	} else {
		for _, e := range caselog.Normalize(events) {
			if e.Narrative != "" {
				texts = append(texts, e.Narrative)
			}
		}
	}

	w := cmd.OutOrStdout()
	if asJSON {
		out := make([][]refs.Segment, 0, len(texts))
		for _, t := range texts {
			out = append(out, resolver.Resolve(t))
		}
		return printJSON(w, out)
	}
	for _, t := range texts {
		fmt.Fprintln(w, refs.RenderMarkdown(resolver.Resolve(t)))
	}
	return nil
}
