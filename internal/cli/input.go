package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seiflow/seiflow/internal/caselog"
	"github.com/seiflow/seiflow/internal/casestore"
	"github.com/seiflow/seiflow/internal/config"
)

func addCaseSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Case export or event page JSON file")
	cmd.Flags().String("case", "", "Case id in the local case store")
}

func openStore(cfg *config.Config) (*casestore.CaseStore, error) {
	if err := config.EnsureDir(filepath.Dir(cfg.Store.DBPath)); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return casestore.NewCaseStore(cfg.Store.DBPath)
}

// loadCaseInput resolves --file or --case into a case export.
func loadCaseInput(cmd *cobra.Command, cfg *config.Config) (*caselog.CaseExport, error) {
	file, _ := cmd.Flags().GetString("file")
	caseID, _ := cmd.Flags().GetString("case")
	file = strings.TrimSpace(file)
	caseID = strings.TrimSpace(caseID)

	switch {
	case file != "" && caseID != "":
		return nil, fmt.Errorf("use either --file or --case, not both")
	case file != "":
		return readExportFile(file)
	case caseID != "":
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadCase(caseID)
	default:
		return nil, fmt.Errorf("--file or --case is required")
	}
}

// readExportFile accepts either a full case export or a bare event page
// as served by the upstream API. "-" reads stdin.
func readExportFile(path string) (*caselog.CaseExport, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var export caselog.CaseExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(export.Pages) > 0 {
		return &export, nil
	}

	var page caselog.EventPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(page.Events) > 0 {
		export.Pages = []caselog.EventPage{page}
	}
	if export.Case == "" {
		export.Case = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &export, nil
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// outputFormat returns --format when given, else the configured default.
func outputFormat(cmd *cobra.Command, cfg *config.Config) string {
	if f, _ := cmd.Flags().GetString("format"); strings.TrimSpace(f) != "" {
		return strings.ToLower(strings.TrimSpace(f))
	}
	return cfg.Display.Format
}
