// Package casestore caches imported case logs in a local SQLite
// database so they can be rendered again without the upstream API.
package casestore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/seiflow/seiflow/internal/caselog"
)

// ErrCaseNotFound is returned for unknown case ids.
var ErrCaseNotFound = errors.New("case not found")

type CaseStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewCaseStore(dbPath string) (*CaseStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open case db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &CaseStore{db: db, now: time.Now}, nil
}

func (s *CaseStore) Close() error {
	return s.db.Close()
}

// ImportCase stores c, replacing any earlier import of the same case.
// Events keep the order in which the pages delivered them. It returns
// the id of this import batch.
func (s *CaseStore) ImportCase(c *caselog.CaseExport) (string, error) {
	caseID := strings.TrimSpace(c.Case)
	if caseID == "" {
		return "", fmt.Errorf("import case: missing case id")
	}
	importID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("import case: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM case_events WHERE case_id = ?`, caseID); err != nil {
		return "", fmt.Errorf("import case: clear events: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM case_documents WHERE case_id = ?`, caseID); err != nil {
		return "", fmt.Errorf("import case: clear documents: %w", err)
	}
	_, err = tx.Exec(`
	INSERT INTO cases (case_id, title, import_id, imported_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(case_id) DO UPDATE SET title = excluded.title, import_id = excluded.import_id, imported_at = excluded.imported_at
	`, caseID, c.Title, importID, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("import case: upsert case: %w", err)
	}

	eventStmt, err := tx.Prepare(`
	INSERT INTO case_events (case_id, position, event_id, task_type, narrative, timestamp_raw, unit_id, unit_code, unit_description, user_id, user_code, user_name, summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("import case: prepare events: %w", err)
	}
	defer eventStmt.Close()

	for i, e := range c.Events() {
		_, err := eventStmt.Exec(
			caseID,
			i,
			e.ID,
			e.TaskType,
			e.Narrative,
			e.TimestampRaw,
			e.Unit.ID,
			e.Unit.ShortCode,
			e.Unit.Description,
			e.User.ID,
			e.User.ShortCode,
			e.User.Name,
			c.Summaries[e.ID],
		)
		if err != nil {
			return "", fmt.Errorf("import case: insert event %s: %w", e.ID, err)
		}
	}

	for _, d := range c.Documents {
		_, err := tx.Exec(`
		INSERT INTO case_documents (case_id, formatted_id, raw_number, document_type, description)
		VALUES (?, ?, ?, ?, ?)
		`, caseID, d.FormattedID, d.RawNumber, d.DocumentType, d.Description)
		if err != nil {
			return "", fmt.Errorf("import case: insert document %s: %w", d.FormattedID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("import case: commit: %w", err)
	}
	slog.Info("Case imported", "case", caseID, "import_id", importID, "pages", len(c.Pages), "documents", len(c.Documents))
	return importID, nil
}

// GetCase returns the header of a stored case.
func (s *CaseStore) GetCase(caseID string) (*CaseRecord, error) {
	row := s.db.QueryRow(`
	SELECT c.case_id, c.title, c.import_id, c.imported_at,
		(SELECT COUNT(*) FROM case_events e WHERE e.case_id = c.case_id),
		(SELECT COUNT(*) FROM case_documents d WHERE d.case_id = c.case_id)
	FROM cases c WHERE c.case_id = ?`, caseID)
	rec, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListCases returns every stored case, most recently imported first.
func (s *CaseStore) ListCases() ([]CaseRecord, error) {
	rows, err := s.db.Query(`
	SELECT c.case_id, c.title, c.import_id, c.imported_at,
		(SELECT COUNT(*) FROM case_events e WHERE e.case_id = c.case_id),
		(SELECT COUNT(*) FROM case_documents d WHERE d.case_id = c.case_id)
	FROM cases c ORDER BY c.imported_at DESC, c.case_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CaseRecord
	for rows.Next() {
		rec, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*CaseRecord, error) {
	var rec CaseRecord
	var importedAt string
	if err := row.Scan(&rec.CaseID, &rec.Title, &rec.ImportID, &importedAt, &rec.EventCount, &rec.DocumentCount); err != nil {
		return nil, err
	}
	rec.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
	return &rec, nil
}

// LoadCase rebuilds the export of a stored case. The events come back
// as a single page in their original delivery order.
func (s *CaseStore) LoadCase(caseID string) (*caselog.CaseExport, error) {
	rec, err := s.GetCase(caseID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
	SELECT event_id, task_type, narrative, timestamp_raw, unit_id, unit_code, unit_description, user_id, user_code, user_name, summary
	FROM case_events WHERE case_id = ? ORDER BY position`, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case events: %w", err)
	}
	defer rows.Close()

	var events []caselog.Event
	summaries := map[string]string{}
	for rows.Next() {
		var e caselog.Event
		var summary string
		err := rows.Scan(
			&e.ID,
			&e.TaskType,
			&e.Narrative,
			&e.TimestampRaw,
			&e.Unit.ID,
			&e.Unit.ShortCode,
			&e.Unit.Description,
			&e.User.ID,
			&e.User.ShortCode,
			&e.User.Name,
			&summary,
		)
		if err != nil {
			return nil, err
		}
		if summary != "" {
			summaries[e.ID] = summary
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docs, err := s.ListDocuments(caseID)
	if err != nil {
		return nil, err
	}

	out := &caselog.CaseExport{
		Case:      rec.CaseID,
		Title:     rec.Title,
		Documents: docs,
		Pages: []caselog.EventPage{{
			Info: caselog.PageInfo{
				Page:        1,
				TotalPages:  1,
				ItemsOnPage: len(events),
				TotalItems:  len(events),
			},
			Events: events,
		}},
	}
	if len(summaries) > 0 {
		out.Summaries = summaries
	}
	return out, nil
}

// ListDocuments returns the documents of a case in import order.
func (s *CaseStore) ListDocuments(caseID string) ([]caselog.Document, error) {
	rows, err := s.db.Query(`
	SELECT formatted_id, raw_number, document_type, description
	FROM case_documents WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []caselog.Document
	for rows.Next() {
		var d caselog.Document
		if err := rows.Scan(&d.FormattedID, &d.RawNumber, &d.DocumentType, &d.Description); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteCase removes a case and everything imported with it.
func (s *CaseStore) DeleteCase(caseID string) error {
	res, err := s.db.Exec(`DELETE FROM cases WHERE case_id = ?`, caseID)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	return nil
}
