package casestore

import "time"

const Schema = `
CREATE TABLE IF NOT EXISTS cases (
	case_id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	import_id TEXT NOT NULL,
	imported_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS case_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id TEXT NOT NULL REFERENCES cases(case_id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	event_id TEXT NOT NULL,
	task_type TEXT NOT NULL DEFAULT '',
	narrative TEXT NOT NULL DEFAULT '',
	timestamp_raw TEXT NOT NULL DEFAULT '',
	unit_id TEXT NOT NULL DEFAULT '',
	unit_code TEXT NOT NULL DEFAULT '',
	unit_description TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	user_code TEXT NOT NULL DEFAULT '',
	user_name TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_case_events_case ON case_events(case_id, position);

CREATE TABLE IF NOT EXISTS case_documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id TEXT NOT NULL REFERENCES cases(case_id) ON DELETE CASCADE,
	formatted_id TEXT NOT NULL,
	raw_number TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_case_documents_case ON case_documents(case_id);
`

// CaseRecord is a stored case header.
type CaseRecord struct {
	CaseID        string    `json:"case_id"`
	Title         string    `json:"title"`
	ImportID      string    `json:"import_id"` // Batch id of the last import
	ImportedAt    time.Time `json:"imported_at"`
	EventCount    int       `json:"event_count"`
	DocumentCount int       `json:"document_count"`
}
