// Package caselog models the event log of an administrative case and
// derives the ordered, sequence-numbered views the flow diagram and the
// milestone timeline are drawn from.
package caselog

import "sort"

// Unit is the organizational actor that performs or receives an action.
type Unit struct {
	ID          string `json:"id"`
	ShortCode   string `json:"shortCode"`   // e.g. SEAD-PROT
	Description string `json:"description"` // Full unit name
}

// User is the person who recorded an event.
type User struct {
	ID        string `json:"id"`
	ShortCode string `json:"shortCode"` // Login / badge code
	Name      string `json:"name"`
}

// Event is one immutable entry in a case log.
type Event struct {
	ID           string `json:"id"`
	TaskType     string `json:"taskType"`  // e.g. PROCESSO-REMETIDO-UNIDADE
	Narrative    string `json:"narrative"` // Free text, may mention documents
	TimestampRaw string `json:"timestamp"` // DD/MM/YYYY HH:MM:SS
	Unit         Unit   `json:"unit"`
	User         User   `json:"user"`
}

// ProcessedEvent is an Event enriched with its parsed timestamp and its
// position in the chronologically sorted log.
type ProcessedEvent struct {
	Event
	Timestamp      Timestamp `json:"parsedTimestamp"`
	GlobalSequence int       `json:"globalSequence"`
	Summary        string    `json:"summary,omitempty"`
}

// PageInfo carries the pagination header of an event page.
type PageInfo struct {
	Page        int `json:"page"`
	TotalPages  int `json:"totalPages"`
	ItemsOnPage int `json:"itemsOnPage"`
	TotalItems  int `json:"totalItems"`
}

// EventPage is one page of a case log as delivered by the upstream API.
type EventPage struct {
	Info   PageInfo `json:"Info"`
	Events []Event  `json:"events"`
}

// HasNext reports whether more pages follow this one.
func (p EventPage) HasNext() bool {
	return p.Info.Page < p.Info.TotalPages
}

// Document is a document attached to the case. Only the identifiers are
// used, for reference resolution.
type Document struct {
	FormattedID  string `json:"formattedId"` // e.g. SEI-0012345
	RawNumber    string `json:"rawNumber"`
	DocumentType string `json:"documentType,omitempty"`
	Description  string `json:"description,omitempty"`
}

// MergePages concatenates the events of several pages in page order.
// Pages are not required to arrive sorted.
func MergePages(pages []EventPage) []Event {
	if len(pages) == 0 {
		return nil
	}
	ordered := make([]EventPage, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Info.Page < ordered[j].Info.Page
	})
	var out []Event
	for _, p := range ordered {
		out = append(out, p.Events...)
	}
	return out
}

// CaseExport is the interchange envelope for one case: the upstream
// event pages plus its documents. It is the format of CLI import files
// and of ingest messages.
type CaseExport struct {
	Case      string            `json:"case"` // Case protocol number
	Title     string            `json:"title,omitempty"`
	Pages     []EventPage       `json:"pages"`
	Documents []Document        `json:"documents,omitempty"`
	Summaries map[string]string `json:"summaries,omitempty"` // event id -> summary
}

// Events returns the events of all pages in page order.
func (c CaseExport) Events() []Event {
	return MergePages(c.Pages)
}
