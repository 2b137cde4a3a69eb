package refs

import (
	"regexp"
	"strings"

	"github.com/seiflow/seiflow/internal/caselog"
)

// Kind is what a resolved reference points at.
type Kind string

const (
	KindDocument Kind = "document"
	KindEvent    Kind = "event"
)

// Reference identifies the target of an inline link.
type Reference struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// Segment is a piece of narrative text. Ref is nil for literal text.
type Segment struct {
	Text string     `json:"text"`
	Ref  *Reference `json:"ref,omitempty"`
}

// Navigator is called when the user follows a resolved reference.
type Navigator func(ref Reference)

// Follow invokes nav for reference segments and reports whether it did.
func (s Segment) Follow(nav Navigator) bool {
	if s.Ref == nil || nav == nil {
		return false
	}
	nav(*s.Ref)
	return true
}

// mentionPattern matches, in this order of preference at a given
// position: "Documento SEI-<id>", "Documento <id>", "Atividade <id>".
var mentionPattern = regexp.MustCompile(
	`(?i)\bdocumento\s+sei-(\d{7,13})\b|\bdocumento\s+(\d{7,13})\b|\batividade\s+(\d{5,12})\b`)

// Resolver links narrative mentions to the documents and events of a case.
type Resolver struct {
	documents []caselog.Document
	eventIDs  map[string]struct{}
}

// NewResolver indexes the known documents and events. Either set may be
// nil, in which case mentions of that kind stay literal.
func NewResolver(documents []caselog.Document, events []caselog.Event) *Resolver {
	r := &Resolver{
		documents: documents,
		eventIDs:  make(map[string]struct{}, len(events)),
	}
	for _, e := range events {
		if e.ID != "" {
			r.eventIDs[e.ID] = struct{}{}
		}
	}
	return r
}

// Resolve splits text into literal and reference segments, scanning
// left to right without overlaps. Unresolved mentions remain literal and
// adjacent literals are merged.
func (r *Resolver) Resolve(text string) []Segment {
	if text == "" {
		return nil
	}

	var segments []Segment
	appendLiteral := func(s string) {
		if s == "" {
			return
		}
		if n := len(segments); n > 0 && segments[n-1].Ref == nil {
			segments[n-1].Text += s
			return
		}
		segments = append(segments, Segment{Text: s})
	}

	cursor := 0
	for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		ref, ok := r.resolveMatch(text, m)
		if !ok {
			continue
		}
		appendLiteral(text[cursor:start])
		segments = append(segments, Segment{Text: text[start:end], Ref: &ref})
		cursor = end
	}
	appendLiteral(text[cursor:])
	return segments
}

func (r *Resolver) resolveMatch(text string, m []int) (Reference, bool) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}
	switch {
	case group(1) != "":
		id := group(1)
		return Reference{ID: id, Kind: KindDocument}, r.hasDocument(id)
	case group(2) != "":
		id := group(2)
		return Reference{ID: id, Kind: KindDocument}, r.hasDocument(id)
	case group(3) != "":
		id := group(3)
		_, ok := r.eventIDs[id]
		return Reference{ID: id, Kind: KindEvent}, ok
	}
	return Reference{}, false
}

func (r *Resolver) hasDocument(id string) bool {
	for _, d := range r.documents {
		if containsEither(d.FormattedID, id) || containsEither(d.RawNumber, id) {
			return true
		}
	}
	return false
}

// containsEither reports substring containment in either direction.
func containsEither(known, id string) bool {
	if known == "" || id == "" {
		return false
	}
	return strings.Contains(known, id) || strings.Contains(id, known)
}

// Resolve is a convenience wrapper around NewResolver(...).Resolve(text).
func Resolve(text string, documents []caselog.Document, events []caselog.Event) []Segment {
	return NewResolver(documents, events).Resolve(text)
}

// RenderMarkdown renders segments with references as [text](kind:id) links.
func RenderMarkdown(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		if s.Ref == nil {
			sb.WriteString(s.Text)
			continue
		}
		sb.WriteString("[")
		sb.WriteString(s.Text)
		sb.WriteString("](")
		sb.WriteString(string(s.Ref.Kind))
		sb.WriteString(":")
		sb.WriteString(s.Ref.ID)
		sb.WriteString(")")
	}
	return sb.String()
}
