package caselog

import "sort"

// Normalize attaches parsed timestamps, stable-sorts the events
// ascending by time (equal timestamps keep their input order, invalid
// timestamps go last) and numbers them 0..n-1. The input is not modified.
func Normalize(events []Event) []ProcessedEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]ProcessedEvent, len(events))
	for i, e := range events {
		out[i] = ProcessedEvent{
			Event:     e,
			Timestamp: ParseTimestamp(e.TimestampRaw),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	for i := range out {
		out[i].GlobalSequence = i
	}
	return out
}

// Timeline returns the significant events only, sorted by timestamp.
// It sorts on its own and does not assume the input is already ordered;
// GlobalSequence is the position within the timeline.
func Timeline(events []Event) []ProcessedEvent {
	var significant []Event
	for _, e := range events {
		if IsSignificant(e) {
			significant = append(significant, e)
		}
	}
	return Normalize(significant)
}

// AttachSummaries returns a copy of events with Summary set from
// summaries, keyed by event id. Events without an entry keep theirs.
func AttachSummaries(events []ProcessedEvent, summaries map[string]string) []ProcessedEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]ProcessedEvent, len(events))
	copy(out, events)
	for i := range out {
		if s, ok := summaries[out[i].ID]; ok {
			out[i].Summary = s
		}
	}
	return out
}
