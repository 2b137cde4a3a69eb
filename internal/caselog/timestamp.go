package caselog

import (
	"encoding/json"
	"strings"
	"time"
)

// TimestampLayout is the layout of the upstream event timestamps.
const TimestampLayout = "02/01/2006 15:04:05"

// Shorter variants seen in older exports.
var fallbackLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006",
}

// Timestamp is a parsed event time. The zero value is the invalid
// sentinel produced for malformed input; invalid timestamps sort after
// every valid one.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// ParseTimestamp parses raw in TimestampLayout (or one of its shorter
// fallbacks). It never fails: malformed input yields an invalid Timestamp.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	if t, err := time.Parse(TimestampLayout, raw); err == nil {
		return Timestamp{Time: t, Valid: true}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, Valid: true}
		}
	}
	return Timestamp{}
}

// Before orders timestamps ascending with invalid values last. Two
// invalid timestamps are unordered, so a stable sort keeps input order.
func (t Timestamp) Before(u Timestamp) bool {
	switch {
	case !t.Valid:
		return false
	case !u.Valid:
		return true
	default:
		return t.Time.Before(u.Time)
	}
}

// String formats the timestamp back into TimestampLayout, or "" when invalid.
func (t Timestamp) String() string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(TimestampLayout)
}

// MarshalJSON encodes valid timestamps as RFC 3339 and invalid ones as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
