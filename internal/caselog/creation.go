package caselog

import (
	"time"

	"github.com/dustin/go-humanize"
)

// CreationSummary describes who opened the case and when.
type CreationSummary struct {
	EventID           string    `json:"eventId"`
	CreatorUnit       string    `json:"creatorUnit"`
	CreatorUser       string    `json:"creatorUser"`
	CreatorUserCode   string    `json:"creatorUserCode"`
	CreationDate      Timestamp `json:"creationDate"`
	TimeSinceCreation string    `json:"timeSinceCreation"`
}

// Creation picks the creation event of the log, falling back to the
// chronologically first event when none was recorded, and summarizes it
// relative to now. It returns nil for an empty log.
func Creation(events []Event, now time.Time) *CreationSummary {
	ordered := Normalize(events)
	if len(ordered) == 0 {
		return nil
	}
	chosen := ordered[0]
	for _, e := range ordered {
		if e.TaskType == TaskCreation {
			chosen = e
			break
		}
	}

	summary := &CreationSummary{
		EventID:         chosen.ID,
		CreatorUnit:     chosen.Unit.ShortCode,
		CreatorUser:     chosen.User.Name,
		CreatorUserCode: chosen.User.ShortCode,
		CreationDate:    chosen.Timestamp,
	}
	if chosen.Timestamp.Valid {
		summary.TimeSinceCreation = humanize.RelTime(chosen.Timestamp.Time, now, "ago", "from now")
	}
	return summary
}
