package services

import (
	"time"

	"github.com/affectly/affectly-backend/internal/models"
)

// ComputeStreak returns the consecutive-day writing streak ending today.
// entries must be ordered by created_at descending. now is passed in so the
// computation stays deterministic and testable.
//
// Greedy prefix match: the entry at position i continues the streak iff it
// is exactly i calendar days old. A second entry on the same day does not
// extend the streak, and the first gap ends it. Both are deliberate.
func ComputeStreak(entries []models.JournalEntry, now time.Time) int {
	streak := 0
	for i, entry := range entries {
		if daysBetween(entry.CreatedAt, now) != i {
			break
		}
		streak++
	}
	return streak
}

// daysBetween counts whole calendar days (UTC) from earlier to later.
func daysBetween(earlier, later time.Time) int {
	e := earlier.UTC()
	l := later.UTC()
	eDay := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	lDay := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
	return int(lDay.Sub(eDay).Hours() / 24)
}
