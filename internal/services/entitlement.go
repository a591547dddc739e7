package services

import (
	"context"
	"time"

	"github.com/affectly/affectly-backend/internal/models"
)

const (
	// FreeDailyEntryLimit is the number of entries a free-tier user may
	// write per calendar day. Soft limit: concurrent checks may let a
	// handful of extra entries through, which is acceptable here.
	FreeDailyEntryLimit = 5

	// Emotion detail levels exposed to the UI.
	EmotionDetailBasic    = "basic"
	EmotionDetailAdvanced = "advanced"
)

// Features describes what the UI may show for a profile.
// DailyLimit of 0 means unlimited.
type Features struct {
	DailyLimit    int    `json:"daily_limit"`
	EmotionDetail string `json:"emotion_detail"`
	ExportEnabled bool   `json:"export_enabled"`
}

// EntitlementEngine decides whether a user may write another entry today and
// which features their tier unlocks. Pure policy over a profile and a fresh
// entry count; safe to call concurrently.
type EntitlementEngine struct {
	Store EntryStore
}

// CanCreateEntry applies the daily-quota policy: premium is unlimited, free
// is capped at FreeDailyEntryLimit entries per calendar day.
func (e *EntitlementEngine) CanCreateEntry(profile *models.Profile, todaysEntryCount int64) bool {
	if profile.IsPremium() {
		return true
	}
	return todaysEntryCount < FreeDailyEntryLimit
}

// TodayEntryCount recounts the user's entries inside the current day window.
// Recomputed from the store on every check so a long session cannot reuse a
// stale count.
func (e *EntitlementEngine) TodayEntryCount(ctx context.Context, userID string, now time.Time) (int64, error) {
	start, end := DayWindow(now)
	return e.Store.CountEntriesInRange(ctx, userID, start, end)
}

// CheckQuota recounts today's entries and returns ErrQuotaExceeded when the
// profile may not write another one. Any store failure is returned as-is.
func (e *EntitlementEngine) CheckQuota(ctx context.Context, profile *models.Profile, now time.Time) error {
	count, err := e.TodayEntryCount(ctx, profile.UserID.String(), now)
	if err != nil {
		return err
	}
	if !e.CanCreateEntry(profile, count) {
		return ErrQuotaExceeded
	}
	return nil
}

// VisibleFeatures maps a tier to its feature set.
func (e *EntitlementEngine) VisibleFeatures(profile *models.Profile) Features {
	if profile.IsPremium() {
		return Features{
			DailyLimit:    0,
			EmotionDetail: EmotionDetailAdvanced,
			ExportEnabled: true,
		}
	}
	return Features{
		DailyLimit:    FreeDailyEntryLimit,
		EmotionDetail: EmotionDetailBasic,
		ExportEnabled: false,
	}
}

// DayWindow returns [start, end) of the UTC calendar day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
