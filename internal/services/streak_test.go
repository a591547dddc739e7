package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/affectly/affectly-backend/internal/models"
)

func entryAt(t time.Time) models.JournalEntry {
	return models.JournalEntry{CreatedAt: t, Content: "entry", MoodScore: 0.5}
}

func TestComputeStreak_Empty(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.Equal(t, 0, ComputeStreak(nil, now))
	require.Equal(t, 0, ComputeStreak([]models.JournalEntry{}, now))
}

func TestComputeStreak_ConsecutiveDays(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := []models.JournalEntry{
		entryAt(now.Add(-1 * time.Hour)),         // today
		entryAt(now.AddDate(0, 0, -1)),           // yesterday
		entryAt(now.AddDate(0, 0, -2).Add(-6 * time.Hour)), // day before, different hour
	}
	require.Equal(t, 3, ComputeStreak(entries, now))
}

func TestComputeStreak_GapTruncates(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := []models.JournalEntry{
		entryAt(now),                   // today
		entryAt(now.AddDate(0, 0, -2)), // two days ago: gap, streak stops at 1
		entryAt(now.AddDate(0, 0, -3)),
	}
	require.Equal(t, 1, ComputeStreak(entries, now))
}

func TestComputeStreak_SameDayDoesNotExtend(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	// Two entries today, then yesterday: the second same-day entry sits at
	// position 1 with daysDiff 0, which ends the greedy match.
	entries := []models.JournalEntry{
		entryAt(now.Add(-1 * time.Hour)),
		entryAt(now.Add(-10 * time.Hour)),
		entryAt(now.AddDate(0, 0, -1)),
	}
	require.Equal(t, 1, ComputeStreak(entries, now))
}

func TestComputeStreak_StartsYesterday(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	// No entry today: the most recent entry is a day old, mismatching
	// position 0, so the streak is already broken.
	entries := []models.JournalEntry{
		entryAt(now.AddDate(0, 0, -1)),
		entryAt(now.AddDate(0, 0, -2)),
	}
	require.Equal(t, 0, ComputeStreak(entries, now))
}
