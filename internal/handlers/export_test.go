package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/affectly/affectly-backend/internal/models"
)

func TestExportRows(t *testing.T) {
	t.Parallel()
	createdAt := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	entries := []models.JournalEntry{
		{
			CreatedAt: createdAt,
			Content:   "busy, but good day",
			Sentiment: &models.SentimentResult{Label: "POSITIVE", Score: 0.85},
			Emotions: []models.EmotionScore{
				{Label: "joy", Score: 0.7},
				{Label: "optimism", Score: 0.6},
			},
			MoodScore: 0.85,
		},
		{
			// Saved while the classifier was down: no analysis attached.
			CreatedAt: createdAt.AddDate(0, 0, -1),
			Content:   "quiet evening",
			MoodScore: 0.5,
		},
	}

	rows := ExportRows(entries)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Date", "Content", "Sentiment", "Mood Score", "Emotions"}, rows[0])

	require.Equal(t, "2024-03-15T09:30:00Z", rows[1][0])
	require.Equal(t, "busy; but good day", rows[1][1]) // commas collapsed
	require.Equal(t, "POSITIVE", rows[1][2])
	require.Equal(t, "0.85", rows[1][3])
	require.Equal(t, "joy;optimism", rows[1][4])

	require.Equal(t, "quiet evening", rows[2][1])
	require.Equal(t, "", rows[2][2])
	require.Equal(t, "0.5", rows[2][3])
	require.Equal(t, "", rows[2][4])
}

func TestExportRows_Empty(t *testing.T) {
	t.Parallel()
	rows := ExportRows(nil)
	require.Len(t, rows, 1) // header only
}
