package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/affectly/affectly-backend/internal/models"
)

// ExportRows shapes entries into CSV rows: header plus one row per entry
// with [Date, Content, Sentiment, Mood Score, Emotions]. Commas inside
// content and emotion lists are collapsed to semicolons so the rows stay
// friendly to naive spreadsheet imports.
func ExportRows(entries []models.JournalEntry) [][]string {
	rows := [][]string{{"Date", "Content", "Sentiment", "Mood Score", "Emotions"}}
	for _, e := range entries {
		sentimentLabel := ""
		if e.Sentiment != nil {
			sentimentLabel = e.Sentiment.Label
		}
		labels := make([]string, 0, len(e.Emotions))
		for _, emotion := range e.Emotions {
			labels = append(labels, emotion.Label)
		}
		rows = append(rows, []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			strings.ReplaceAll(e.Content, ",", ";"),
			sentimentLabel,
			strconv.FormatFloat(e.MoodScore, 'f', -1, 64),
			strings.Join(labels, ";"),
		})
	}
	return rows
}

// ExportCSV streams the user's full journal as a CSV download. Premium only:
// gated by the export feature flag, not by a separate role check.
func ExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Profile not found"})
		return
	}

	if !entitlements.VisibleFeatures(profile).ExportEnabled {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Data export is a Premium feature. Upgrade to export your journal."})
		return
	}

	entries, err := store.EntriesByUser(ctx, userID.String(), 0, 0)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Failed to fetch entries"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="affectly-journal-data.csv"`)

	writer := csv.NewWriter(w)
	writer.WriteAll(ExportRows(entries))
	writer.Flush()
}
