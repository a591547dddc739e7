package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/affectly/affectly-backend/internal/models"
	"github.com/affectly/affectly-backend/internal/services"
)

type CreateEntryRequest struct {
	Content string `json:"content"`
}

type CreateEntryResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Entry   map[string]interface{} `json:"entry,omitempty"`
}

type GetEntriesResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message,omitempty"`
	Entries []map[string]interface{} `json:"entries"`
	Total   int                      `json:"total"`
}

// neutralMoodScore is stored when the classifier was unavailable: the entry
// is kept (user writing is never discarded) with no analysis attached.
const neutralMoodScore = 0.5

// CreateEntry writes a journal entry for the authenticated user. The daily
// quota is recounted from the store on every attempt; classifier failure
// degrades to an entry without analysis instead of losing the text.
func CreateEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(CreateEntryResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateEntryResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if req.Content == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateEntryResponse{
			Success: false,
			Message: "Content is required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(CreateEntryResponse{
			Success: false,
			Message: "Profile not found",
		})
		return
	}

	now := time.Now()
	if err := entitlements.CheckQuota(ctx, profile, now); err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(CreateEntryResponse{
				Success: false,
				Message: "Free users can only create 5 entries per day. Upgrade to Premium for unlimited entries.",
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CreateEntryResponse{
			Success: false,
			Message: "Failed to check entry limit. Please try again.",
		})
		return
	}

	entry := models.JournalEntry{
		CreatedAt:    now,
		UserIDString: userID.String(),
		Content:      req.Content,
		MoodScore:    neutralMoodScore,
	}

	analysis, err := classifier.Analyze(ctx, req.Content)
	if err != nil {
		log.Printf("Warning: classifier unavailable, saving entry without analysis: %v", err)
	} else {
		sentiment := analysis.Sentiment
		entry.Sentiment = &sentiment
		entry.Emotions = analysis.Emotions
		entry.MoodScore = analysis.Sentiment.Score
	}

	if _, err := store.InsertEntry(ctx, &entry); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CreateEntryResponse{
			Success: false,
			Message: "Failed to save entry. Please try again.",
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateEntryResponse{
		Success: true,
		Message: "Entry analyzed and saved",
		Entry:   entryMap(entry),
	})
}

// GetEntries returns the authenticated user's entries newest-first with
// limit/skip pagination.
func GetEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(GetEntriesResponse{
			Success: false,
			Message: "Authentication required",
			Entries: []map[string]interface{}{},
		})
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	skip := 0
	if skipStr := r.URL.Query().Get("skip"); skipStr != "" {
		if parsed, err := strconv.Atoi(skipStr); err == nil && parsed >= 0 {
			skip = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := store.EntriesByUser(ctx, userID.String(), limit, skip)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(GetEntriesResponse{
			Success: false,
			Message: "Failed to fetch entries",
			Entries: []map[string]interface{}{},
		})
		return
	}

	result := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		result = append(result, entryMap(e))
	}

	json.NewEncoder(w).Encode(GetEntriesResponse{
		Success: true,
		Entries: result,
		Total:   len(result),
	})
}

func entryMap(e models.JournalEntry) map[string]interface{} {
	m := map[string]interface{}{
		"id":         e.ID.Hex(),
		"content":    e.Content,
		"created_at": e.CreatedAt,
		"mood_score": e.MoodScore,
	}
	if e.Sentiment != nil {
		m["sentiment"] = e.Sentiment
	}
	if len(e.Emotions) > 0 {
		m["emotions"] = e.Emotions
	}
	return m
}
