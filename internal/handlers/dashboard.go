package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/affectly/affectly-backend/internal/services"
)

// noEmotionSentinel is rendered when no entry carries emotion data. The
// frontend treats it as "no data", not as a detected neutral emotion.
const noEmotionSentinel = "neutral"

type DashboardStatsResponse struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message,omitempty"`
	TotalEntries int     `json:"total_entries"`
	AverageMood  float64 `json:"average_mood"`
	StreakDays   int     `json:"streak_days"`
	TopEmotion   string  `json:"top_emotion"`
	HasEmotions  bool    `json:"has_emotions"`
}

// GetDashboardStats aggregates the user's full entry log into the four
// headline dashboard numbers.
func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(DashboardStatsResponse{Success: false, Message: "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := store.EntriesByUser(ctx, userID.String(), 0, 0)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(DashboardStatsResponse{Success: false, Message: "Failed to fetch entries"})
		return
	}

	topEmotion, hasEmotions := services.MostCommonEmotion(entries)
	if !hasEmotions {
		topEmotion = noEmotionSentinel
	}

	json.NewEncoder(w).Encode(DashboardStatsResponse{
		Success:      true,
		TotalEntries: len(entries),
		AverageMood:  services.AverageMood(entries),
		StreakDays:   services.ComputeStreak(entries, time.Now()),
		TopEmotion:   topEmotion,
		HasEmotions:  hasEmotions,
	})
}

// GetMoodTrend returns the mood line-chart points: the 30 most recent
// entries in chronological order.
func GetMoodTrend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := store.EntriesByUser(ctx, userID.String(), services.MoodTrendWindow, 0)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Failed to fetch entries"})
		return
	}

	points := make([]services.TrendPoint, 0, len(entries))
	for point := range services.MoodTrend(entries) {
		points = append(points, point)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"trend":   points,
	})
}

// GetEmotionDistribution returns per-label emotion counts over the full log.
func GetEmotionDistribution(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := store.EntriesByUser(ctx, userID.String(), 0, 0)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Failed to fetch entries"})
		return
	}

	distribution := services.EmotionDistribution(entries)
	if distribution == nil {
		distribution = []services.EmotionCount{}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"emotions": distribution,
	})
}
