package services

import (
	"iter"
	"math"

	"github.com/affectly/affectly-backend/internal/models"
)

// MoodTrendWindow is how many recent entries feed the mood trend chart.
const MoodTrendWindow = 30

// TrendPoint is one charted mood sample.
type TrendPoint struct {
	Date string  `json:"date"`
	Mood float64 `json:"mood"`
}

// EmotionCount is one label's occurrence count across the entry log.
type EmotionCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MoodTrend yields the mood scores of the 30 most recent entries in
// chronological order. entries must be newest-first (store order). The
// returned sequence is restartable; no smoothing or interpolation.
func MoodTrend(entries []models.JournalEntry) iter.Seq[TrendPoint] {
	window := entries
	if len(window) > MoodTrendWindow {
		window = window[:MoodTrendWindow]
	}
	return func(yield func(TrendPoint) bool) {
		for i := len(window) - 1; i >= 0; i-- {
			point := TrendPoint{
				Date: window[i].CreatedAt.UTC().Format("2006-01-02"),
				Mood: window[i].MoodScore,
			}
			if !yield(point) {
				return
			}
		}
	}
}

// EmotionDistribution counts every (entry, emotion) occurrence per label.
// An entry listing several emotions contributes to several counters; entries
// without emotion data contribute nothing. Labels appear in first-encounter
// order; callers sort for display if they want.
func EmotionDistribution(entries []models.JournalEntry) []EmotionCount {
	counts := make(map[string]int)
	var order []string
	for _, entry := range entries {
		for _, emotion := range entry.Emotions {
			if _, seen := counts[emotion.Label]; !seen {
				order = append(order, emotion.Label)
			}
			counts[emotion.Label]++
		}
	}

	distribution := make([]EmotionCount, 0, len(order))
	for _, label := range order {
		distribution = append(distribution, EmotionCount{Label: label, Count: counts[label]})
	}
	return distribution
}

// MostCommonEmotion returns the label with the highest occurrence count.
// Ties break to the label that reached the maximum first, which is stable
// with respect to entry order. ok is false when no entry carries emotion
// data; callers render that as "neutral" but must not confuse it with a
// genuinely detected neutral emotion.
func MostCommonEmotion(entries []models.JournalEntry) (label string, ok bool) {
	best := 0
	for _, ec := range EmotionDistribution(entries) {
		if ec.Count > best {
			best = ec.Count
			label = ec.Label
			ok = true
		}
	}
	return label, ok
}

// AverageMood is the mean mood score over all entries, rounded to 2 decimal
// places. An empty log averages to 0 rather than erroring.
func AverageMood(entries []models.JournalEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, entry := range entries {
		sum += entry.MoodScore
	}
	return math.Round(sum/float64(len(entries))*100) / 100
}
