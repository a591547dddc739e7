package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/affectly/affectly-backend/internal/config"
	"github.com/affectly/affectly-backend/internal/models"
)

// Analysis is the classifier's full verdict for one piece of text.
type Analysis struct {
	Sentiment models.SentimentResult `json:"sentiment"`
	Emotions  []models.EmotionScore  `json:"emotions"`
}

// SentimentClassifier scores entry text. Opaque external model: it may be
// slow or unavailable, and callers must not lose user content when it fails.
type SentimentClassifier interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// HuggingFaceClassifier calls the Hugging Face inference API: one sentiment
// model (single label + confidence) and one emotion model (ranked labels).
type HuggingFaceClassifier struct {
	Token             string
	SentimentModelURL string
	EmotionModelURL   string
	HTTPClient        *http.Client
}

// NewHuggingFaceClassifier builds a classifier from config.
func NewHuggingFaceClassifier(cfg *config.Config) *HuggingFaceClassifier {
	return &HuggingFaceClassifier{
		Token:             cfg.HuggingFaceToken,
		SentimentModelURL: cfg.SentimentModelURL,
		EmotionModelURL:   cfg.EmotionModelURL,
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
	}
}

// modelScore matches one {label, score} element of the inference response.
type modelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analyze runs both model calls. The sentiment call must succeed; a failed
// emotion call degrades to an entry without emotion data rather than an error.
func (c *HuggingFaceClassifier) Analyze(ctx context.Context, text string) (*Analysis, error) {
	sentiment, err := c.classify(ctx, c.SentimentModelURL, text)
	if err != nil {
		return nil, err
	}
	if len(sentiment) == 0 {
		return nil, fmt.Errorf("sentiment model returned no labels")
	}

	analysis := &Analysis{
		Sentiment: models.SentimentResult{Label: sentiment[0].Label, Score: sentiment[0].Score},
	}

	emotions, err := c.classify(ctx, c.EmotionModelURL, text)
	if err == nil {
		for _, e := range emotions {
			analysis.Emotions = append(analysis.Emotions, models.EmotionScore{Label: e.Label, Score: e.Score})
		}
	}

	return analysis, nil
}

// classify POSTs text to one inference endpoint and returns the ranked labels.
// The API responds with [[{label, score}, ...]] sorted by score descending.
func (c *HuggingFaceClassifier) classify(ctx context.Context, modelURL, text string) ([]modelScore, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("classifier API token not configured")
	}

	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, modelURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API returned status %d", resp.StatusCode)
	}

	var results [][]modelScore
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("inference API returned no results")
	}
	return results[0], nil
}
