package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SentimentResult is the classifier's sentiment verdict for one entry.
// Score is the model's confidence in [0,1].
type SentimentResult struct {
	Label string  `bson:"label" json:"label"`
	Score float64 `bson:"score" json:"score"`
}

// EmotionScore is one detected emotion with its confidence.
type EmotionScore struct {
	Label string  `bson:"label" json:"label"`
	Score float64 `bson:"score" json:"score"`
}

// JournalEntry represents one journaled text submission with its derived
// sentiment/emotion metadata. Entries are written once and never mutated.
// Sentiment and Emotions are nil when the classifier was unavailable at
// save time; the entry is persisted regardless so user writing is never lost.
type JournalEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UserIDString string             `bson:"user_id_string" json:"user_id,omitempty"`
	Content      string             `bson:"content" json:"content"`
	Sentiment    *SentimentResult   `bson:"sentiment,omitempty" json:"sentiment,omitempty"`
	Emotions     []EmotionScore     `bson:"emotions,omitempty" json:"emotions,omitempty"`
	MoodScore    float64            `bson:"mood_score" json:"mood_score"`
}
