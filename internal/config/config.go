package config

import (
	"os"
	"strings"
)

type Config struct {
	MongoURI          string
	PostgresURI       string
	RedisURI          string
	Port              string
	FrontendURL       string
	AllowedOrigins    []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	PaystackSecretKey string   // Secret key for the Paystack payment gateway
	PaystackBaseURL   string   // Overridable for testing; defaults to the live API
	HuggingFaceToken  string   // API token for the Hugging Face inference API
	SentimentModelURL string
	EmotionModelURL   string
	Environment       string // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	// CORS: allow multiple origins so the production frontend works alongside local dev
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		MongoURI:          getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/affectly")),
		PostgresURI:       getEnv("POSTGRES_URI", "postgres://localhost:5432/affectly?sslmode=disable"),
		RedisURI:          getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:              getEnv("PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:    allowedOrigins,
		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		HuggingFaceToken:  getEnv("HUGGINGFACE_API_TOKEN", ""),
		SentimentModelURL: getEnv("SENTIMENT_MODEL_URL", "https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"),
		EmotionModelURL:   getEnv("EMOTION_MODEL_URL", "https://api-inference.huggingface.co/models/j-hartmann/emotion-english-distilroberta-base"),
		Environment:       env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
