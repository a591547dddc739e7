package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/affectly/affectly-backend/internal/config"
	"github.com/affectly/affectly-backend/internal/database"
	"github.com/affectly/affectly-backend/internal/handlers"
	"github.com/affectly/affectly-backend/internal/middleware"
	"github.com/affectly/affectly-backend/internal/routes"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Warn about missing credentials (don't fail; the affected paths degrade)
	if cfg.PaystackSecretKey == "" {
		log.Println("⚠️  WARNING: PAYSTACK_SECRET_KEY not set. Subscription upgrades will not work.")
	}
	if cfg.HuggingFaceToken == "" {
		log.Println("⚠️  WARNING: HUGGINGFACE_API_TOKEN not set. Entries will be saved without sentiment analysis.")
	}

	// Connect to PostgreSQL (profiles, subscribers, payment transactions)
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis (sessions, rate limits, payment verify locks)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (journal entries)
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Wire handlers to their services
	handlers.Init(cfg)
	log.Println("✅ Services initialized")

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		r.Use(middleware.SecurityHeaders)
		log.Println("✅ Production security headers enabled")
	}
	r.Use(middleware.RateLimitMiddleware)

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	log.Printf("🚀 Affectly backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
