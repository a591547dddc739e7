package routes

import (
	"github.com/affectly/affectly-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux) {
	// Journaling routes
	r.Post("/api/journals", handlers.CreateEntry)
	r.Get("/api/journals", handlers.GetEntries)

	// Dashboard analytics routes
	r.Get("/api/dashboard/stats", handlers.GetDashboardStats)
	r.Get("/api/dashboard/mood-trend", handlers.GetMoodTrend)
	r.Get("/api/dashboard/emotions", handlers.GetEmotionDistribution)

	// Export (Premium only)
	r.Get("/api/export", handlers.ExportCSV)

	// Profile routes
	r.Get("/api/profile", handlers.GetProfile)
	r.Post("/api/profile", handlers.CreateProfile)
	r.Put("/api/profile", handlers.UpdateProfile)
	r.Get("/api/features", handlers.GetFeatures)

	// Payment routes (Paystack upgrade flow)
	r.Post("/api/payments/initiate", handlers.InitiatePayment)
	r.Post("/api/payments/verify", handlers.VerifyPayment)
}
