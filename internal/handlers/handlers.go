package handlers

import (
	"github.com/affectly/affectly-backend/internal/config"
	"github.com/affectly/affectly-backend/internal/services"
)

// Package-level collaborators, wired once at startup after the database
// connections are up.
var (
	store        services.EntryStore
	classifier   services.SentimentClassifier
	entitlements *services.EntitlementEngine
	payments     *services.PaymentWorkflow
)

// Init wires the handler package to its services. Call after
// database.Connect, database.ConnectPostgres and database.ConnectRedis.
func Init(cfg *config.Config) {
	store = services.NewDataStore()
	classifier = services.NewHuggingFaceClassifier(cfg)
	entitlements = &services.EntitlementEngine{Store: store}
	payments = &services.PaymentWorkflow{
		Gateway: services.NewPaystackGateway(cfg),
		Store:   store,
		Lock:    services.NewRedisReferenceLock(),
	}
}
