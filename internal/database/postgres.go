package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Profiles table: authoritative subscription tier per user
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			full_name VARCHAR(255),
			subscription_tier VARCHAR(20) NOT NULL DEFAULT 'free',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Subscribers table: denormalized billing record, advisory only
		`CREATE TABLE IF NOT EXISTS subscribers (
			user_id UUID PRIMARY KEY REFERENCES profiles(user_id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			subscribed BOOLEAN NOT NULL DEFAULT FALSE,
			subscription_tier VARCHAR(20) NOT NULL DEFAULT 'free',
			subscription_end TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Payment transactions table: one row per gateway reference
		`CREATE TABLE IF NOT EXISTS payment_transactions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			reference VARCHAR(255) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL,
			amount_minor BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			verified_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_subscription_tier ON profiles(subscription_tier)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_email ON subscribers(email)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_transactions_reference ON payment_transactions(reference)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_transactions_status ON payment_transactions(status)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
