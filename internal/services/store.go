package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/affectly/affectly-backend/internal/database"
	"github.com/affectly/affectly-backend/internal/models"
)

// EntryStore is the narrow persistence surface the engine depends on.
// Journal entries live in MongoDB; profiles, subscribers and payment
// transactions live in PostgreSQL. Implemented by DataStore; tests use
// in-memory fakes.
type EntryStore interface {
	InsertEntry(ctx context.Context, entry *models.JournalEntry) (primitive.ObjectID, error)
	EntriesByUser(ctx context.Context, userID string, limit, skip int) ([]models.JournalEntry, error)
	EntriesInRange(ctx context.Context, userID string, start, end time.Time) ([]models.JournalEntry, error)
	CountEntriesInRange(ctx context.Context, userID string, start, end time.Time) (int64, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfileName(ctx context.Context, userID uuid.UUID, fullName string) error
	UpgradeProfileTier(ctx context.Context, userID uuid.UUID, tier string) error

	UpsertSubscriber(ctx context.Context, rec *models.SubscriberRecord) error
	GetSubscriber(ctx context.Context, userID uuid.UUID) (*models.SubscriberRecord, error)

	GetTransaction(ctx context.Context, reference string) (*models.PaymentTransaction, error)
	MarkTransactionVerified(ctx context.Context, reference, email string, amountMinor int64, verifiedAt time.Time) error
	MarkTransactionFailed(ctx context.Context, reference, email string) error
}

// DataStore is the production EntryStore over the shared database handles.
type DataStore struct {
	Mongo    *mongo.Database
	Postgres *sql.DB
}

// NewDataStore returns a store bound to the global database connections.
// Call after database.Connect/ConnectPostgres have succeeded.
func NewDataStore() *DataStore {
	return &DataStore{
		Mongo:    database.DB,
		Postgres: database.PostgresDB,
	}
}

const entriesCollection = "journal_entries"

// InsertEntry persists a new journal entry and returns its generated ID.
func (s *DataStore) InsertEntry(ctx context.Context, entry *models.JournalEntry) (primitive.ObjectID, error) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.Mongo.Collection(entriesCollection).InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// EntriesByUser returns the user's entries newest-first. limit <= 0 means no
// limit (the dashboard aggregates over the full log).
func (s *DataStore) EntriesByUser(ctx context.Context, userID string, limit, skip int) ([]models.JournalEntry, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.M{"created_at": -1})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	if skip > 0 {
		findOptions.SetSkip(int64(skip))
	}

	cursor, err := s.Mongo.Collection(entriesCollection).Find(ctx, bson.M{"user_id_string": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EntriesInRange returns entries with created_at >= start and < end, newest-first.
func (s *DataStore) EntriesInRange(ctx context.Context, userID string, start, end time.Time) ([]models.JournalEntry, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.M{"created_at": -1})

	filter := bson.M{
		"user_id_string": userID,
		"created_at":     bson.M{"$gte": start, "$lt": end},
	}
	cursor, err := s.Mongo.Collection(entriesCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountEntriesInRange counts entries with created_at >= start and < end.
// The quota check calls this on every attempt so the count is never stale.
func (s *DataStore) CountEntriesInRange(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	filter := bson.M{
		"user_id_string": userID,
		"created_at":     bson.M{"$gte": start, "$lt": end},
	}
	return s.Mongo.Collection(entriesCollection).CountDocuments(ctx, filter)
}

// GetProfile returns the profile for a user ID, or ErrNotFound.
func (s *DataStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.scanProfile(s.Postgres.QueryRowContext(ctx, `
		SELECT user_id, email, COALESCE(full_name, ''), subscription_tier, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID))
}

// GetProfileByEmail resolves a profile from an email address (case-insensitive),
// used to match the gateway's paying identity to an account.
func (s *DataStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return s.scanProfile(s.Postgres.QueryRowContext(ctx, `
		SELECT user_id, email, COALESCE(full_name, ''), subscription_tier, created_at, updated_at
		FROM profiles
		WHERE LOWER(email) = LOWER($1)
	`, email))
}

func (s *DataStore) scanProfile(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Email, &p.FullName, &p.SubscriptionTier, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new profile on the free tier.
func (s *DataStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	tier := profile.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}
	_, err := s.Postgres.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, full_name, subscription_tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, profile.UserID, profile.Email, profile.FullName, tier)
	return err
}

// UpdateProfileName updates the display name on a profile.
func (s *DataStore) UpdateProfileName(ctx context.Context, userID uuid.UUID, fullName string) error {
	result, err := s.Postgres.ExecContext(ctx, `
		UPDATE profiles SET full_name = $1, updated_at = NOW() WHERE user_id = $2
	`, fullName, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpgradeProfileTier sets the subscription tier. Only the payment workflow
// calls this, after the gateway has confirmed the transaction.
func (s *DataStore) UpgradeProfileTier(ctx context.Context, userID uuid.UUID, tier string) error {
	result, err := s.Postgres.ExecContext(ctx, `
		UPDATE profiles SET subscription_tier = $1, updated_at = NOW() WHERE user_id = $2
	`, tier, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSubscriber writes the denormalized billing record.
func (s *DataStore) UpsertSubscriber(ctx context.Context, rec *models.SubscriberRecord) error {
	_, err := s.Postgres.ExecContext(ctx, `
		INSERT INTO subscribers (user_id, email, subscribed, subscription_tier, subscription_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			subscribed = EXCLUDED.subscribed,
			subscription_tier = EXCLUDED.subscription_tier,
			subscription_end = EXCLUDED.subscription_end,
			updated_at = NOW()
	`, rec.UserID, rec.Email, rec.Subscribed, rec.SubscriptionTier, rec.SubscriptionEnd)
	return err
}

// GetSubscriber returns the billing record for a user, or ErrNotFound.
func (s *DataStore) GetSubscriber(ctx context.Context, userID uuid.UUID) (*models.SubscriberRecord, error) {
	var rec models.SubscriberRecord
	var end sql.NullTime
	err := s.Postgres.QueryRowContext(ctx, `
		SELECT user_id, email, subscribed, subscription_tier, subscription_end, updated_at
		FROM subscribers
		WHERE user_id = $1
	`, userID).Scan(&rec.UserID, &rec.Email, &rec.Subscribed, &rec.SubscriptionTier, &end, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if end.Valid {
		rec.SubscriptionEnd = end.Time
	}
	return &rec, nil
}

// GetTransaction returns the locally tracked transaction for a gateway
// reference, or ErrNotFound if this reference has never been verified here.
func (s *DataStore) GetTransaction(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	var verifiedAt sql.NullTime
	err := s.Postgres.QueryRowContext(ctx, `
		SELECT reference, email, amount_minor, status, verified_at
		FROM payment_transactions
		WHERE reference = $1
	`, reference).Scan(&t.Reference, &t.Email, &t.AmountMinor, &t.Status, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		t.VerifiedAt = &verifiedAt.Time
	}
	return &t, nil
}

// MarkTransactionVerified records a reference as verified. The unique
// reference column means a transaction reaches verified at most once.
func (s *DataStore) MarkTransactionVerified(ctx context.Context, reference, email string, amountMinor int64, verifiedAt time.Time) error {
	_, err := s.Postgres.ExecContext(ctx, `
		INSERT INTO payment_transactions (reference, email, amount_minor, status, verified_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (reference) DO UPDATE SET
			status = EXCLUDED.status,
			verified_at = EXCLUDED.verified_at,
			updated_at = NOW()
	`, reference, email, amountMinor, models.PaymentStatusVerified, verifiedAt)
	return err
}

// MarkTransactionFailed records a failed verification for a reference so the
// attempt is visible in reporting. Re-initiation stays allowed.
func (s *DataStore) MarkTransactionFailed(ctx context.Context, reference, email string) error {
	_, err := s.Postgres.ExecContext(ctx, `
		INSERT INTO payment_transactions (reference, email, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (reference) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
	`, reference, email, models.PaymentStatusFailed)
	return err
}
