package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/affectly/affectly-backend/internal/models"
)

// fakeStore is an in-memory EntryStore for exercising the engine and the
// payment workflow without MongoDB/PostgreSQL.
type fakeStore struct {
	mu           sync.Mutex
	entries      []models.JournalEntry
	profiles     map[string]*models.Profile // keyed by lowercase email
	subscribers  map[uuid.UUID]*models.SubscriberRecord
	transactions map[string]*models.PaymentTransaction

	failUpgrade          bool
	failUpsertSubscriber bool
	upgradeCalls         int
	upsertCalls          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     make(map[string]*models.Profile),
		subscribers:  make(map[uuid.UUID]*models.SubscriberRecord),
		transactions: make(map[string]*models.PaymentTransaction),
	}
}

func (s *fakeStore) addEntry(userID string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, models.JournalEntry{
		ID:           primitive.NewObjectID(),
		UserIDString: userID,
		CreatedAt:    createdAt,
		Content:      "entry",
		MoodScore:    0.5,
	})
}

func (s *fakeStore) InsertEntry(ctx context.Context, entry *models.JournalEntry) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	s.entries = append(s.entries, *entry)
	return entry.ID, nil
}

func (s *fakeStore) EntriesByUser(ctx context.Context, userID string, limit, skip int) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.UserIDString == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) EntriesInRange(ctx context.Context, userID string, start, end time.Time) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.UserIDString == userID && !e.CreatedAt.Before(start) && e.CreatedAt.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) CountEntriesInRange(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	entries, _ := s.EntriesInRange(ctx, userID, start, end)
	return int64(len(entries)), nil
}

func (s *fakeStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[email]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Email] = profile
	return nil
}

func (s *fakeStore) UpdateProfileName(ctx context.Context, userID uuid.UUID, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			p.FullName = fullName
			return nil
		}
	}
	return ErrNotFound
}

func (s *fakeStore) UpgradeProfileTier(ctx context.Context, userID uuid.UUID, tier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upgradeCalls++
	if s.failUpgrade {
		return fmt.Errorf("tier update unavailable")
	}
	for _, p := range s.profiles {
		if p.UserID == userID {
			p.SubscriptionTier = tier
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *fakeStore) UpsertSubscriber(ctx context.Context, rec *models.SubscriberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.failUpsertSubscriber {
		return fmt.Errorf("subscriber table unavailable")
	}
	clone := *rec
	s.subscribers[rec.UserID] = &clone
	return nil
}

func (s *fakeStore) GetSubscriber(ctx context.Context, userID uuid.UUID) (*models.SubscriberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.subscribers[userID]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) GetTransaction(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.transactions[reference]; ok {
		clone := *tx
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) MarkTransactionVerified(ctx context.Context, reference, email string, amountMinor int64, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[reference] = &models.PaymentTransaction{
		Reference:   reference,
		Email:       email,
		AmountMinor: amountMinor,
		Status:      models.PaymentStatusVerified,
		VerifiedAt:  &verifiedAt,
	}
	return nil
}

func (s *fakeStore) MarkTransactionFailed(ctx context.Context, reference, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[reference] = &models.PaymentTransaction{
		Reference: reference,
		Email:     email,
		Status:    models.PaymentStatusFailed,
	}
	return nil
}

// fakeGateway scripts gateway responses per reference.
type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	initResult  *InitResult
	verifyErr   error
	results     map[string]*VerifyResult
	verifyCalls int
}

func (g *fakeGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, callbackURL string) (*InitResult, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	if g.initResult != nil {
		return g.initResult, nil
	}
	return &InitResult{Reference: "ref-1", AuthorizationURL: "https://checkout.example/ref-1"}, nil
}

func (g *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if result, ok := g.results[reference]; ok {
		return result, nil
	}
	return &VerifyResult{Status: "failed"}, nil
}

// memoryLock is an in-process ReferenceLock for tests.
type memoryLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemoryLock() *memoryLock {
	return &memoryLock{locks: make(map[string]*sync.Mutex)}
}

func (l *memoryLock) Acquire(ctx context.Context, reference string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[reference]
	if !ok {
		m = &sync.Mutex{}
		l.locks[reference] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}
