package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/affectly/affectly-backend/internal/models"
)

// PaymentWorkflow coordinates the upgrade path: initiate a gateway
// transaction, verify its outcome, and atomically flip the user's
// subscription tier. Verify is idempotent per reference and fails closed:
// no partial premium grant on any error path.
type PaymentWorkflow struct {
	Gateway PaymentGateway
	Store   EntryStore
	Lock    ReferenceLock

	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// VerifyOutcome reports a completed (or replayed) verification.
type VerifyOutcome struct {
	UserID          string    `json:"user_id"`
	SubscriptionEnd time.Time `json:"subscription_end"`
	AlreadyVerified bool      `json:"already_verified"`
}

func (w *PaymentWorkflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Initiate creates a pending transaction at the gateway and returns the
// reference and authorization URL. No local state is written; the gateway
// holds the pending transaction until Verify resolves it.
func (w *PaymentWorkflow) Initiate(ctx context.Context, email string, amountMinor int64, callbackURL string) (*InitResult, error) {
	result, err := w.Gateway.InitializeTransaction(ctx, email, amountMinor, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentInit, err)
	}
	return result, nil
}

// Verify confirms a transaction with the gateway and grants premium to the
// paying account. Safe to call repeatedly with the same reference: the
// second call short-circuits without touching subscription_end. The whole
// check-then-grant runs under a per-reference lock so concurrent deliveries
// of the same callback cannot both grant.
func (w *PaymentWorkflow) Verify(ctx context.Context, reference string) (*VerifyOutcome, error) {
	release, err := w.Lock.Acquire(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: could not serialize verification: %v", ErrPaymentVerification, err)
	}
	defer release()

	// Replay check: a reference verifies at most once.
	if tx, err := w.Store.GetTransaction(ctx, reference); err == nil && tx.Status == models.PaymentStatusVerified {
		outcome := &VerifyOutcome{AlreadyVerified: true}
		if profile, err := w.Store.GetProfileByEmail(ctx, tx.Email); err == nil {
			outcome.UserID = profile.UserID.String()
			if sub, err := w.Store.GetSubscriber(ctx, profile.UserID); err == nil {
				outcome.SubscriptionEnd = sub.SubscriptionEnd
			}
		}
		return outcome, nil
	}

	result, err := w.Gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}
	if result.Status != "success" {
		if err := w.Store.MarkTransactionFailed(ctx, reference, result.CustomerEmail); err != nil {
			log.Printf("Warning: failed to record failed transaction %s: %v", reference, err)
		}
		return nil, fmt.Errorf("%w: gateway reported status %q", ErrPaymentVerification, result.Status)
	}

	profile, err := w.Store.GetProfileByEmail(ctx, result.CustomerEmail)
	if err != nil {
		// Identity mismatch between gateway and account records. Fail closed
		// and leave the reference unverified so support can replay it once
		// the account exists.
		log.Printf("Payment verification anomaly: no account for paying email on reference %s", reference)
		return nil, fmt.Errorf("%w: reference %s", ErrUserNotFound, reference)
	}

	now := w.now()
	subscriptionEnd := now.AddDate(0, 1, 0)

	// The tier flip is the authoritative grant.
	if err := w.Store.UpgradeProfileTier(ctx, profile.UserID, models.TierPremium); err != nil {
		return nil, fmt.Errorf("failed to update subscription tier: %w", err)
	}

	// The subscriber record is advisory; a failed upsert is logged but does
	// not roll back the grant above.
	subscriber := &models.SubscriberRecord{
		UserID:           profile.UserID,
		Email:            result.CustomerEmail,
		Subscribed:       true,
		SubscriptionTier: models.TierPremium,
		SubscriptionEnd:  subscriptionEnd,
		UpdatedAt:        now,
	}
	if err := w.Store.UpsertSubscriber(ctx, subscriber); err != nil {
		log.Printf("Warning: subscriber record upsert failed for user %s: %v", profile.UserID, err)
	}

	if err := w.Store.MarkTransactionVerified(ctx, reference, result.CustomerEmail, result.AmountMinor, now); err != nil {
		log.Printf("Warning: failed to mark transaction %s verified: %v", reference, err)
	}

	return &VerifyOutcome{
		UserID:          profile.UserID.String(),
		SubscriptionEnd: subscriptionEnd,
	}, nil
}
