package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/affectly/affectly-backend/internal/models"
)

func newWorkflow(store *fakeStore, gateway *fakeGateway) *PaymentWorkflow {
	return &PaymentWorkflow{
		Gateway: gateway,
		Store:   store,
		Lock:    newMemoryLock(),
		Now:     func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func payingProfile(store *fakeStore) *models.Profile {
	profile := &models.Profile{
		UserID:           uuid.New(),
		Email:            "payer@example.com",
		SubscriptionTier: models.TierFree,
	}
	store.profiles[profile.Email] = profile
	return profile
}

func TestInitiate_GatewayFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	gateway := &fakeGateway{initErr: fmt.Errorf("gateway down")}
	workflow := newWorkflow(store, gateway)

	_, err := workflow.Initiate(context.Background(), "payer@example.com", 50000, "https://app.example/callback")
	require.ErrorIs(t, err, ErrPaymentInit)
	require.Empty(t, store.transactions)
}

func TestInitiate_ReturnsReferenceAndURL(t *testing.T) {
	t.Parallel()
	workflow := newWorkflow(newFakeStore(), &fakeGateway{})

	result, err := workflow.Initiate(context.Background(), "payer@example.com", 50000, "https://app.example/callback")
	require.NoError(t, err)
	require.Equal(t, "ref-1", result.Reference)
	require.NotEmpty(t, result.AuthorizationURL)
}

func TestVerify_SuccessGrantsPremium(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	profile := payingProfile(store)
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-ok": {Status: "success", CustomerEmail: profile.Email, AmountMinor: 50000},
	}}
	workflow := newWorkflow(store, gateway)

	outcome, err := workflow.Verify(context.Background(), "ref-ok")
	require.NoError(t, err)
	require.False(t, outcome.AlreadyVerified)
	require.Equal(t, profile.UserID.String(), outcome.UserID)

	// Tier flipped, subscriber upserted with end = now + 1 month.
	require.Equal(t, models.TierPremium, profile.SubscriptionTier)
	sub := store.subscribers[profile.UserID]
	require.NotNil(t, sub)
	require.True(t, sub.Subscribed)
	require.Equal(t, time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC), sub.SubscriptionEnd)

	tx := store.transactions["ref-ok"]
	require.NotNil(t, tx)
	require.Equal(t, models.PaymentStatusVerified, tx.Status)
}

func TestVerify_IdempotentReplay(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	profile := payingProfile(store)
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-ok": {Status: "success", CustomerEmail: profile.Email},
	}}
	workflow := newWorkflow(store, gateway)

	first, err := workflow.Verify(context.Background(), "ref-ok")
	require.NoError(t, err)
	endAfterFirst := store.subscribers[profile.UserID].SubscriptionEnd

	// Second delivery of the same callback: success without a second grant
	// and without moving subscription_end.
	second, err := workflow.Verify(context.Background(), "ref-ok")
	require.NoError(t, err)
	require.True(t, second.AlreadyVerified)
	require.Equal(t, first.UserID, second.UserID)
	require.Equal(t, endAfterFirst, store.subscribers[profile.UserID].SubscriptionEnd)
	require.Equal(t, endAfterFirst, second.SubscriptionEnd)
	require.Equal(t, 1, gateway.verifyCalls)
	require.Equal(t, 1, store.upgradeCalls)
	require.Equal(t, 1, store.upsertCalls)
}

func TestVerify_GatewayNonSuccessFailsClosed(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	profile := payingProfile(store)
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-bad": {Status: "abandoned", CustomerEmail: profile.Email},
	}}
	workflow := newWorkflow(store, gateway)

	_, err := workflow.Verify(context.Background(), "ref-bad")
	require.ErrorIs(t, err, ErrPaymentVerification)
	require.Equal(t, models.TierFree, profile.SubscriptionTier)
	require.Empty(t, store.subscribers)
	require.Equal(t, models.PaymentStatusFailed, store.transactions["ref-bad"].Status)

	// A failed reference may be verified again later.
	gateway.mu.Lock()
	gateway.results["ref-bad"].Status = "success"
	gateway.mu.Unlock()
	_, err = workflow.Verify(context.Background(), "ref-bad")
	require.NoError(t, err)
	require.Equal(t, models.TierPremium, profile.SubscriptionTier)
}

func TestVerify_GatewayErrorFailsClosed(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	profile := payingProfile(store)
	gateway := &fakeGateway{verifyErr: fmt.Errorf("timeout awaiting gateway")}
	workflow := newWorkflow(store, gateway)

	_, err := workflow.Verify(context.Background(), "ref-x")
	require.ErrorIs(t, err, ErrPaymentVerification)
	require.Equal(t, models.TierFree, profile.SubscriptionTier)
}

func TestVerify_UnknownEmailFailsClosed(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-ghost": {Status: "success", CustomerEmail: "nobody@example.com"},
	}}
	workflow := newWorkflow(store, gateway)

	_, err := workflow.Verify(context.Background(), "ref-ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
	// Reference stays unverified so support can replay it once the account exists.
	_, txErr := store.GetTransaction(context.Background(), "ref-ghost")
	require.ErrorIs(t, txErr, ErrNotFound)
}

func TestVerify_SubscriberUpsertFailureKeepsGrant(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.failUpsertSubscriber = true
	profile := payingProfile(store)
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-ok": {Status: "success", CustomerEmail: profile.Email},
	}}
	workflow := newWorkflow(store, gateway)

	// The advisory record failing must not roll back the tier flip.
	outcome, err := workflow.Verify(context.Background(), "ref-ok")
	require.NoError(t, err)
	require.Equal(t, models.TierPremium, profile.SubscriptionTier)
	require.False(t, outcome.AlreadyVerified)
}

func TestVerify_TierUpdateFailureIsAnError(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.failUpgrade = true
	profile := payingProfile(store)
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-ok": {Status: "success", CustomerEmail: profile.Email},
	}}
	workflow := newWorkflow(store, gateway)

	_, err := workflow.Verify(context.Background(), "ref-ok")
	require.Error(t, err)
	// No verified marker: the grant did not happen, so a retry must be allowed.
	_, txErr := store.GetTransaction(context.Background(), "ref-ok")
	require.ErrorIs(t, txErr, ErrNotFound)
}

func TestVerify_ConcurrentDeliveriesGrantOnce(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	profile := payingProfile(store)
	gateway := &fakeGateway{results: map[string]*VerifyResult{
		"ref-race": {Status: "success", CustomerEmail: profile.Email},
	}}
	workflow := newWorkflow(store, gateway)

	const deliveries = 8
	var wg sync.WaitGroup
	errs := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := workflow.Verify(context.Background(), "ref-race")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, models.TierPremium, profile.SubscriptionTier)
	require.Equal(t, 1, gateway.verifyCalls)
	require.Equal(t, 1, store.upgradeCalls)
	require.Equal(t, 1, store.upsertCalls)
}
