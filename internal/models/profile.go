package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription tiers. The tier on Profile is the source of truth for
// entitlement checks; it only ever moves free -> premium, and only as the
// result of a verified payment.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// Profile is the per-user account record (1:1 with an external identity).
type Profile struct {
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	SubscriptionTier string    `json:"subscription_tier"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsPremium reports whether the profile is on the premium tier.
func (p *Profile) IsPremium() bool {
	return p.SubscriptionTier == TierPremium
}

// SubscriberRecord is the denormalized billing record kept for reporting.
// Advisory only: Profile.SubscriptionTier decides entitlement.
type SubscriberRecord struct {
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	Subscribed       bool      `json:"subscribed"`
	SubscriptionTier string    `json:"subscription_tier"`
	SubscriptionEnd  time.Time `json:"subscription_end"`
	UpdatedAt        time.Time `json:"updated_at"`
}
