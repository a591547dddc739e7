package models

import "time"

// Payment transaction statuses. A reference reaches "verified" at most once;
// re-verifying an already-verified reference is a no-op.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusFailed   = "failed"
)

// PaymentTransaction tracks one gateway transaction by its unique reference.
type PaymentTransaction struct {
	Reference   string     `json:"reference"`
	Email       string     `json:"email"`
	AmountMinor int64      `json:"amount_minor"`
	Status      string     `json:"status"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}
