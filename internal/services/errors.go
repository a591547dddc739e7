package services

import "errors"

// Sentinel errors surfaced by the entitlement and payment paths. Handlers
// match these with errors.Is and translate them to HTTP responses.
var (
	// ErrQuotaExceeded means a free-tier user already wrote their daily
	// allowance of entries. User-recoverable; no retry.
	ErrQuotaExceeded = errors.New("daily entry limit reached")

	// ErrNotFound means the requested record does not exist in the store.
	ErrNotFound = errors.New("record not found")

	// ErrUserNotFound means the payment gateway reported an email with no
	// matching account. Logged as an anomaly; the grant fails closed.
	ErrUserNotFound = errors.New("no account matches the paying email")

	// ErrPaymentInit wraps gateway/network failures while creating a
	// transaction. No local state is touched on this path.
	ErrPaymentInit = errors.New("payment initialization failed")

	// ErrPaymentVerification wraps gateway failures or non-success statuses
	// during verification. Subscription state is never mutated on this path.
	ErrPaymentVerification = errors.New("payment verification failed")
)
