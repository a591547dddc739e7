package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/affectly/affectly-backend/internal/services"
)

type InitiatePaymentRequest struct {
	Amount      int64  `json:"amount"` // major currency units (KES)
	CallbackURL string `json:"callback_url"`
}

type InitiatePaymentResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	Reference        string `json:"reference,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference"`
}

type VerifyPaymentResponse struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message,omitempty"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
	AlreadyVerified bool       `json:"already_verified,omitempty"`
}

const supportContactHint = " If you were charged, contact support@affectly.app with your payment reference."

// InitiatePayment creates a gateway transaction for the premium upgrade and
// returns the hosted authorization URL. Nothing is written locally; the
// subscription changes only after verification.
func InitiatePayment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(InitiatePaymentResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(InitiatePaymentResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if req.Amount <= 0 || req.CallbackURL == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(InitiatePaymentResponse{Success: false, Message: "Amount and callback_url are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(InitiatePaymentResponse{Success: false, Message: "Profile not found"})
		return
	}

	// Gateway expects the amount in the smallest currency unit.
	result, err := payments.Initiate(ctx, profile.Email, req.Amount*100, req.CallbackURL)
	if err != nil {
		log.Printf("Payment initialization error for user %s: %v", userID, err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(InitiatePaymentResponse{
			Success: false,
			Message: "Payment initialization failed. Please try again." + supportContactHint,
		})
		return
	}

	json.NewEncoder(w).Encode(InitiatePaymentResponse{
		Success:          true,
		Reference:        result.Reference,
		AuthorizationURL: result.AuthorizationURL,
	})
}

// VerifyPayment confirms a transaction with the gateway and applies the
// premium grant. Idempotent per reference, so the payment provider may
// deliver the callback more than once.
func VerifyPayment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, ok := requireAuth(r); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(VerifyPaymentResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(VerifyPaymentResponse{Success: false, Message: "Reference is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	outcome, err := payments.Verify(ctx, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			log.Printf("Payment verification anomaly: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(VerifyPaymentResponse{
				Success: false,
				Message: "We could not match this payment to an account." + supportContactHint,
			})
		default:
			log.Printf("Payment verification error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(VerifyPaymentResponse{
				Success: false,
				Message: "Payment verification failed." + supportContactHint,
			})
		}
		return
	}

	message := "Payment verified and subscription updated"
	if outcome.AlreadyVerified {
		message = "Payment was already verified"
	}

	resp := VerifyPaymentResponse{
		Success:         true,
		Message:         message,
		AlreadyVerified: outcome.AlreadyVerified,
	}
	if !outcome.SubscriptionEnd.IsZero() {
		end := outcome.SubscriptionEnd
		resp.SubscriptionEnd = &end
	}
	json.NewEncoder(w).Encode(resp)
}
