package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/affectly/affectly-backend/internal/config"
)

// InitResult is what the gateway returns for a newly created transaction.
type InitResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// VerifyResult is the gateway's verdict on a transaction.
type VerifyResult struct {
	Status        string `json:"status"` // "success" when the charge went through
	CustomerEmail string `json:"customer_email"`
	AmountMinor   int64  `json:"amount_minor"`
}

// PaymentGateway abstracts the payment provider. Production uses Paystack;
// tests substitute a fake.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, callbackURL string) (*InitResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)
}

// PaystackGateway talks to the Paystack REST API with the account secret key.
type PaystackGateway struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

// NewPaystackGateway builds a gateway client from config. Gateway calls get
// a 10s timeout so a slow provider fails the request instead of hanging it.
func NewPaystackGateway(cfg *config.Config) *PaystackGateway {
	return &PaystackGateway{
		SecretKey:  cfg.PaystackSecretKey,
		BaseURL:    cfg.PaystackBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// paystackEnvelope is the common wrapper on every Paystack response.
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction creates a pending transaction and returns the
// reference plus the hosted authorization URL the user completes payment on.
func (g *PaystackGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, callbackURL string) (*InitResult, error) {
	if g.SecretKey == "" {
		return nil, fmt.Errorf("paystack secret key not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"email":        email,
		"amount":       amountMinor, // smallest currency unit (kobo/cents)
		"currency":     "KES",
		"callback_url": callbackURL,
		"metadata": map[string]interface{}{
			"subscription_type": "premium_monthly",
		},
	})
	if err != nil {
		return nil, err
	}

	data, err := g.call(ctx, http.MethodPost, g.BaseURL+"/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var body struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return &InitResult{Reference: body.Reference, AuthorizationURL: body.AuthorizationURL}, nil
}

// VerifyTransaction asks the gateway for the transaction's final status.
func (g *PaystackGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	if g.SecretKey == "" {
		return nil, fmt.Errorf("paystack secret key not configured")
	}

	data, err := g.call(ctx, http.MethodGet, g.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return &VerifyResult{
		Status:        body.Status,
		CustomerEmail: body.Customer.Email,
		AmountMinor:   body.Amount,
	}, nil
}

func (g *PaystackGateway) call(ctx context.Context, method, url string, payload []byte) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("gateway returned unparseable response (status %d)", resp.StatusCode)
	}
	if !envelope.Status {
		if envelope.Message != "" {
			return nil, fmt.Errorf("gateway rejected request: %s", envelope.Message)
		}
		return nil, fmt.Errorf("gateway rejected request (status %d)", resp.StatusCode)
	}
	return envelope.Data, nil
}
