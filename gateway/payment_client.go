package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fanclub/entity"
)

// CheckoutReference links a payment session back to the record it pays
// for. Kind is "order" or "booking".
type CheckoutReference struct {
	Kind     string `json:"kind"`
	RecordID string `json:"record_id"`
	UserID   string `json:"user_id"`
}

type CreateCheckoutSessionRequest struct {
	Amount     entity.Money      `json:"amount"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Reference  CheckoutReference `json:"reference"`
}

type CheckoutSession struct {
	ID          string `json:"id"`
	RedirectURL string `json:"url"`
}

// PaymentClient talks to the hosted payment provider.
type PaymentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPaymentClient(baseURL, apiKey string) PaymentClient {
	return PaymentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CreateCheckoutSession starts a hosted checkout flow and returns the
// session reference and the URL to redirect the customer to.
func (c PaymentClient) CreateCheckoutSession(ctx context.Context, request CreateCheckoutSessionRequest) (CheckoutSession, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return CheckoutSession{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return CheckoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: could not create checkout session: %v", entity.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CheckoutSession{}, fmt.Errorf("%w: unexpected status code for POST /v1/checkout/sessions: %d", entity.ErrUpstream, resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return CheckoutSession{}, fmt.Errorf("could not decode checkout session: %w", err)
	}

	return session, nil
}

// RefundPayment refunds the payment behind a checkout session. The
// checkout session id doubles as the deduplication key, so retries are
// safe.
func (c PaymentClient) RefundPayment(ctx context.Context, checkoutSessionID, reason string) error {
	body, err := json.Marshal(map[string]string{
		"checkout_session_id": checkoutSessionID,
		"reason":              reason,
		"deduplication_id":    checkoutSessionID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/refunds", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: could not refund payment: %v", entity.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code for POST /v1/refunds: %d", entity.ErrUpstream, resp.StatusCode)
	}

	return nil
}

// ComputeSignature returns the hex HMAC-SHA256 of the payload, the
// scheme the provider uses to sign webhook deliveries.
func ComputeSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := ComputeSignature(secret, payload)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
