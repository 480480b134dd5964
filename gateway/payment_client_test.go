package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanclub/entity"
)

func TestPaymentClient_CreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)

		var req CreateCheckoutSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "order", req.Reference.Kind)
		assert.Equal(t, int64(5000), req.Amount.Cents)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{
			ID:          "cs_123",
			RedirectURL: "https://payments.example.com/checkout/cs_123",
		})
	}))
	defer srv.Close()

	client := NewPaymentClient(srv.URL, "test-key")

	session, err := client.CreateCheckoutSession(context.Background(), CreateCheckoutSessionRequest{
		Amount:    entity.Money{Cents: 5000, Currency: "USD"},
		Reference: CheckoutReference{Kind: "order", RecordID: "order-1", UserID: "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.NotEmpty(t, session.RedirectURL)
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)

	signature := ComputeSignature("whsec_test", payload)
	assert.True(t, VerifySignature("whsec_test", payload, signature))

	assert.False(t, VerifySignature("whsec_other", payload, signature))
	assert.False(t, VerifySignature("whsec_test", []byte(`tampered`), signature))
	assert.False(t, VerifySignature("whsec_test", payload, ""))
}
