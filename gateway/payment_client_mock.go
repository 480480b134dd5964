package gateway

import (
	"context"
	"sync"

	"github.com/lithammer/shortuuid/v3"
)

type PaymentMock struct {
	mock sync.Mutex

	CreatedSessions map[string]CreateCheckoutSessionRequest
	Refunds         map[string]string
}

func (c *PaymentMock) CreateCheckoutSession(ctx context.Context, request CreateCheckoutSessionRequest) (CheckoutSession, error) {
	c.mock.Lock()
	defer c.mock.Unlock()

	if c.CreatedSessions == nil {
		c.CreatedSessions = make(map[string]CreateCheckoutSessionRequest)
	}

	sessionID := "cs_" + shortuuid.New()
	c.CreatedSessions[sessionID] = request

	return CheckoutSession{
		ID:          sessionID,
		RedirectURL: "https://payments.example.com/checkout/" + sessionID,
	}, nil
}

func (c *PaymentMock) RefundPayment(ctx context.Context, checkoutSessionID, reason string) error {
	c.mock.Lock()
	defer c.mock.Unlock()

	if c.Refunds == nil {
		c.Refunds = make(map[string]string)
	}

	c.Refunds[checkoutSessionID] = reason
	return nil
}

// Sessions returns a copy of the created checkout sessions keyed by id.
func (c *PaymentMock) Sessions() map[string]CreateCheckoutSessionRequest {
	c.mock.Lock()
	defer c.mock.Unlock()

	sessions := make(map[string]CreateCheckoutSessionRequest, len(c.CreatedSessions))
	for id, request := range c.CreatedSessions {
		sessions[id] = request
	}
	return sessions
}

// RefundReason reports whether a refund was issued for the checkout
// session and with what reason.
func (c *PaymentMock) RefundReason(checkoutSessionID string) (string, bool) {
	c.mock.Lock()
	defer c.mock.Unlock()

	reason, ok := c.Refunds[checkoutSessionID]
	return reason, ok
}

func (c *PaymentMock) RefundCount() int {
	c.mock.Lock()
	defer c.mock.Unlock()
	return len(c.Refunds)
}
