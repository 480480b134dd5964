package gateway

import (
	"context"
	"sync"
)

type NotificationsMock struct {
	mock sync.Mutex

	SentEmails []Email
}

func (c *NotificationsMock) SendEmail(ctx context.Context, email Email) error {
	c.mock.Lock()
	defer c.mock.Unlock()

	// duplicate idempotency keys are ignored, mirroring the provider
	for _, sent := range c.SentEmails {
		if email.IdempotencyKey != "" && sent.IdempotencyKey == email.IdempotencyKey {
			return nil
		}
	}

	c.SentEmails = append(c.SentEmails, email)
	return nil
}

func (c *NotificationsMock) Sent() []Email {
	c.mock.Lock()
	defer c.mock.Unlock()
	return append([]Email(nil), c.SentEmails...)
}
