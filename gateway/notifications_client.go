package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fanclub/entity"
)

type Email struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	IdempotencyKey string `json:"idempotency_key"`
}

// NotificationsClient sends templated emails through the hosted mailer.
// Callers treat it as fire-and-forget: a failed send never rolls back a
// committed state transition, it only gets retried.
type NotificationsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewNotificationsClient(baseURL, apiKey string) NotificationsClient {
	return NotificationsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c NotificationsClient) SendEmail(ctx context.Context, email Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: could not send email: %v", entity.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusConflict:
		// already sent under this idempotency key
		return nil
	default:
		return fmt.Errorf("%w: unexpected status code for POST /v1/emails: %d", entity.ErrUpstream, resp.StatusCode)
	}
}
