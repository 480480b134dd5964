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

type CreateRoomRequest struct {
	Name            string    `json:"name"`
	MaxParticipants int       `json:"max_participants"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// RoomsClient provisions time-boxed video rooms at the hosted video
// provider.
type RoomsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRoomsClient(baseURL, apiKey string) RoomsClient {
	return RoomsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CreateRoom creates a room and returns its join URL. Failures are
// retryable: the caller leaves the booking without a room URL and the
// message router redelivers.
func (c RoomsClient) CreateRoom(ctx context.Context, request CreateRoomRequest) (string, error) {
	body, err := json.Marshal(map[string]any{
		"name": request.Name,
		"properties": map[string]any{
			"max_participants": request.MaxParticipants,
			"exp":              request.ExpiresAt.Unix(),
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: could not create room: %v", entity.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	default:
		return "", fmt.Errorf("%w: unexpected status code for POST /v1/rooms: %d", entity.ErrUpstream, resp.StatusCode)
	}

	var room struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return "", fmt.Errorf("could not decode room: %w", err)
	}
	if room.URL == "" {
		return "", fmt.Errorf("%w: provider returned an empty room url", entity.ErrUpstream)
	}

	return room.URL, nil
}
