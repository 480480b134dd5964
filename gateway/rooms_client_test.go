package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanclub/entity"
)

func TestRoomsClient_CreateRoom(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rooms", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://rooms.example.com/meet-1"})
	}))
	defer srv.Close()

	client := NewRoomsClient(srv.URL, "test-key")

	expiresAt := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	url, err := client.CreateRoom(context.Background(), CreateRoomRequest{
		Name:            "meet-1",
		MaxParticipants: 2,
		ExpiresAt:       expiresAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://rooms.example.com/meet-1", url)

	assert.Equal(t, "meet-1", gotBody["name"])
	props := gotBody["properties"].(map[string]any)
	assert.EqualValues(t, 2, props["max_participants"])
	assert.EqualValues(t, expiresAt.Unix(), props["exp"])
}

func TestRoomsClient_CreateRoom_upstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRoomsClient(srv.URL, "test-key")

	_, err := client.CreateRoom(context.Background(), CreateRoomRequest{Name: "meet-1", MaxParticipants: 10, ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, entity.ErrUpstream)
}
