package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"fanclub/db/bookings"
	"fanclub/db/orders"
	"fanclub/db/users"
	"fanclub/entity"
	"fanclub/gateway"
	"fanclub/service"
)

const (
	httpAddress   = ":8080"
	baseURL       = "http://localhost:8080"
	webhookSecret = "whsec_component"
)

func TestComponent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).Connect.func1"))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbconn, err := sqlx.Open("postgres", postgresURL)
	if err != nil {
		panic(err)
	}
	defer dbconn.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
	defer redisClient.Close()

	paymentClient := &gateway.PaymentMock{}
	roomsClient := &gateway.RoomsMock{}
	notificationsClient := &gateway.NotificationsMock{}

	done := make(chan struct{})
	go func() {
		<-done
		e := syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		require.NoError(t, e)
	}()

	finished := make(chan struct{})
	go func() {
		svc := service.New(
			httpAddress,
			baseURL,
			webhookSecret,
			dbconn,
			redisClient,
			paymentClient,
			roomsClient,
			notificationsClient,
		)
		assert.NoError(t, svc.Run(ctx))
		close(finished)
	}()

	defer func() {
		close(done)
		<-finished
	}()

	waitForHttpServer(t)

	// the first admin is seeded directly, everything else goes through the API
	admin := entity.User{UserID: uuid.NewString(), Email: "admin@example.com", Tier: entity.TierAdmin}
	require.NoError(t, users.NewPostgresRepository(dbconn).Upsert(ctx, admin))

	fan := entity.User{UserID: uuid.NewString(), Email: "fan@example.com", Tier: entity.TierVIP}
	doRequest(t, http.MethodPost, "/admin/users", admin.UserID, fan, http.StatusNoContent, nil)

	session := entity.MeetGreetSession{
		SessionID:       "session-" + uuid.NewString(),
		Title:           "Backstage hangout",
		SessionType:     entity.SessionTypePrivate,
		RequiredTier:    entity.TierVIP,
		ScheduledAt:     time.Now().Add(48 * time.Hour).UTC(),
		DurationMinutes: 30,
		PriceCents:      10000,
		Currency:        "USD",
	}
	doRequest(t, http.MethodPost, "/admin/sessions", admin.UserID, session, http.StatusNoContent, nil)

	product := entity.Product{
		ProductID:  "poster-" + uuid.NewString(),
		Name:       "Signed Poster",
		PriceCents: 4000,
		Currency:   "USD",
		Stock:      3,
	}
	doRequest(t, http.MethodPost, "/admin/products", admin.UserID, product, http.StatusNoContent, nil)

	t.Run("booking is confirmed and gets exactly one room", func(t *testing.T) {
		var checkout struct {
			ID          string `json:"id"`
			CheckoutURL string `json:"checkout_url"`
		}
		doRequest(t, http.MethodPost, "/bookings", fan.UserID,
			map[string]string{"session_id": session.SessionID}, http.StatusCreated, &checkout)

		checkoutSessionID := findCheckoutSession(t, paymentClient, checkout.ID)

		// the provider retries deliveries, the result must not change
		for i := 0; i < 3; i++ {
			deliverWebhook(t, "checkout.session.completed", "booking", checkoutSessionID, http.StatusOK)
		}

		bookingsRepo := bookings.NewPostgresRepository(dbconn)
		assert.EventuallyWithT(t, func(t *assert.CollectT) {
			booking, err := bookingsRepo.Get(ctx, checkout.ID)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
			if assert.NotNil(t, booking.RoomURL) {
				assert.NotEmpty(t, *booking.RoomURL)
			}
		}, 10*time.Second, 100*time.Millisecond)

		assert.Equal(t, 1, roomsClient.CreateRoomCalls())

		assertEmailSent(t, notificationsClient, fan.Email, "Your meet & greet is booked")

		// after the session took place an admin marks it done
		doRequest(t, http.MethodPut, "/admin/bookings/"+checkout.ID+"/complete", admin.UserID, nil, http.StatusAccepted, nil)

		assert.EventuallyWithT(t, func(t *assert.CollectT) {
			booking, err := bookingsRepo.Get(ctx, checkout.ID)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, entity.BookingStatusCompleted, booking.Status)
		}, 10*time.Second, 100*time.Millisecond)
	})

	t.Run("completed order sends a confirmation email", func(t *testing.T) {
		var checkout struct {
			ID string `json:"id"`
		}
		doRequest(t, http.MethodPost, "/orders", fan.UserID, map[string]any{
			"items": []map[string]any{{"product_id": product.ProductID, "quantity": 2}},
		}, http.StatusCreated, &checkout)

		checkoutSessionID := findCheckoutSession(t, paymentClient, checkout.ID)
		deliverWebhook(t, "checkout.session.completed", "order", checkoutSessionID, http.StatusOK)

		ordersRepo := orders.NewPostgresRepository(dbconn)
		assert.EventuallyWithT(t, func(t *assert.CollectT) {
			order, err := ordersRepo.Get(ctx, checkout.ID)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, entity.OrderStatusCompleted, order.Status)
		}, 10*time.Second, 100*time.Millisecond)

		assertEmailSent(t, notificationsClient, fan.Email, "Your fan club order is confirmed")
	})

	t.Run("cancelling a confirmed booking refunds the payment", func(t *testing.T) {
		otherFan := entity.User{UserID: uuid.NewString(), Email: "fan2@example.com", Tier: entity.TierVIP}
		doRequest(t, http.MethodPost, "/admin/users", admin.UserID, otherFan, http.StatusNoContent, nil)

		var checkout struct {
			ID string `json:"id"`
		}
		doRequest(t, http.MethodPost, "/bookings", otherFan.UserID,
			map[string]string{"session_id": session.SessionID}, http.StatusCreated, &checkout)

		checkoutSessionID := findCheckoutSession(t, paymentClient, checkout.ID)
		deliverWebhook(t, "checkout.session.completed", "booking", checkoutSessionID, http.StatusOK)

		bookingsRepo := bookings.NewPostgresRepository(dbconn)
		require.EventuallyWithT(t, func(t *assert.CollectT) {
			booking, err := bookingsRepo.Get(ctx, checkout.ID)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
		}, 10*time.Second, 100*time.Millisecond)

		doRequest(t, http.MethodPut, "/bookings/"+checkout.ID+"/cancel", otherFan.UserID, nil, http.StatusAccepted, nil)

		assert.EventuallyWithT(t, func(t *assert.CollectT) {
			booking, err := bookingsRepo.Get(ctx, checkout.ID)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
		}, 10*time.Second, 100*time.Millisecond)

		assert.EventuallyWithT(t, func(t *assert.CollectT) {
			reason, ok := paymentClient.RefundReason(checkoutSessionID)
			if assert.True(t, ok, "refund for %s not found", checkoutSessionID) {
				assert.NotEmpty(t, reason)
			}
		}, 10*time.Second, 100*time.Millisecond)
	})
}

func doRequest(t *testing.T, method, path, userID string, body any, wantStatus int, out any) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func deliverWebhook(t *testing.T, eventType, kind, checkoutSessionID string, wantStatus int) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":   uuid.NewString(),
		"type": eventType,
		"data": map[string]string{
			"checkout_session_id": checkoutSessionID,
			"kind":                kind,
		},
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/webhooks/payment", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Payment-Signature", gateway.ComputeSignature(webhookSecret, payload))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode)
}

func findCheckoutSession(t *testing.T, paymentClient *gateway.PaymentMock, recordID string) string {
	t.Helper()

	sessionID, ok := lo.FindKeyBy(paymentClient.Sessions(), func(_ string, request gateway.CreateCheckoutSessionRequest) bool {
		return request.Reference.RecordID == recordID
	})
	require.Truef(t, ok, "checkout session for %s not found", recordID)
	return sessionID
}

func assertEmailSent(t *testing.T, notificationsClient *gateway.NotificationsMock, to, subject string) {
	t.Helper()

	assert.EventuallyWithT(t, func(t *assert.CollectT) {
		_, ok := lo.Find(notificationsClient.Sent(), func(email gateway.Email) bool {
			return email.To == to && email.Subject == subject
		})
		assert.Truef(t, ok, "email %q to %s not found", subject, to)
	}, 10*time.Second, 100*time.Millisecond)
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}
