package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"fanclub/entity"
	"fanclub/gateway"
	"fanclub/metrics"
)

// paymentWebhookEvent is the provider's delivery envelope. The payload
// is signed as raw bytes, so it must be verified before decoding.
type paymentWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		CheckoutSessionID string `json:"checkout_session_id"`
		Kind              string `json:"kind"`
	} `json:"data"`
}

const signatureHeader = "Payment-Signature"

// PostPaymentWebhook applies payment provider deliveries to orders and
// bookings. Deliveries are at-least-once: duplicates are acknowledged
// with 200 without changing state, and persistence failures return 500
// so the provider redelivers.
func (s *Server) PostPaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}

	if !gateway.VerifySignature(s.webhookSecret, payload, c.Request().Header.Get(signatureHeader)) {
		metrics.WebhooksProcessed.WithLabelValues("unknown", "rejected").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook signature")
	}

	var event paymentWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		metrics.WebhooksProcessed.WithLabelValues("unknown", "rejected").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "could not decode webhook payload")
	}

	logger := log.FromContext(ctx).
		WithField("webhook_id", event.ID).
		WithField("event_type", event.Type).
		WithField("checkout_session_id", event.Data.CheckoutSessionID)

	var alreadyDone bool
	switch event.Type {
	case "checkout.session.completed":
		switch event.Data.Kind {
		case "order":
			_, alreadyDone, err = s.ordersRepo.MarkCompletedByCheckoutSession(ctx, event.Data.CheckoutSessionID)
		case "booking":
			_, alreadyDone, err = s.bookingsRepo.ConfirmByCheckoutSession(ctx, event.Data.CheckoutSessionID)
		default:
			metrics.WebhooksProcessed.WithLabelValues(event.Type, "rejected").Inc()
			return echo.NewHTTPError(http.StatusBadRequest, "unknown checkout reference kind")
		}
	case "checkout.session.expired", "checkout.session.failed":
		switch event.Data.Kind {
		case "order":
			_, alreadyDone, err = s.ordersRepo.MarkFailedByCheckoutSession(ctx, event.Data.CheckoutSessionID)
		case "booking":
			_, alreadyDone, err = s.bookingsRepo.FailByCheckoutSession(ctx, event.Data.CheckoutSessionID)
		default:
			metrics.WebhooksProcessed.WithLabelValues(event.Type, "rejected").Inc()
			return echo.NewHTTPError(http.StatusBadRequest, "unknown checkout reference kind")
		}
	default:
		// unknown event types are acknowledged so the provider stops
		// redelivering them
		logger.Info("Ignoring unhandled webhook event type")
		metrics.WebhooksProcessed.WithLabelValues(event.Type, "rejected").Inc()
		return c.NoContent(http.StatusOK)
	}

	if err != nil {
		// a failure event for a session with no stored record means the
		// checkout was abandoned before anything was persisted; there is
		// nothing to roll back, so ack instead of forcing redeliveries
		if errors.Is(err, entity.ErrNotFound) && event.Type != "checkout.session.completed" {
			logger.Info("No record for failed checkout session, ignoring")
			metrics.WebhooksProcessed.WithLabelValues(event.Type, "rejected").Inc()
			return c.NoContent(http.StatusOK)
		}

		logger.WithError(err).Error("Failed to apply payment webhook")
		metrics.WebhooksProcessed.WithLabelValues(event.Type, "error").Inc()
		return err
	}

	if alreadyDone {
		logger.Info("Duplicate webhook delivery, nothing to do")
		metrics.WebhooksProcessed.WithLabelValues(event.Type, "duplicate").Inc()
		return c.NoContent(http.StatusOK)
	}

	logger.Info("Payment webhook applied")
	metrics.WebhooksProcessed.WithLabelValues(event.Type, "applied").Inc()
	return c.NoContent(http.StatusOK)
}
