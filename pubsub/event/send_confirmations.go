package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"fanclub/entity"
	"fanclub/gateway"
)

func (h Handler) SendOrderConfirmationHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendOrderConfirmationHandler",
		func(ctx context.Context, event *entity.OrderCompleted) error {
			log.FromContext(ctx).WithField("order_id", event.OrderID).Info("Sending order confirmation")

			return h.notificationsService.SendEmail(ctx, gateway.Email{
				To:             event.CustomerEmail,
				Subject:        "Your fan club order is confirmed",
				Body:           fmt.Sprintf("Order %s is paid. Total: %s.", event.OrderID, event.Total),
				IdempotencyKey: event.Header.IdempotencyKey,
			})
		},
	)
}

func (h Handler) SendOrderFailedHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendOrderFailedHandler",
		func(ctx context.Context, event *entity.OrderFailed) error {
			return h.notificationsService.SendEmail(ctx, gateway.Email{
				To:             event.CustomerEmail,
				Subject:        "Your fan club order could not be completed",
				Body:           fmt.Sprintf("Payment for order %s failed. No charge was made.", event.OrderID),
				IdempotencyKey: event.Header.IdempotencyKey,
			})
		},
	)
}

func (h Handler) SendRoomReadyHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendRoomReadyHandler",
		func(ctx context.Context, event *entity.RoomReady) error {
			log.FromContext(ctx).WithField("booking_id", event.BookingID).Info("Sending room invitation")

			return h.notificationsService.SendEmail(ctx, gateway.Email{
				To:      event.CustomerEmail,
				Subject: "Your meet & greet is booked",
				Body: fmt.Sprintf(
					"See you on %s. Join here: %s",
					event.ScheduledAt.Format("Mon, 2 Jan 2006 15:04 MST"),
					event.RoomURL,
				),
				IdempotencyKey: event.Header.IdempotencyKey,
			})
		},
	)
}

// RefundCancelledBookingHandler refunds bookings cancelled after
// payment. The checkout session id is the deduplication key at the
// provider, so redeliveries cannot double-refund.
func (h Handler) RefundCancelledBookingHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"RefundCancelledBookingHandler",
		func(ctx context.Context, event *entity.BookingCancelled) error {
			if !event.WasConfirmed {
				return nil
			}

			log.FromContext(ctx).WithField("booking_id", event.BookingID).Info("Refunding cancelled booking")

			if err := h.paymentService.RefundPayment(ctx, event.CheckoutSessionID, "booking cancelled"); err != nil {
				return fmt.Errorf("failed to refund booking %s: %w", event.BookingID, err)
			}

			return nil
		},
	)
}

func (h Handler) SendBookingCancelledHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendBookingCancelledHandler",
		func(ctx context.Context, event *entity.BookingCancelled) error {
			body := fmt.Sprintf("Booking %s was cancelled.", event.BookingID)
			if event.WasConfirmed {
				body += " Your payment will be refunded."
			}

			return h.notificationsService.SendEmail(ctx, gateway.Email{
				To:             event.CustomerEmail,
				Subject:        "Your meet & greet booking was cancelled",
				Body:           body,
				IdempotencyKey: event.Header.IdempotencyKey,
			})
		},
	)
}
