package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"fanclub/entity"
)

func (h Handler) CancelOrderHandler() cqrs.CommandHandler {
	return cqrs.NewCommandHandler(
		"CancelOrderHandler",
		func(ctx context.Context, command *entity.CancelOrder) error {
			log.FromContext(ctx).WithField("order_id", command.OrderID).Info("Cancelling order")

			_, err := h.ordersRepo.Cancel(ctx, command.OrderID)
			if errors.Is(err, entity.ErrConflict) {
				// already finalized; redelivering won't change that
				log.FromContext(ctx).WithError(err).Info("Order cannot be cancelled anymore")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to cancel order: %w", err)
			}

			return nil
		},
	)
}

func (h Handler) CancelBookingHandler() cqrs.CommandHandler {
	return cqrs.NewCommandHandler(
		"CancelBookingHandler",
		func(ctx context.Context, command *entity.CancelBooking) error {
			log.FromContext(ctx).WithField("booking_id", command.BookingID).Info("Cancelling booking")

			_, err := h.bookingsRepo.Cancel(ctx, command.BookingID)
			if errors.Is(err, entity.ErrConflict) {
				log.FromContext(ctx).WithError(err).Info("Booking cannot be cancelled anymore")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to cancel booking: %w", err)
			}

			return nil
		},
	)
}
