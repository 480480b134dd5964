package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"fanclub/entity"
)

// CompleteBookingHandler marks a booking done once the session took
// place. Only confirmed bookings can complete; anything else is logged
// and acknowledged, since redelivering cannot change the outcome.
func (h Handler) CompleteBookingHandler() cqrs.CommandHandler {
	return cqrs.NewCommandHandler(
		"CompleteBookingHandler",
		func(ctx context.Context, command *entity.CompleteBooking) error {
			log.FromContext(ctx).WithField("booking_id", command.BookingID).Info("Completing booking")

			err := h.bookingsRepo.Complete(ctx, command.BookingID)
			if errors.Is(err, entity.ErrConflict) {
				log.FromContext(ctx).WithError(err).Info("Booking cannot be completed")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to complete booking: %w", err)
			}

			return nil
		},
	)
}
