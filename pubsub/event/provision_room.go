package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"fanclub/entity"
	"fanclub/gateway"
)

// ProvisionRoomHandler creates the video room for a confirmed booking
// and stores the join URL. Redeliveries are cheap no-ops: a booking
// that already has a room URL is skipped before any provider call.
func (h Handler) ProvisionRoomHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"ProvisionRoomHandler",
		func(ctx context.Context, event *entity.BookingConfirmed) error {
			logger := log.FromContext(ctx).WithField("booking_id", event.BookingID)

			booking, err := h.bookingsRepo.Get(ctx, event.BookingID)
			if err != nil {
				return fmt.Errorf("could not get booking: %w", err)
			}

			if booking.RoomURL != nil {
				logger.Info("Room already provisioned, skipping")
				return nil
			}

			switch booking.Status {
			case entity.BookingStatusConfirmed:
			case entity.BookingStatusCancelled, entity.BookingStatusCompleted:
				// cancelled or finished while the event was in flight
				logger.WithField("status", booking.Status).Info("Booking no longer needs a room, skipping")
				return nil
			default:
				return fmt.Errorf("%w: cannot provision room for %s booking %s",
					entity.ErrConflict, booking.Status, booking.BookingID)
			}

			roomURL, err := h.roomsService.CreateRoom(ctx, gateway.CreateRoomRequest{
				Name:            "meet-" + booking.BookingID,
				MaxParticipants: booking.SessionType.MaxParticipants(),
				ExpiresAt:       booking.RoomExpiresAt(),
			})
			if err != nil {
				return fmt.Errorf("failed to create room: %w", err)
			}

			finalURL, alreadySet, err := h.bookingsRepo.SetRoomURL(ctx, booking.BookingID, roomURL)
			if err != nil {
				return fmt.Errorf("failed to store room url: %w", err)
			}
			if alreadySet {
				logger.WithField("room_url", finalURL).Info("Room url was set concurrently, keeping existing")
			}

			return nil
		},
	)
}
