package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanclub/entity"
)

type ordersRepoFake struct {
	orders map[string]entity.Order
}

func (f *ordersRepoFake) Cancel(_ context.Context, orderID string) (entity.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return entity.Order{}, fmt.Errorf("%w: order %s", entity.ErrNotFound, orderID)
	}
	order.Status = entity.OrderStatusCancelled
	f.orders[orderID] = order
	return order, nil
}

type bookingsRepoFake struct {
	bookings map[string]entity.Booking
}

func (f *bookingsRepoFake) Cancel(_ context.Context, bookingID string) (entity.Booking, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return entity.Booking{}, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	booking.Status = entity.BookingStatusCancelled
	f.bookings[bookingID] = booking
	return booking, nil
}

func (f *bookingsRepoFake) Complete(_ context.Context, bookingID string) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("%w: cannot complete %s booking %s", entity.ErrConflict, booking.Status, bookingID)
	}
	booking.Status = entity.BookingStatusCompleted
	f.bookings[bookingID] = booking
	return nil
}

func TestCompleteBookingHandler(t *testing.T) {
	ctx := context.Background()

	booking := entity.Booking{
		BookingID: uuid.NewString(),
		Status:    entity.BookingStatusConfirmed,
	}
	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{booking.BookingID: booking}}
	handler := NewHandler(&ordersRepoFake{}, repo).CompleteBookingHandler()

	command := &entity.CompleteBooking{
		Header:    entity.NewEventHeader(),
		BookingID: booking.BookingID,
	}

	require.NoError(t, handler.Handle(ctx, command))
	assert.Equal(t, entity.BookingStatusCompleted, repo.bookings[booking.BookingID].Status)

	// redelivery finds the booking already completed and acks
	require.NoError(t, handler.Handle(ctx, command))
	assert.Equal(t, entity.BookingStatusCompleted, repo.bookings[booking.BookingID].Status)
}

func TestCompleteBookingHandler_pending_booking_is_acked(t *testing.T) {
	ctx := context.Background()

	booking := entity.Booking{
		BookingID: uuid.NewString(),
		Status:    entity.BookingStatusPending,
	}
	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{booking.BookingID: booking}}
	handler := NewHandler(&ordersRepoFake{}, repo).CompleteBookingHandler()

	// an unpaid booking cannot complete, and retrying won't change that
	require.NoError(t, handler.Handle(ctx, &entity.CompleteBooking{
		Header:    entity.NewEventHeader(),
		BookingID: booking.BookingID,
	}))
	assert.Equal(t, entity.BookingStatusPending, repo.bookings[booking.BookingID].Status)
}

func TestCompleteBookingHandler_unknown_booking_is_retried(t *testing.T) {
	ctx := context.Background()

	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{}}
	handler := NewHandler(&ordersRepoFake{}, repo).CompleteBookingHandler()

	err := handler.Handle(ctx, &entity.CompleteBooking{
		Header:    entity.NewEventHeader(),
		BookingID: uuid.NewString(),
	})
	require.ErrorIs(t, err, entity.ErrNotFound)
}
