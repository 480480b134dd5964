package event

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanclub/entity"
	"fanclub/gateway"
	"fanclub/pubsub/bus"
)

type bookingsRepoFake struct {
	bookings map[string]entity.Booking
}

func (f *bookingsRepoFake) Get(_ context.Context, bookingID string) (entity.Booking, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return entity.Booking{}, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	return booking, nil
}

func (f *bookingsRepoFake) SetRoomURL(_ context.Context, bookingID, roomURL string) (string, bool, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return "", false, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	if booking.RoomURL != nil {
		return *booking.RoomURL, true, nil
	}
	booking.RoomURL = &roomURL
	f.bookings[bookingID] = booking
	return roomURL, false, nil
}

func newHandlerForTest(t *testing.T, bookingsRepo *bookingsRepoFake, roomsClient *gateway.RoomsMock) Handler {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubSub.Close()
	})

	eventBus, err := bus.NewEventBus(pubSub)
	require.NoError(t, err)

	return NewHandler(
		eventBus,
		roomsClient,
		&gateway.NotificationsMock{},
		&gateway.PaymentMock{},
		bookingsRepo,
	)
}

func confirmedBooking() entity.Booking {
	return entity.Booking{
		BookingID:       uuid.NewString(),
		UserID:          uuid.NewString(),
		SessionID:       "session-1",
		SessionType:     entity.SessionTypePrivate,
		Status:          entity.BookingStatusConfirmed,
		ScheduledAt:     time.Now().Add(24 * time.Hour).UTC(),
		DurationMinutes: 30,
		CustomerEmail:   "fan@example.com",
	}
}

func TestProvisionRoomHandler(t *testing.T) {
	ctx := context.Background()

	booking := confirmedBooking()
	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{booking.BookingID: booking}}
	roomsClient := &gateway.RoomsMock{}
	handler := newHandlerForTest(t, repo, roomsClient).ProvisionRoomHandler()

	event := &entity.BookingConfirmed{
		Header:      entity.NewEventHeader(),
		BookingID:   booking.BookingID,
		SessionType: booking.SessionType,
	}

	require.NoError(t, handler.Handle(ctx, event))
	assert.Equal(t, 1, roomsClient.CreateRoomCalls())

	stored, err := repo.Get(ctx, booking.BookingID)
	require.NoError(t, err)
	require.NotNil(t, stored.RoomURL)

	// a private session's room is capped at two participants
	require.Len(t, roomsClient.CreatedRooms, 1)
	assert.Equal(t, 2, roomsClient.CreatedRooms[0].MaxParticipants)

	// redelivery must not provision a second room
	require.NoError(t, handler.Handle(ctx, event))
	assert.Equal(t, 1, roomsClient.CreateRoomCalls())
}

func TestProvisionRoomHandler_skips_cancelled_booking(t *testing.T) {
	ctx := context.Background()

	booking := confirmedBooking()
	booking.Status = entity.BookingStatusCancelled
	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{booking.BookingID: booking}}
	roomsClient := &gateway.RoomsMock{}
	handler := newHandlerForTest(t, repo, roomsClient).ProvisionRoomHandler()

	err := handler.Handle(ctx, &entity.BookingConfirmed{
		Header:    entity.NewEventHeader(),
		BookingID: booking.BookingID,
	})
	require.NoError(t, err)
	assert.Zero(t, roomsClient.CreateRoomCalls())
}

func TestProvisionRoomHandler_pending_booking_is_retried(t *testing.T) {
	ctx := context.Background()

	booking := confirmedBooking()
	booking.Status = entity.BookingStatusPending
	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{booking.BookingID: booking}}
	roomsClient := &gateway.RoomsMock{}
	handler := newHandlerForTest(t, repo, roomsClient).ProvisionRoomHandler()

	err := handler.Handle(ctx, &entity.BookingConfirmed{
		Header:    entity.NewEventHeader(),
		BookingID: booking.BookingID,
	})
	require.ErrorIs(t, err, entity.ErrConflict)
	assert.Zero(t, roomsClient.CreateRoomCalls())
}

func TestRefundCancelledBookingHandler(t *testing.T) {
	ctx := context.Background()

	repo := &bookingsRepoFake{bookings: map[string]entity.Booking{}}
	paymentClient := &gateway.PaymentMock{}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubSub.Close()
	})
	eventBus, err := bus.NewEventBus(pubSub)
	require.NoError(t, err)

	handler := NewHandler(
		eventBus,
		&gateway.RoomsMock{},
		&gateway.NotificationsMock{},
		paymentClient,
		repo,
	).RefundCancelledBookingHandler()

	// a pending booking that never got paid needs no refund
	require.NoError(t, handler.Handle(ctx, &entity.BookingCancelled{
		Header:            entity.NewEventHeader(),
		BookingID:         uuid.NewString(),
		CheckoutSessionID: "cs_pending",
		WasConfirmed:      false,
	}))
	assert.Zero(t, paymentClient.RefundCount())

	require.NoError(t, handler.Handle(ctx, &entity.BookingCancelled{
		Header:            entity.NewEventHeader(),
		BookingID:         uuid.NewString(),
		CheckoutSessionID: "cs_paid",
		WasConfirmed:      true,
	}))
	assert.Equal(t, 1, paymentClient.RefundCount())

	reason, ok := paymentClient.RefundReason("cs_paid")
	require.True(t, ok)
	assert.NotEmpty(t, reason)
}
