package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_transitions(t *testing.T) {
	testCases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCompleted, BookingStatusPending, false},
		{BookingStatusCompleted, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
	}

	for _, tc := range testCases {
		err := tc.from.Validate(tc.to)
		if tc.allowed {
			assert.NoErrorf(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.ErrorIsf(t, err, ErrConflict, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestSessionType_MaxParticipants(t *testing.T) {
	assert.Equal(t, 2, SessionTypePrivate.MaxParticipants())
	assert.Equal(t, 10, SessionTypeGroup.MaxParticipants())
}

func TestBooking_Validate(t *testing.T) {
	valid := Booking{
		BookingID:       uuid.NewString(),
		UserID:          uuid.NewString(),
		SessionID:       uuid.NewString(),
		SessionType:     SessionTypeGroup,
		CustomerEmail:   "fan@example.com",
		ScheduledAt:     time.Now().Add(24 * time.Hour),
		DurationMinutes: 30,
	}
	assert.NoError(t, valid.Validate())

	missingEmail := valid
	missingEmail.CustomerEmail = ""
	assert.ErrorIs(t, missingEmail.Validate(), ErrValidation)

	badType := valid
	badType.SessionType = "webinar"
	assert.ErrorIs(t, badType.Validate(), ErrValidation)

	noDuration := valid
	noDuration.DurationMinutes = 0
	assert.ErrorIs(t, noDuration.Validate(), ErrValidation)
}

func TestBooking_RoomExpiresAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	b := Booking{ScheduledAt: start, DurationMinutes: 30}

	assert.Equal(t, start.Add(90*time.Minute), b.RoomExpiresAt())
}
