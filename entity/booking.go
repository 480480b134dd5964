package entity

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

type SessionType string

const (
	SessionTypePrivate SessionType = "private"
	SessionTypeGroup   SessionType = "group"
)

// MaxParticipants is the video room participant cap for the session
// type: the fan and the host for private sessions, a small group
// otherwise.
func (t SessionType) MaxParticipants() int {
	if t == SessionTypePrivate {
		return 2
	}
	return 10
}

func ParseSessionType(s string) (SessionType, error) {
	switch SessionType(s) {
	case SessionTypePrivate, SessionTypeGroup:
		return SessionType(s), nil
	}
	return "", fmt.Errorf("%w: unknown session type %q", ErrValidation, s)
}

// Booking is a meet-and-greet reservation. RoomURL is set exactly once,
// after the booking is confirmed.
type Booking struct {
	BookingID         string        `json:"booking_id" db:"booking_id"`
	UserID            string        `json:"user_id" db:"user_id"`
	SessionID         string        `json:"session_id" db:"session_id"`
	SessionType       SessionType   `json:"session_type" db:"session_type"`
	Status            BookingStatus `json:"status" db:"status"`
	CheckoutSessionID string        `json:"checkout_session_id" db:"checkout_session_id"`
	ScheduledAt       time.Time     `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes   int           `json:"duration_minutes" db:"duration_minutes"`
	PriceCents        int64         `json:"price_cents" db:"price_cents"`
	Currency          string        `json:"currency" db:"currency"`
	CustomerEmail     string        `json:"customer_email" db:"customer_email"`
	SpecialRequests   string        `json:"special_requests" db:"special_requests"`
	RoomURL           *string       `json:"room_url" db:"room_url"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
}

func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Validate(next BookingStatus) error {
	if !s.CanTransition(next) {
		return fmt.Errorf("%w: booking transition %s -> %s is not allowed", ErrConflict, s, next)
	}
	return nil
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (b Booking) Price() Money {
	return Money{Cents: b.PriceCents, Currency: b.Currency}
}

// RoomExpiresAt bounds the video room lifetime: the scheduled slot plus
// an hour of slack.
func (b Booking) RoomExpiresAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes)*time.Minute + time.Hour)
}

func (b Booking) Validate() error {
	if b.BookingID == "" || b.UserID == "" || b.SessionID == "" {
		return fmt.Errorf("%w: booking, user and session ids are required", ErrValidation)
	}
	if b.CustomerEmail == "" {
		return fmt.Errorf("%w: customer email is required", ErrValidation)
	}
	if b.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduled time is required", ErrValidation)
	}
	if b.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if _, err := ParseSessionType(string(b.SessionType)); err != nil {
		return err
	}
	return nil
}
