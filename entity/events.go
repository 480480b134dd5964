package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return NewEventHeaderWithIdempotencyKey(uuid.NewString())
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type Event interface {
	IsInternal() bool
}

type OrderCompleted struct {
	Header        EventHeader `json:"header"`
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	CustomerEmail string      `json:"customer_email"`
	Total         Money       `json:"total"`
}

func (e OrderCompleted) IsInternal() bool { return false }

type OrderFailed struct {
	Header        EventHeader `json:"header"`
	OrderID       string      `json:"order_id"`
	CustomerEmail string      `json:"customer_email"`
}

func (e OrderFailed) IsInternal() bool { return false }

type OrderCancelled struct {
	Header        EventHeader `json:"header"`
	OrderID       string      `json:"order_id"`
	CustomerEmail string      `json:"customer_email"`
}

func (e OrderCancelled) IsInternal() bool { return false }

type BookingConfirmed struct {
	Header          EventHeader `json:"header"`
	BookingID       string      `json:"booking_id"`
	UserID          string      `json:"user_id"`
	SessionID       string      `json:"session_id"`
	SessionType     SessionType `json:"session_type"`
	CustomerEmail   string      `json:"customer_email"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
}

func (e BookingConfirmed) IsInternal() bool { return false }

type BookingCancelled struct {
	Header            EventHeader `json:"header"`
	BookingID         string      `json:"booking_id"`
	CustomerEmail     string      `json:"customer_email"`
	CheckoutSessionID string      `json:"checkout_session_id"`
	// WasConfirmed distinguishes cancellations of paid bookings, which
	// need a refund, from abandoned pending ones.
	WasConfirmed bool `json:"was_confirmed"`
}

func (e BookingCancelled) IsInternal() bool { return false }

type RoomReady struct {
	Header        EventHeader `json:"header"`
	BookingID     string      `json:"booking_id"`
	CustomerEmail string      `json:"customer_email"`
	RoomURL       string      `json:"room_url"`
	ScheduledAt   time.Time   `json:"scheduled_at"`
}

func (e RoomReady) IsInternal() bool { return false }
