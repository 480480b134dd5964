package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fanclub/entity"
	"fanclub/pubsub/bus"
	"fanclub/pubsub/outbox"
)

const bookingColumns = `
	booking_id, user_id, session_id, session_type, status, checkout_session_id,
	scheduled_at, duration_minutes, price_cents, currency, customer_email,
	special_requests, room_url, created_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Store persists a pending booking. A user can hold at most one booking
// per session; a second attempt is a conflict, not a new row.
func (r *PostgresRepository) Store(ctx context.Context, booking entity.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO bookings
			(booking_id, user_id, session_id, session_type, status, checkout_session_id,
			 scheduled_at, duration_minutes, price_cents, currency, customer_email,
			 special_requests, created_at)
		VALUES
			(:booking_id, :user_id, :session_id, :session_type, :status, :checkout_session_id,
			 :scheduled_at, :duration_minutes, :price_cents, :currency, :customer_email,
			 :special_requests, :created_at)
		`, booking)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: user %s already has a booking for session %s",
				entity.ErrConflict, booking.UserID, booking.SessionID)
		}
		return fmt.Errorf("could not add booking: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, bookingID string) (entity.Booking, error) {
	var booking entity.Booking
	err := r.db.GetContext(ctx, &booking, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE booking_id = $1
	`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Booking{}, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
		}
		return entity.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}
	return booking, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY created_at DESC
	`)
	return bookings, err
}

// ConfirmByCheckoutSession applies pending -> confirmed for the booking
// referenced by the payment session. Conditional on the current status,
// so duplicate webhook deliveries see a no-op; the BookingConfirmed
// event (which drives room provisioning) is published through the
// outbox in the same transaction, exactly once.
func (r *PostgresRepository) ConfirmByCheckoutSession(ctx context.Context, checkoutSessionID string) (booking entity.Booking, alreadyDone bool, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		booking, alreadyDone, txErr = r.transitionByCheckoutSession(ctx, tx, checkoutSessionID, entity.BookingStatusConfirmed)
		if txErr != nil || alreadyDone {
			return txErr
		}

		return publish(ctx, tx, entity.BookingConfirmed{
			Header:          entity.NewEventHeaderWithIdempotencyKey(checkoutSessionID),
			BookingID:       booking.BookingID,
			UserID:          booking.UserID,
			SessionID:       booking.SessionID,
			SessionType:     booking.SessionType,
			CustomerEmail:   booking.CustomerEmail,
			ScheduledAt:     booking.ScheduledAt,
			DurationMinutes: booking.DurationMinutes,
		})
	})
	return booking, alreadyDone, err
}

// FailByCheckoutSession applies pending -> cancelled when the payment
// failed or the checkout session expired.
func (r *PostgresRepository) FailByCheckoutSession(ctx context.Context, checkoutSessionID string) (booking entity.Booking, alreadyDone bool, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		booking, alreadyDone, txErr = r.transitionByCheckoutSession(ctx, tx, checkoutSessionID, entity.BookingStatusCancelled)
		if txErr != nil || alreadyDone {
			return txErr
		}

		return publish(ctx, tx, entity.BookingCancelled{
			Header:            entity.NewEventHeaderWithIdempotencyKey(checkoutSessionID),
			BookingID:         booking.BookingID,
			CustomerEmail:     booking.CustomerEmail,
			CheckoutSessionID: booking.CheckoutSessionID,
			WasConfirmed:      false,
		})
	})
	return booking, alreadyDone, err
}

// Cancel handles an explicit cancellation from pending or confirmed.
// The transition table rejects cancelling completed bookings.
func (r *PostgresRepository) Cancel(ctx context.Context, bookingID string) (booking entity.Booking, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		txErr := tx.GetContext(ctx, &booking, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE booking_id = $1
			FOR UPDATE
		`, bookingID)
		if txErr != nil {
			if errors.Is(txErr, sql.ErrNoRows) {
				return fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
			}
			return fmt.Errorf("could not get booking: %w", txErr)
		}

		wasConfirmed := booking.Status == entity.BookingStatusConfirmed

		if txErr = booking.Status.Validate(entity.BookingStatusCancelled); txErr != nil {
			return txErr
		}

		_, txErr = tx.ExecContext(ctx, `
			UPDATE bookings SET status = $2 WHERE booking_id = $1
		`, bookingID, entity.BookingStatusCancelled)
		if txErr != nil {
			return fmt.Errorf("could not cancel booking: %w", txErr)
		}
		booking.Status = entity.BookingStatusCancelled

		return publish(ctx, tx, entity.BookingCancelled{
			Header:            entity.NewEventHeader(),
			BookingID:         booking.BookingID,
			CustomerEmail:     booking.CustomerEmail,
			CheckoutSessionID: booking.CheckoutSessionID,
			WasConfirmed:      wasConfirmed,
		})
	})
	return booking, err
}

// Complete applies confirmed -> completed once the session took place.
func (r *PostgresRepository) Complete(ctx context.Context, bookingID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $2
		WHERE booking_id = $1 AND status = $3
	`, bookingID, entity.BookingStatusCompleted, entity.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("could not complete booking: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		booking, err := r.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		return booking.Status.Validate(entity.BookingStatusCompleted)
	}

	return nil
}

// SetRoomURL stores the provisioned room URL. Preconditions: the
// booking exists and is confirmed. The URL is written only where
// room_url IS NULL, so a repeat call returns the stored URL without
// overwriting, and only the first call publishes RoomReady.
func (r *PostgresRepository) SetRoomURL(ctx context.Context, bookingID, roomURL string) (finalURL string, alreadySet bool, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var booking entity.Booking
		txErr := tx.GetContext(ctx, &booking, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE booking_id = $1
			FOR UPDATE
		`, bookingID)
		if txErr != nil {
			if errors.Is(txErr, sql.ErrNoRows) {
				return fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
			}
			return fmt.Errorf("could not get booking: %w", txErr)
		}

		if booking.RoomURL != nil {
			finalURL = *booking.RoomURL
			alreadySet = true
			return nil
		}

		if booking.Status != entity.BookingStatusConfirmed {
			return fmt.Errorf("%w: booking %s is %s, room can be provisioned only for confirmed bookings",
				entity.ErrConflict, bookingID, booking.Status)
		}

		_, txErr = tx.ExecContext(ctx, `
			UPDATE bookings
			SET room_url = $2
			WHERE booking_id = $1 AND room_url IS NULL
		`, bookingID, roomURL)
		if txErr != nil {
			return fmt.Errorf("could not set room url: %w", txErr)
		}
		finalURL = roomURL

		return publish(ctx, tx, entity.RoomReady{
			Header:        entity.NewEventHeaderWithIdempotencyKey("room-" + bookingID),
			BookingID:     booking.BookingID,
			CustomerEmail: booking.CustomerEmail,
			RoomURL:       roomURL,
			ScheduledAt:   booking.ScheduledAt,
		})
	})
	return finalURL, alreadySet, err
}

func (r *PostgresRepository) transitionByCheckoutSession(
	ctx context.Context,
	tx *sqlx.Tx,
	checkoutSessionID string,
	next entity.BookingStatus,
) (entity.Booking, bool, error) {
	var booking entity.Booking
	err := tx.GetContext(ctx, &booking, `
		UPDATE bookings
		SET status = $2
		WHERE checkout_session_id = $1 AND status = $3
		RETURNING `+bookingColumns+`
	`, checkoutSessionID, next, entity.BookingStatusPending)
	if err == nil {
		return booking, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entity.Booking{}, false, fmt.Errorf("could not transition booking: %w", err)
	}

	err = tx.GetContext(ctx, &booking, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE checkout_session_id = $1
	`, checkoutSessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Booking{}, false, fmt.Errorf("%w: checkout session %s", entity.ErrNotFound, checkoutSessionID)
		}
		return entity.Booking{}, false, fmt.Errorf("could not get booking: %w", err)
	}

	return booking, true, nil
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
	})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}

func publish(ctx context.Context, tx *sqlx.Tx, event entity.Event) error {
	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	eventBus, err := bus.NewEventBus(outboxPublisher)
	if err != nil {
		return err
	}

	if err := eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}
