package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fanclub/entity"
	"fanclub/pubsub/bus"
	"fanclub/pubsub/outbox"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Store persists a pending order with its price snapshot and decrements
// product stock. The stock check is a conditional update inside a
// serializable transaction, so concurrent checkouts cannot oversell.
func (r *PostgresRepository) Store(ctx context.Context, order entity.Order) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
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

	for _, item := range order.Items {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2
			WHERE product_id = $1 AND stock >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("could not decrement stock: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%w: product %s", entity.ErrInsufficientStock, item.ProductID)
		}
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO
		    orders (order_id, user_id, status, checkout_session_id, total_cents, currency, created_at)
		VALUES (:order_id, :user_id, :status, :checkout_session_id, :total_cents, :currency, :created_at)
		`, order)
	if err != nil {
		return fmt.Errorf("could not add order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO
			    order_items (order_id, product_id, quantity, unit_price_cents, currency)
			VALUES (:order_id, :product_id, :quantity, :unit_price_cents, :currency)
			`, item)
		if err != nil {
			return fmt.Errorf("could not add order item: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, orderID string) (entity.Order, error) {
	var order entity.Order
	err := r.db.GetContext(ctx, &order, `
		SELECT order_id, user_id, status, checkout_session_id, total_cents, currency, created_at
		FROM orders
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Order{}, fmt.Errorf("%w: order %s", entity.ErrNotFound, orderID)
		}
		return entity.Order{}, fmt.Errorf("could not get order: %w", err)
	}

	err = r.db.SelectContext(ctx, &order.Items, `
		SELECT order_id, product_id, quantity, unit_price_cents, currency
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return entity.Order{}, fmt.Errorf("could not get order items: %w", err)
	}

	return order, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT order_id, user_id, status, checkout_session_id, total_cents, currency, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
	return orders, err
}

// MarkCompletedByCheckoutSession applies the pending -> completed
// transition for the order referenced by the payment session.
// The update is conditional on the current status, so a duplicate
// webhook delivery observes a no-op (alreadyDone) instead of applying
// side effects twice. The fulfillment event goes through the outbox in
// the same transaction.
func (r *PostgresRepository) MarkCompletedByCheckoutSession(ctx context.Context, checkoutSessionID string) (order entity.Order, alreadyDone bool, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		order, alreadyDone, txErr = r.transitionByCheckoutSession(ctx, tx, checkoutSessionID, entity.OrderStatusCompleted)
		if txErr != nil || alreadyDone {
			return txErr
		}

		email, txErr := customerEmail(ctx, tx, order.UserID)
		if txErr != nil {
			return txErr
		}

		return publish(ctx, tx, entity.OrderCompleted{
			Header:        entity.NewEventHeaderWithIdempotencyKey(checkoutSessionID),
			OrderID:       order.OrderID,
			UserID:        order.UserID,
			CustomerEmail: email,
			Total:         order.Total(),
		})
	})
	return order, alreadyDone, err
}

// MarkFailedByCheckoutSession applies pending -> failed on payment
// failure or checkout expiry. Idempotent the same way as completion.
func (r *PostgresRepository) MarkFailedByCheckoutSession(ctx context.Context, checkoutSessionID string) (order entity.Order, alreadyDone bool, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		order, alreadyDone, txErr = r.transitionByCheckoutSession(ctx, tx, checkoutSessionID, entity.OrderStatusFailed)
		if txErr != nil || alreadyDone {
			return txErr
		}

		email, txErr := customerEmail(ctx, tx, order.UserID)
		if txErr != nil {
			return txErr
		}

		return publish(ctx, tx, entity.OrderFailed{
			Header:        entity.NewEventHeaderWithIdempotencyKey(checkoutSessionID),
			OrderID:       order.OrderID,
			CustomerEmail: email,
		})
	})
	return order, alreadyDone, err
}

// Cancel applies pending -> cancelled for an explicit user
// cancellation. Terminal orders are rejected with ErrConflict.
func (r *PostgresRepository) Cancel(ctx context.Context, orderID string) (order entity.Order, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		txErr := tx.GetContext(ctx, &order, `
			SELECT order_id, user_id, status, checkout_session_id, total_cents, currency, created_at
			FROM orders
			WHERE order_id = $1
			FOR UPDATE
		`, orderID)
		if txErr != nil {
			if errors.Is(txErr, sql.ErrNoRows) {
				return fmt.Errorf("%w: order %s", entity.ErrNotFound, orderID)
			}
			return fmt.Errorf("could not get order: %w", txErr)
		}

		if txErr = order.Status.Validate(entity.OrderStatusCancelled); txErr != nil {
			return txErr
		}

		_, txErr = tx.ExecContext(ctx, `
			UPDATE orders SET status = $2 WHERE order_id = $1
		`, orderID, entity.OrderStatusCancelled)
		if txErr != nil {
			return fmt.Errorf("could not cancel order: %w", txErr)
		}
		order.Status = entity.OrderStatusCancelled

		email, txErr := customerEmail(ctx, tx, order.UserID)
		if txErr != nil {
			return txErr
		}

		return publish(ctx, tx, entity.OrderCancelled{
			Header:        entity.NewEventHeader(),
			OrderID:       order.OrderID,
			CustomerEmail: email,
		})
	})
	return order, err
}

func (r *PostgresRepository) transitionByCheckoutSession(
	ctx context.Context,
	tx *sqlx.Tx,
	checkoutSessionID string,
	next entity.OrderStatus,
) (entity.Order, bool, error) {
	var order entity.Order
	err := tx.GetContext(ctx, &order, `
		UPDATE orders
		SET status = $2
		WHERE checkout_session_id = $1 AND status = $3
		RETURNING order_id, user_id, status, checkout_session_id, total_cents, currency, created_at
	`, checkoutSessionID, next, entity.OrderStatusPending)
	if err == nil {
		return order, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entity.Order{}, false, fmt.Errorf("could not transition order: %w", err)
	}

	// no pending order matched: either unknown session or duplicate delivery
	err = tx.GetContext(ctx, &order, `
		SELECT order_id, user_id, status, checkout_session_id, total_cents, currency, created_at
		FROM orders
		WHERE checkout_session_id = $1
	`, checkoutSessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Order{}, false, fmt.Errorf("%w: checkout session %s", entity.ErrNotFound, checkoutSessionID)
		}
		return entity.Order{}, false, fmt.Errorf("could not get order: %w", err)
	}

	return order, true, nil
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

func customerEmail(ctx context.Context, tx *sqlx.Tx, userID string) (string, error) {
	var email string
	err := tx.GetContext(ctx, &email, `SELECT email FROM users WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: user %s", entity.ErrNotFound, userID)
		}
		return "", fmt.Errorf("could not get user email: %w", err)
	}
	return email, nil
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
