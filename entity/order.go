package entity

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions is the authoritative transition table. Anything not
// listed here is rejected with ErrConflict.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
}

type Order struct {
	OrderID           string      `json:"order_id" db:"order_id"`
	UserID            string      `json:"user_id" db:"user_id"`
	Status            OrderStatus `json:"status" db:"status"`
	CheckoutSessionID string      `json:"checkout_session_id" db:"checkout_session_id"`
	TotalCents        int64       `json:"total_cents" db:"total_cents"`
	Currency          string      `json:"currency" db:"currency"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`

	Items []OrderItem `json:"items" db:"-"`
}

// OrderItem carries the unit price snapshotted at checkout time.
// Later catalog price changes must not affect stored orders.
type OrderItem struct {
	OrderID        string `json:"order_id" db:"order_id"`
	ProductID      string `json:"product_id" db:"product_id"`
	Quantity       int    `json:"quantity" db:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents" db:"unit_price_cents"`
	Currency       string `json:"currency" db:"currency"`
}

func (o Order) Total() Money {
	return Money{Cents: o.TotalCents, Currency: o.Currency}
}

// CanTransition reports whether moving from the current status to next
// is allowed by the transition table.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Validate(next OrderStatus) error {
	if !s.CanTransition(next) {
		return fmt.Errorf("%w: order transition %s -> %s is not allowed", ErrConflict, s, next)
	}
	return nil
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// NewOrder snapshots the given items and computes the total. Items must
// already carry catalog prices re-read by the caller.
func NewOrder(orderID, userID string, items []OrderItem) (Order, error) {
	if orderID == "" || userID == "" {
		return Order{}, fmt.Errorf("%w: order id and user id are required", ErrValidation)
	}
	if len(items) == 0 {
		return Order{}, fmt.Errorf("%w: order must have at least one item", ErrValidation)
	}

	total := Money{Currency: items[0].Currency}
	for i, item := range items {
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: item %s has non-positive quantity", ErrValidation, item.ProductID)
		}
		var err error
		total, err = total.Add(Money{Cents: item.UnitPriceCents, Currency: item.Currency}.Mul(item.Quantity))
		if err != nil {
			return Order{}, err
		}
		items[i].OrderID = orderID
	}

	return Order{
		OrderID:    orderID,
		UserID:     userID,
		Status:     OrderStatusPending,
		TotalCents: total.Cents,
		Currency:   total.Currency,
		CreatedAt:  time.Now().UTC(),
		Items:      items,
	}, nil
}
