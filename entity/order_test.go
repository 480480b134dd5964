package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_snapshotsTotal(t *testing.T) {
	order, err := NewOrder(uuid.NewString(), uuid.NewString(), []OrderItem{
		{ProductID: "tshirt", Quantity: 2, UnitPriceCents: 2500, Currency: "USD"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5000), order.TotalCents)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, order.OrderID, order.Items[0].OrderID)
}

func TestNewOrder_validation(t *testing.T) {
	testCases := []struct {
		name  string
		items []OrderItem
	}{
		{name: "no items", items: nil},
		{
			name:  "non-positive quantity",
			items: []OrderItem{{ProductID: "poster", Quantity: 0, UnitPriceCents: 100, Currency: "USD"}},
		},
		{
			name: "mixed currencies",
			items: []OrderItem{
				{ProductID: "poster", Quantity: 1, UnitPriceCents: 100, Currency: "USD"},
				{ProductID: "mug", Quantity: 1, UnitPriceCents: 100, Currency: "EUR"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrder(uuid.NewString(), uuid.NewString(), tc.items)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestOrderStatus_transitions(t *testing.T) {
	assert.NoError(t, OrderStatusPending.Validate(OrderStatusCompleted))
	assert.NoError(t, OrderStatusPending.Validate(OrderStatusFailed))
	assert.NoError(t, OrderStatusPending.Validate(OrderStatusCancelled))

	// terminal states reject everything, including going back to pending
	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, next := range []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled} {
			assert.ErrorIs(t, terminal.Validate(next), ErrConflict, "%s -> %s", terminal, next)
		}
	}
}
