package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderShipped, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderProcessing, true},
		{OrderProcessing, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},
		{OrderPending, OrderDelivered, false},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderPending, false},
		{OrderCancelled, OrderShipped, false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderDelivered.IsTerminal())
	assert.True(t, OrderCancelled.IsTerminal())
	assert.False(t, OrderShipped.IsTerminal())
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentRejected, DerivePaymentStatus(OrderCancelled, PaymentPending))
	assert.Equal(t, PaymentPaid, DerivePaymentStatus(OrderDelivered, PaymentPending))
	assert.Equal(t, PaymentPending, DerivePaymentStatus(OrderShipped, PaymentPending))
	assert.Equal(t, PaymentPaid, DerivePaymentStatus(OrderShipped, PaymentPaid))
	assert.Equal(t, PaymentPending, DerivePaymentStatus(OrderProcessing, ""))
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus("Shipped")
	assert.True(t, ok)
	assert.Equal(t, OrderShipped, status)

	_, ok = ParseOrderStatus("shipped")
	assert.False(t, ok)
}
