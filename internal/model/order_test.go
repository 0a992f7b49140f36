package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCompleted))
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusPending))

	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled} {
		for _, next := range []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestFormatOrderDate(t *testing.T) {
	ts := time.Date(2025, time.June, 3, 16, 5, 0, 0, time.UTC)
	assert.Equal(t, "Jun 3, 2025, 04:05 PM", FormatOrderDate(ts))
}
