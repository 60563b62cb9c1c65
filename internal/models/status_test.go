package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.False(t, OrderStatusProcessing.Cancellable())
	assert.False(t, OrderStatusCancelled.Cancellable())

	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatus(0).IsTerminal())
	assert.False(t, OrderStatus(0).Valid())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, s)

	_, err = ParseOrderStatus("refunded")
	assert.ErrorIs(t, err, ErrUnknownOrderStatus)
}

func TestOrderStatusJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Status OrderStatus `json:"status"`
	}{OrderStatusPending})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"pending"}`, string(data))

	var decoded struct {
		Status OrderStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"cancelled"}`), &decoded))
	assert.Equal(t, OrderStatusCancelled, decoded.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"lost"}`), &decoded))

	_, err = json.Marshal(OrderStatus(42))
	assert.Error(t, err)
}

func TestOrderStatusScanValue(t *testing.T) {
	var s OrderStatus
	require.NoError(t, s.Scan("processing"))
	assert.Equal(t, OrderStatusProcessing, s)
	require.NoError(t, s.Scan([]byte("delivered")))
	assert.Equal(t, OrderStatusDelivered, s)
	assert.Error(t, s.Scan(7))

	v, err := OrderStatusCancelled.Value()
	require.NoError(t, err)
	assert.Equal(t, "cancelled", v)
}
