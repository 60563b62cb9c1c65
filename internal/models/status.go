package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownOrderStatus = errors.New("unknown order status")

// OrderStatus is the lifecycle state of an order. The zero value is not a valid status.
type OrderStatus uint8

const (
	OrderStatusPending OrderStatus = iota + 1
	OrderStatusProcessing
	OrderStatusShipped
	OrderStatusDelivered
	OrderStatusCancelled
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:    "pending",
	OrderStatusProcessing: "processing",
	OrderStatusShipped:    "shipped",
	OrderStatusDelivered:  "delivered",
	OrderStatusCancelled:  "cancelled",
}

// orderTransitions lists the legal next states. States missing here are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for st, n := range orderStatusNames {
		if n == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, s)
}

func (s OrderStatus) String() string {
	if n, ok := orderStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("OrderStatus(%d)", uint8(s))
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// Cancellable reports whether a customer may cancel an order in this state.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrderStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *OrderStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", src)
	}
}

func (s OrderStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrderStatus, uint8(s))
	}
	return s.String(), nil
}
