package models

import (
	"errors"
	"fmt"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAssigned  OrderStatus = "assigned"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusIssues    OrderStatus = "issues"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusAssigned,
	StatusInTransit,
	StatusDelivered,
	StatusIssues,
	StatusCancelled,
}

var ErrInvalidStatus = errors.New("invalid order status")

// transitions maps each status to the statuses it may move to.
// delivered and cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusInTransit, StatusIssues, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusIssues},
	StatusIssues:    {StatusAssigned, StatusInTransit},
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s OrderStatus) String() string { return string(s) }

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	out := make([]OrderStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Reassignable reports whether the delivery person may still be changed.
func (s OrderStatus) Reassignable() bool {
	return s == StatusPending || s == StatusAssigned || s == StatusIssues
}
