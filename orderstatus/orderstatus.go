// Package orderstatus holds the order lifecycle table used by the admin
// order screens and the order service.
package orderstatus

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Delivering Status = "delivering"
	Delivered  Status = "delivered"
	Cancelled  Status = "cancelled"
	Returned   Status = "returned"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrPaymentRequired   = errors.New("order must be paid before this status")
)

var transitions = map[Status][]Status{
	Pending:    {Processing, Delivering, Cancelled},
	Processing: {Delivering, Cancelled},
	Delivering: {Delivered, Cancelled},
	Delivered:  {Returned},
	Cancelled:  {},
	Returned:   {},
}

// requiresPayment lists the target statuses a non-COD order can only reach
// once paid.
var requiresPayment = map[Status]bool{
	Delivering: true,
	Delivered:  true,
}

// All returns every known status in lifecycle order.
func All() []Status {
	return []Status{Pending, Processing, Delivering, Delivered, Cancelled, Returned}
}

func Parse(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Allowed returns the statuses reachable from from. Unknown and terminal
// statuses yield an empty, non-nil slice.
func Allowed(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Validate checks a status change against the table and the payment rule.
// Cash-on-delivery orders are exempt from the pre-paid requirement.
func Validate(from, to Status, paymentMethod, paymentStatus string) error {
	if _, ok := transitions[from]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if _, ok := transitions[to]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if requiresPayment[to] && paymentMethod != "cod" && paymentStatus != "paid" {
		return fmt.Errorf("%w: %s", ErrPaymentRequired, to)
	}
	return nil
}
