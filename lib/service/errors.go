package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownInvoice is returned for webhook or resource lookups that
	// reference an invoice this store has never seen.
	ErrUnknownInvoice = errors.New("unknown invoice")
	// ErrIndeterminate marks a send whose outcome is unknown after
	// submission. The send must not be resubmitted.
	ErrIndeterminate = errors.New("send outcome indeterminate")
)

// ValidationError names the offending field so callers can fix the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
