package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientFunds is returned when an operation would drive a balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrCapacityExceeded is returned when a share class has fewer shares left than requested.
var ErrCapacityExceeded = errors.New("share capacity exceeded")

// ErrInvalidSale is returned when a position cannot be sold in the requested quantity.
var ErrInvalidSale = errors.New("invalid sale")

// ErrAlreadyProcessed is returned when a withdrawal has already left the pending state.
var ErrAlreadyProcessed = errors.New("already processed")

// ErrTransient marks a store conflict that may succeed when the unit of work is re-run.
var ErrTransient = errors.New("transient store conflict")

var businessRules = []error{
	ErrInsufficientFunds,
	ErrCapacityExceeded,
	ErrInvalidSale,
	ErrAlreadyProcessed,
}

// IsBusinessRule reports whether err is a rejection that the caller must not retry.
func IsBusinessRule(err error) bool {
	for _, target := range businessRules {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err was caused by a retryable store conflict.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Reason returns a short stable label for a business-rule error, used for
// metrics and API error codes. It returns "" for other errors.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrInvalidSale):
		return "invalid_sale"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	default:
		return ""
	}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
