package billing

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers are expected to branch on.
// None of them are retried internally; retry/backoff policy belongs to the
// caller or the provider's webhook redelivery.
var (
	// ErrLedgerUnavailable marks a Ledger lookup or write that failed for a
	// reason other than "row not found".
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrBillingUnavailable marks a provider API call that failed or returned
	// malformed data.
	ErrBillingUnavailable = errors.New("billing service unavailable")

	// ErrBillingCreateFailed marks a customer creation that returned no
	// usable id.
	ErrBillingCreateFailed = errors.New("billing customer creation failed")

	// ErrMappingNotFound is returned when no customer mapping exists for the
	// queried key.
	ErrMappingNotFound = errors.New("customer mapping not found")

	// ErrCustomerNotFound is returned when the provider reports that a
	// customer id no longer exists.
	ErrCustomerNotFound = errors.New("billing customer not found")
)

// ReconciliationError wraps any failure to apply a webhook event, carrying
// enough context for the dispatcher's retry or dead-letter handling.
type ReconciliationError struct {
	EventID  string
	EntityID string
	Err      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile event %s (entity %s): %v", e.EventID, e.EntityID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

func newReconciliationError(eventID, entityID string, err error) *ReconciliationError {
	return &ReconciliationError{EventID: eventID, EntityID: entityID, Err: err}
}
