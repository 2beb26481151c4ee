/*
errors.go - Centralized error types for the purchase core

PURPOSE:
  All purchase errors in one place for consistency and discoverability.
  The API layer maps these to HTTP statuses; nothing else in the repo
  invents error strings.

ERROR CATEGORIES:
  1. Not found  - unknown product or purchase
  2. Validation - missing/malformed input, attempts to rewrite frozen fields
  3. Conflict   - transaction id collision (retried internally, rarely seen)

USAGE:
  if errors.Is(err, purchase.ErrPurchaseNotFound) { ... }

SEE ALSO:
  - ledger.go, service.go: produce these errors
  - api/handlers.go: maps them to HTTP statuses
*/
package purchase

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProductNotFound is returned when a purchase references a product
	// the catalog does not know.
	ErrProductNotFound = errors.New("product not found")

	// ErrPurchaseNotFound is returned when neither a numeric id nor a
	// transaction id resolves to a stored purchase.
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrDuplicateTransactionID is returned when the store's unique index
	// rejects a transaction id. The service retries with a fresh id.
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")

	// ErrImmutableField is returned when an update tries to rewrite a
	// field frozen at creation (price, transaction id).
	ErrImmutableField = errors.New("immutable field")

	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ImmutableFieldError names the frozen field an update tried to change.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %q is immutable after creation", e.Field)
}

func (e *ImmutableFieldError) Unwrap() error { return ErrImmutableField }

// ValidationError carries the field and reason of a validation failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrPurchaseNotFound)
}

// IsConflict reports whether err is a transaction id collision.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateTransactionID)
}

// IsClientError reports whether err is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrImmutableField)
}
