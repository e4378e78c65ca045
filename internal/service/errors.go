package service

import (
	"fmt"

	"github.com/user/reelist/internal/model"
)

// Typed failures surfaced by the catalog and watchlist services. Callers
// branch with errors.As; anything else is an internal error.

// ValidationError reports malformed input and names the field at fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError reports a uniqueness violation. Existing carries the
// conflicting watchlist item when it could be loaded, so the caller can
// surface it instead of a bare error.
type ConflictError struct {
	Message  string
	Existing *model.WatchlistItem
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError reports that a required resource does not exist, locally
// or at the provider. For provider misses the message is the provider's.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ProviderError wraps a transport-level failure (timeout, unexpected
// status, malformed response) from an external metadata provider. The
// underlying cause is preserved for diagnostics.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
