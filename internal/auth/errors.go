package auth

import (
	"errors"
	"fmt"
)

// Reason is the coarse cause of an authentication failure. It is safe to
// log; it never carries token material.
type Reason string

const (
	ReasonMalformed        Reason = "malformed"
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonExpired          Reason = "expired"
	ReasonUnknownUser      Reason = "unknown_user"
	// ReasonLookupFailed means the user store could not be queried.
	ReasonLookupFailed Reason = "lookup_failed"
)

type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth: %s", e.Reason)
	}
	return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ReasonOf extracts the reason from an *AuthError anywhere in err's chain.
func ReasonOf(err error) (Reason, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason, true
	}
	return "", false
}

func newAuthError(reason Reason, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}
