package model

import "fmt"

// Error taxonomy for the adapter layer. All types are matched with
// errors.As; the transport classifies every remote response into one
// of these, and nothing below this layer leaks venue-specific error
// shapes to callers.

// ValidationError marks a structurally invalid canonical request. It
// is raised before any network call and is deterministic: safe to
// retry after correcting the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order request: %s: %s", e.Field, e.Reason)
}

// UnsupportedFeatureError marks a structurally valid request the
// target backend cannot express. Deterministic, raised before any
// network call.
type UnsupportedFeatureError struct {
	Exchange string
	Feature  string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Exchange, e.Feature)
}

// AuthError marks missing or invalid credentials.
type AuthError struct {
	Exchange string
	Reason   string
}

func (e *AuthError) Error() string {
	if e.Exchange == "" {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return fmt.Sprintf("%s authentication failed: %s", e.Exchange, e.Reason)
}

// ExchangeRejectionError means the remote venue explicitly rejected
// the request. Message carries the venue's wording verbatim.
type ExchangeRejectionError struct {
	Exchange string
	Code     int
	Message  string
}

func (e *ExchangeRejectionError) Error() string {
	return fmt.Sprintf("%s rejected the request (code %d): %s", e.Exchange, e.Code, e.Message)
}

// NetworkError marks a transport failure: timeout, connection error,
// or a response body that could not be parsed. There is no definitive
// answer from the venue, so the caller must reconcile order state via
// a status read before retrying order placement.
type NetworkError struct {
	Exchange string
	Op       string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: transport failure: %v", e.Exchange, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
