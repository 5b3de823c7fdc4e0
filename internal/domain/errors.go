package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// ErrNoRecipients is returned when a push dispatch is attempted for a
	// member with no registered device tokens.
	ErrNoRecipients = errors.New("no recipients")

	// ErrTransport is returned when the push transport failed for the whole batch.
	ErrTransport = errors.New("transport failure")
)
