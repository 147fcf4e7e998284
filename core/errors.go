// Package core holds the trip-planning domain: calendar dates, currency
// resolution and the itinerary aggregate. It has no knowledge of the model,
// the transport or the persistence layer.
package core

import "errors"

// ErrValidation marks malformed dates, currency codes or tool arguments.
var ErrValidation = errors.New("validation error")

// ErrNotAuthenticated is returned when an operation needs a user identity
// and the request carried none. It is never retried.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrProvider wraps failures of external providers (geocoding, booking,
// holidays). Callers degrade to empty or sentinel results.
var ErrProvider = errors.New("external provider error")

// ErrNotFound is the persistence conflict: the record does not exist or is
// not owned by the caller.
var ErrNotFound = errors.New("not found")
