package domain

import "errors"

// ErrSessionNotFound is returned when a user has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ErrCommerceUnavailable is returned when the commerce backend could
// not be reached after the client's retry was exhausted.
var ErrCommerceUnavailable = errors.New("commerce backend unavailable")

// ErrNotFound is returned when the commerce backend has no record for
// the requested id.
var ErrNotFound = errors.New("not found")
