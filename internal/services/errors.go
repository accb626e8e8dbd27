package services

import "errors"

var (
	// ErrInvalidCoordinate is returned for latitudes outside [-90, 90] or
	// longitudes outside [-180, 180]. Out-of-range values are rejected, not
	// clamped.
	ErrInvalidCoordinate = errors.New("coordinate out of range")

	// ErrUserNotFound is returned when a journey operation references an
	// unknown user.
	ErrUserNotFound = errors.New("user not found")

	// ErrTempleNotFound is returned when a visit references an unknown
	// temple.
	ErrTempleNotFound = errors.New("temple not found")

	// ErrInvalidTransition is returned for journey status changes the
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid journey status transition")
)
