package types

import "errors"

var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrValidation      = errors.New("validation failed")

	// ErrUpstream is returned when a public map service (Overpass, Nominatim) fails.
	ErrUpstream = errors.New("upstream service unavailable")

	// ErrInvalidCoordinate marks a latitude outside [-90, 90] or a longitude outside [-180, 180].
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)
