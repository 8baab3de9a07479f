package domain

import (
	"context"
	"errors"
)

var (
	// ErrNoResults means the provider answered but found nothing.
	ErrNoResults = errors.New("geocoder: no results")
	// ErrInvalidAddress means the address was rejected before any lookup.
	ErrInvalidAddress = errors.New("geocoder: invalid address")
	// ErrOutOfBounds means the provider's answer fell outside the region.
	ErrOutOfBounds = errors.New("geocoder: result outside bounding box")
	// ErrGeocodingDisabled means no provider is configured.
	ErrGeocodingDisabled = errors.New("geocoder: disabled")
	// ErrObjectNotFound means the requested source object does not exist.
	ErrObjectNotFound = errors.New("source object not found")
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}
