package shape

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidShape is returned by the Context factories for NaN
	// coordinates, inverted latitude ranges, negative radii and coordinates
	// outside the world bounds.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrUnsupportedOperation is returned when an operation does not apply to
	// the calculator or context it was asked of, such as converting planar
	// distances to arc degrees.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)
