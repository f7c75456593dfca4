package domain

import "errors"

// Error values shared by every package that operates on domains and domain
// objects. Callers test for them with errors.Is; wrapped forms carry the
// operation that failed.
var (
	// ErrNullInput is returned when a required domain or object is nil or
	// has already been released.
	ErrNullInput = errors.New("null input")

	// ErrTypeMismatch is returned when operands mix 2D and 3D objects, or
	// when a value payload has the wrong pixel type for an operation.
	ErrTypeMismatch = errors.New("object type mismatch")

	// ErrDomainDataInvalid is returned when a domain breaks the interval
	// ordering or bounding-box rules.
	ErrDomainDataInvalid = errors.New("invalid domain data")

	// ErrAllocFailure is returned when a requested table is too large to
	// address.
	ErrAllocFailure = errors.New("allocation failure")

	// ErrUnsupported is returned for connectivities or parameters an
	// operation does not handle.
	ErrUnsupported = errors.New("unsupported parameter")

	// ErrTooManyComponents is returned by labeling when the component limit
	// is exceeded under the fail overflow policy.
	ErrTooManyComponents = errors.New("too many components")

	// ErrEndOfObject signals that a scan has no further intervals. It is a
	// loop terminator, not a failure.
	ErrEndOfObject = errors.New("end of object")

	// ErrEndOfStream signals a clean end of an object stream.
	ErrEndOfStream = errors.New("end of stream")
)
