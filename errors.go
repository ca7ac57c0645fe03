package pageplan

import "errors"

var (
	// ErrMalformedPathSpec is returned while building a QueryShape when a path
	// references a non-existent attribute or association, uses an attribute
	// where an association is expected (or vice versa), or declares
	// conflicting sort directions for one attribute.
	ErrMalformedPathSpec = errors.New("malformed path spec")

	// ErrUnsupportedPagingShape is returned when the selected paging strategy
	// needs a backend capability that is not available, e.g. the distinct-rank
	// function is not installed or memory paging is disabled.
	ErrUnsupportedPagingShape = errors.New("unsupported paging shape")
)

// IsMalformedPathSpecErr returns true if err is or wraps ErrMalformedPathSpec.
func IsMalformedPathSpecErr(err error) bool {
	return errors.Is(err, ErrMalformedPathSpec)
}

// IsUnsupportedPagingShapeErr returns true if err is or wraps ErrUnsupportedPagingShape.
func IsUnsupportedPagingShapeErr(err error) bool {
	return errors.Is(err, ErrUnsupportedPagingShape)
}
