package deviation

import "errors"

var (
	// ErrNoApplicableCurve is returned when no reference curve row applies to
	// a vessel's category and size bracket.
	ErrNoApplicableCurve = errors.New("no applicable reference curve")

	// ErrDegenerateBaseline is returned when the evaluated baseline is zero,
	// so a deviation percentage is undefined.
	ErrDegenerateBaseline = errors.New("degenerate baseline")

	// ErrMalformedInput marks input that cannot be interpreted without
	// guessing, such as a missing timestamp or a non-positive DWT.
	ErrMalformedInput = errors.New("malformed input")
)
