package types

import "errors"

var (
	// ErrInvalidInput is returned when the representation required by the
	// selected method is missing, the method is unknown, or options are out
	// of range. Not retryable without caller correction.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable is returned when the segmentation backend cannot be
	// reached, initialized or invoked. Retryable; callers may fall back to
	// the adaptive-threshold method.
	ErrModelUnavailable = errors.New("segmentation model unavailable")

	// ErrNoForegroundDetected is returned when no contour with positive area
	// exists in a mask, including after the edge-detection fallback.
	ErrNoForegroundDetected = errors.New("no foreground detected")

	// ErrNoSubjectPixels is returned when color quantization is requested on
	// an empty mask.
	ErrNoSubjectPixels = errors.New("no subject pixels")

	// ErrQuantizationFailed is returned when no cluster survives filtering.
	ErrQuantizationFailed = errors.New("color quantization failed")
)

// IsRetryable reports whether err is worth retrying without changing the input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}
