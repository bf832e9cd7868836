package entity

import "errors"

var (
	// Pixel errors
	ErrInvalidChannelCount = errors.New("invalid channel count")
	ErrSizeMismatch        = errors.New("buffer size mismatch")
	ErrInvalidKernel       = errors.New("kernel size must be a positive odd integer")

	// Codec errors
	ErrDecode = errors.New("cannot decode image")
	ErrEncode = errors.New("cannot encode image")

	// Filter errors
	ErrUnknownFilter = errors.New("unknown filter")

	// Job errors
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job result is not ready")

	// Queue errors
	ErrQueueUnavailable = errors.New("job queue unavailable")

	// Request errors
	ErrEmptyUpload = errors.New("empty upload")
)
