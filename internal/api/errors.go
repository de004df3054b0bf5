package api

import "errors"

var (
	// ErrInvalidInput marks requests that are malformed or reference invalid ids.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedType marks uploads whose type is not accepted.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge marks uploads over library.max_upload_mb.
	ErrTooLarge = errors.New("upload too large")
	// ErrBusy marks videos a pipeline stage is working on.
	ErrBusy = errors.New("video is being processed")
)
