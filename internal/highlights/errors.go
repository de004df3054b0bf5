package highlights

import "errors"

var (
	// ErrInvalidMatrix reports classifier output that cannot form a rectangular class-major grid.
	ErrInvalidMatrix = errors.New("invalid classification matrix")
	// ErrInvalidRange reports a frame range outside the matrix or with a non-positive length.
	ErrInvalidRange = errors.New("invalid frame range")
	// ErrIndexOutOfRange reports a class or frame index lookup outside the matrix bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrMissingTriggerClass reports a category trigger class absent from the matrix.
	ErrMissingTriggerClass = errors.New("missing trigger class")
	// ErrInvalidConfig reports an unusable category or preset definition.
	ErrInvalidConfig = errors.New("invalid highlight configuration")
)
