package queue

import "errors"

// ErrorClassifier is implemented by errors that know whether they need a
// person to look at them. Kinds "validation", "configuration", and
// "not_found" map to StatusReview; everything else maps to StatusFailed.
type ErrorClassifier interface {
	ErrorKind() string
}

// ErrJobNotFound is returned by operations that require an existing job.
var ErrJobNotFound = errors.New("job not found")

// FailureStatus maps a stage error to the status persisted after the stage fails.
func FailureStatus(err error) Status {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		switch classifier.ErrorKind() {
		case "validation", "configuration", "not_found":
			return StatusReview
		}
	}
	return StatusFailed
}
