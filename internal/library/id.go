package library

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidID is returned for ids that do not match the video id format.
var ErrInvalidID = errors.New("invalid video id")

var idPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NewID returns "YYYY-MM-DD-<unix millis>-<uuid>" for now.
func NewID(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s-%d-%s", now.Format("2006-01-02"), now.UnixMilli(), uuid.NewString())
}

// ValidateID rejects anything that is not a video id, which also keeps ids
// from escaping the videos root.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
