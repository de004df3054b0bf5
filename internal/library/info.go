package library

import (
	"encoding/json"
	"time"
)

// File names inside a video directory.
const (
	InfoFile       = "info.json"
	VideoFile      = "video.mp4"
	AudioFile      = "audio.wav"
	ThumbnailFile  = "thumbnail.png"
	HighlightsFile = "highlights.json"
)

// Source describes where a video came from.
type Source struct {
	Kind     string `json:"kind"`
	Location string `json:"location"`
	Platform string `json:"platform,omitempty"`
}

// Info is the content of info.json plus the directory listing.
type Info struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Title           string          `json:"title,omitempty"`
	Source          Source          `json:"source"`
	CreatedAt       time.Time       `json:"createdAt"`
	DurationSeconds float64         `json:"duration"`
	Size            int64           `json:"size"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	// Files is filled from the directory listing on read and never persisted.
	Files []string `json:"files,omitempty"`
}

// DisplayName prefers the title over the original file name.
func (i Info) DisplayName() string {
	if i.Title != "" {
		return i.Title
	}
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// HasFile reports whether name was present in the directory listing.
func (i Info) HasFile(name string) bool {
	for _, f := range i.Files {
		if f == name {
			return true
		}
	}
	return false
}
