package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

// Video ids are 11 characters drawn from the URL-safe base64 alphabet.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ErrInvalidURL is returned for URLs no known shape matches.
var ErrInvalidURL = fmt.Errorf("invalid YouTube URL format")

// ExtractVideoID pulls the video identifier out of a submitted URL.
// Supported shapes: short links (youtu.be/<id>), canonical watch links
// (youtube.com/watch?v=<id>) and shorts links (youtube.com/shorts/<id>).
func ExtractVideoID(rawURL string) (string, error) {
	var id string

	switch {
	case strings.Contains(rawURL, "youtu.be/"):
		id = after(rawURL, "youtu.be/")
	case strings.Contains(rawURL, "youtube.com/watch"):
		id = after(rawURL, "v=")
	case strings.Contains(rawURL, "youtube.com/shorts/"):
		id = after(rawURL, "shorts/")
	default:
		return "", ErrInvalidURL
	}

	// Trim trailing query or fragment parts.
	if i := strings.IndexAny(id, "?&#"); i >= 0 {
		id = id[:i]
	}

	if !videoIDPattern.MatchString(id) {
		return "", ErrInvalidURL
	}
	return id, nil
}

func after(s, marker string) string {
	if i := strings.Index(s, marker); i >= 0 {
		return s[i+len(marker):]
	}
	return ""
}
