package validation

import (
	"fmt"
	"regexp"

	apperrors "go-font-inspector/internal/errors"
)

// ThumbnailURLTemplate is the highest-resolution still YouTube publishes for a video.
const ThumbnailURLTemplate = "https://img.youtube.com/vi/%s/maxresdefault.jpg"

// The pattern is unanchored so a link pasted inside a sentence still matches.
var youtubeURLPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|embed/)|youtu\.be/)([\w-]{11})`)

// ExtractVideoID returns the 11-character video id from a watch, embed or youtu.be link.
func ExtractVideoID(rawURL string) (string, bool) {
	m := youtubeURLPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// ThumbnailURL derives the thumbnail location for a video id.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf(ThumbnailURLTemplate, videoID)
}

// ParseYouTubeURL validates a user-supplied link and returns its id and thumbnail URL.
func ParseYouTubeURL(rawURL string) (videoID, thumbnailURL string, err error) {
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		return "", "", apperrors.NewValidationError(apperrors.MsgInvalidYouTubeURL, nil)
	}
	return id, ThumbnailURL(id), nil
}
