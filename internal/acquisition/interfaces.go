// Package acquisition turns user input into an image payload ready for inference.
package acquisition

import (
	"context"
	"io"

	"go-font-inspector/pkg/models"
)

// ImageSource produces inference-ready images. Every operation either returns a complete
// image or fails; nothing is streamed.
type ImageSource interface {
	// FromRemoteURL fetches an absolute http(s) image URL.
	FromRemoteURL(ctx context.Context, imageURL string) (*Image, error)

	// FromYouTubeURL validates a video link and fetches its thumbnail. An invalid link
	// fails before any network access.
	FromYouTubeURL(ctx context.Context, rawURL string) (*Image, error)

	// FromLocalFile reads an uploaded file. The declared media type is checked before reading.
	FromLocalFile(r io.Reader, fileName, mediaType string) (*Image, error)

	// FromBlob downloads an image from the configured storage account.
	FromBlob(ctx context.Context, blobURL string) (*Image, error)
}

// Image is an acquired payload together with a description of where it came from.
type Image struct {
	Payload models.ImagePayload
	Source  models.Source
}
