package acquisition

import (
	"context"
	"fmt"
	"io"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/internal/storage"
	"go-font-inspector/pkg/models"
	"go-font-inspector/pkg/validation"
)

type imageSource struct {
	fetcher       storage.ImageFetcher
	blobs         storage.BlobStorage
	urlValidator  *validation.URLValidator
	blobValidator *validation.URLValidator
	maxBytes      int64
}

// NewImageSource creates an ImageSource. blobs may be nil, in which case FromBlob always
// fails with ErrBlobStorageDisabled.
func NewImageSource(fetcher storage.ImageFetcher, blobs storage.BlobStorage, maxBytes int64) ImageSource {
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxImageSize
	}
	return &imageSource{
		fetcher:       fetcher,
		blobs:         blobs,
		urlValidator:  validation.NewURLValidator(),
		blobValidator: validation.NewBlobURLValidator(),
		maxBytes:      maxBytes,
	}
}

func (s *imageSource) FromRemoteURL(ctx context.Context, imageURL string) (*Image, error) {
	if err := s.urlValidator.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	payload, err := s.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	return &Image{
		Payload: *payload,
		Source: models.Source{
			Kind:      models.SourceRemote,
			URL:       imageURL,
			MediaType: payload.MediaType,
			SizeBytes: payload.Size(),
		},
	}, nil
}

func (s *imageSource) FromYouTubeURL(ctx context.Context, rawURL string) (*Image, error) {
	videoID, thumbnailURL, err := validation.ParseYouTubeURL(rawURL)
	if err != nil {
		return nil, err
	}

	img, err := s.FromRemoteURL(ctx, thumbnailURL)
	if err != nil {
		return nil, err
	}
	img.Source.Kind = models.SourceYouTube
	img.Source.VideoID = videoID
	return img, nil
}

func (s *imageSource) FromLocalFile(r io.Reader, fileName, mediaType string) (*Image, error) {
	if err := validation.ValidateImageMediaType(mediaType); err != nil {
		return nil, err
	}
	mediaType = validation.NormalizeMediaType(mediaType)

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read uploaded file", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Image exceeds the maximum size of %d bytes.", s.maxBytes), nil)
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError(msgEmptyFile, nil)
	}

	payload := models.NewImagePayload(data, mediaType)
	return &Image{
		Payload: payload,
		Source: models.Source{
			Kind:      models.SourceUpload,
			FileName:  fileName,
			MediaType: mediaType,
			SizeBytes: len(data),
		},
	}, nil
}

func (s *imageSource) FromBlob(ctx context.Context, blobURL string) (*Image, error) {
	if s.blobs == nil {
		return nil, ErrBlobStorageDisabled
	}
	if err := s.blobValidator.ValidateImageURL(blobURL); err != nil {
		return nil, err
	}

	payload, err := s.blobs.GetImage(ctx, blobURL)
	if err != nil {
		return nil, err
	}

	return &Image{
		Payload: *payload,
		Source: models.Source{
			Kind:      models.SourceBlob,
			URL:       blobURL,
			MediaType: payload.MediaType,
			SizeBytes: payload.Size(),
		},
	}, nil
}
