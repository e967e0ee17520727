package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/pkg/models"
	"go-font-inspector/pkg/validation"
)

// BlobStorage reads images held in a storage account.
type BlobStorage interface {
	GetImage(ctx context.Context, blobURL string) (*models.ImagePayload, error)
}

type azureStorage struct {
	client   *azblob.Client
	account  string
	maxBytes int64
}

// NewAzureStorage authenticates with a shared key. Only blobs of this account can be read.
func NewAzureStorage(accountName, accountKey string, maxBytes int64) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageSize
	}
	return &azureStorage{client: client, account: strings.ToLower(accountName), maxBytes: maxBytes}, nil
}

// GetImage downloads https://<account>.blob.core.windows.net/<container>/<blob>.
// The media type comes from the blob's Content-Type property and must be image/*.
func (s *azureStorage) GetImage(ctx context.Context, blobURL string) (*models.ImagePayload, error) {
	container, blobName, err := s.locate(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, classifyBlobError(ctx, err)
	}
	body := resp.Body
	defer body.Close()

	mediaType := ""
	if resp.ContentType != nil {
		mediaType = validation.NormalizeMediaType(*resp.ContentType)
	}
	if err := validation.ValidateImageMediaType(mediaType); err != nil {
		return nil, err
	}

	data, err := readLimited(body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	payload := models.NewImagePayload(data, mediaType)
	return &payload, nil
}

func (s *azureStorage) locate(blobURL string) (container, blobName string, err error) {
	parts, err := azblob.ParseURL(blobURL)
	if err != nil {
		return "", "", apperrors.NewValidationError("Invalid blob URL", err)
	}
	if !strings.HasPrefix(strings.ToLower(parts.Host), s.account+".") {
		return "", "", apperrors.NewValidationError("Blob URL does not belong to the configured storage account", nil)
	}
	if parts.ContainerName == "" || parts.BlobName == "" {
		return "", "", apperrors.NewValidationError("Blob URL must name a container and a blob", nil)
	}
	return parts.ContainerName, parts.BlobName, nil
}

// classifyBlobError maps storage failures onto the fetch taxonomy.
func classifyBlobError(ctx context.Context, err error) error {
	if isTimeout(ctx, err) {
		return apperrors.NewFetchTimeoutError(err)
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		e := apperrors.NewFetchStatusError(http.StatusNotFound)
		e.Cause = err
		return e
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		e := apperrors.NewFetchStatusError(respErr.StatusCode)
		e.Cause = err
		return e
	}
	return apperrors.NewFetchError("Failed to download blob.", err)
}
