package acquisition

import apperrors "go-font-inspector/internal/errors"

const (
	msgBlobDisabled = "Blob storage is not configured."
	msgEmptyFile    = "Uploaded file is empty."
)

// ErrBlobStorageDisabled is returned by FromBlob when no storage account is configured.
var ErrBlobStorageDisabled = apperrors.NewValidationError(msgBlobDisabled, nil)
