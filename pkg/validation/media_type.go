package validation

import (
	"mime"
	"strings"

	apperrors "go-font-inspector/internal/errors"
)

// NormalizeMediaType strips parameters and lowercases a Content-Type value.
func NormalizeMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// IsImageMediaType reports whether the declared type is an image/* type.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(NormalizeMediaType(mediaType), "image/")
}

// ValidateImageMediaType rejects anything that does not declare itself as an image.
func ValidateImageMediaType(mediaType string) error {
	if !IsImageMediaType(mediaType) {
		return apperrors.NewValidationError(apperrors.MsgInvalidFileType, nil)
	}
	return nil
}
