package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	apperrors "go-font-inspector/internal/errors"
)

// Substrings the endpoint uses when it rejects a key.
var credentialMarkers = []string{
	"API key not valid",
	"API_KEY_INVALID",
	"API key expired",
	"PERMISSION_DENIED",
	"UNAUTHENTICATED",
}

// classifyCallError maps a failed GenerateContent call onto the analysis taxonomy.
func classifyCallError(ctx context.Context, err error) *apperrors.AppError {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewAnalysisTimeoutError(err)
	case isCredentialError(err):
		return apperrors.NewCredentialError(err)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apperrors.NewBlockedError(err)
	}
	return apperrors.NewAnalysisError(err)
}

func isCredentialError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return true
		}
	}

	msg := err.Error()
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
