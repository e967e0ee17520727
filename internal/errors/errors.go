package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeAnalysis   ErrorType = "analysis"
	ErrorTypeInternal   ErrorType = "internal"
)

// ErrorReason narrows an ErrorType down to the failure a caller may want to react to.
type ErrorReason string

const (
	ReasonNone              ErrorReason = ""
	ReasonUpstreamStatus    ErrorReason = "upstream_status"
	ReasonTransport         ErrorReason = "transport"
	ReasonTimeout           ErrorReason = "timeout"
	ReasonCredential        ErrorReason = "credential"
	ReasonMalformedResponse ErrorReason = "malformed_response"
	ReasonBlocked           ErrorReason = "blocked"
)

const (
	MsgInvalidYouTubeURL = "Invalid YouTube URL. Please provide a valid video link."
	MsgInvalidFileType   = "Invalid file type. Please upload an image."
	MsgAnalysisFailed    = "AI analysis failed. The model could not process the request."
	MsgCredentialInvalid = "AI analysis failed: the API key was rejected. Check the GEMINI_API_KEY configuration."
	MsgMalformedResponse = "AI analysis failed: the model response could not be interpreted."
	MsgAnalysisTimeout   = "AI analysis timed out. Please try again."
	MsgFetchTimeout      = "Failed to fetch image: the request timed out."
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType   `json:"type"`
	Reason  ErrorReason `json:"reason,omitempty"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
	// StatusCode is the HTTP status this error maps to when served.
	StatusCode int `json:"status_code"`
	// UpstreamStatus is the status returned by a remote image host, when there was one.
	UpstreamStatus int   `json:"upstream_status,omitempty"`
	Cause          error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewFetchStatusError reports a non-success status from an image host.
func NewFetchStatusError(status int) *AppError {
	code := http.StatusBadGateway
	if status == http.StatusNotFound {
		code = http.StatusNotFound
	}
	return &AppError{
		Type:           ErrorTypeFetch,
		Reason:         ReasonUpstreamStatus,
		Message:        fmt.Sprintf("Failed to fetch image. Status: %d", status),
		StatusCode:     code,
		UpstreamStatus: status,
	}
}

// NewFetchError reports a transport failure while fetching an image.
func NewFetchError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeFetch,
		Reason:     ReasonTransport,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewFetchTimeoutError creates a fetch error for an expired deadline
func NewFetchTimeoutError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeFetch,
		Reason:     ReasonTimeout,
		Message:    MsgFetchTimeout,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewAnalysisError wraps a failed inference call.
func NewAnalysisError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalysis,
		Reason:     ReasonTransport,
		Message:    MsgAnalysisFailed,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewCredentialError is the analysis error raised when the endpoint rejects the API key.
func NewCredentialError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalysis,
		Reason:     ReasonCredential,
		Message:    MsgCredentialInvalid,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewMalformedResponseError is the analysis error for output that breaks the response contract.
func NewMalformedResponseError(details string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalysis,
		Reason:     ReasonMalformedResponse,
		Message:    MsgMalformedResponse,
		Details:    details,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewAnalysisTimeoutError creates an analysis error for an expired deadline
func NewAnalysisTimeoutError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalysis,
		Reason:     ReasonTimeout,
		Message:    MsgAnalysisTimeout,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewBlockedError reports a request the model refused to answer.
func NewBlockedError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalysis,
		Reason:     ReasonBlocked,
		Message:    MsgAnalysisFailed,
		Details:    "the request was blocked by the model's safety filters",
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// HasReason checks the reason of the first AppError in the chain.
func HasReason(err error, reason ErrorReason) bool {
	if appErr, ok := As(err); ok {
		return appErr.Reason == reason
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// UserMessage returns the single line a front-end should show for err.
func UserMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "An unknown error occurred during analysis."
}
