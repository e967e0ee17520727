package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/pkg/models"
	"go-font-inspector/pkg/validation"
)

// DefaultMaxImageSize caps how much of a response body is read.
const DefaultMaxImageSize int64 = 10 << 20

// ImageFetcher downloads a remote image into an inference-ready payload.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (*models.ImagePayload, error)
}

// HTTPImageFetcher implements ImageFetcher over a shared http.Client. It makes exactly one
// request per call; a failed attempt is returned to the caller as is.
type HTTPImageFetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher. A zero timeout leaves the deadline to
// the caller's context; a non-positive maxBytes uses DefaultMaxImageSize.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageSize
	}

	// Tuned for one small image per request.
	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 8192,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		timeout:  timeout,
		maxBytes: maxBytes,
	}
}

// FetchImage GETs imageURL. Any status other than 200 is a fetch error carrying that status.
// The media type is the response's declared Content-Type, sniffed from the body only when
// the header is missing.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*models.ImagePayload, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid image URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Font-Inspector/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.NewFetchTimeoutError(err)
		}
		return nil, apperrors.NewFetchError("Failed to fetch image.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewFetchStatusError(resp.StatusCode)
	}

	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.NewFetchTimeoutError(err)
		}
		return nil, err
	}

	mediaType := validation.NormalizeMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "" {
		mediaType = validation.NormalizeMediaType(http.DetectContentType(data))
	}

	payload := models.NewImagePayload(data, mediaType)
	return &payload, nil
}

// readLimited reads all of r, failing once more than maxBytes have been seen.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewFetchError("Failed to read image data.", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.NewFetchError(fmt.Sprintf("Image exceeds the maximum size of %d bytes.", maxBytes), nil)
	}
	if len(data) == 0 {
		return nil, apperrors.NewFetchError("Fetched image is empty.", nil)
	}
	return data, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
