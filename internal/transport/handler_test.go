package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-font-inspector/internal/config"
	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/internal/observer"
	"go-font-inspector/internal/service"
	"go-font-inspector/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	report *models.AnalysisReport
	err    error

	method    string
	input     string
	fileName  string
	mediaType string
	body      []byte
	requestID string
}

func (f *fakeService) record(ctx context.Context, method, input string) (*models.AnalysisReport, error) {
	f.method = method
	f.input = input
	f.requestID = service.RequestIDFrom(ctx)
	return f.report, f.err
}

func (f *fakeService) AnalyzeYouTube(ctx context.Context, u string) (*models.AnalysisReport, error) {
	return f.record(ctx, "youtube", u)
}

func (f *fakeService) AnalyzeImageURL(ctx context.Context, u string) (*models.AnalysisReport, error) {
	return f.record(ctx, "image_url", u)
}

func (f *fakeService) AnalyzeBlob(ctx context.Context, u string) (*models.AnalysisReport, error) {
	return f.record(ctx, "blob", u)
}

func (f *fakeService) AnalyzeFile(ctx context.Context, r io.Reader, name, mediaType string) (*models.AnalysisReport, error) {
	f.fileName = name
	f.mediaType = mediaType
	f.body, _ = io.ReadAll(r)
	return f.record(ctx, "file", name)
}

func (f *fakeService) ModelName() string { return "gemini-2.5-flash" }

type fakeMetrics struct{}

func (fakeMetrics) GetMetrics() observer.MetricsSnapshot {
	return observer.MetricsSnapshot{TotalAnalyses: 7}
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
}

func sampleReport() *models.AnalysisReport {
	return &models.AnalysisReport{
		RequestID: "req-1",
		Source: models.Source{
			Kind:      models.SourceYouTube,
			URL:       "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
			VideoID:   "dQw4w9WgXcQ",
			MediaType: "image/jpeg",
		},
		Model: "gemini-2.5-flash",
		Fonts: models.AnalysisResult{{
			DetectedText:         "LIVE",
			FontName:             "Impact",
			Description:          "Bold sans-serif",
			FontFamilySuggestion: "Anton",
			Confidence:           0.92,
			Reasoning:            "thick strokes",
		}},
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(&fakeService{}, fakeMetrics{}, testConfig())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, "gemini-2.5-flash", body["model"])
}

func TestMetrics(t *testing.T) {
	h := NewHandler(&fakeService{}, fakeMetrics{}, testConfig())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_analyses":7`)
}

func TestAnalyze_YouTube(t *testing.T) {
	svc := &fakeService{report: sampleReport()}
	h := NewHandler(svc, fakeMetrics{}, testConfig())

	w := postJSON(h, "/analyze", `{"url":"  https://youtu.be/dQw4w9WgXcQ "}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "youtube", svc.method)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", svc.input)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), svc.requestID)

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Fonts, 1)
	card := resp.Fonts[0]
	assert.Equal(t, "Impact", card.FontName)
	assert.Equal(t, 92, card.ConfidencePercent)
	assert.Equal(t, models.TierHigh, card.ConfidenceTier)
	assert.Equal(t, "https://fonts.google.com/?query=Anton", card.GoogleFontsURL)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", resp.ImageURL)
}

func TestAnalyze_EmptyFontsIsArray(t *testing.T) {
	r := sampleReport()
	r.Fonts = models.AnalysisResult{}
	h := NewHandler(&fakeService{report: r}, fakeMetrics{}, testConfig())

	w := postJSON(h, "/analyze", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fonts":[]`)
}

func TestAnalyze_RoutesBlobAndImageURL(t *testing.T) {
	svc := &fakeService{report: sampleReport()}
	h := NewHandler(svc, fakeMetrics{}, testConfig())

	postJSON(h, "/analyze", `{"blob_url":"https://acct.blob.core.windows.net/c/b.png"}`)
	assert.Equal(t, "blob", svc.method)

	postJSON(h, "/analyze", `{"image_url":"https://example.com/a.png"}`)
	assert.Equal(t, "image_url", svc.method)
}

func TestAnalyze_RequestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"url":`},
		{"nothing set", `{}`},
		{"blank url", `{"url":"   "}`},
		{"two sources", `{"url":"https://youtu.be/dQw4w9WgXcQ","blob_url":"https://a.blob.core.windows.net/c/b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{report: sampleReport()}
			h := NewHandler(svc, fakeMetrics{}, testConfig())

			w := postJSON(h, "/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation", decodeError(t, w).Type)
			assert.Empty(t, svc.method, "service must not be called")
		})
	}
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantType   string
		wantReason string
		wantMsg    string
	}{
		{"invalid youtube", apperrors.NewValidationError(apperrors.MsgInvalidYouTubeURL, nil), 400, "validation", "", apperrors.MsgInvalidYouTubeURL},
		{"thumbnail 404", apperrors.NewFetchStatusError(404), 404, "fetch", "upstream_status", "Failed to fetch image. Status: 404"},
		{"thumbnail 500", apperrors.NewFetchStatusError(500), 502, "fetch", "upstream_status", "Failed to fetch image. Status: 500"},
		{"credential", apperrors.NewCredentialError(errors.New("401")), 503, "analysis", "credential", apperrors.MsgCredentialInvalid},
		{"malformed", apperrors.NewMalformedResponseError("item 0", nil), 502, "analysis", "malformed_response", apperrors.MsgMalformedResponse},
		{"analysis timeout", apperrors.NewAnalysisTimeoutError(context.DeadlineExceeded), 504, "analysis", "timeout", apperrors.MsgAnalysisTimeout},
		{"plain error", errors.New("boom"), 500, "internal", "", apperrors.UserMessage(errors.New("boom"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, fakeMetrics{}, testConfig())

			w := postJSON(h, "/analyze", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`)
			assert.Equal(t, tt.wantCode, w.Code)

			resp := decodeError(t, w)
			assert.Equal(t, http.StatusText(tt.wantCode), resp.Error)
			assert.Equal(t, tt.wantType, resp.Type)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestAnalyze_ReusesIncomingRequestID(t *testing.T) {
	svc := &fakeService{report: sampleReport()}
	h := NewHandler(svc, fakeMetrics{}, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"url":"https://youtu.be/dQw4w9WgXcQ"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "client-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "client-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "client-42", svc.requestID)
}

func multipartBody(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeUpload(t *testing.T) {
	r := sampleReport()
	r.Source = models.Source{Kind: models.SourceUpload, FileName: "frame.png", MediaType: "image/png"}
	r.Image = models.NewImagePayload([]byte("png"), "image/png")
	svc := &fakeService{report: r}
	h := NewHandler(svc, fakeMetrics{}, testConfig())

	body, ct := multipartBody(t, "image", "frame.png", "image/png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/analyze/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "file", svc.method)
	assert.Equal(t, "frame.png", svc.fileName)
	assert.Equal(t, "image/png", svc.mediaType)
	assert.Equal(t, []byte("png"), svc.body)

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ImageURL, "data:image/png;base64,"))
}

func TestAnalyzeUpload_MissingField(t *testing.T) {
	svc := &fakeService{report: sampleReport()}
	h := NewHandler(svc, fakeMetrics{}, testConfig())

	body, ct := multipartBody(t, "file", "frame.png", "image/png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/analyze/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.method)
}

func TestDetermineStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, determineStatusCode(context.DeadlineExceeded))
	assert.Equal(t, http.StatusRequestTimeout, determineStatusCode(context.Canceled))
	assert.Equal(t, http.StatusNotFound, determineStatusCode(apperrors.NewFetchStatusError(404)))
}
