package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-font-inspector/internal/config"
	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/internal/logger"
	"go-font-inspector/internal/observer"
	"go-font-inspector/internal/service"
	"go-font-inspector/pkg/models"
)

const (
	requestIDHeader = "X-Request-ID"
	uploadField     = "image"
	version         = "1.0.0"
)

// MetricsProvider exposes the counters served on /metrics.
type MetricsProvider interface {
	GetMetrics() observer.MetricsSnapshot
}

// NewHandler builds the HTTP API.
func NewHandler(svc service.FontAnalysisService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestID(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck(svc))
	r.GET("/metrics", metricsHandler(metrics))
	r.POST("/analyze", analyzeURL(svc, cfg))
	r.POST("/analyze/upload", analyzeUpload(svc, cfg))

	return r
}

func analyzeURL(svc service.FontAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		log := requestLogger(c)
		log.Info("Processing font analysis request")

		var req models.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("Invalid request format", err))
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		req.ImageURL = strings.TrimSpace(req.ImageURL)
		req.BlobURL = strings.TrimSpace(req.BlobURL)

		var (
			report *models.AnalysisReport
			err    error
		)
		switch countSet(req.URL, req.ImageURL, req.BlobURL) {
		case 0:
			err = apperrors.NewValidationError("One of url, image_url or blob_url is required", nil)
		case 1:
			switch {
			case req.URL != "":
				report, err = svc.AnalyzeYouTube(ctx, req.URL)
			case req.ImageURL != "":
				report, err = svc.AnalyzeImageURL(ctx, req.ImageURL)
			default:
				report, err = svc.AnalyzeBlob(ctx, req.BlobURL)
			}
		default:
			err = apperrors.NewValidationError("Only one of url, image_url or blob_url may be set", nil)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		respondReport(c, report)
	}
}

func analyzeUpload(svc service.FontAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		requestLogger(c).Info("Processing font analysis upload")

		fh, err := c.FormFile(uploadField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, &apperrors.AppError{
					Type:       apperrors.ErrorTypeValidation,
					Message:    "Uploaded file is too large.",
					StatusCode: http.StatusRequestEntityTooLarge,
					Cause:      err,
				})
				return
			}
			respondError(c, apperrors.NewValidationError(`Missing form file "image".`, err))
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, apperrors.NewInternalError("failed to open upload", err))
			return
		}
		defer f.Close()

		report, err := svc.AnalyzeFile(ctx, f, fh.Filename, fh.Header.Get("Content-Type"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondReport(c, report)
	}
}

func respondReport(c *gin.Context, report *models.AnalysisReport) {
	requestLogger(c).WithFields(logrus.Fields{
		"source_kind":        report.Source.Kind,
		"model":              report.Model,
		"fonts":              len(report.Fonts),
		"processing_time_ms": int64(report.ProcessingTimeSec * 1000),
	}).Info("Font analysis completed successfully")

	c.JSON(http.StatusOK, models.NewAnalysisResponse(report))
}

func healthCheck(svc service.FontAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "available",
			"version": version,
			"model":   svc.ModelName(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func metricsHandler(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, observer.MetricsSnapshot{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

// Middleware and helper functions

// requestID reuses an incoming X-Request-ID or assigns one, and hands it to the service.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(c *gin.Context) *logrus.Entry {
	return logger.ForRequest(c.GetString(requestIDHeader)).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"ip":     c.ClientIP(),
	})
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Type:    string(apperrors.ErrorTypeInternal),
		Message: apperrors.UserMessage(err),
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.Type = string(appErr.Type)
		resp.Reason = string(appErr.Reason)
	}

	entry := requestLogger(c).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_type":  resp.Type,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, resp)
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
