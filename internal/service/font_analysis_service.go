package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"go-font-inspector/internal/acquisition"
	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/internal/inference"
	"go-font-inspector/internal/logger"
	"go-font-inspector/internal/observer"
	"go-font-inspector/pkg/models"
)

// FontAnalysisService is the single entry point front-ends call: acquire an image,
// detect its fonts, and optionally cross-check the detected text.
type FontAnalysisService interface {
	AnalyzeYouTube(ctx context.Context, rawURL string) (*models.AnalysisReport, error)
	AnalyzeImageURL(ctx context.Context, imageURL string) (*models.AnalysisReport, error)
	AnalyzeFile(ctx context.Context, r io.Reader, fileName, mediaType string) (*models.AnalysisReport, error)
	AnalyzeBlob(ctx context.Context, blobURL string) (*models.AnalysisReport, error)
	ModelName() string
}

// TextVerifier cross-checks detections against the image.
type TextVerifier interface {
	Verify(ctx context.Context, payload models.ImagePayload, fonts models.AnalysisResult) ([]models.TextVerification, error)
}

type requestIDKey struct{}

// WithRequestID makes the service reuse an id assigned by the caller.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type fontAnalysisService struct {
	source   acquisition.ImageSource
	detector inference.FontDetector
	verifier TextVerifier
	events   observer.Subject
}

// NewFontAnalysisService wires the pipeline. verifier and events may be nil.
func NewFontAnalysisService(
	source acquisition.ImageSource,
	detector inference.FontDetector,
	verifier TextVerifier,
	events observer.Subject,
) FontAnalysisService {
	return &fontAnalysisService{
		source:   source,
		detector: detector,
		verifier: verifier,
		events:   events,
	}
}

func (s *fontAnalysisService) ModelName() string { return s.detector.ModelName() }

func (s *fontAnalysisService) AnalyzeYouTube(ctx context.Context, rawURL string) (*models.AnalysisReport, error) {
	return s.run(ctx, models.SourceYouTube, rawURL, func(ctx context.Context) (*acquisition.Image, error) {
		return s.source.FromYouTubeURL(ctx, rawURL)
	})
}

func (s *fontAnalysisService) AnalyzeImageURL(ctx context.Context, imageURL string) (*models.AnalysisReport, error) {
	return s.run(ctx, models.SourceRemote, imageURL, func(ctx context.Context) (*acquisition.Image, error) {
		return s.source.FromRemoteURL(ctx, imageURL)
	})
}

func (s *fontAnalysisService) AnalyzeFile(ctx context.Context, r io.Reader, fileName, mediaType string) (*models.AnalysisReport, error) {
	return s.run(ctx, models.SourceUpload, "", func(context.Context) (*acquisition.Image, error) {
		return s.source.FromLocalFile(r, fileName, mediaType)
	})
}

func (s *fontAnalysisService) AnalyzeBlob(ctx context.Context, blobURL string) (*models.AnalysisReport, error) {
	return s.run(ctx, models.SourceBlob, blobURL, func(ctx context.Context) (*acquisition.Image, error) {
		return s.source.FromBlob(ctx, blobURL)
	})
}

// run executes one analysis. Errors are returned unchanged so callers can classify them.
func (s *fontAnalysisService) run(
	ctx context.Context,
	kind models.SourceKind,
	input string,
	acquire func(context.Context) (*acquisition.Image, error),
) (*models.AnalysisReport, error) {
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := logger.ForRequest(requestID).WithField("source_kind", kind)
	start := time.Now()

	s.notify(ctx, observer.AnalysisEvent{
		EventType:  observer.AnalysisStarted,
		RequestID:  requestID,
		SourceKind: kind,
		SourceURL:  input,
	})

	img, err := acquire(ctx)
	if err != nil {
		s.notify(ctx, failureEvent(observer.ImageAcquireFailed, requestID, kind, input, err, time.Since(start)))
		s.notify(ctx, failureEvent(observer.AnalysisFailed, requestID, kind, input, err, time.Since(start)))
		return nil, err
	}

	s.notify(ctx, observer.AnalysisEvent{
		EventType:  observer.ImageAcquired,
		RequestID:  requestID,
		SourceKind: kind,
		SourceURL:  img.Source.URL,
		MediaType:  img.Source.MediaType,
		Success:    true,
		Metadata:   map[string]any{"size_bytes": img.Source.SizeBytes},
	})

	fonts, err := s.detector.DetectFonts(ctx, img.Payload)
	if err != nil {
		ev := failureEvent(observer.AnalysisFailed, requestID, kind, img.Source.URL, err, time.Since(start))
		ev.Model = s.detector.ModelName()
		s.notify(ctx, ev)
		return nil, err
	}

	report := &models.AnalysisReport{
		RequestID: requestID,
		Source:    img.Source,
		Image:     img.Payload,
		Model:     s.detector.ModelName(),
		Fonts:     fonts,
		Timestamp: time.Now().UTC(),
	}

	if s.verifier != nil && len(fonts) > 0 {
		verification, err := s.verifier.Verify(ctx, img.Payload, fonts)
		if err != nil {
			log.WithError(err).Warn("Text verification skipped")
		} else {
			report.Verification = verification
		}
	}

	elapsed := time.Since(start)
	report.ProcessingTimeSec = elapsed.Seconds()

	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RequestID:      requestID,
		SourceKind:     kind,
		SourceURL:      img.Source.URL,
		MediaType:      img.Source.MediaType,
		Model:          report.Model,
		FontCount:      len(fonts),
		ProcessingTime: elapsed,
		Success:        true,
	})

	return report, nil
}

func (s *fontAnalysisService) notify(ctx context.Context, ev observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, ev)
}

func failureEvent(t observer.EventType, requestID string, kind models.SourceKind, url string, err error, elapsed time.Duration) observer.AnalysisEvent {
	ev := observer.AnalysisEvent{
		EventType:      t,
		RequestID:      requestID,
		SourceKind:     kind,
		SourceURL:      url,
		ProcessingTime: elapsed,
		ErrorMessage:   apperrors.UserMessage(err),
		ErrorType:      string(apperrors.ErrorTypeInternal),
	}
	if appErr, ok := apperrors.As(err); ok {
		ev.ErrorType = string(appErr.Type)
		ev.ErrorReason = string(appErr.Reason)
	}
	return ev
}
