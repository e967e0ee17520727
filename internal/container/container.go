package container

import (
	"context"
	"fmt"
	"net/http"

	"go-font-inspector/internal/acquisition"
	"go-font-inspector/internal/config"
	"go-font-inspector/internal/inference"
	"go-font-inspector/internal/logger"
	"go-font-inspector/internal/observer"
	"go-font-inspector/internal/service"
	"go-font-inspector/internal/storage"
	"go-font-inspector/internal/transport"
	"go-font-inspector/internal/verify"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	imageFetcher *storage.HTTPImageFetcher
	gemini       *inference.GeminiClient
	publisher    *observer.EventPublisher
	metrics      *observer.MetricsObserver
	service      service.FontAnalysisService
	handler      http.Handler
}

// NewContainer builds the dependency graph from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	imageFetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxImageSize)

	var blobs storage.BlobStorage
	if cfg.BlobStorageEnabled() {
		var err error
		blobs, err = storage.NewAzureStorage(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.MaxImageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob storage: %w", err)
		}
	}
	source := acquisition.NewImageSource(imageFetcher, blobs, cfg.MaxImageSize)

	opts := inference.DefaultOptions(cfg.GeminiAPIKey).
		WithModel(cfg.GeminiModel).
		WithTimeout(cfg.AnalysisTimeout)
	gemini, err := inference.NewGeminiClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	// A nil *Verifier must not reach the service as a non-nil interface.
	var verifier service.TextVerifier
	if cfg.OCRVerify {
		verifier = verify.NewVerifier(verify.NewTesseractRecognizer(cfg.OCRLanguage))
	}

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	svc := service.NewFontAnalysisService(source, gemini, verifier, publisher)
	handler := transport.NewHandler(svc, metrics, cfg)

	logger.WithFields(logger.Fields{
		"model":        gemini.ModelName(),
		"blob_storage": blobs != nil,
		"ocr_verify":   cfg.OCRVerify,
	}).Info("Container initialized")

	return &Container{
		config:       cfg,
		imageFetcher: imageFetcher,
		gemini:       gemini,
		publisher:    publisher,
		metrics:      metrics,
		service:      svc,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the analysis pipeline shared by every front-end.
func (c *Container) Service() service.FontAnalysisService {
	return c.service
}

// Fetcher returns the bounded HTTP fetcher, also used for chat attachments.
func (c *Container) Fetcher() storage.ImageFetcher {
	return c.imageFetcher
}

// Metrics returns the in-memory counters.
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close flushes pending events and releases the inference client.
func (c *Container) Close() error {
	c.publisher.Wait()
	return c.gemini.Close()
}
