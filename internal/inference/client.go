// Package inference asks a multimodal model which fonts appear in an image.
package inference

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/internal/logger"
	"go-font-inspector/pkg/models"
	"go-font-inspector/pkg/validation"
)

// ErrMissingAPIKey is returned by NewGeminiClient when no key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is empty")

// FontDetector turns an image payload into a list of detected fonts.
type FontDetector interface {
	DetectFonts(ctx context.Context, payload models.ImagePayload) (models.AnalysisResult, error)
	ModelName() string
}

// contentGenerator is the part of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient is safe for concurrent use. It holds only static configuration and the
// underlying genai client; every call is independent.
type GeminiClient struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
	timeout   time.Duration
	validator *validation.FontValidator
}

// NewGeminiClient builds a client configured for structured JSON output.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	m := cl.GenerativeModel(opts.Model)
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   fontDetectionSchema(),
	}

	c := newWithGenerator(m, opts.Model, opts.Timeout)
	c.client = cl
	return c, nil
}

func newWithGenerator(gen contentGenerator, modelName string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		model:     gen,
		modelName: modelName,
		timeout:   timeout,
		validator: validation.NewFontValidator(),
	}
}

// ModelName returns the configured model identifier.
func (c *GeminiClient) ModelName() string { return c.modelName }

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// DetectFonts makes one request with the image and the fixed prompt. Empty response text is
// a valid empty result. Anything that is not a well-formed array of six-field objects is a
// malformed-response error, and no partial result is returned.
func (c *GeminiClient) DetectFonts(ctx context.Context, payload models.ImagePayload) (models.AnalysisResult, error) {
	data, err := payload.Bytes()
	if err != nil {
		return nil, apperrors.NewInternalError("image payload is not valid base64", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx,
		&genai.Blob{MIMEType: payload.MediaType, Data: data},
		genai.Text(detectionPrompt),
	)
	if err != nil {
		return nil, classifyCallError(ctx, err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return models.AnalysisResult{}, nil
	}

	result, issues, err := c.validator.Decode([]byte(text))
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(err.Error(), err)
	}

	for _, issue := range issues {
		logger.WithFields(logger.Fields{
			"model":      c.modelName,
			"index":      issue.Index,
			"issue":      issue.Type,
			"confidence": issue.ActualValue,
		}).Warn(issue.Message)
	}

	return result, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
