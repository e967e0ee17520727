package inference

import "time"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Options configures a GeminiClient.
type Options struct {
	APIKey string
	Model  string
	// Timeout bounds a single DetectFonts call. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// DefaultOptions returns options for the default model with a 60s timeout.
func DefaultOptions(apiKey string) Options {
	return Options{
		APIKey:  apiKey,
		Model:   DefaultModel,
		Timeout: 60 * time.Second,
	}
}

// WithModel overrides the model name; blank keeps the current one.
func (o Options) WithModel(model string) Options {
	if model != "" {
		o.Model = model
	}
	return o
}

// WithTimeout overrides the per-call timeout.
func (o Options) WithTimeout(d time.Duration) Options {
	o.Timeout = d
	return o
}
