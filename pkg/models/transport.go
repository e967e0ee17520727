package models

// AnalysisRequest is the JSON body of POST /analyze. Exactly one field must be set.
type AnalysisRequest struct {
	// URL is a YouTube video link; its thumbnail is analyzed.
	URL      string `json:"url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	BlobURL  string `json:"blob_url,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// AnalysisResponse is the HTTP view of an AnalysisReport.
type AnalysisResponse struct {
	RequestID         string             `json:"request_id"`
	Source            Source             `json:"source"`
	ImageURL          string             `json:"image_url,omitempty"`
	Model             string             `json:"model"`
	Timestamp         string             `json:"timestamp"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
	Fonts             []FontCard         `json:"fonts"`
	Verification      []TextVerification `json:"verification,omitempty"`
}

// NewAnalysisResponse converts a report for the wire.
func NewAnalysisResponse(r *AnalysisReport) AnalysisResponse {
	return AnalysisResponse{
		RequestID:         r.RequestID,
		Source:            r.Source,
		ImageURL:          r.ImageURL(),
		Model:             r.Model,
		Timestamp:         r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		ProcessingTimeSec: r.ProcessingTimeSec,
		Fonts:             NewFontCards(r.Fonts),
		Verification:      r.Verification,
	}
}
