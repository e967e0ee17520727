package models

import (
	"encoding/base64"
	"fmt"
	"time"
)

// ImagePayload is an image ready for inference: base64 text plus its declared media type.
// It is built once per analysis and never persisted.
type ImagePayload struct {
	Data      string `json:"data"`
	MediaType string `json:"media_type"`
}

// NewImagePayload encodes raw image bytes.
func NewImagePayload(raw []byte, mediaType string) ImagePayload {
	return ImagePayload{
		Data:      base64.StdEncoding.EncodeToString(raw),
		MediaType: mediaType,
	}
}

// Bytes decodes the payload back to raw image bytes.
func (p ImagePayload) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Data)
}

// Size returns the decoded size in bytes without decoding.
func (p ImagePayload) Size() int {
	return base64.StdEncoding.DecodedLen(len(p.Data)) - padding(p.Data)
}

// DataURL renders the payload for inline re-display next to the results.
func (p ImagePayload) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MediaType, p.Data)
}

func padding(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '='; i-- {
		n++
	}
	return n
}

// DetectedFont is one item of the model's structured output. Field names follow the
// response schema sent to the model.
type DetectedFont struct {
	DetectedText         string  `json:"detectedText"`
	FontName             string  `json:"fontName"`
	Description          string  `json:"description"`
	FontFamilySuggestion string  `json:"fontFamilySuggestion"`
	Confidence           float64 `json:"confidence"`
	Reasoning            string  `json:"reasoning"`
}

// AnalysisResult keeps the order returned by the model. An empty result means no text was found.
type AnalysisResult []DetectedFont

// SourceKind names where an analyzed image came from.
type SourceKind string

const (
	SourceYouTube SourceKind = "youtube"
	SourceRemote  SourceKind = "remote_url"
	SourceUpload  SourceKind = "upload"
	SourceBlob    SourceKind = "blob"
)

// Source describes the analyzed image.
type Source struct {
	Kind      SourceKind `json:"kind"`
	URL       string     `json:"url,omitempty"`
	VideoID   string     `json:"video_id,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	MediaType string     `json:"media_type"`
	SizeBytes int        `json:"size_bytes"`
}

// TextVerification compares one detection's text with a local OCR pass.
type TextVerification struct {
	Index              int     `json:"index"`
	DetectedText       string  `json:"detected_text"`
	BestMatch          string  `json:"best_match"`
	CharacterErrorRate float64 `json:"character_error_rate"`
	WordErrorRate      float64 `json:"word_error_rate"`
	Found              bool    `json:"found"`
}

// AnalysisReport is the outcome of one analyze call.
type AnalysisReport struct {
	RequestID         string             `json:"request_id"`
	Source            Source             `json:"source"`
	Image             ImagePayload       `json:"-"`
	Model             string             `json:"model"`
	Fonts             AnalysisResult     `json:"fonts"`
	Verification      []TextVerification `json:"verification,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
}

// ImageURL is what a front-end shows beside the results: the remote reference when there is one,
// otherwise the payload as a data URL.
func (r *AnalysisReport) ImageURL() string {
	if r.Source.URL != "" && r.Source.Kind != SourceBlob {
		return r.Source.URL
	}
	if r.Image.Data == "" {
		return ""
	}
	return r.Image.DataURL()
}
