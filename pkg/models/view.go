package models

import (
	"math"
	"net/url"
	"strings"
)

// PlaceholderText is shown when the model returned an empty text snippet.
const PlaceholderText = "Aa Bb Cc"

// ConfidenceTier buckets a confidence percentage for display.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// StyleClass is a rough family hint derived from the description. Display only.
type StyleClass string

const (
	StyleSerif StyleClass = "serif"
	StyleMono  StyleClass = "mono"
	StyleSans  StyleClass = "sans"
)

// FontCard is a DetectedFont with the derived fields a front-end needs.
type FontCard struct {
	DetectedFont
	DisplayText       string         `json:"displayText"`
	ConfidencePercent int            `json:"confidencePercent"`
	ConfidenceTier    ConfidenceTier `json:"confidenceTier"`
	StyleClass        StyleClass     `json:"styleClass"`
	GoogleFontsURL    string         `json:"googleFontsUrl"`
}

// NewFontCard derives display fields. The embedded DetectedFont is kept verbatim.
func NewFontCard(f DetectedFont) FontCard {
	percent := ConfidencePercent(f.Confidence)
	display := f.DetectedText
	if strings.TrimSpace(display) == "" {
		display = PlaceholderText
	}
	return FontCard{
		DetectedFont:      f,
		DisplayText:       display,
		ConfidencePercent: percent,
		ConfidenceTier:    TierFor(percent),
		StyleClass:        StyleFor(f.Description),
		GoogleFontsURL:    GoogleFontsURL(f.FontFamilySuggestion),
	}
}

// NewFontCards maps a result to cards; never returns nil.
func NewFontCards(result AnalysisResult) []FontCard {
	cards := make([]FontCard, 0, len(result))
	for _, f := range result {
		cards = append(cards, NewFontCard(f))
	}
	return cards
}

func ConfidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

func TierFor(percent int) ConfidenceTier {
	switch {
	case percent >= 85:
		return TierHigh
	case percent >= 60:
		return TierMedium
	default:
		return TierLow
	}
}

// StyleFor checks "serif" before "mono"; "sans-serif" therefore maps to serif, as the web UI did.
func StyleFor(description string) StyleClass {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "serif"):
		return StyleSerif
	case strings.Contains(d, "mono"):
		return StyleMono
	default:
		return StyleSans
	}
}

func GoogleFontsURL(family string) string {
	return "https://fonts.google.com/?query=" + url.QueryEscape(family)
}
