package inference

import (
	"github.com/google/generative-ai-go/genai"

	"go-font-inspector/pkg/validation"
)

// The schema requires exactly the keys the decoder accepts.
var requiredFields = validation.ContractFields

// fontDetectionSchema describes an array of detections with all six fields required.
func fontDetectionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"detectedText": {
					Type:        genai.TypeString,
					Description: "The actual text snippet from the image that is identified as using this font.",
				},
				"fontName": {
					Type:        genai.TypeString,
					Description: "The most likely name of the detected font.",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A brief description of the font's style (e.g., 'Bold sans-serif', 'Playful script').",
				},
				"fontFamilySuggestion": {
					Type:        genai.TypeString,
					Description: "A suggestion for a similar, freely available font family (e.g., from Google Fonts) like 'Roboto', 'Lato', 'Montserrat', etc.",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "A confidence score from 0.0 to 1.0 indicating the likelihood of the match.",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "A brief explanation for why this font was chosen, based on visual characteristics.",
				},
			},
			Required: requiredFields,
		},
	}
}
