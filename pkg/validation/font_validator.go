package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go-font-inspector/pkg/models"
)

// ContractIssue represents a problem with one detection that does not invalidate the response.
type ContractIssue struct {
	Type        string  `json:"type"`
	Index       int     `json:"index"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "warning" or "info"
	ActualValue float64 `json:"actual_value"`
}

// ContractViolation is returned when the response text breaks the six-field contract.
// Index is -1 for problems with the document as a whole.
type ContractViolation struct {
	Index int
	Field string
	Err   error
}

func (v *ContractViolation) Error() string {
	switch {
	case v.Index < 0:
		return fmt.Sprintf("response: %v", v.Err)
	case v.Field == "":
		return fmt.Sprintf("item %d: %v", v.Index, v.Err)
	default:
		return fmt.Sprintf("item %d: field %q: %v", v.Index, v.Field, v.Err)
	}
}

func (v *ContractViolation) Unwrap() error { return v.Err }

var (
	errNotArray       = errors.New("expected a JSON array")
	errMissing        = errors.New("required field is missing or null")
	errTrailingData   = errors.New("unexpected data after the array")
	errNotObject      = errors.New("expected a JSON object")
	errUnknownField   = errors.New("unknown field")
	errDuplicateField = errors.New("duplicate field")
)

// ConfidenceRange bounds the confidence the model is asked to return.
type ConfidenceRange struct {
	Min float64
	Max float64
}

// FontValidator decodes model output into an AnalysisResult and rejects anything off-contract.
type FontValidator struct {
	confidence ConfidenceRange
}

// NewFontValidator creates a validator with the [0, 1] confidence range.
func NewFontValidator() *FontValidator {
	return &FontValidator{confidence: ConfidenceRange{Min: 0, Max: 1}}
}

// ContractFields are the exact keys of one detection, in schema order.
var ContractFields = []string{
	"detectedText",
	"fontName",
	"description",
	"fontFamilySuggestion",
	"confidence",
	"reasoning",
}

var contractFieldSet = func() map[string]bool {
	m := make(map[string]bool, len(ContractFields))
	for _, f := range ContractFields {
		m[f] = true
	}
	return m
}()

// Decode parses text as a JSON array of detections. It never returns a partial result:
// either every element satisfies the contract or a *ContractViolation is returned.
// Confidence outside the range is kept as returned and reported as a warning issue.
func (v *FontValidator) Decode(text []byte) (models.AnalysisResult, []ContractIssue, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, &ContractViolation{Index: -1, Err: errNotArray}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, &ContractViolation{Index: -1, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, &ContractViolation{Index: -1, Err: errTrailingData}
	}

	result := make(models.AnalysisResult, 0, len(raw))
	var issues []ContractIssue
	for i, item := range raw {
		font, err := decodeItem(item)
		if err != nil {
			if cv, ok := err.(*ContractViolation); ok {
				cv.Index = i
				return nil, nil, cv
			}
			return nil, nil, &ContractViolation{Index: i, Err: err}
		}
		if issue, ok := v.checkConfidence(i, font.Confidence); ok {
			issues = append(issues, issue)
		}
		result = append(result, font)
	}

	return result, issues, nil
}

// decodeItem walks the object's keys itself: encoding/json struct matching is
// case-insensitive and lets the last duplicate win, and keys must match exactly.
func decodeItem(item json.RawMessage) (models.DetectedFont, error) {
	dec := json.NewDecoder(bytes.NewReader(item))

	tok, err := dec.Token()
	if err != nil {
		return models.DetectedFont{}, err
	}
	if tok == nil {
		return models.DetectedFont{}, &ContractViolation{Field: ContractFields[0], Err: errMissing}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return models.DetectedFont{}, errNotObject
	}

	fields := make(map[string]json.RawMessage, len(ContractFields))
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return models.DetectedFont{}, err
		}
		key, _ := keyTok.(string)
		if !contractFieldSet[key] {
			return models.DetectedFont{}, &ContractViolation{Field: key, Err: errUnknownField}
		}
		if _, dup := fields[key]; dup {
			return models.DetectedFont{}, &ContractViolation{Field: key, Err: errDuplicateField}
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return models.DetectedFont{}, &ContractViolation{Field: key, Err: err}
		}
		fields[key] = value
	}

	for _, name := range ContractFields {
		value, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return models.DetectedFont{}, &ContractViolation{Field: name, Err: errMissing}
		}
	}

	var font models.DetectedFont
	targets := []struct {
		name string
		dst  any
	}{
		{"detectedText", &font.DetectedText},
		{"fontName", &font.FontName},
		{"description", &font.Description},
		{"fontFamilySuggestion", &font.FontFamilySuggestion},
		{"confidence", &font.Confidence},
		{"reasoning", &font.Reasoning},
	}
	for _, t := range targets {
		if err := json.Unmarshal(fields[t.name], t.dst); err != nil {
			return models.DetectedFont{}, &ContractViolation{Field: t.name, Err: err}
		}
	}
	return font, nil
}

func (v *FontValidator) checkConfidence(index int, confidence float64) (ContractIssue, bool) {
	if confidence >= v.confidence.Min && confidence <= v.confidence.Max {
		return ContractIssue{}, false
	}
	return ContractIssue{
		Type:        "confidence_out_of_range",
		Index:       index,
		Message:     fmt.Sprintf("confidence %.4f is outside [%.0f, %.0f]", confidence, v.confidence.Min, v.confidence.Max),
		Severity:    "warning",
		ActualValue: confidence,
	}, true
}
