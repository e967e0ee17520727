package verify

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"go-font-inspector/pkg/models"
)

// DefaultMatchThreshold is the highest character error rate still counted as found.
const DefaultMatchThreshold = 0.3

// Verifier compares detected text snippets with what OCR reads from the same image.
type Verifier struct {
	recognizer TextRecognizer
	threshold  float64
}

// NewVerifier creates a verifier using DefaultMatchThreshold.
func NewVerifier(recognizer TextRecognizer) *Verifier {
	return &Verifier{recognizer: recognizer, threshold: DefaultMatchThreshold}
}

// Verify runs OCR once and scores every detection with non-blank text. Detections with
// blank text are skipped. The returned error is only ever from OCR itself.
func (v *Verifier) Verify(ctx context.Context, payload models.ImagePayload, fonts models.AnalysisResult) ([]models.TextVerification, error) {
	if len(fonts) == 0 {
		return nil, nil
	}

	data, err := payload.Bytes()
	if err != nil {
		return nil, err
	}

	text, err := v.recognizer.Recognize(ctx, data)
	if err != nil {
		return nil, err
	}
	lines := ocrLines(text)

	out := make([]models.TextVerification, 0, len(fonts))
	for i, f := range fonts {
		detected := normalize(f.DetectedText)
		if detected == "" {
			continue
		}

		best, cer := bestMatch(detected, candidates(lines, len(strings.Fields(detected))))
		out = append(out, models.TextVerification{
			Index:              i,
			DetectedText:       f.DetectedText,
			BestMatch:          best,
			CharacterErrorRate: cer,
			WordErrorRate:      wordErrorRate(detected, best),
			Found:              cer <= v.threshold,
		})
	}
	return out, nil
}

// CharacterErrorRate is the edit distance between the texts over the rune length of reference.
func CharacterErrorRate(reference, candidate string) float64 {
	n := utf8.RuneCountInString(reference)
	if n == 0 {
		if candidate == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.Distance(reference, candidate)) / float64(n)
}

func wordErrorRate(reference, candidate string) float64 {
	ref := strings.Fields(reference)
	if len(ref) == 0 {
		return 0
	}
	cand := strings.Fields(candidate)
	if len(cand) == 0 {
		return 1
	}
	rate, _ := wer.WER(ref, cand)
	return rate
}

func bestMatch(detected string, cands []string) (string, float64) {
	best, bestCER := "", 1.0
	for _, c := range cands {
		if cer := CharacterErrorRate(detected, c); cer < bestCER || best == "" {
			best, bestCER = c, cer
		}
	}
	return best, bestCER
}

// candidates returns every OCR line, the whole text, and each run of words within a line
// whose length is within one of the detected snippet's word count.
func candidates(lines []string, wordCount int) []string {
	if len(lines) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok || s == "" {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(strings.Join(lines, " "))
	for _, line := range lines {
		add(line)
		words := strings.Fields(line)
		for n := wordCount - 1; n <= wordCount+1; n++ {
			if n < 1 || n > len(words) {
				continue
			}
			for start := 0; start+n <= len(words); start++ {
				add(strings.Join(words[start:start+n], " "))
			}
		}
	}
	return out
}

func ocrLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = normalize(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// normalize lowercases and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
