package telegram

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go-font-inspector/internal/session"
	"go-font-inspector/pkg/models"
)

const (
	barCells    = 10
	barFilled   = "█"
	barEmpty    = "░"
	messageSize = 4096
)

// RenderBar draws a percentage as ten cells, rounding to the nearest cell.
func RenderBar(percent int) string {
	filled := int(math.Round(float64(percent) / 10))
	if filled < 0 {
		filled = 0
	}
	if filled > barCells {
		filled = barCells
	}
	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, barCells-filled)
}

// RenderReport formats a report as HTML messages, each within Telegram's size limit.
func RenderReport(report *models.AnalysisReport) []string {
	cards := models.NewFontCards(report.Fonts)
	if len(cards) == 0 {
		return []string{msgNoFonts}
	}

	unverified := make(map[int]bool)
	for _, v := range report.Verification {
		if !v.Found {
			unverified[v.Index] = true
		}
	}

	header := fmt.Sprintf("🔎 <b>Found %d font(s)</b>", len(cards))
	if report.Source.Kind == models.SourceYouTube && report.Source.URL != "" {
		header += fmt.Sprintf(" in <a href=\"%s\">this thumbnail</a>", html.EscapeString(report.Source.URL))
	}

	blocks := []string{header}
	for i, card := range cards {
		blocks = append(blocks, renderCard(i, card, unverified[i]))
	}
	return pack(blocks, messageSize)
}

// Byte budgets for escaped card fields. Together they keep one card well under
// messageSize, so a card is never cut inside a tag or an entity.
const (
	nameBudget        = 200
	textBudget        = 400
	descriptionBudget = 400
	reasoningBudget   = 1000
	suggestionRunes   = 64
)

func renderCard(i int, card models.FontCard, unverified bool) string {
	suggestion := clipRunes(card.FontFamilySuggestion, suggestionRunes)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d. %s</b>\n", i+1, escapeWithin(card.FontName, nameBudget))
	fmt.Fprintf(&b, "“%s”\n", escapeWithin(card.DisplayText, textBudget))
	fmt.Fprintf(&b, "<i>%s</i> · %s\n", escapeWithin(card.Description, descriptionBudget), card.StyleClass)
	fmt.Fprintf(&b, "%s %d%% (%s)\n", RenderBar(card.ConfidencePercent), card.ConfidencePercent, card.ConfidenceTier)
	fmt.Fprintf(&b, "Free alternative: <a href=\"%s\">%s</a>\n",
		html.EscapeString(models.GoogleFontsURL(suggestion)), html.EscapeString(suggestion))
	if card.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n", escapeWithin(card.Reasoning, reasoningBudget))
	}
	if unverified {
		b.WriteString("⚠️ OCR could not confirm this text.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderStatus describes a chat's session: the running analysis, the last error or the
// last result.
func RenderStatus(snap session.Snapshot, now time.Time) []string {
	switch {
	case snap.Loading:
		elapsed := now.Sub(snap.StartedAt).Truncate(time.Second)
		return []string{fmt.Sprintf("%s (%s)", msgAnalyzing, elapsed)}
	case snap.State == session.Failed:
		return []string{"⚠️ " + snap.Error}
	case snap.State == session.Succeeded && snap.Report != nil:
		return RenderReport(snap.Report)
	default:
		return []string{msgNothingYet}
	}
}

// pack joins blocks with blank lines, starting a new message when one would overflow.
func pack(blocks []string, limit int) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, block := range blocks {
		sep := 0
		if cur.Len() > 0 {
			sep = 2
		}
		if cur.Len()+sep+len(block) > limit {
			flush()
			sep = 0
		}
		if sep > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(block)
	}
	flush()
	return out
}

// escapeWithin HTML-escapes s, stopping at a whole rune so the result including an
// ellipsis fits in maxBytes.
func escapeWithin(s string, maxBytes int) string {
	escaped := html.EscapeString(s)
	if len(escaped) <= maxBytes {
		return escaped
	}

	const ellipsis = "…"
	var b strings.Builder
	for _, r := range s {
		e := html.EscapeString(string(r))
		if b.Len()+len(e)+len(ellipsis) > maxBytes {
			break
		}
		b.WriteString(e)
	}
	b.WriteString(ellipsis)
	return b.String()
}

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
