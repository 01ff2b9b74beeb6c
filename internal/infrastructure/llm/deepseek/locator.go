package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shaneholloman/edgar/internal/core/domain"
	"github.com/shaneholloman/edgar/internal/infrastructure/markup"
)

const (
	previewChars     = 200
	maxSelectedSpans = 3
)

var quotedTitleRE = regexp.MustCompile(`"([^"]+)"`)

// Fallback heading keywords applied when the model's selection is unusable.
var fallbackKeywords = []string{"EXECUTIVE", "COMPENSATION", "BIOGRAPHICAL", "BOARD", "MANAGEMENT"}

// Locator splits a filing into heading-bounded sections and asks the model
// which of them cover executive pay and biography.
type Locator struct {
	client *Client
}

func NewLocator(client *Client) *Locator {
	return &Locator{client: client}
}

func (l *Locator) LocateSections(ctx context.Context, accession, filingText string) ([]domain.TextSpan, error) {
	sections, err := markup.Sections([]byte(filingText))
	if err != nil {
		return nil, domain.WrapError(domain.ErrSectionNotFound, "split sections", err)
	}
	if len(sections) == 0 {
		return nil, domain.WrapError(domain.ErrSectionNotFound, "split sections",
			errors.New("no heading-bounded sections in filing"))
	}

	titles := l.selectTitles(ctx, accession, sections)

	spans := matchSections(sections, titles)
	if len(spans) == 0 {
		// The model picked titles that match nothing; fall back to the
		// keyword scan before giving up on the filing.
		spans = keywordSections(sections)
	}
	if len(spans) == 0 {
		return nil, domain.WrapError(domain.ErrSectionNotFound, "select sections",
			errors.New("no section matched the model selection or fallback keywords"))
	}
	if len(spans) > maxSelectedSpans {
		spans = spans[:maxSelectedSpans]
	}
	return spans, nil
}

// selectTitles asks the model for relevant headings, degrading to the keyword
// list when the call or its reply is unusable.
func (l *Locator) selectTitles(ctx context.Context, accession string, sections []markup.Section) []string {
	previews := make(map[string]string, len(sections))
	for _, s := range sections {
		previews[s.Heading] = previewOf(s.Text)
	}

	reply, err := l.client.chat(ctx, "filter_sections", accession, sectionFilterMessages(previews))
	if err != nil {
		l.client.logger.Warn("section filter call failed, using keyword fallback",
			"accession", accession, "error", err)
		return nil
	}
	return parseTitles(reply)
}

// previewOf truncates section text for the filter prompt without splitting a
// multi-byte rune at the cut point.
func previewOf(text string) string {
	if len(text) <= previewChars {
		return text
	}
	cut := previewChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func parseTitles(reply string) []string {
	cleaned := stripFences(reply)
	var titles []string
	if err := json.Unmarshal([]byte(cleaned), &titles); err == nil {
		return titles
	}
	// The model sometimes wraps the array in prose; pull out quoted strings.
	var out []string
	for _, m := range quotedTitleRE.FindAllStringSubmatch(cleaned, -1) {
		out = append(out, m[1])
	}
	return out
}

func matchSections(sections []markup.Section, titles []string) []domain.TextSpan {
	if len(titles) == 0 {
		return nil
	}
	var spans []domain.TextSpan
	for _, s := range sections {
		heading := strings.ToLower(s.Heading)
		for _, title := range titles {
			if title == "" || !strings.Contains(heading, strings.ToLower(title)) {
				continue
			}
			spans = append(spans, toSpan(s))
			break
		}
	}
	return spans
}

func keywordSections(sections []markup.Section) []domain.TextSpan {
	var spans []domain.TextSpan
	for _, s := range sections {
		heading := strings.ToUpper(s.Heading)
		for _, keyword := range fallbackKeywords {
			if !strings.Contains(heading, keyword) {
				continue
			}
			spans = append(spans, toSpan(s))
			break
		}
	}
	return spans
}

func toSpan(s markup.Section) domain.TextSpan {
	return domain.TextSpan{
		Heading: s.Heading,
		Topic:   markup.TopicFor(s.Heading, s.Text),
		Text:    s.Text,
	}
}
