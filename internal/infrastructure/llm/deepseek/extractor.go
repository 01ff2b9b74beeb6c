package deepseek

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// Education years outside this window are treated as transcription noise.
const earliestEducationYear = 1900

// Extractor turns located filing spans into executive records. A reply that
// fails to parse, or parses to no usable records, is retried with a stricter
// instruction up to the ceiling, then surfaced as a schema error.
type Extractor struct {
	client     *Client
	maxRetries int
}

func NewExtractor(client *Client, maxRetries int) *Extractor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Extractor{client: client, maxRetries: maxRetries}
}

func (e *Extractor) Extract(ctx context.Context, accession string, spans []domain.TextSpan) ([]domain.Executive, error) {
	combined := combineSpans(spans)

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		reply, err := e.client.chat(ctx, "extract_executives", accession, extractionMessages(combined, attempt > 0))
		if err != nil {
			return nil, err
		}

		records, err := parseExecutives(reply)
		if err == nil {
			// A parseable reply with nothing usable in it is still
			// non-conformant: an empty array or all-invalid records must not
			// become an empty success.
			sanitized := sanitize(accession, records)
			if len(sanitized) > 0 {
				return sanitized, nil
			}
			err = fmt.Errorf("reply yielded no usable executive records")
		}
		lastErr = err
		e.client.logger.Warn("extraction reply unusable",
			"accession", accession,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, domain.WrapError(domain.ErrExtractionSchema, "extract_executives", lastErr)
}

func combineSpans(spans []domain.TextSpan) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Heading)
		b.WriteString(":\n")
		b.WriteString(span.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func parseExecutives(reply string) ([]domain.Executive, error) {
	cleaned := stripFences(reply)

	var records []domain.Executive
	if err := json.Unmarshal([]byte(cleaned), &records); err == nil {
		return records, nil
	}

	// The model sometimes surrounds the array with commentary.
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("reply carries no JSON array")
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &records); err != nil {
		return nil, fmt.Errorf("parse executive array: %w", err)
	}
	return records, nil
}

func stripFences(reply string) string {
	cleaned := strings.TrimSpace(reply)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// sanitize drops records the schema allows but the domain rejects, and nulls
// fields that are individually implausible.
func sanitize(accession string, records []domain.Executive) []domain.Executive {
	out := make([]domain.Executive, 0, len(records))
	for _, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			continue
		}
		if hasNegativeAmount(rec) {
			continue
		}
		for i, edu := range rec.Education {
			if edu.Year != nil && !plausibleEducationYear(*edu.Year) {
				rec.Education[i].Year = nil
			}
		}
		rec.Accession = accession
		out = append(out, rec)
	}
	return out
}

func hasNegativeAmount(rec domain.Executive) bool {
	for _, amount := range []*float64{rec.Salary, rec.Bonus, rec.StockAwards, rec.OptionAwards, rec.Other, rec.Total} {
		if amount != nil && *amount < 0 {
			return true
		}
	}
	return false
}

func plausibleEducationYear(year int) bool {
	return year >= earliestEducationYear && year <= time.Now().Year()+1
}
