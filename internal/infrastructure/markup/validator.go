package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// The archive answers rate-limited or blocked callers with empty or
// near-empty bodies; anything below this is not a filing.
const defaultMinBytes = 512

// requiredTerms are the content markers a usable proxy statement carries.
// The first is mandatory; at least two of the whole set must match.
var requiredTerms = []*regexp.Regexp{
	regexp.MustCompile(`proxy\s+statement`),
	regexp.MustCompile(`executive\s+compensation|compensation\s+discussion`),
	regexp.MustCompile(`board\s+of\s+directors|corporate\s+governance`),
	regexp.MustCompile(`(stock|share)\s+(ownership|holdings)`),
}

// Validator classifies downloaded documents as usable input for extraction.
// Rejection is a definitive result, never an error: malformed filings are a
// normal outcome of scraping the archive.
type Validator struct {
	minBytes int
	strict   []*regexp.Regexp
	relaxed  []string
}

type Option func(*Validator)

// WithRelaxedMarkers enables a second marker pass before terminal rejection:
// a document failing the strict set passes if it contains any of the given
// substrings.
func WithRelaxedMarkers(markers []string) Option {
	return func(v *Validator) {
		v.relaxed = markers
	}
}

// WithStrictMarkers replaces the built-in marker expressions.
func WithStrictMarkers(patterns []string) Option {
	return func(v *Validator) {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			if re, err := regexp.Compile(p); err == nil {
				compiled = append(compiled, re)
			}
		}
		if len(compiled) > 0 {
			v.strict = compiled
		}
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		minBytes: defaultMinBytes,
		strict:   requiredTerms,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Validate(raw []byte, filingType string) domain.ValidationResult {
	if len(raw) < v.minBytes {
		return domain.ValidationResult{
			OK:     false,
			Reason: fmt.Sprintf("document too short: %d bytes", len(raw)),
		}
	}

	elements, err := ExtractText(raw)
	if err != nil || len(elements) == 0 {
		return domain.ValidationResult{OK: false, Reason: "document is not parseable markup"}
	}
	text := strings.ToLower(strings.Join(elements, "\n"))
	if len(text) < v.minBytes/2 {
		return domain.ValidationResult{OK: false, Reason: "markup contains almost no text"}
	}

	matches := 0
	for _, re := range v.strict {
		if re.MatchString(text) {
			matches++
		}
	}
	if matches >= 2 && v.strict[0].MatchString(text) {
		return domain.ValidationResult{OK: true}
	}

	for _, marker := range v.relaxed {
		if strings.Contains(text, strings.ToLower(marker)) {
			return domain.ValidationResult{OK: true}
		}
	}

	return domain.ValidationResult{
		OK:     false,
		Reason: fmt.Sprintf("missing %s content markers (%d/%d matched)", filingType, matches, len(v.strict)),
	}
}
