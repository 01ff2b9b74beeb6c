package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// Section is a candidate span of filing text under one heading.
type Section struct {
	Heading string
	Text    string
}

const minSectionChars = 100

var (
	headingClassRE = regexp.MustCompile(`(?i)heading|title|header|section`)
	headingStyleRE = regexp.MustCompile(`(?i)font-weight:\s*bold|font-size:\s*1[2-9]px`)
)

type scoredHeading struct {
	text  string
	score float64
}

// Sections splits filing markup into heading-delimited spans. Filings rarely
// use clean h1/h2 structure, so headings are found by layered heuristics:
// real heading tags first, then class names, inline styles, and finally
// short all-caps or colon-terminated text runs.
func Sections(raw []byte) ([]Section, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	headings := identifyHeadings(doc)
	elements, err := ExtractText(raw)
	if err != nil {
		return nil, err
	}
	return extractSections(elements, headings), nil
}

func identifyHeadings(doc *html.Node) []scoredHeading {
	var found []scoredHeading

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3":
				found = append(found, scoredHeading{text: nodeText(n), score: 0.9})
			default:
				if headingClassRE.MatchString(attr(n, "class")) {
					found = append(found, scoredHeading{text: nodeText(n), score: 0.8})
				} else if headingStyleRE.MatchString(attr(n, "style")) {
					if text := nodeText(n); len(text) < 100 {
						found = append(found, scoredHeading{text: text, score: 0.7})
					}
				}
			}
		}
		if n.Type == html.TextNode {
			text := normalize(n.Data)
			if text != "" && len(text) < 100 {
				if text == strings.ToUpper(text) && len(text) > 10 && strings.ContainsAny(text, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
					found = append(found, scoredHeading{text: text, score: 0.6})
				} else if strings.HasSuffix(text, ":") {
					found = append(found, scoredHeading{text: text, score: 0.5})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	seen := make(map[string]bool)
	out := make([]scoredHeading, 0, len(found))
	for _, h := range found {
		text := normalize(h.text)
		if text == "" || len(text) >= 200 || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, scoredHeading{text: text, score: h.score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func extractSections(elements []string, headings []scoredHeading) []Section {
	sections := make([]Section, 0)
	claimed := make(map[string]bool)

	for i, heading := range headings {
		start := indexContaining(elements, heading.text, 0)
		if start < 0 {
			continue
		}

		end := len(elements)
		for _, other := range headings[i+1:] {
			if next := indexContaining(elements, other.text, start+1); next >= 0 && next < end {
				end = next
			}
		}

		text := strings.Join(elements[start+1:end], "\n")
		if len(text) <= minSectionChars || claimed[heading.text] {
			continue
		}
		claimed[heading.text] = true
		sections = append(sections, Section{Heading: heading.text, Text: text})
	}
	return sections
}

func indexContaining(elements []string, needle string, from int) int {
	for i := from; i < len(elements); i++ {
		if strings.Contains(elements[i], needle) {
			return i
		}
	}
	return -1
}

var topicKeywords = map[domain.SectionTopic][]string{
	domain.TopicCompensation: {
		"summary compensation table",
		"executive compensation",
		"compensation discussion",
		"director compensation",
	},
	domain.TopicBiography: {
		"executive officers",
		"board of directors",
		"biographical information",
		"director nominees",
		"management",
	},
	domain.TopicEducation: {
		"education",
		"academic",
	},
}

// TopicFor tags a section by its heading, falling back to the leading text.
// Compensation wins ties; it is the span extraction depends on most.
func TopicFor(heading, text string) domain.SectionTopic {
	haystack := strings.ToLower(heading)
	lead := strings.ToLower(text)
	if len(lead) > 1000 {
		lead = lead[:1000]
	}

	for _, topic := range []domain.SectionTopic{domain.TopicCompensation, domain.TopicEducation, domain.TopicBiography} {
		for _, keyword := range topicKeywords[topic] {
			if strings.Contains(haystack, keyword) || strings.Contains(lead, keyword) {
				return topic
			}
		}
	}
	return domain.TopicBiography
}
