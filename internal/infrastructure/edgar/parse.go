package edgar

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

var accessionRE = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)

// parseListing pulls filing references out of the browse page's document
// table, keeping only rows of the requested type.
func parseListing(raw []byte, cik, filingType, baseURL string) ([]domain.FilingRef, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}

	table := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "table" && strings.Contains(attrOf(n, "class"), "tableFile2")
	})
	if table == nil {
		// A company with no filings of this type renders no table at all.
		return nil, nil
	}

	body := findFirst(table, "tbody")
	if body == nil {
		body = table
	}
	var refs []domain.FilingRef
	for _, row := range childElements(body, "tr") {
		cols := childElements(row, "td")
		if len(cols) < 4 {
			continue
		}
		if !strings.EqualFold(textOf(cols[0]), filingType) {
			continue
		}

		link := findFirst(cols[1], "a")
		if link == nil {
			continue
		}
		href := attrOf(link, "href")
		date := textOf(cols[3])
		if href == "" || date == "" {
			return nil, errors.New("listing row missing document link or date")
		}

		refs = append(refs, domain.FilingRef{
			CIK:        cik,
			Accession:  accessionFromHref(href, cik, date),
			Type:       filingType,
			FilingDate: date,
			SourceURL:  absolute(baseURL, href),
		})
	}
	return refs, nil
}

// accessionFromHref extracts the archive's accession identifier from the
// index link, falling back to cik-date when the link carries none.
func accessionFromHref(href, cik, date string) string {
	if m := accessionRE.FindString(href); m != "" {
		return m
	}
	return fmt.Sprintf("%s-%s", cik, strings.ReplaceAll(date, "/", "-"))
}

// parseIndexForDocument finds the proxy document link on a filing index
// page: a def14a.htm href first, then any .htm link labelled as the form.
func parseIndexForDocument(raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse index markup: %w", err)
	}

	var fallback string
	var direct string
	walkNodes(doc, func(n *html.Node) {
		if direct != "" || n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := attrOf(n, "href")
		if href == "" {
			return
		}
		if strings.Contains(strings.ToLower(href), "def14a.htm") {
			direct = href
			return
		}
		if fallback == "" && strings.Contains(href, ".htm") &&
			strings.Contains(strings.ToLower(textOf(n)), "def 14a") {
			fallback = href
		}
	})

	if direct != "" {
		return direct, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.New("no proxy document link on index page")
}

func absolute(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(baseURL, "/") + href
}

func walkNodes(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, visit)
	}
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	return findNode(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == tag
	})
}

func childElements(n *html.Node, tag string) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	walkNodes(n, func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	})
	return out
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walkNodes(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(b.String())
}

func attrOf(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
