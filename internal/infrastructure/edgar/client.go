package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaneholloman/edgar/internal/core/domain"
	"github.com/shaneholloman/edgar/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL           string
	TickerURL         string
	ContactEmail      string
	FilingsPerCompany int
	RequestInterval   time.Duration
	RequestTimeout    time.Duration
}

// Client fetches filing listings and documents from the archive. Every
// outbound request is paced, identified, and retried under the shared
// resilience executor.
type Client struct {
	cfg        Config
	httpClient *http.Client
	pacer      *Pacer
	exec       *resilience.Executor
}

func New(cfg Config, exec *resilience.Executor) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.sec.gov"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TickerURL == "" {
		cfg.TickerURL = cfg.BaseURL + "/files/company_tickers.json"
	}
	if cfg.FilingsPerCompany <= 0 {
		cfg.FilingsPerCompany = 5
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = 100 * time.Millisecond
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		pacer:      NewPacer(cfg.RequestInterval),
		exec:       exec,
	}
}

// CompanyUniverse resolves the archive's CIK-to-name mapping from the
// ticker file, zero-padding identifiers to their fixed 10-digit form.
func (c *Client) CompanyUniverse(ctx context.Context) ([]domain.Company, error) {
	raw, err := c.get(ctx, c.cfg.TickerURL, "company_universe")
	if err != nil {
		return nil, err
	}

	var entries map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse ticker file", err)
	}

	companies := make([]domain.Company, 0, len(entries))
	for _, entry := range entries {
		companies = append(companies, domain.Company{
			CIK:  fmt.Sprintf("%010d", entry.CIK),
			Name: entry.Title,
		})
	}
	return companies, nil
}

func (c *Client) ListFilings(ctx context.Context, cik, filingType string) ([]domain.FilingRef, error) {
	listURL := fmt.Sprintf(
		"%s/cgi-bin/browse-edgar?action=getcompany&CIK=%s&type=%s&dateb=&owner=exclude&count=%d",
		c.cfg.BaseURL, url.QueryEscape(cik), url.QueryEscape(filingType), c.cfg.FilingsPerCompany,
	)

	raw, err := c.get(ctx, listURL, "list_filings")
	if err != nil {
		return nil, err
	}

	refs, err := parseListing(raw, cik, filingType, c.cfg.BaseURL)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse filing listing", err)
	}
	return refs, nil
}

// FetchDocument resolves the filing index page to the proxy document it
// links and downloads it.
func (c *Client) FetchDocument(ctx context.Context, ref domain.FilingRef) ([]byte, error) {
	index, err := c.get(ctx, ref.SourceURL, "fetch_index")
	if err != nil {
		return nil, err
	}

	docPath, err := parseIndexForDocument(index)
	if err != nil {
		return nil, domain.WrapError(domain.ErrNotFound, "resolve proxy document", err)
	}

	return c.get(ctx, c.absoluteURL(docPath), "fetch_document")
}

func (c *Client) absoluteURL(path string) string {
	return absolute(c.cfg.BaseURL, path)
}
