package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// Archive responses are text; anything past this is not a filing we want.
const maxResponseBytes = 32 << 20

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "archive status error"
	}
	return fmt.Sprintf("archive %s status: %s", e.Operation, e.Status)
}

// get performs one paced, identified, retried request and returns the body.
func (c *Client) get(ctx context.Context, rawURL, operation string) ([]byte, error) {
	var body []byte
	err := c.exec.Execute(ctx, operation, func(ctx context.Context) error {
		var err error
		body, err = c.getOnce(ctx, rawURL, operation)
		return err
	}, classifyArchiveError)
	if err != nil {
		return nil, wrapFetchError(operation, err)
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, rawURL, operation string) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	// The archive's access policy requires an identifying contact.
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, operation, &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		})
	}
	if resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return body, nil
}

func (c *Client) userAgent() string {
	email := strings.TrimSpace(c.cfg.ContactEmail)
	if email == "" {
		return "edgar-pipeline/1.0"
	}
	return fmt.Sprintf("edgar-pipeline/1.0 (%s)", email)
}
