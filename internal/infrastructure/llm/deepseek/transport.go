package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "deepseek status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("deepseek %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("deepseek %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// chat runs one rate-limited, retried chat completion and returns the first
// choice's content.
func (c *Client) chat(ctx context.Context, operation, accession string, messages []chatMessage) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var content string
	var promptTokens, completionTokens int
	start := time.Now()
	err := c.exec.Execute(ctx, operation, func(ctx context.Context) error {
		resp, err := c.postChat(ctx, operation, messages)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("deepseek %s: empty choices", operation)
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		promptTokens = resp.Usage.PromptTokens
		completionTokens = resp.Usage.CompletionTokens
		return nil
	}, classifyChatError)
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.ObserveLLMRequest(extractionStage, operation, elapsed, err)
		c.metrics.AddLLMTokens(extractionStage, operation, promptTokens, completionTokens)
	}
	logger := c.logger.With(
		"operation", operation,
		"accession", accession,
		"duration_ms", elapsed.Milliseconds(),
	)
	if err != nil {
		logger.Error("llm request failed", "error", err)
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	logger.Info("llm request complete",
		"prompt_tokens", promptTokens,
		"completion_tokens", completionTokens,
	)
	return content, nil
}

func (c *Client) postChat(ctx context.Context, operation string, messages []chatMessage) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepseek %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return &out, nil
}
