package deepseek

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaneholloman/edgar/internal/infrastructure/resilience"
	"github.com/shaneholloman/edgar/internal/observability/metrics"
)

const extractionStage = "extract"

type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client talks to the chat-completions API. Requests are rate limited to the
// configured per-minute budget, retried under the shared executor, and every
// call is logged with its filing, token usage and latency.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *resilience.Executor
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics
}

func New(cfg Config, exec *resilience.Executor, logger *slog.Logger, m *metrics.PipelineMetrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		exec:       exec,
		logger:     logger,
		metrics:    m,
	}
}
