package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaneholloman/edgar/internal/config"
	"github.com/shaneholloman/edgar/internal/core/ports"
	"github.com/shaneholloman/edgar/internal/core/usecase"
	"github.com/shaneholloman/edgar/internal/export"
	"github.com/shaneholloman/edgar/internal/infrastructure/edgar"
	"github.com/shaneholloman/edgar/internal/infrastructure/llm/deepseek"
	"github.com/shaneholloman/edgar/internal/infrastructure/markup"
	"github.com/shaneholloman/edgar/internal/infrastructure/repository/sqlite"
	"github.com/shaneholloman/edgar/internal/infrastructure/resilience"
	"github.com/shaneholloman/edgar/internal/infrastructure/storage/localfs"
	"github.com/shaneholloman/edgar/internal/observability/logging"
	"github.com/shaneholloman/edgar/internal/observability/metrics"
)

// App wires one pipeline stage. Each entry point builds the same graph and
// uses the slice it needs.
type App struct {
	Config  config.Config
	RunFile *config.RunFile
	Logger  *slog.Logger
	Metrics *metrics.PipelineMetrics

	Ledger     *sqlite.Ledger
	Exporter   export.RowSource
	DownloadUC ports.FilingDownloader
	ExtractUC  ports.FilingProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, stage string) (*App, error) {
	logger := logging.NewJSONLogger(stage, cfg.LogLevel)
	m := metrics.NewPipelineMetrics(stage)

	runFile, err := config.LoadRunFile(cfg.RunFile)
	if err != nil {
		return nil, fmt.Errorf("load run file: %w", err)
	}

	// Storage first: the default database path lives inside the storage dir.
	store, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init document storage: %w", err)
	}

	db, err := sqlite.OpenDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	ledger := sqlite.NewLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}

	exec := resilience.NewExecutor(fetchPolicy(cfg))

	archive := edgar.New(edgar.Config{
		BaseURL:           cfg.SECBaseURL,
		TickerURL:         cfg.SECTickerURL,
		ContactEmail:      cfg.SECContactEmail,
		FilingsPerCompany: cfg.FilingsPerCompany,
		RequestInterval:   time.Duration(cfg.FetchIntervalMS) * time.Millisecond,
		RequestTimeout:    time.Duration(cfg.FetchTimeoutSec) * time.Second,
	}, exec)

	validator := newValidator(runFile)

	llmClient := deepseek.New(deepseek.Config{
		BaseURL:           cfg.LLMBaseURL,
		APIKey:            cfg.LLMAPIKey,
		Model:             cfg.LLMModel,
		Timeout:           time.Duration(cfg.LLMTimeoutSec) * time.Second,
		RequestsPerMinute: cfg.LLMRequestsPerMin,
	}, exec, logger, m)

	downloadUC := usecase.NewDownloadFilingsUseCase(ledger, archive, validator, store, logger, m, usecase.DownloadConfig{
		FilingType:  cfg.FilingType,
		Workers:     cfg.DownloadWorkers,
		MaxAttempts: cfg.DownloadMaxRetries,
	})
	extractUC := usecase.NewExtractFilingsUseCase(ledger, store, deepseek.NewLocator(llmClient), deepseek.NewExtractor(llmClient, cfg.ExtractionRetries), logger, m, usecase.ExtractConfig{
		LatestOnly: cfg.ExtractLatestOnly,
	})

	return &App{
		Config:  cfg,
		RunFile: runFile,
		Logger:  logger,
		Metrics: m,

		Ledger:     ledger,
		Exporter:   ledger,
		DownloadUC: downloadUC,
		ExtractUC:  extractUC,

		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func fetchPolicy(cfg config.Config) resilience.Config {
	policy := resilience.DefaultConfig()
	if cfg.FetchMaxAttempts > 0 {
		policy.RetryMaxAttempts = cfg.FetchMaxAttempts
	}
	return policy
}

func newValidator(runFile *config.RunFile) *markup.Validator {
	var opts []markup.Option
	if len(runFile.Markers.Strict) > 0 {
		opts = append(opts, markup.WithStrictMarkers(runFile.Markers.Strict))
	}
	if len(runFile.Markers.Relaxed) > 0 {
		opts = append(opts, markup.WithRelaxedMarkers(runFile.Markers.Relaxed))
	}
	return markup.NewValidator(opts...)
}
