package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaneholloman/edgar/internal/core/domain"
	"github.com/shaneholloman/edgar/internal/core/ports"
	"github.com/shaneholloman/edgar/internal/observability/metrics"
)

const extractStage = "extract"

type ExtractConfig struct {
	LatestOnly bool
}

// ExtractFilingsUseCase walks validated filings through section location and
// executive extraction. Filings are processed one at a time: the AI budget,
// not local concurrency, bounds this stage's throughput.
type ExtractFilingsUseCase struct {
	ledger    ports.FilingLedger
	store     ports.DocumentStore
	locator   ports.SectionLocator
	extractor ports.ExecutiveExtractor
	logger    *slog.Logger
	metrics   *metrics.PipelineMetrics
	cfg       ExtractConfig
}

func NewExtractFilingsUseCase(
	ledger ports.FilingLedger,
	store ports.DocumentStore,
	locator ports.SectionLocator,
	extractor ports.ExecutiveExtractor,
	logger *slog.Logger,
	m *metrics.PipelineMetrics,
	cfg ExtractConfig,
) *ExtractFilingsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractFilingsUseCase{
		ledger:    ledger,
		store:     store,
		locator:   locator,
		extractor: extractor,
		logger:    logger,
		metrics:   m,
		cfg:       cfg,
	}
}

func (uc *ExtractFilingsUseCase) Run(ctx context.Context) (domain.StageCounts, error) {
	logger := uc.logger.With("run_id", uuid.NewString())

	if err := uc.ledger.Recover(ctx); err != nil {
		return domain.StageCounts{}, fmt.Errorf("recover interrupted work: %w", err)
	}

	candidates, err := uc.ledger.ExtractionCandidates(ctx, uc.cfg.LatestOnly)
	if err != nil {
		return domain.StageCounts{}, fmt.Errorf("list extraction candidates: %w", err)
	}
	logger.Info("extraction run starting", "candidates", len(candidates), "latest_only", uc.cfg.LatestOnly)

	for _, filing := range candidates {
		if err := ctx.Err(); err != nil {
			return domain.StageCounts{}, err
		}
		uc.extractOne(ctx, logger, filing)
	}

	counts, err := uc.ledger.StageCounts(ctx)
	if err != nil {
		return domain.StageCounts{}, fmt.Errorf("stage counts: %w", err)
	}
	logger.Info("extraction run complete",
		"succeeded", counts.Succeeded,
		"failed_retryable", counts.FailedRetryable,
		"failed_permanent", counts.FailedPermanent,
	)
	return counts, nil
}

// extractOne carries a single claimed filing to a terminal processing state.
// Errors never escape: one filing cannot fail a run.
func (uc *ExtractFilingsUseCase) extractOne(ctx context.Context, logger *slog.Logger, filing domain.Filing) {
	logger = logger.With("accession", filing.Accession, "cik", filing.CIK)

	claimed, err := uc.ledger.ClaimProcessing(ctx, filing.Accession)
	if err != nil {
		logger.Error("processing claim failed", "error", err)
		return
	}
	if !claimed {
		return
	}

	start := time.Now()
	outcome := uc.processClaimed(ctx, logger, filing)
	if uc.metrics != nil {
		uc.metrics.FinishExtraction(extractStage, outcome, time.Since(start))
	}
}

func (uc *ExtractFilingsUseCase) processClaimed(ctx context.Context, logger *slog.Logger, filing domain.Filing) string {
	records, err := uc.extractFiling(ctx, filing)
	if err != nil {
		return uc.fail(ctx, logger, filing.Accession, err)
	}

	if err := uc.ledger.RecordExecutives(ctx, filing.Accession, records); err != nil {
		return uc.fail(ctx, logger, filing.Accession, fmt.Errorf("record executives: %w", err))
	}
	logger.Info("extraction succeeded", "executives", len(records))
	return "succeeded"
}

func (uc *ExtractFilingsUseCase) extractFiling(ctx context.Context, filing domain.Filing) ([]domain.Executive, error) {
	text, err := uc.loadDocument(ctx, filing)
	if err != nil {
		return nil, err
	}

	spans, err := uc.locator.LocateSections(ctx, filing.Accession, text)
	if err != nil {
		return nil, fmt.Errorf("locate sections: %w", err)
	}

	records, err := uc.extractor.Extract(ctx, filing.Accession, spans)
	if err != nil {
		return nil, fmt.Errorf("extract executives: %w", err)
	}
	return records, nil
}

func (uc *ExtractFilingsUseCase) loadDocument(ctx context.Context, filing domain.Filing) (string, error) {
	key := filing.StoragePath
	if key == "" {
		key = domain.DocumentKey(filing.CIK, filing.Accession)
	}
	doc, err := uc.store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer doc.Close()

	raw, err := io.ReadAll(doc)
	if err != nil {
		return "", fmt.Errorf("read stored document: %w", err)
	}
	return string(raw), nil
}

// fail records the terminal processing status for an error, keeping the row
// retryable only when the cause is transient.
func (uc *ExtractFilingsUseCase) fail(ctx context.Context, logger *slog.Logger, accession string, cause error) string {
	status := domain.ProcessingFailedPermanent
	outcome := "failed_permanent"
	if domain.Retryable(cause) {
		status = domain.ProcessingFailedRetryable
		outcome = "failed_retryable"
	}

	logger.Error("extraction failed", "status", string(status), "error", cause)
	if err := uc.ledger.SetProcessingResult(ctx, accession, status, cause.Error()); err != nil {
		logger.Error("set processing result failed", "error", err)
	}
	return outcome
}
