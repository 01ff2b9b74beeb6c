package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaneholloman/edgar/internal/core/domain"
	"github.com/shaneholloman/edgar/internal/core/ports"
	"github.com/shaneholloman/edgar/internal/observability/metrics"
)

const downloadStage = "scrape"

type DownloadConfig struct {
	FilingType  string
	Workers     int
	MaxAttempts int
}

// DownloadFilingsUseCase discovers proxy filings for the requested companies,
// downloads them through a fixed worker pool over the ledger's claim loop,
// and leaves every filing in a terminal or claimable state.
type DownloadFilingsUseCase struct {
	ledger    ports.FilingLedger
	archive   ports.ArchiveClient
	validator ports.FilingValidator
	store     ports.DocumentStore
	logger    *slog.Logger
	metrics   *metrics.PipelineMetrics
	cfg       DownloadConfig
}

func NewDownloadFilingsUseCase(
	ledger ports.FilingLedger,
	archive ports.ArchiveClient,
	validator ports.FilingValidator,
	store ports.DocumentStore,
	logger *slog.Logger,
	m *metrics.PipelineMetrics,
	cfg DownloadConfig,
) *DownloadFilingsUseCase {
	if cfg.FilingType == "" {
		cfg.FilingType = "DEF 14A"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadFilingsUseCase{
		ledger:    ledger,
		archive:   archive,
		validator: validator,
		store:     store,
		logger:    logger,
		metrics:   m,
		cfg:       cfg,
	}
}

func (uc *DownloadFilingsUseCase) Run(ctx context.Context, ciks []string) (domain.StageCounts, error) {
	logger := uc.logger.With("run_id", uuid.NewString())
	logger.Info("download run starting", "companies", len(ciks), "filing_type", uc.cfg.FilingType)

	if err := uc.ledger.Recover(ctx); err != nil {
		return domain.StageCounts{}, fmt.Errorf("recover interrupted work: %w", err)
	}

	if err := uc.discover(ctx, logger, ciks); err != nil {
		return domain.StageCounts{}, err
	}

	if err := uc.drainDiscovered(ctx, logger); err != nil {
		return domain.StageCounts{}, err
	}

	counts, err := uc.ledger.StageCounts(ctx)
	if err != nil {
		return domain.StageCounts{}, fmt.Errorf("stage counts: %w", err)
	}
	logger.Info("download run complete",
		"validated", counts.Validated,
		"rejected", counts.Rejected,
		"failed", counts.Failed,
	)
	return counts, nil
}

// discover lists filings per company and records them as discovered. With no
// explicit CIK list the whole ticker universe is in scope. A company that
// fails to list does not stop the others.
func (uc *DownloadFilingsUseCase) discover(ctx context.Context, logger *slog.Logger, ciks []string) error {
	names, err := uc.resolveCompanies(ctx, logger, &ciks)
	if err != nil {
		return err
	}

	var discovered int
	for _, cik := range ciks {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := uc.ledger.UpsertCompany(ctx, domain.Company{CIK: cik, Name: names[cik]}); err != nil {
			return fmt.Errorf("upsert company %s: %w", cik, err)
		}

		refs, err := uc.archive.ListFilings(ctx, cik, uc.cfg.FilingType)
		if err != nil {
			logger.Error("listing failed", "cik", cik, "error", err)
			continue
		}
		for _, ref := range refs {
			if err := uc.ledger.UpsertFiling(ctx, ref); err != nil {
				return fmt.Errorf("upsert filing %s: %w", ref.Accession, err)
			}
			discovered++
		}
	}
	logger.Info("discovery complete", "filings", discovered)
	return nil
}

// resolveCompanies loads the ticker universe for company names and, when no
// explicit CIK list was given, widens the run to every listed company. With
// an explicit list the universe is best effort: a filing can be downloaded
// without a company name.
func (uc *DownloadFilingsUseCase) resolveCompanies(ctx context.Context, logger *slog.Logger, ciks *[]string) (map[string]string, error) {
	companies, err := uc.archive.CompanyUniverse(ctx)
	if err != nil {
		if len(*ciks) == 0 {
			return nil, fmt.Errorf("company universe: %w", err)
		}
		logger.Warn("company universe unavailable, names left empty", "error", err)
		return nil, nil
	}

	names := make(map[string]string, len(companies))
	for _, c := range companies {
		names[c.CIK] = c.Name
	}
	if len(*ciks) == 0 {
		all := make([]string, 0, len(companies))
		for cik := range names {
			all = append(all, cik)
		}
		sort.Strings(all)
		*ciks = all
	}
	return names, nil
}

// drainDiscovered runs download passes until no discovered filing remains.
// Failed downloads return to discovered while attempts remain, so the attempt
// ceiling bounds the number of passes. A pass that claims nothing while
// filings remain discovered means the ledger itself is failing; that
// surfaces as a run error rather than a spin.
func (uc *DownloadFilingsUseCase) drainDiscovered(ctx context.Context, logger *slog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pending, err := uc.ledger.FilingsByStatus(ctx, domain.FilingDiscovered)
		if err != nil {
			return fmt.Errorf("list discovered filings: %w", err)
		}
		if len(pending) == 0 {
			return nil
		}

		if claimed := uc.runPool(ctx, logger, pending); claimed == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("download pass claimed none of %d discovered filings", len(pending))
		}
	}
}

// runPool reports how many filings the pass actually claimed.
func (uc *DownloadFilingsUseCase) runPool(ctx context.Context, logger *slog.Logger, pending []domain.Filing) int {
	queue := make(chan domain.Filing)
	var claimed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < uc.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filing := range queue {
				if uc.downloadOne(ctx, logger, filing) {
					claimed.Add(1)
				}
			}
		}()
	}

	for _, filing := range pending {
		select {
		case queue <- filing:
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			return int(claimed.Load())
		}
	}
	close(queue)
	wg.Wait()
	return int(claimed.Load())
}

// downloadOne carries a single claimed filing to validated, rejected, or back
// to a claimable state, and reports whether it won the claim. Errors never
// escape: one filing cannot fail a run.
func (uc *DownloadFilingsUseCase) downloadOne(ctx context.Context, logger *slog.Logger, filing domain.Filing) bool {
	claimed, err := uc.ledger.ClaimFiling(ctx, filing.Accession)
	if err != nil {
		logger.Error("claim failed", "accession", filing.Accession, "error", err)
		return false
	}
	if !claimed {
		return false
	}

	if uc.metrics != nil {
		uc.metrics.StartDownload()
	}
	start := time.Now()
	outcome := uc.processClaimed(ctx, logger, filing)
	if uc.metrics != nil {
		uc.metrics.FinishDownload(downloadStage, outcome, time.Since(start))
	}
	return true
}

func (uc *DownloadFilingsUseCase) processClaimed(ctx context.Context, logger *slog.Logger, filing domain.Filing) string {
	logger = logger.With("accession", filing.Accession, "cik", filing.CIK)

	raw, err := uc.archive.FetchDocument(ctx, domain.FilingRef{
		CIK:        filing.CIK,
		Accession:  filing.Accession,
		Type:       filing.Type,
		FilingDate: filing.FilingDate,
		SourceURL:  filing.SourceURL,
	})
	if err != nil {
		logger.Error("document fetch failed", "error", err)
		uc.release(ctx, logger, filing.Accession, err)
		return "failed"
	}

	if result := uc.validator.Validate(raw, filing.Type); !result.OK {
		logger.Info("filing rejected", "reason", result.Reason)
		if err := uc.ledger.MarkRejected(ctx, filing.Accession, result.Reason); err != nil {
			logger.Error("mark rejected failed", "error", err)
		}
		return "rejected"
	}

	key := domain.DocumentKey(filing.CIK, filing.Accession)
	if err := uc.store.Save(ctx, key, bytes.NewReader(raw)); err != nil {
		logger.Error("document save failed", "error", err)
		uc.release(ctx, logger, filing.Accession, err)
		return "failed"
	}

	sum := sha256.Sum256(raw)
	if err := uc.ledger.MarkValidated(ctx, filing.Accession, key, hex.EncodeToString(sum[:])); err != nil {
		logger.Error("mark validated failed", "error", err)
		uc.release(ctx, logger, filing.Accession, err)
		return "failed"
	}

	logger.Info("filing validated", "bytes", len(raw))
	return "validated"
}

func (uc *DownloadFilingsUseCase) release(ctx context.Context, logger *slog.Logger, accession string, cause error) {
	if err := uc.ledger.ReleaseFiling(ctx, accession, uc.cfg.MaxAttempts, cause.Error()); err != nil {
		logger.Error("release failed", "accession", accession, "error", err)
	}
}
