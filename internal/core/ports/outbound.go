package ports

import (
	"context"
	"io"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// FilingLedger persists companies, filings and processing state. Every
// state transition commits atomically with its associated data write, and
// every operation is safe to re-run with the same identifiers.
type FilingLedger interface {
	UpsertCompany(ctx context.Context, company domain.Company) error
	UpsertFiling(ctx context.Context, ref domain.FilingRef) error
	FilingsByStatus(ctx context.Context, status domain.FilingStatus) ([]domain.Filing, error)

	// ClaimFiling atomically moves a filing from discovered to downloading and
	// increments its attempt count. It reports false when another worker holds
	// the filing or the filing is no longer claimable.
	ClaimFiling(ctx context.Context, accession string) (bool, error)
	MarkValidated(ctx context.Context, accession, storagePath, contentHash string) error
	MarkRejected(ctx context.Context, accession, reason string) error
	// ReleaseFiling returns a failed download to discovered while attempts
	// remain below maxAttempts, and to terminal failed otherwise.
	ReleaseFiling(ctx context.Context, accession string, maxAttempts int, cause string) error

	// ExtractionCandidates lists validated filings whose processing state is
	// pending or failed_retryable. With latestOnly set, only the most recent
	// validated filing per company qualifies.
	ExtractionCandidates(ctx context.Context, latestOnly bool) ([]domain.Filing, error)
	ClaimProcessing(ctx context.Context, accession string) (bool, error)
	SetProcessingResult(ctx context.Context, accession string, status domain.ProcessingStatus, lastError string) error
	// RecordExecutives replaces the filing's executive rows and marks its
	// processing state succeeded in a single transaction.
	RecordExecutives(ctx context.Context, accession string, records []domain.Executive) error

	// ExportRows lists succeeded executive records joined with company names.
	ExportRows(ctx context.Context) ([]domain.ExportRow, error)

	// Recover returns work interrupted mid-flight (downloading filings,
	// in_progress processing rows) to a claimable state.
	Recover(ctx context.Context) error
	StageCounts(ctx context.Context) (domain.StageCounts, error)
}

// ArchiveClient talks to the filing archive.
type ArchiveClient interface {
	// CompanyUniverse resolves the archive's full CIK-to-name mapping.
	CompanyUniverse(ctx context.Context) ([]domain.Company, error)
	ListFilings(ctx context.Context, cik, filingType string) ([]domain.FilingRef, error)
	FetchDocument(ctx context.Context, ref domain.FilingRef) ([]byte, error)
}

// FilingValidator decides whether downloaded bytes are trustworthy input for
// extraction. A rejection is a normal outcome, not an error.
type FilingValidator interface {
	Validate(raw []byte, filingType string) domain.ValidationResult
}

// DocumentStore holds validated filing documents between the stages.
type DocumentStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SectionLocator identifies the filing text spans relevant to executive
// compensation, biography and education. It fails with ErrSectionNotFound
// rather than returning an empty result.
type SectionLocator interface {
	LocateSections(ctx context.Context, accession, filingText string) ([]domain.TextSpan, error)
}

// ExecutiveExtractor converts located spans into validated executive records.
type ExecutiveExtractor interface {
	Extract(ctx context.Context, accession string, spans []domain.TextSpan) ([]domain.Executive, error)
}
