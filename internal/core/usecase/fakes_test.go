package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// ledgerFake is an in-memory FilingLedger with the same transition rules as
// the sqlite implementation. Guarded by a mutex so worker-pool tests can run
// against it.
type ledgerFake struct {
	mu sync.Mutex

	companies  map[string]domain.Company
	filings    map[string]*domain.Filing
	processing map[string]*domain.ProcessingState
	executives map[string][]domain.Executive

	recoverCalls   int
	lastLatestOnly bool
	recordErr      error
	claimErr       error
}

func newLedgerFake() *ledgerFake {
	return &ledgerFake{
		companies:  map[string]domain.Company{},
		filings:    map[string]*domain.Filing{},
		processing: map[string]*domain.ProcessingState{},
		executives: map[string][]domain.Executive{},
	}
}

func (f *ledgerFake) UpsertCompany(_ context.Context, company domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.companies[company.CIK]
	if ok && company.Name == "" {
		company.Name = existing.Name
	}
	f.companies[company.CIK] = company
	return nil
}

func (f *ledgerFake) UpsertFiling(_ context.Context, ref domain.FilingRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.filings[ref.Accession]; ok {
		return nil
	}
	f.filings[ref.Accession] = &domain.Filing{
		Accession:  ref.Accession,
		CIK:        ref.CIK,
		Type:       ref.Type,
		FilingDate: ref.FilingDate,
		SourceURL:  ref.SourceURL,
		Status:     domain.FilingDiscovered,
	}
	return nil
}

func (f *ledgerFake) FilingsByStatus(_ context.Context, status domain.FilingStatus) ([]domain.Filing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Filing
	for _, filing := range f.filings {
		if filing.Status == status {
			out = append(out, *filing)
		}
	}
	return out, nil
}

func (f *ledgerFake) ClaimFiling(_ context.Context, accession string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	filing, ok := f.filings[accession]
	if !ok || filing.Status != domain.FilingDiscovered {
		return false, nil
	}
	filing.Status = domain.FilingDownloading
	filing.Attempts++
	return true, nil
}

func (f *ledgerFake) MarkValidated(_ context.Context, accession, storagePath, contentHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	filing, ok := f.filings[accession]
	if !ok || filing.Status != domain.FilingDownloading {
		return fmt.Errorf("filing %s not downloading", accession)
	}
	filing.Status = domain.FilingValidated
	filing.StoragePath = storagePath
	filing.ContentHash = contentHash
	f.processing[accession] = &domain.ProcessingState{
		Accession: accession,
		Status:    domain.ProcessingPending,
	}
	return nil
}

func (f *ledgerFake) MarkRejected(_ context.Context, accession, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	filing, ok := f.filings[accession]
	if !ok {
		return fmt.Errorf("filing %s unknown", accession)
	}
	filing.Status = domain.FilingRejected
	filing.Error = reason
	return nil
}

func (f *ledgerFake) ReleaseFiling(_ context.Context, accession string, maxAttempts int, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	filing, ok := f.filings[accession]
	if !ok {
		return fmt.Errorf("filing %s unknown", accession)
	}
	filing.Error = cause
	if filing.Attempts >= maxAttempts {
		filing.Status = domain.FilingFailed
	} else {
		filing.Status = domain.FilingDiscovered
	}
	return nil
}

func (f *ledgerFake) ExtractionCandidates(_ context.Context, latestOnly bool) ([]domain.Filing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLatestOnly = latestOnly

	latest := map[string]string{}
	if latestOnly {
		for _, filing := range f.filings {
			if filing.Status != domain.FilingValidated {
				continue
			}
			if filing.FilingDate > latest[filing.CIK] {
				latest[filing.CIK] = filing.FilingDate
			}
		}
	}

	var out []domain.Filing
	for _, filing := range f.filings {
		if filing.Status != domain.FilingValidated {
			continue
		}
		state, ok := f.processing[filing.Accession]
		if !ok || (state.Status != domain.ProcessingPending && state.Status != domain.ProcessingFailedRetryable) {
			continue
		}
		if latestOnly && filing.FilingDate != latest[filing.CIK] {
			continue
		}
		out = append(out, *filing)
	}
	return out, nil
}

func (f *ledgerFake) ClaimProcessing(_ context.Context, accession string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.processing[accession]
	if !ok || (state.Status != domain.ProcessingPending && state.Status != domain.ProcessingFailedRetryable) {
		return false, nil
	}
	state.Status = domain.ProcessingInProgress
	state.Attempts++
	return true, nil
}

func (f *ledgerFake) SetProcessingResult(_ context.Context, accession string, status domain.ProcessingStatus, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.processing[accession]
	if !ok {
		return fmt.Errorf("processing %s unknown", accession)
	}
	state.Status = status
	state.LastError = lastError
	return nil
}

func (f *ledgerFake) RecordExecutives(_ context.Context, accession string, records []domain.Executive) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	state, ok := f.processing[accession]
	if !ok {
		return fmt.Errorf("processing %s unknown", accession)
	}
	f.executives[accession] = records
	state.Status = domain.ProcessingSucceeded
	state.LastError = ""
	return nil
}

func (f *ledgerFake) ExportRows(_ context.Context) ([]domain.ExportRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ExportRow
	for accession, records := range f.executives {
		filing := f.filings[accession]
		for _, rec := range records {
			out = append(out, domain.ExportRow{
				CompanyName: f.companies[filing.CIK].Name,
				CIK:         filing.CIK,
				FilingDate:  filing.FilingDate,
				Executive:   rec,
			})
		}
	}
	return out, nil
}

func (f *ledgerFake) Recover(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recoverCalls++
	for _, filing := range f.filings {
		if filing.Status == domain.FilingDownloading {
			filing.Status = domain.FilingDiscovered
		}
	}
	for _, state := range f.processing {
		if state.Status == domain.ProcessingInProgress {
			state.Status = domain.ProcessingFailedRetryable
		}
	}
	return nil
}

func (f *ledgerFake) StageCounts(context.Context) (domain.StageCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var counts domain.StageCounts
	for _, filing := range f.filings {
		switch filing.Status {
		case domain.FilingDiscovered:
			counts.Discovered++
		case domain.FilingValidated:
			counts.Validated++
		case domain.FilingRejected:
			counts.Rejected++
		case domain.FilingFailed:
			counts.Failed++
		}
	}
	for _, state := range f.processing {
		switch state.Status {
		case domain.ProcessingSucceeded:
			counts.Succeeded++
		case domain.ProcessingFailedRetryable:
			counts.FailedRetryable++
		case domain.ProcessingFailedPermanent:
			counts.FailedPermanent++
		}
	}
	return counts, nil
}

func (f *ledgerFake) filing(accession string) domain.Filing {
	f.mu.Lock()
	defer f.mu.Unlock()
	filing, ok := f.filings[accession]
	if !ok {
		return domain.Filing{}
	}
	return *filing
}

func (f *ledgerFake) processingState(accession string) domain.ProcessingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.processing[accession]
	if !ok {
		return domain.ProcessingState{}
	}
	return *state
}

type archiveFake struct {
	mu sync.Mutex

	universe    []domain.Company
	universeErr error
	listings    map[string][]domain.FilingRef
	listErrs    map[string]error
	documents   map[string][]byte
	fetchErrs   map[string]error

	fetchCalls map[string]int
}

func (f *archiveFake) CompanyUniverse(context.Context) ([]domain.Company, error) {
	if f.universeErr != nil {
		return nil, f.universeErr
	}
	return f.universe, nil
}

func (f *archiveFake) ListFilings(_ context.Context, cik, _ string) ([]domain.FilingRef, error) {
	if err := f.listErrs[cik]; err != nil {
		return nil, err
	}
	return f.listings[cik], nil
}

func (f *archiveFake) FetchDocument(_ context.Context, ref domain.FilingRef) ([]byte, error) {
	f.mu.Lock()
	if f.fetchCalls == nil {
		f.fetchCalls = map[string]int{}
	}
	f.fetchCalls[ref.Accession]++
	f.mu.Unlock()

	if err := f.fetchErrs[ref.Accession]; err != nil {
		return nil, err
	}
	doc, ok := f.documents[ref.Accession]
	if !ok {
		return nil, errors.New("no document configured")
	}
	return doc, nil
}

func (f *archiveFake) fetches(accession string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls[accession]
}

// validatorFake rejects any document carrying the marker text.
type validatorFake struct{}

func (validatorFake) Validate(raw []byte, _ string) domain.ValidationResult {
	if bytes.Contains(raw, []byte("NOT-A-PROXY")) {
		return domain.ValidationResult{OK: false, Reason: "missing proxy statement markers"}
	}
	return domain.ValidationResult{OK: true}
}

type storeFake struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	openErr error
}

func newStoreFake() *storeFake {
	return &storeFake{files: map[string][]byte{}}
}

func (f *storeFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = raw
	return nil
}

func (f *storeFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("no stored document %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type locatorFake struct {
	spans []domain.TextSpan
	err   error
}

func (f *locatorFake) LocateSections(context.Context, string, string) ([]domain.TextSpan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.spans, nil
}

type executiveExtractorFake struct {
	records []domain.Executive
	err     error
	calls   int
}

func (f *executiveExtractorFake) Extract(context.Context, string, []domain.TextSpan) ([]domain.Executive, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}
