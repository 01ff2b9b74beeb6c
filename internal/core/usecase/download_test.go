package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

func ref(cik, accession, date string) domain.FilingRef {
	return domain.FilingRef{
		CIK:        cik,
		Accession:  accession,
		Type:       "DEF 14A",
		FilingDate: date,
		SourceURL:  "https://archive.example/" + accession + "-index.htm",
	}
}

func TestDownloadRunValidatesAndRejects(t *testing.T) {
	ledger := newLedgerFake()
	store := newStoreFake()
	archive := &archiveFake{
		universe: []domain.Company{{CIK: "0000320193", Name: "Apple Inc."}},
		listings: map[string][]domain.FilingRef{
			"0000320193": {
				ref("0000320193", "acc-good", "2024-01-05"),
				ref("0000320193", "acc-bad", "2023-01-12"),
			},
		},
		documents: map[string][]byte{
			"acc-good": []byte("<html><body>NOTICE OF ANNUAL MEETING AND PROXY STATEMENT</body></html>"),
			"acc-bad":  []byte("<html><body>NOT-A-PROXY</body></html>"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, store, nil, nil, DownloadConfig{
		Workers:     2,
		MaxAttempts: 3,
	})
	counts, err := uc.Run(context.Background(), []string{"0000320193"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if counts.Validated != 1 || counts.Rejected != 1 || counts.Failed != 0 {
		t.Fatalf("counts = %+v", counts)
	}

	good := ledger.filing("acc-good")
	if good.Status != domain.FilingValidated {
		t.Errorf("good filing status = %s", good.Status)
	}
	if good.StoragePath != "0000320193_acc-good.htm" {
		t.Errorf("storage path = %q", good.StoragePath)
	}
	if good.ContentHash == "" {
		t.Error("content hash empty after validation")
	}
	if _, ok := store.files[good.StoragePath]; !ok {
		t.Error("validated document missing from storage")
	}
	if state := ledger.processingState("acc-good"); state.Status != domain.ProcessingPending {
		t.Errorf("processing status = %s, want pending", state.Status)
	}

	bad := ledger.filing("acc-bad")
	if bad.Status != domain.FilingRejected {
		t.Errorf("bad filing status = %s", bad.Status)
	}
	if bad.Error == "" {
		t.Error("rejection reason not recorded")
	}
	if state := ledger.processingState("acc-bad"); state.Status != "" {
		t.Errorf("rejected filing grew a processing row: %+v", state)
	}

	if ledger.companies["0000320193"].Name != "Apple Inc." {
		t.Errorf("company name = %q", ledger.companies["0000320193"].Name)
	}
}

func TestDownloadRunRetriesFetchUntilCeiling(t *testing.T) {
	ledger := newLedgerFake()
	archive := &archiveFake{
		listings: map[string][]domain.FilingRef{
			"0000000001": {ref("0000000001", "acc-flaky", "2024-02-02")},
		},
		fetchErrs: map[string]error{
			"acc-flaky": errors.New("connection reset"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, newStoreFake(), nil, nil, DownloadConfig{
		Workers:     1,
		MaxAttempts: 3,
	})
	counts, err := uc.Run(context.Background(), []string{"0000000001"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if counts.Failed != 1 {
		t.Fatalf("counts = %+v, want one failed filing", counts)
	}
	filing := ledger.filing("acc-flaky")
	if filing.Status != domain.FilingFailed {
		t.Errorf("status = %s", filing.Status)
	}
	if filing.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", filing.Attempts)
	}
	if got := archive.fetches("acc-flaky"); got != 3 {
		t.Errorf("fetch calls = %d, want 3", got)
	}
	if filing.Error == "" {
		t.Error("failure cause not recorded")
	}
}

func TestDownloadRunIsolatesListingFailures(t *testing.T) {
	ledger := newLedgerFake()
	archive := &archiveFake{
		listings: map[string][]domain.FilingRef{
			"0000000002": {ref("0000000002", "acc-ok", "2024-03-03")},
		},
		listErrs: map[string]error{
			"0000000001": errors.New("listing unavailable"),
		},
		documents: map[string][]byte{
			"acc-ok": []byte("proxy statement body"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, newStoreFake(), nil, nil, DownloadConfig{
		Workers: 1,
	})
	counts, err := uc.Run(context.Background(), []string{"0000000001", "0000000002"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counts.Validated != 1 {
		t.Fatalf("counts = %+v, want the second company's filing validated", counts)
	}
}

func TestDownloadRunRecoversInterruptedWork(t *testing.T) {
	ledger := newLedgerFake()
	ledger.filings["acc-stuck"] = &domain.Filing{
		Accession:  "acc-stuck",
		CIK:        "0000000003",
		Type:       "DEF 14A",
		FilingDate: "2024-04-04",
		Status:     domain.FilingDownloading,
		Attempts:   1,
	}
	archive := &archiveFake{
		documents: map[string][]byte{
			"acc-stuck": []byte("proxy statement body"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, newStoreFake(), nil, nil, DownloadConfig{
		Workers: 1,
	})
	counts, err := uc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if ledger.recoverCalls != 1 {
		t.Errorf("recover calls = %d, want 1", ledger.recoverCalls)
	}
	if counts.Validated != 1 {
		t.Fatalf("counts = %+v, want the recovered filing validated", counts)
	}
}

func TestDownloadRunDefaultsToFullUniverse(t *testing.T) {
	ledger := newLedgerFake()
	archive := &archiveFake{
		universe: []domain.Company{{CIK: "0000000005", Name: "Widgets Corp"}},
		listings: map[string][]domain.FilingRef{
			"0000000005": {ref("0000000005", "acc-widget", "2024-06-06")},
		},
		documents: map[string][]byte{
			"acc-widget": []byte("proxy statement body"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, newStoreFake(), nil, nil, DownloadConfig{
		Workers: 1,
	})
	counts, err := uc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counts.Validated != 1 {
		t.Fatalf("counts = %+v, want the universe company's filing validated", counts)
	}
}

func TestDownloadRunContinuesWithoutCompanyUniverse(t *testing.T) {
	ledger := newLedgerFake()
	archive := &archiveFake{
		universeErr: errors.New("ticker file unavailable"),
		listings: map[string][]domain.FilingRef{
			"0000000004": {ref("0000000004", "acc-anon", "2024-05-05")},
		},
		documents: map[string][]byte{
			"acc-anon": []byte("proxy statement body"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, newStoreFake(), nil, nil, DownloadConfig{
		Workers: 1,
	})
	counts, err := uc.Run(context.Background(), []string{"0000000004"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counts.Validated != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if name := ledger.companies["0000000004"].Name; name != "" {
		t.Errorf("company name = %q, want empty without the universe", name)
	}
}

func TestDownloadRunErrorsWhenClaimsMakeNoProgress(t *testing.T) {
	ledger := newLedgerFake()
	ledger.claimErr = errors.New("database is locked")
	archive := &archiveFake{
		universe: []domain.Company{{CIK: "0000320193", Name: "Apple Inc."}},
		listings: map[string][]domain.FilingRef{
			"0000320193": {ref("0000320193", "acc-stuck", "2024-01-05")},
		},
		documents: map[string][]byte{
			"acc-stuck": []byte("<html><body>NOTICE OF ANNUAL MEETING AND PROXY STATEMENT</body></html>"),
		},
	}

	uc := NewDownloadFilingsUseCase(ledger, archive, validatorFake{}, newStoreFake(), nil, nil, DownloadConfig{
		Workers:     2,
		MaxAttempts: 3,
	})
	_, err := uc.Run(context.Background(), []string{"0000320193"})
	if err == nil {
		t.Fatal("Run returned nil, want an error when no filing can be claimed")
	}

	// The filing must stay claimable for a later run with a healthy ledger.
	if got := ledger.filing("acc-stuck"); got.Status != domain.FilingDiscovered || got.Attempts != 0 {
		t.Fatalf("filing = %+v, want untouched discovered", got)
	}
}
