package domain

import (
	"strings"
	"time"
)

type FilingStatus string

const (
	FilingDiscovered  FilingStatus = "discovered"
	FilingDownloading FilingStatus = "downloading"
	FilingValidated   FilingStatus = "validated"
	FilingRejected    FilingStatus = "rejected"
	FilingFailed      FilingStatus = "failed"
)

type ProcessingStatus string

const (
	ProcessingPending         ProcessingStatus = "pending"
	ProcessingInProgress      ProcessingStatus = "in_progress"
	ProcessingSucceeded       ProcessingStatus = "succeeded"
	ProcessingFailedRetryable ProcessingStatus = "failed_retryable"
	ProcessingFailedPermanent ProcessingStatus = "failed_permanent"
)

type Company struct {
	CIK       string    `json:"cik"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FilingRef is what the archive listing yields before anything is persisted.
type FilingRef struct {
	CIK        string `json:"cik"`
	Accession  string `json:"accession"`
	Type       string `json:"type"`
	FilingDate string `json:"filing_date"`
	SourceURL  string `json:"source_url"`
}

type Filing struct {
	Accession   string       `json:"accession"`
	CIK         string       `json:"cik"`
	Type        string       `json:"type"`
	FilingDate  string       `json:"filing_date"`
	SourceURL   string       `json:"source_url"`
	StoragePath string       `json:"storage_path,omitempty"`
	ContentHash string       `json:"content_hash,omitempty"`
	Status      FilingStatus `json:"status"`
	Attempts    int          `json:"attempts"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DocumentKey builds the storage key for one filing document. The
// cik_accession.htm convention is the only contract between the download and
// extraction stages besides the ledger.
func DocumentKey(cik, accession string) string {
	return cik + "_" + strings.ReplaceAll(accession, "/", "-") + ".htm"
}

type ProcessingState struct {
	Accession string           `json:"accession"`
	Status    ProcessingStatus `json:"status"`
	Attempts  int              `json:"attempts"`
	LastError string           `json:"last_error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ValidationResult classifies downloaded content as usable or not. Reason is
// human-readable and only meaningful when OK is false.
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// StageCounts reports terminal-state totals for a completed run.
type StageCounts struct {
	Discovered      int `json:"discovered"`
	Validated       int `json:"validated"`
	Rejected        int `json:"rejected"`
	Failed          int `json:"failed"`
	Succeeded       int `json:"succeeded"`
	FailedRetryable int `json:"failed_retryable"`
	FailedPermanent int `json:"failed_permanent"`
}
