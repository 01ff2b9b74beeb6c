package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesFetchDefaults(t *testing.T) {
	t.Setenv("FETCH_INTERVAL_MS", "")
	t.Setenv("FETCH_MAX_ATTEMPTS", "")
	t.Setenv("DOWNLOAD_WORKERS", "")
	t.Setenv("FILING_TYPE", "")

	cfg := Load()
	if cfg.FetchIntervalMS != 100 {
		t.Fatalf("expected default fetch interval 100ms, got %d", cfg.FetchIntervalMS)
	}
	if cfg.FetchMaxAttempts != 3 {
		t.Fatalf("expected default fetch attempts 3, got %d", cfg.FetchMaxAttempts)
	}
	if cfg.DownloadWorkers != 4 {
		t.Fatalf("expected default worker count 4, got %d", cfg.DownloadWorkers)
	}
	if cfg.FilingType != "DEF 14A" {
		t.Fatalf("expected default filing type DEF 14A, got %q", cfg.FilingType)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("FETCH_INTERVAL_MS", "250")
	t.Setenv("EXTRACT_LATEST_ONLY", "false")
	t.Setenv("LLM_MODEL", "deepseek-reasoner")

	cfg := Load()
	if cfg.FetchIntervalMS != 250 {
		t.Fatalf("expected fetch interval 250, got %d", cfg.FetchIntervalMS)
	}
	if cfg.ExtractLatestOnly {
		t.Fatalf("expected latest-only override to false")
	}
	if cfg.LLMModel != "deepseek-reasoner" {
		t.Fatalf("expected model override, got %q", cfg.LLMModel)
	}
}

func TestLoadRunFileParsesCompaniesAndMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `companies:
  - cik: "320193"
    name: Apple Inc.
  - cik: "0000789019"
    name: Microsoft Corp
markers:
  relaxed:
    - compensation
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write run file: %v", err)
	}

	rf, err := LoadRunFile(path)
	if err != nil {
		t.Fatalf("LoadRunFile() error = %v", err)
	}
	ciks := rf.CIKs()
	if len(ciks) != 2 {
		t.Fatalf("expected 2 ciks, got %d", len(ciks))
	}
	if ciks[0] != "0000320193" {
		t.Fatalf("expected zero-padded cik, got %q", ciks[0])
	}
	if len(rf.Markers.Relaxed) != 1 {
		t.Fatalf("expected relaxed marker set, got %+v", rf.Markers)
	}
}

func TestLoadRunFileEmptyPath(t *testing.T) {
	rf, err := LoadRunFile("")
	if err != nil {
		t.Fatalf("LoadRunFile(\"\") error = %v", err)
	}
	if len(rf.CIKs()) != 0 {
		t.Fatalf("expected empty company list")
	}
}
