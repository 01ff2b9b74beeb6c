package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel string

	DatabasePath string
	StoragePath  string

	SECContactEmail    string
	SECBaseURL         string
	SECTickerURL       string
	FilingType         string
	FilingsPerCompany  int
	FetchIntervalMS    int
	FetchTimeoutSec    int
	FetchMaxAttempts   int
	DownloadWorkers    int
	DownloadMaxRetries int

	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeoutSec     int
	LLMRequestsPerMin int
	ExtractionRetries int
	ExtractLatestOnly bool

	RunFile string

	MetricsPort string
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		DatabasePath: mustEnv("DATABASE_PATH", "./def14a_filings/filings.db"),
		StoragePath:  mustEnv("STORAGE_PATH", "./def14a_filings"),

		SECContactEmail:    mustEnv("SEC_CONTACT_EMAIL", ""),
		SECBaseURL:         mustEnv("SEC_BASE_URL", "https://www.sec.gov"),
		SECTickerURL:       mustEnv("SEC_TICKER_URL", "https://www.sec.gov/files/company_tickers.json"),
		FilingType:         mustEnv("FILING_TYPE", "DEF 14A"),
		FilingsPerCompany:  mustEnvInt("FILINGS_PER_COMPANY", 5),
		FetchIntervalMS:    mustEnvInt("FETCH_INTERVAL_MS", 100),
		FetchTimeoutSec:    mustEnvInt("FETCH_TIMEOUT_SECONDS", 30),
		FetchMaxAttempts:   mustEnvInt("FETCH_MAX_ATTEMPTS", 3),
		DownloadWorkers:    mustEnvInt("DOWNLOAD_WORKERS", 4),
		DownloadMaxRetries: mustEnvInt("DOWNLOAD_MAX_RETRIES", 3),

		LLMBaseURL:        mustEnv("LLM_BASE_URL", "https://api.deepseek.com"),
		LLMAPIKey:         mustEnv("LLM_API_KEY", ""),
		LLMModel:          mustEnv("LLM_MODEL", "deepseek-chat"),
		LLMTimeoutSec:     mustEnvInt("LLM_TIMEOUT_SECONDS", 120),
		LLMRequestsPerMin: mustEnvInt("LLM_REQUESTS_PER_MINUTE", 30),
		ExtractionRetries: mustEnvInt("EXTRACTION_SCHEMA_RETRIES", 2),
		ExtractLatestOnly: mustEnvBool("EXTRACT_LATEST_ONLY", true),

		RunFile: mustEnv("RUN_FILE", ""),

		MetricsPort: mustEnv("METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
