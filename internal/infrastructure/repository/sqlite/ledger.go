package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// Ledger is the persistent progress record shared by the download and
// extraction stages. Claims are single-UPDATE transitions, so two workers can
// never hold the same filing.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	// Single writer; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS companies (
	cik TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS filings (
	accession TEXT PRIMARY KEY,
	cik TEXT NOT NULL REFERENCES companies(cik),
	type TEXT NOT NULL,
	filing_date TEXT NOT NULL,
	source_url TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_filings_status ON filings(status);
CREATE INDEX IF NOT EXISTS idx_filings_cik ON filings(cik);

CREATE TABLE IF NOT EXISTS processing (
	accession TEXT PRIMARY KEY REFERENCES filings(accession),
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processing_status ON processing(status);

CREATE TABLE IF NOT EXISTS executives (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	accession TEXT NOT NULL REFERENCES filings(accession),
	name TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (accession, name)
);
`
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

func (l *Ledger) UpsertCompany(ctx context.Context, company domain.Company) error {
	now := time.Now().UTC()
	_, err := l.db.ExecContext(ctx, `
INSERT INTO companies (cik, name, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (cik) DO UPDATE SET
	name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE companies.name END,
	updated_at = excluded.updated_at
`, company.CIK, company.Name, now, now)
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", company.CIK, err)
	}
	return nil
}

func (l *Ledger) UpsertFiling(ctx context.Context, ref domain.FilingRef) error {
	now := time.Now().UTC()
	// A conflicting row keeps its status: terminal states stay terminal and
	// re-discovery never duplicates work.
	_, err := l.db.ExecContext(ctx, `
INSERT INTO filings (accession, cik, type, filing_date, source_url, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (accession) DO UPDATE SET
	source_url = excluded.source_url,
	updated_at = excluded.updated_at
`, ref.Accession, ref.CIK, ref.Type, ref.FilingDate, ref.SourceURL, string(domain.FilingDiscovered), now, now)
	if err != nil {
		return fmt.Errorf("upsert filing %s: %w", ref.Accession, err)
	}
	return nil
}

func (l *Ledger) FilingsByStatus(ctx context.Context, status domain.FilingStatus) ([]domain.Filing, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT accession, cik, type, filing_date, source_url, storage_path, content_hash, status, attempts, error_message, created_at, updated_at
FROM filings
WHERE status = ?
ORDER BY cik, filing_date DESC
`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list filings by status: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Filing, 0)
	for rows.Next() {
		filing, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, filing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filings: %w", err)
	}
	return out, nil
}

func (l *Ledger) ClaimFiling(ctx context.Context, accession string) (bool, error) {
	result, err := l.db.ExecContext(ctx, `
UPDATE filings
SET status = ?, attempts = attempts + 1, updated_at = ?
WHERE accession = ? AND status = ?
`, string(domain.FilingDownloading), time.Now().UTC(), accession, string(domain.FilingDiscovered))
	if err != nil {
		return false, fmt.Errorf("claim filing %s: %w", accession, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim filing rows affected: %w", err)
	}
	return rows == 1, nil
}

// MarkValidated stores the document location and hash, advances the filing to
// validated and creates its processing row, all in one transaction.
func (l *Ledger) MarkValidated(ctx context.Context, accession, storagePath, contentHash string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin validated tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
UPDATE filings
SET status = ?, storage_path = ?, content_hash = ?, error_message = '', updated_at = ?
WHERE accession = ? AND status = ?
`, string(domain.FilingValidated), storagePath, contentHash, now, accession, string(domain.FilingDownloading))
	if err != nil {
		return fmt.Errorf("mark filing validated: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark validated rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("filing not in downloading state: %s", accession)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO processing (accession, status, attempts, created_at, updated_at)
VALUES (?, ?, 0, ?, ?)
ON CONFLICT (accession) DO NOTHING
`, accession, string(domain.ProcessingPending), now, now); err != nil {
		return fmt.Errorf("create processing row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit validated tx: %w", err)
	}
	return nil
}

func (l *Ledger) MarkRejected(ctx context.Context, accession, reason string) error {
	result, err := l.db.ExecContext(ctx, `
UPDATE filings
SET status = ?, error_message = ?, updated_at = ?
WHERE accession = ? AND status = ?
`, string(domain.FilingRejected), reason, time.Now().UTC(), accession, string(domain.FilingDownloading))
	if err != nil {
		return fmt.Errorf("mark filing rejected: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark rejected rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("filing not in downloading state: %s", accession)
	}
	return nil
}

func (l *Ledger) ReleaseFiling(ctx context.Context, accession string, maxAttempts int, cause string) error {
	result, err := l.db.ExecContext(ctx, `
UPDATE filings
SET status = CASE WHEN attempts >= ? THEN ? ELSE ? END, error_message = ?, updated_at = ?
WHERE accession = ? AND status = ?
`, maxAttempts, string(domain.FilingFailed), string(domain.FilingDiscovered),
		cause, time.Now().UTC(), accession, string(domain.FilingDownloading))
	if err != nil {
		return fmt.Errorf("release filing %s: %w", accession, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("release filing rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("filing not in downloading state: %s", accession)
	}
	return nil
}

func (l *Ledger) ExtractionCandidates(ctx context.Context, latestOnly bool) ([]domain.Filing, error) {
	query := `
SELECT accession, cik, type, filing_date, source_url, storage_path, content_hash, status, attempts, error_message, created_at, updated_at
FROM (
	SELECT f.accession, f.cik, f.type, f.filing_date, f.source_url, f.storage_path, f.content_hash,
		f.status, f.attempts, f.error_message, f.created_at, f.updated_at,
		p.status AS processing_status,
		ROW_NUMBER() OVER (PARTITION BY f.cik ORDER BY f.filing_date DESC) AS rn
	FROM filings f
	JOIN processing p ON p.accession = f.accession
	WHERE f.status = ?
)
WHERE processing_status IN (?, ?)
`
	if latestOnly {
		query += "AND rn = 1\n"
	}
	query += "ORDER BY cik, filing_date DESC"

	rows, err := l.db.QueryContext(ctx, query,
		string(domain.FilingValidated), string(domain.ProcessingPending), string(domain.ProcessingFailedRetryable))
	if err != nil {
		return nil, fmt.Errorf("list extraction candidates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Filing, 0)
	for rows.Next() {
		filing, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, filing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

func (l *Ledger) ClaimProcessing(ctx context.Context, accession string) (bool, error) {
	result, err := l.db.ExecContext(ctx, `
UPDATE processing
SET status = ?, attempts = attempts + 1, updated_at = ?
WHERE accession = ? AND status IN (?, ?)
`, string(domain.ProcessingInProgress), time.Now().UTC(), accession,
		string(domain.ProcessingPending), string(domain.ProcessingFailedRetryable))
	if err != nil {
		return false, fmt.Errorf("claim processing %s: %w", accession, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim processing rows affected: %w", err)
	}
	return rows == 1, nil
}

func (l *Ledger) SetProcessingResult(ctx context.Context, accession string, status domain.ProcessingStatus, lastError string) error {
	result, err := l.db.ExecContext(ctx, `
UPDATE processing
SET status = ?, last_error = ?, updated_at = ?
WHERE accession = ?
`, string(status), lastError, time.Now().UTC(), accession)
	if err != nil {
		return fmt.Errorf("set processing result: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set processing result rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("processing row not found: %s", accession)
	}
	return nil
}

// RecordExecutives replaces the filing's executive rows and marks processing
// succeeded atomically. Re-running an extraction can therefore never leave a
// mix of old and new records behind.
func (l *Ledger) RecordExecutives(ctx context.Context, accession string, records []domain.Executive) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin executives tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `DELETE FROM executives WHERE accession = ?`, accession); err != nil {
		return fmt.Errorf("clear executives: %w", err)
	}

	for _, record := range records {
		record.Accession = accession
		record.CreatedAt = now
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal executive %q: %w", record.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO executives (accession, name, data, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (accession, name) DO UPDATE SET data = excluded.data
`, accession, record.Name, string(data), now); err != nil {
			return fmt.Errorf("insert executive %q: %w", record.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE processing
SET status = ?, last_error = '', updated_at = ?
WHERE accession = ?
`, string(domain.ProcessingSucceeded), now, accession); err != nil {
		return fmt.Errorf("mark processing succeeded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit executives tx: %w", err)
	}
	return nil
}

func (l *Ledger) ExportRows(ctx context.Context) ([]domain.ExportRow, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT c.name, f.cik, f.filing_date, e.data
FROM executives e
JOIN filings f ON f.accession = e.accession
JOIN companies c ON c.cik = f.cik
ORDER BY c.name, f.filing_date DESC, e.name
`)
	if err != nil {
		return nil, fmt.Errorf("list export rows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExportRow, 0)
	for rows.Next() {
		var row domain.ExportRow
		var data []byte
		if err := rows.Scan(&row.CompanyName, &row.CIK, &row.FilingDate, &data); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		if err := json.Unmarshal(data, &row.Executive); err != nil {
			return nil, fmt.Errorf("unmarshal executive data: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}
	return out, nil
}

// Recover sweeps work left mid-flight by an interrupted run back to claimable
// states. Attempt counts are left as the claim set them.
func (l *Ledger) Recover(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recover tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
UPDATE filings SET status = ?, updated_at = ? WHERE status = ?
`, string(domain.FilingDiscovered), now, string(domain.FilingDownloading)); err != nil {
		return fmt.Errorf("recover downloading filings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE processing SET status = ?, last_error = 'interrupted', updated_at = ? WHERE status = ?
`, string(domain.ProcessingFailedRetryable), now, string(domain.ProcessingInProgress)); err != nil {
		return fmt.Errorf("recover in-progress processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recover tx: %w", err)
	}
	return nil
}

func (l *Ledger) StageCounts(ctx context.Context) (domain.StageCounts, error) {
	var counts domain.StageCounts

	rows, err := l.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM filings GROUP BY status`)
	if err != nil {
		return counts, fmt.Errorf("count filings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan filing count: %w", err)
		}
		switch domain.FilingStatus(status) {
		case domain.FilingDiscovered, domain.FilingDownloading:
			counts.Discovered += n
		case domain.FilingValidated:
			counts.Validated = n
		case domain.FilingRejected:
			counts.Rejected = n
		case domain.FilingFailed:
			counts.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("iterate filing counts: %w", err)
	}

	procRows, err := l.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM processing GROUP BY status`)
	if err != nil {
		return counts, fmt.Errorf("count processing: %w", err)
	}
	defer procRows.Close()
	for procRows.Next() {
		var status string
		var n int
		if err := procRows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan processing count: %w", err)
		}
		switch domain.ProcessingStatus(status) {
		case domain.ProcessingSucceeded:
			counts.Succeeded = n
		case domain.ProcessingFailedRetryable:
			counts.FailedRetryable = n
		case domain.ProcessingFailedPermanent:
			counts.FailedPermanent = n
		}
	}
	if err := procRows.Err(); err != nil {
		return counts, fmt.Errorf("iterate processing counts: %w", err)
	}

	return counts, nil
}

type filingScanner interface {
	Scan(dest ...interface{}) error
}

func scanFiling(row filingScanner) (domain.Filing, error) {
	var filing domain.Filing
	var status string
	err := row.Scan(
		&filing.Accession,
		&filing.CIK,
		&filing.Type,
		&filing.FilingDate,
		&filing.SourceURL,
		&filing.StoragePath,
		&filing.ContentHash,
		&status,
		&filing.Attempts,
		&filing.Error,
		&filing.CreatedAt,
		&filing.UpdatedAt,
	)
	if err != nil {
		return domain.Filing{}, fmt.Errorf("scan filing: %w", err)
	}
	filing.Status = domain.FilingStatus(status)
	return filing, nil
}
