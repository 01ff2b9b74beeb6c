package sqlite

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

func TestSetProcessingResultReturnsErrorWhenNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	ledger := NewLedger(db)
	mock.ExpectExec("UPDATE processing").
		WithArgs(string(domain.ProcessingFailedPermanent), "no section", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ledger.SetProcessingResult(context.Background(), "missing", domain.ProcessingFailedPermanent, "no section")
	if err == nil {
		t.Fatalf("expected error for unknown accession")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordExecutivesRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	ledger := NewLedger(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM executives").
		WithArgs("acc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO executives").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err = ledger.RecordExecutives(context.Background(), "acc-1", []domain.Executive{{Name: "John Smith"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
