package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"perpgate/src/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

func TestCredentialRepositoryLookup(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &GormCredentialRepository{db: mockDB}

	createdAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "user_id", "exchange", "key_enc", "secret_enc", "created_at", "updated_at"}).
			AddRow(1, 7, model.ExchangeBinance, "enc-key", "enc-secret", createdAt, createdAt)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_credentials" WHERE user_id = $1 AND exchange = $2 ORDER BY "user_credentials"."id" LIMIT $3`)).
			WithArgs(uint(7), model.ExchangeBinance, 1).
			WillReturnRows(rows)

		cred, err := repo.Credentials(context.Background(), 7, model.ExchangeBinance)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cred == nil || cred.KeyEnc != "enc-key" || cred.SecretEnc != "enc-secret" {
			t.Fatalf("unexpected credential: %+v", cred)
		}
	})

	t.Run("missing is nil not error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_credentials" WHERE user_id = $1 AND exchange = $2 ORDER BY "user_credentials"."id" LIMIT $3`)).
			WithArgs(uint(7), model.ExchangeAevo, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		cred, err := repo.Credentials(context.Background(), 7, model.ExchangeAevo)
		if err != nil {
			t.Fatalf("expected nil error for missing credential, got %v", err)
		}
		if cred != nil {
			t.Fatalf("expected nil credential, got %+v", cred)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestCredentialRepositoryDelete(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &GormCredentialRepository{db: mockDB}

	t.Run("deletes existing row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "user_credentials" WHERE user_id = $1 AND exchange = $2`)).
			WithArgs(uint(7), model.ExchangeBinance).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := repo.Delete(context.Background(), 7, model.ExchangeBinance); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing row is ErrRecordNotFound", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "user_credentials" WHERE user_id = $1 AND exchange = $2`)).
			WithArgs(uint(7), model.ExchangeAevo).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		if err := repo.Delete(context.Background(), 7, model.ExchangeAevo); err != gorm.ErrRecordNotFound {
			t.Fatalf("expected gorm.ErrRecordNotFound, got %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
