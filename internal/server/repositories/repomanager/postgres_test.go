package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestPostgresRepositoryManager_ImplementsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ RepositoryManager = NewPostgresRepositoryManager(db)
	var _ RepositoryManager = NewMemoryRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager(db)

	if u := m.Users(); u == nil {
		t.Fatal("Users() nil")
	}
	if _, ok := m.Tokens().(*tokens.PostgresRepository); !ok {
		t.Fatalf("Tokens() = %T, want *tokens.PostgresRepository", m.Tokens())
	}
}

func TestWithTokenStore_OverridesTokens(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	store := tokens.NewMemoryRepository()
	m := NewPostgresRepositoryManager(db, WithTokenStore(store))

	if m.Tokens() != store {
		t.Fatal("Tokens() did not return the override")
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if repos.Tokens() != store {
			t.Error("tx Tokens() did not return the override")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTx_CommitsBothWrites(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+tokens`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+tokens`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if err := repos.Tokens().Create(ctx, models.NewToken("u1", "a", models.TokenKindAccess, now, time.Minute)); err != nil {
			return err
		}
		return repos.Tokens().Create(ctx, models.NewToken("u1", "r", models.TokenKindRefresh, now, time.Hour))
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTx_RollsBackOnSecondWriteFailure(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+tokens`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+tokens`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if err := repos.Tokens().Create(ctx, models.NewToken("u1", "a", models.TokenKindAccess, now, time.Minute)); err != nil {
			return err
		}
		return repos.Tokens().Create(ctx, models.NewToken("u1", "r", models.TokenKindRefresh, now, time.Hour))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	called := false
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		if got != db {
			return errors.New("unexpected db")
		}
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}

	if err := NewPostgresRepositoryManager(db).RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if !called {
		t.Fatal("goose was not invoked")
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	wantErr := errors.New("boom")
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return wantErr
	}

	if err := NewPostgresRepositoryManager(db).RunMigrations(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}

func TestClose_ClosesPool(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectClose()

	if err := NewPostgresRepositoryManager(db).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
