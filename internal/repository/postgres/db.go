package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"medride/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)

	_ repository.UnitOfWork = (*UnitOfWork)(nil)
)

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UnitOfWork runs callbacks inside a *sql.Tx with tx-scoped repositories.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithinTx begins a transaction, runs fn and commits. Any error or panic
// from fn rolls the transaction back.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&txRepositories{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepositories struct {
	tx *sql.Tx
}

func (t *txRepositories) Bookings() repository.BookingRepository {
	return NewBookingRepositoryWithTx(t.tx)
}

func (t *txRepositories) Drivers() repository.DriverRepository {
	return NewDriverRepositoryWithTx(t.tx)
}

func (t *txRepositories) Locations() repository.LocationRepository {
	return NewLocationRepositoryWithTx(t.tx)
}

func (t *txRepositories) Logs() repository.LogRepository {
	return NewLogRepositoryWithTx(t.tx)
}

func (t *txRepositories) Reports() repository.ReportRepository {
	return NewReportRepositoryWithTx(t.tx)
}

// checkAffected maps a zero-row update to the given error.
func checkAffected(result sql.Result, none error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return none
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
