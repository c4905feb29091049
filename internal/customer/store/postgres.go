package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/sentinel"
	txcontext "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists customers in PostgreSQL. Writes join the transaction
// carried in ctx.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed customer store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts a customer with version 0 or updates one whose version matches
// the stored row. The customer's version is advanced on success.
func (s *PostgresStore) Save(ctx context.Context, c *models.Customer) error {
	r := toRecord(c)
	exec := txcontext.Exec(ctx, s.db)

	if c.Version() == 0 {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO customers (id, email, status, created_at, updated_at, deleted_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, 1)
		`, r.ID, r.Email, r.Status, r.CreatedAt, r.UpdatedAt, r.DeletedAt)
		if err != nil {
			return translateWriteError("insert customer", err)
		}
		c.SetVersion(1)
		return nil
	}

	res, err := exec.ExecContext(ctx, `
		UPDATE customers
		SET email = $2, status = $3, updated_at = $4, deleted_at = $5, version = version + 1
		WHERE id = $1 AND version = $6
	`, r.ID, r.Email, r.Status, r.UpdatedAt, r.DeletedAt, r.Version)
	if err != nil {
		return translateWriteError("update customer", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update customer %s at version %d: %w", r.ID, r.Version, sentinel.ErrConflict)
	}
	c.SetVersion(r.Version + 1)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CustomerID) (*models.Customer, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, email, status, created_at, updated_at, deleted_at, version
		FROM customers WHERE id = $1
	`, id.String())
	return scanCustomer(row)
}

// FindByEmail matches live customers only.
func (s *PostgresStore) FindByEmail(ctx context.Context, email models.Email) (*models.Customer, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, email, status, created_at, updated_at, deleted_at, version
		FROM customers WHERE email = $1 AND deleted_at IS NULL
	`, email.String())
	return scanCustomer(row)
}

func scanCustomer(row *sql.Row) (*models.Customer, error) {
	var (
		r         record
		deletedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Email, &r.Status, &r.CreatedAt, &r.UpdatedAt, &deletedAt, &r.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	if deletedAt.Valid {
		r.DeletedAt = &deletedAt.Time
	}
	return r.toCustomer()
}

func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "customers_pkey" {
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
