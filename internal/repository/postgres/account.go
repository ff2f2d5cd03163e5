package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
	"github.com/vpopov/accountbook/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `id, created_at, updated_at, user_id, account_number, status, balance, registered_at, unregistered_at, version`

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (user_id, account_number, status, balance, registered_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns

func (r *AccountRepo) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount,
		account.UserID, account.AccountNumber, account.Status, account.Balance, account.RegisteredAt)
	created, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, fmt.Errorf("account number already taken: %w", err)
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getAccountByNumber = `-- name: GetAccountByNumber
SELECT ` + accountColumns + ` FROM accounts
WHERE account_number = $1
`

func (r *AccountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByNumber, number)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const getAccountByID = `-- name: GetAccountByID
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccountByID(ctx context.Context, id int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByID, id)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const listAccountsByUserID = `-- name: ListAccountsByUserID
SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = $1
ORDER BY registered_at DESC, id DESC
`

func (r *AccountRepo) ListAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listAccountsByUserID, userID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

const countAccountsByUserID = `-- name: CountAccountsByUserID
SELECT count(*) FROM accounts
WHERE user_id = $1
`

func (r *AccountRepo) CountAccountsByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx, countAccountsByUserID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

// Balance and lifecycle fields are written only when the caller's version
// still matches the stored row. A row that exists but fails the version
// check yields ErrVersionConflict so the caller can tell a lost race from a
// missing account.
const updateAccount = `-- name: UpdateAccount
UPDATE accounts
SET balance = $1, status = $2, unregistered_at = $3, version = version + 1, updated_at = now()
WHERE id = $4 AND version = $5
RETURNING ` + accountColumns

func (r *AccountRepo) UpdateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateAccount,
		account.Balance, account.Status, account.UnregisteredAt, account.ID, account.Version)
	updated, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, repository.ErrVersionConflict
	default:
		return updated, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.CreatedAt, &a.UpdatedAt,
		&a.UserID, &a.AccountNumber, &a.Status, &a.Balance,
		&a.RegisteredAt, &a.UnregisteredAt, &a.Version,
	)
	return a, err
}
