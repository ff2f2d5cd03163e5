package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, created_at, updated_at, transaction_id, account_id, type, result, amount, balance_snapshot, transacted_at`

const saveTransaction = `-- name: SaveTransaction
INSERT INTO transactions (transaction_id, account_id, type, result, amount, balance_snapshot, transacted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + transactionColumns

func (r *TransactionRepo) SaveTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, saveTransaction,
		transaction.TransactionID, transaction.AccountID, transaction.Type, transaction.Result,
		transaction.Amount, transaction.BalanceSnapshot, transaction.TransactedAt)
	saved, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const getTransactionByID = `-- name: GetTransactionByID
SELECT ` + transactionColumns + ` FROM transactions
WHERE transaction_id = $1
`

func (r *TransactionRepo) GetTransactionByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransactionByID, transactionID)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return transaction, nil
	case errors.Is(err, pgx.ErrNoRows):
		return transaction, apperrors.ErrTransactionNotFound
	default:
		return transaction, fmt.Errorf("db error: %w", err)
	}
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt,
		&t.TransactionID, &t.AccountID, &t.Type, &t.Result,
		&t.Amount, &t.BalanceSnapshot, &t.TransactedAt,
	)
	return t, err
}
