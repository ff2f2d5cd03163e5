package repository

import (
	"context"
	"errors"

	"github.com/vpopov/accountbook/internal/models"
)

// ErrVersionConflict is returned by UpdateAccount when the stored row version
// differs from the one the caller loaded. It signals a lost concurrent
// update, not a domain failure, and the operation may be retried.
var ErrVersionConflict = errors.New("account version conflict")

// User repository interface
type UserRepo interface {
	// Create user with the given display name
	CreateUser(ctx context.Context, name string) (models.AccountUser, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.AccountUser, error)
}

// Account repository interface
type AccountRepo interface {
	// Create account as given, the generated id is set on the returned copy
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)

	// Get account by its globally unique number or row id
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccountByNumber(ctx context.Context, number string) (models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (models.Account, error)

	// List accounts owned by user, newest first
	ListAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error)

	// Count accounts owned by user regardless of status
	CountAccountsByUserID(ctx context.Context, userID int64) (int64, error)

	// Persist balance, status and unregistered_at of an already loaded
	// account. The write applies only when account.Version still matches the
	// stored row; on mismatch must return ErrVersionConflict. The returned
	// copy carries the bumped version.
	UpdateAccount(ctx context.Context, account models.Account) (models.Account, error)
}

// Transaction repository interface. Transactions are append-only: there is
// deliberately no update or delete.
type TransactionRepo interface {
	// Append transaction, the generated row id is set on the returned copy
	SaveTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error)

	// Get transaction by its opaque token
	// If not found must return apperrors.ErrTransactionNotFound
	GetTransactionByID(ctx context.Context, transactionID string) (models.Transaction, error)
}

// Storage bundles the repositories over one database handle.
type Storage interface {
	User() UserRepo
	Account() AccountRepo
	Transaction() TransactionRepo

	// InTx runs fn against a Storage bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
