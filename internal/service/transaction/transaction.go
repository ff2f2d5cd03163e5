// Package transaction implements debiting account balances, reversing prior
// debits and querying the resulting ledger. Every attempted mutation leaves
// an append-only transaction row; the balance write and the ledger append
// commit as one storage transaction.
package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
	"github.com/vpopov/accountbook/internal/repository"
)

type Service struct {
	storage repository.Storage

	// Both are replaceable in tests
	now      func() time.Time
	newToken func() string
}

func NewService(storage repository.Storage) *Service {
	return &Service{
		storage:  storage,
		now:      time.Now,
		newToken: newToken,
	}
}

// Result is what the presentation layer gets back for every operation.
type Result struct {
	AccountNumber   string
	TransactionType string
	Result          string
	TransactionID   string
	Amount          int64
	BalanceSnapshot int64
	TransactedAt    time.Time
}

// UseBalance debits amount from the user's account and appends a
// USE/SUCCESS row with the post-debit balance.
//
// Preconditions are checked in order and the first failure wins: user
// exists, account exists, the account belongs to the user, the account is
// still in use, amount does not exceed the balance. No ledger row is
// written for a precondition failure.
func (s *Service) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (Result, error) {
	var result Result

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		account, err := store.Account().GetAccountByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if account.UserID != user.ID {
			return apperrors.ErrUserAccountMismatch
		}
		if account.Status != models.AccountStatusInUse {
			return apperrors.ErrAccountAlreadyUnregistered
		}

		if err := account.UseBalance(amount); err != nil {
			return err
		}

		account, err = store.Account().UpdateAccount(ctx, account)
		if err != nil {
			return fmt.Errorf("can't persist debited balance: %w", err)
		}

		saved, err := store.Transaction().SaveTransaction(ctx, models.Transaction{
			TransactionID:   s.newToken(),
			AccountID:       account.ID,
			Type:            models.TransactionTypeUse,
			Result:          models.TransactionResultSuccess,
			Amount:          amount,
			BalanceSnapshot: account.Balance,
			TransactedAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("can't save transaction: %w", err)
		}

		result = resultOf(saved, account.AccountNumber)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// SaveFailedUseTransaction records a debit attempt that failed for
// operational reasons. The snapshot is the account's current balance, which
// the failed attempt never changed. Precondition rejections are not
// recorded through here.
func (s *Service) SaveFailedUseTransaction(ctx context.Context, accountNumber string, amount int64) error {
	account, err := s.storage.Account().GetAccountByNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	_, err = s.storage.Transaction().SaveTransaction(ctx, models.Transaction{
		TransactionID:   s.newToken(),
		AccountID:       account.ID,
		Type:            models.TransactionTypeUse,
		Result:          models.TransactionResultFail,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("can't save failed transaction: %w", err)
	}

	return nil
}

// CancelBalance fully reverses a prior debit. The cancellation must name
// the original transaction's account and its exact amount, and the original
// must be at most one year old. The credit is recorded as a new CANCEL row
// with its own token.
func (s *Service) CancelBalance(ctx context.Context, transactionID string, accountNumber string, amount int64) (Result, error) {
	var result Result

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		original, err := store.Transaction().GetTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}

		account, err := store.Account().GetAccountByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if original.AccountID != account.ID {
			return apperrors.ErrTransactionAccountMismatch
		}
		if original.Amount != amount {
			return apperrors.ErrCancelAmountMismatch
		}
		if original.TransactedAt.Before(s.now().AddDate(-1, 0, 0)) {
			return apperrors.ErrTransactionTooOld
		}

		if err := account.CancelBalance(amount); err != nil {
			return err
		}

		account, err = store.Account().UpdateAccount(ctx, account)
		if err != nil {
			return fmt.Errorf("can't persist restored balance: %w", err)
		}

		saved, err := store.Transaction().SaveTransaction(ctx, models.Transaction{
			TransactionID:   s.newToken(),
			AccountID:       account.ID,
			Type:            models.TransactionTypeCancel,
			Result:          models.TransactionResultSuccess,
			Amount:          amount,
			BalanceSnapshot: account.Balance,
			TransactedAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("can't save transaction: %w", err)
		}

		result = resultOf(saved, account.AccountNumber)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// QueryTransaction returns the recorded outcome of a transaction by token.
func (s *Service) QueryTransaction(ctx context.Context, transactionID string) (Result, error) {
	transaction, err := s.storage.Transaction().GetTransactionByID(ctx, transactionID)
	if err != nil {
		return Result{}, err
	}

	account, err := s.storage.Account().GetAccountByID(ctx, transaction.AccountID)
	if err != nil {
		return Result{}, err
	}

	return resultOf(transaction, account.AccountNumber), nil
}

func resultOf(t models.Transaction, accountNumber string) Result {
	return Result{
		AccountNumber:   accountNumber,
		TransactionType: t.Type,
		Result:          t.Result,
		TransactionID:   t.TransactionID,
		Amount:          t.Amount,
		BalanceSnapshot: t.BalanceSnapshot,
		TransactedAt:    t.TransactedAt,
	}
}

// newToken returns a 32-char hex token used as the public transaction id
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
