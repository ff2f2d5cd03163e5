// Package account manages the account lifecycle: opening accounts,
// unregistering them and listing what a user owns. Balance movements live in
// the transaction package.
package account

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
	"github.com/vpopov/accountbook/internal/repository"
)

// A user may hold at most this many accounts
const maxAccountsPerUser = 10

// Attempts to find a free random account number before giving up
const numberAttempts = 5

type Service struct {
	storage repository.Storage

	now       func() time.Time
	newNumber func() string
}

func NewService(storage repository.Storage) *Service {
	return &Service{
		storage:   storage,
		now:       time.Now,
		newNumber: newAccountNumber,
	}
}

// CreateAccount opens an account for the user with a fresh unique 10-digit
// number and the given starting balance.
func (s *Service) CreateAccount(ctx context.Context, userID int64, initialBalance int64) (models.Account, error) {
	var created models.Account

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		count, err := store.Account().CountAccountsByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("can't count user accounts: %w", err)
		}
		if count >= maxAccountsPerUser {
			return apperrors.ErrMaxAccountsPerUser
		}

		number, err := s.pickNumber(ctx, store)
		if err != nil {
			return err
		}

		created, err = store.Account().CreateAccount(ctx, models.Account{
			UserID:        user.ID,
			AccountNumber: number,
			Status:        models.AccountStatusInUse,
			Balance:       initialBalance,
			RegisteredAt:  s.now(),
		})
		if err != nil {
			return fmt.Errorf("can't create account: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.Account{}, err
	}

	return created, nil
}

// UnregisterAccount closes the user's account. The account must belong to
// the user, must still be in use and must hold no funds.
func (s *Service) UnregisterAccount(ctx context.Context, userID int64, accountNumber string) (models.Account, error) {
	var unregistered models.Account

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

		if err := account.Unregister(s.now()); err != nil {
			return err
		}

		unregistered, err = store.Account().UpdateAccount(ctx, account)
		if err != nil {
			return fmt.Errorf("can't persist unregistered account: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.Account{}, err
	}

	return unregistered, nil
}

// ListAccounts returns the user's accounts that are still in use, newest
// first. Unregistered accounts are omitted.
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.storage.Account().ListAccountsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	inUse := accounts[:0]
	for _, account := range accounts {
		if account.Status == models.AccountStatusInUse {
			inUse = append(inUse, account)
		}
	}
	return inUse, nil
}

// pickNumber draws random numbers until one is unused. Uniqueness is still
// enforced by the accounts table, this just keeps collisions rare.
func (s *Service) pickNumber(ctx context.Context, store repository.Storage) (string, error) {
	for range numberAttempts {
		number := s.newNumber()

		_, err := store.Account().GetAccountByNumber(ctx, number)
		switch {
		case errors.Is(err, apperrors.ErrAccountNotFound):
			return number, nil
		case err != nil:
			return "", fmt.Errorf("can't check account number: %w", err)
		}
	}

	return "", fmt.Errorf("can't pick unused account number after %d attempts", numberAttempts)
}

// newAccountNumber returns a random 10-digit account number
func newAccountNumber() string {
	return fmt.Sprintf("%010d", rand.Int64N(1e10))
}
