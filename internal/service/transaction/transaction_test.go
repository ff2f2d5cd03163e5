package transaction

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
	"github.com/vpopov/accountbook/internal/repository/memory"
)

func TestTransactionService(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Service over fresh in-memory storage with a fixed clock and
	// deterministic tokens tkn-1, tkn-2, ...
	newService := func(t *testing.T) (*Service, *memory.Storage) {
		t.Helper()

		storage := memory.NewStorage()
		s := NewService(storage)
		s.now = func() time.Time { return now }

		var seq int
		s.newToken = func() string {
			seq++
			return fmt.Sprintf("tkn-%d", seq)
		}

		return s, storage
	}

	seedAccount := func(t *testing.T, storage *memory.Storage, balance int64, status string) (models.AccountUser, models.Account) {
		t.Helper()

		user, err := storage.User().CreateUser(t.Context(), "Pobi")
		require.NoError(t, err)

		account, err := storage.Account().CreateAccount(t.Context(), models.Account{
			UserID:        user.ID,
			AccountNumber: nextAccountNumber(),
			Status:        status,
			Balance:       balance,
			RegisteredAt:  now,
		})
		require.NoError(t, err)

		return user, account
	}

	t.Run("UseBalance", func(t *testing.T) {
		t.Run("debit ok", func(t *testing.T) {
			s, storage := newService(t)
			user, account := seedAccount(t, storage, 10000, models.AccountStatusInUse)

			result, err := s.UseBalance(t.Context(), user.ID, account.AccountNumber, 1010)

			require.NoError(t, err)
			require.Equal(t, account.AccountNumber, result.AccountNumber)
			require.Equal(t, models.TransactionTypeUse, result.TransactionType)
			require.Equal(t, models.TransactionResultSuccess, result.Result)
			require.Equal(t, int64(1010), result.Amount)
			require.Equal(t, int64(8990), result.BalanceSnapshot)
			require.Equal(t, "tkn-1", result.TransactionID)
			require.Equal(t, now, result.TransactedAt)

			// The debit is persisted
			stored, err := storage.Account().GetAccountByNumber(t.Context(), account.AccountNumber)
			require.NoError(t, err)
			require.Equal(t, int64(8990), stored.Balance)

			// And exactly one matching ledger row exists
			row, err := storage.Transaction().GetTransactionByID(t.Context(), "tkn-1")
			require.NoError(t, err)
			require.Equal(t, account.ID, row.AccountID)
			require.Equal(t, models.TransactionTypeUse, row.Type)
			require.Equal(t, models.TransactionResultSuccess, row.Result)
			require.Equal(t, int64(1010), row.Amount)
			require.Equal(t, int64(8990), row.BalanceSnapshot)

			_, err = storage.Transaction().GetTransactionByID(t.Context(), "tkn-2")
			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})

		t.Run("duplicate debits are distinct on purpose", func(t *testing.T) {
			s, storage := newService(t)
			user, account := seedAccount(t, storage, 10000, models.AccountStatusInUse)

			first, err := s.UseBalance(t.Context(), user.ID, account.AccountNumber, 1000)
			require.NoError(t, err)
			second, err := s.UseBalance(t.Context(), user.ID, account.AccountNumber, 1000)
			require.NoError(t, err)

			require.NotEqual(t, first.TransactionID, second.TransactionID, "each call must produce its own row")
			require.Equal(t, int64(9000), first.BalanceSnapshot)
			require.Equal(t, int64(8000), second.BalanceSnapshot, "each call must debit again")
		})

		t.Run("user not found", func(t *testing.T) {
			s, _ := newService(t)

			_, err := s.UseBalance(t.Context(), 1, "1000000000", 1000)

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})

		t.Run("account not found", func(t *testing.T) {
			s, storage := newService(t)
			user, err := storage.User().CreateUser(t.Context(), "Pobi")
			require.NoError(t, err)

			_, err = s.UseBalance(t.Context(), user.ID, "1234567890", 1000)

			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})

		t.Run("different owner", func(t *testing.T) {
			s, storage := newService(t)
			_, account := seedAccount(t, storage, 10000, models.AccountStatusInUse)
			stranger, err := storage.User().CreateUser(t.Context(), "Harry")
			require.NoError(t, err)

			_, err = s.UseBalance(t.Context(), stranger.ID, account.AccountNumber, 1000)

			require.ErrorIs(t, err, apperrors.ErrUserAccountMismatch)
		})

		t.Run("unregistered account", func(t *testing.T) {
			s, storage := newService(t)
			user, account := seedAccount(t, storage, 10000, models.AccountStatusUnregistered)

			_, err := s.UseBalance(t.Context(), user.ID, account.AccountNumber, 1000)

			require.ErrorIs(t, err, apperrors.ErrAccountAlreadyUnregistered)
		})

		t.Run("amount exceeds balance", func(t *testing.T) {
			s, storage := newService(t)
			user, account := seedAccount(t, storage, 100, models.AccountStatusInUse)

			_, err := s.UseBalance(t.Context(), user.ID, account.AccountNumber, 1000)

			require.ErrorIs(t, err, apperrors.ErrAmountExceedsBalance)

			// Balance untouched and no ledger row written
			stored, err := storage.Account().GetAccountByNumber(t.Context(), account.AccountNumber)
			require.NoError(t, err)
			require.Equal(t, int64(100), stored.Balance)

			_, err = storage.Transaction().GetTransactionByID(t.Context(), "tkn-1")
			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})
	})

	t.Run("SaveFailedUseTransaction", func(t *testing.T) {
		t.Run("records fail row with untouched balance", func(t *testing.T) {
			s, storage := newService(t)
			_, account := seedAccount(t, storage, 10000, models.AccountStatusInUse)

			err := s.SaveFailedUseTransaction(t.Context(), account.AccountNumber, 1010)

			require.NoError(t, err)

			row, err := storage.Transaction().GetTransactionByID(t.Context(), "tkn-1")
			require.NoError(t, err)
			require.Equal(t, models.TransactionTypeUse, row.Type)
			require.Equal(t, models.TransactionResultFail, row.Result)
			require.Equal(t, int64(1010), row.Amount)
			require.Equal(t, int64(10000), row.BalanceSnapshot, "snapshot must be the unmodified balance")

			stored, err := storage.Account().GetAccountByNumber(t.Context(), account.AccountNumber)
			require.NoError(t, err)
			require.Equal(t, int64(10000), stored.Balance, "a failed attempt never changes the balance")
		})

		t.Run("account not found", func(t *testing.T) {
			s, _ := newService(t)

			err := s.SaveFailedUseTransaction(t.Context(), "1234567890", 1000)

			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("CancelBalance", func(t *testing.T) {
		// Account with balance and one recorded USE transaction
		seedWithUse := func(t *testing.T, storage *memory.Storage, balance int64, amount int64, transactedAt time.Time) models.Account {
			t.Helper()

			_, account := seedAccount(t, storage, balance, models.AccountStatusInUse)
			_, err := storage.Transaction().SaveTransaction(t.Context(), models.Transaction{
				TransactionID:   "original",
				AccountID:       account.ID,
				Type:            models.TransactionTypeUse,
				Result:          models.TransactionResultSuccess,
				Amount:          amount,
				BalanceSnapshot: balance,
				TransactedAt:    transactedAt,
			})
			require.NoError(t, err)

			return account
		}

		t.Run("cancel ok", func(t *testing.T) {
			s, storage := newService(t)
			account := seedWithUse(t, storage, 10000, 1000, now)

			result, err := s.CancelBalance(t.Context(), "original", account.AccountNumber, 1000)

			require.NoError(t, err)
			require.Equal(t, models.TransactionTypeCancel, result.TransactionType)
			require.Equal(t, models.TransactionResultSuccess, result.Result)
			require.Equal(t, int64(1000), result.Amount)
			require.Equal(t, int64(11000), result.BalanceSnapshot)
			require.NotEqual(t, "original", result.TransactionID, "cancel must get its own token")

			stored, err := storage.Account().GetAccountByNumber(t.Context(), account.AccountNumber)
			require.NoError(t, err)
			require.Equal(t, int64(11000), stored.Balance)
		})

		t.Run("cancel then query round trip", func(t *testing.T) {
			s, storage := newService(t)
			account := seedWithUse(t, storage, 10000, 1000, now)

			cancelled, err := s.CancelBalance(t.Context(), "original", account.AccountNumber, 1000)
			require.NoError(t, err)

			queried, err := s.QueryTransaction(t.Context(), cancelled.TransactionID)

			require.NoError(t, err)
			require.Equal(t, models.TransactionTypeCancel, queried.TransactionType)
			require.Equal(t, models.TransactionResultSuccess, queried.Result)
			require.Equal(t, int64(1000), queried.Amount)
			require.Equal(t, account.AccountNumber, queried.AccountNumber)
		})

		t.Run("transaction not found", func(t *testing.T) {
			s, storage := newService(t)
			_, account := seedAccount(t, storage, 10000, models.AccountStatusInUse)

			_, err := s.CancelBalance(t.Context(), "missing", account.AccountNumber, 1000)

			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})

		t.Run("account not found", func(t *testing.T) {
			s, storage := newService(t)
			seedWithUse(t, storage, 10000, 1000, now)

			_, err := s.CancelBalance(t.Context(), "original", "9999999999", 1000)

			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})

		t.Run("different account", func(t *testing.T) {
			s, storage := newService(t)
			seedWithUse(t, storage, 10000, 1000, now)
			_, other := seedAccount(t, storage, 10000, models.AccountStatusInUse)

			_, err := s.CancelBalance(t.Context(), "original", other.AccountNumber, 1000)

			require.ErrorIs(t, err, apperrors.ErrTransactionAccountMismatch)
		})

		t.Run("partial cancel rejected", func(t *testing.T) {
			s, storage := newService(t)
			account := seedWithUse(t, storage, 10000, 1000, now)

			_, err := s.CancelBalance(t.Context(), "original", account.AccountNumber, 500)

			require.ErrorIs(t, err, apperrors.ErrCancelAmountMismatch)

			stored, err := storage.Account().GetAccountByNumber(t.Context(), account.AccountNumber)
			require.NoError(t, err)
			require.Equal(t, int64(10000), stored.Balance, "rejected cancel must not move funds")
		})

		t.Run("original too old", func(t *testing.T) {
			s, storage := newService(t)
			account := seedWithUse(t, storage, 10000, 1000, now.Add(-366*24*time.Hour))

			_, err := s.CancelBalance(t.Context(), "original", account.AccountNumber, 1000)

			require.ErrorIs(t, err, apperrors.ErrTransactionTooOld)
		})

		t.Run("exactly one year old still cancels", func(t *testing.T) {
			s, storage := newService(t)
			account := seedWithUse(t, storage, 10000, 1000, now.AddDate(-1, 0, 0))

			_, err := s.CancelBalance(t.Context(), "original", account.AccountNumber, 1000)

			require.NoError(t, err)
		})
	})

	t.Run("QueryTransaction", func(t *testing.T) {
		t.Run("query ok", func(t *testing.T) {
			s, storage := newService(t)
			user, account := seedAccount(t, storage, 10000, models.AccountStatusInUse)

			used, err := s.UseBalance(t.Context(), user.ID, account.AccountNumber, 1000)
			require.NoError(t, err)

			result, err := s.QueryTransaction(t.Context(), used.TransactionID)

			require.NoError(t, err)
			require.Equal(t, account.AccountNumber, result.AccountNumber)
			require.Equal(t, models.TransactionTypeUse, result.TransactionType)
			require.Equal(t, models.TransactionResultSuccess, result.Result)
			require.Equal(t, int64(1000), result.Amount)
			require.Equal(t, used.TransactionID, result.TransactionID)
		})

		t.Run("not found", func(t *testing.T) {
			s, _ := newService(t)

			_, err := s.QueryTransaction(t.Context(), "missing")

			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})
	})
}

var accountNumberSeq atomic.Int64

// nextAccountNumber keeps seeded account numbers unique across subtests
func nextAccountNumber() string {
	return fmt.Sprintf("%010d", 1000000000+accountNumberSeq.Add(1))
}
