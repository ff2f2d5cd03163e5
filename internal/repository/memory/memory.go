// Package memory provides a map-backed Storage used in tests. It keeps the
// same contracts as the postgres implementation (value copies, taxonomy
// errors on missing rows, version checks on account updates).
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
	"github.com/vpopov/accountbook/internal/repository"
)

type Storage struct {
	mu sync.Mutex

	users        map[int64]models.AccountUser
	accounts     map[int64]models.Account
	transactions map[int64]models.Transaction

	nextUserID        int64
	nextAccountID     int64
	nextTransactionID int64
}

func NewStorage() *Storage {
	return &Storage{
		users:             map[int64]models.AccountUser{},
		accounts:          map[int64]models.Account{},
		transactions:      map[int64]models.Transaction{},
		nextUserID:        1,
		nextAccountID:     1,
		nextTransactionID: 1,
	}
}

func (s *Storage) User() repository.UserRepo               { return &userRepo{s} }
func (s *Storage) Account() repository.AccountRepo         { return &accountRepo{s} }
func (s *Storage) Transaction() repository.TransactionRepo { return &transactionRepo{s} }

// InTx snapshots the maps and restores them when fn fails, so failed flows
// leave the storage untouched just like a rolled back database transaction.
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	s.mu.Lock()
	users := maps.Clone(s.users)
	accounts := maps.Clone(s.accounts)
	transactions := maps.Clone(s.transactions)
	s.mu.Unlock()

	err := fn(s)
	if err != nil {
		s.mu.Lock()
		s.users = users
		s.accounts = accounts
		s.transactions = transactions
		s.mu.Unlock()
	}

	return err
}

type userRepo struct{ s *Storage }

func (r *userRepo) CreateUser(ctx context.Context, name string) (models.AccountUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	user := models.AccountUser{
		Meta: models.Meta{CreatedAt: now, UpdatedAt: now},
		ID:   r.s.nextUserID,
		Name: name,
	}
	r.s.nextUserID++
	r.s.users[user.ID] = user
	return user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id int64) (models.AccountUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return user, apperrors.ErrUserNotFound
	}
	return user, nil
}

type accountRepo struct{ s *Storage }

func (r *accountRepo) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	account.Meta = models.Meta{CreatedAt: now, UpdatedAt: now}
	account.ID = r.s.nextAccountID
	account.Version = 0
	r.s.nextAccountID++
	r.s.accounts[account.ID] = account
	return account, nil
}

func (r *accountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, account := range r.s.accounts {
		if account.AccountNumber == number {
			return account, nil
		}
	}
	return models.Account{}, apperrors.ErrAccountNotFound
}

func (r *accountRepo) GetAccountByID(ctx context.Context, id int64) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return account, apperrors.ErrAccountNotFound
	}
	return account, nil
}

func (r *accountRepo) ListAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Newest first, matching the order the postgres repo returns
	var accounts []models.Account
	for id := r.s.nextAccountID - 1; id >= 1; id-- {
		account, ok := r.s.accounts[id]
		if ok && account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (r *accountRepo) CountAccountsByUserID(ctx context.Context, userID int64) (int64, error) {
	accounts, _ := r.ListAccountsByUserID(ctx, userID)
	return int64(len(accounts)), nil
}

func (r *accountRepo) UpdateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.accounts[account.ID]
	if !ok || stored.Version != account.Version {
		return models.Account{}, repository.ErrVersionConflict
	}

	stored.Balance = account.Balance
	stored.Status = account.Status
	stored.UnregisteredAt = account.UnregisteredAt
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.s.accounts[stored.ID] = stored
	return stored, nil
}

type transactionRepo struct{ s *Storage }

func (r *transactionRepo) SaveTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	transaction.Meta = models.Meta{CreatedAt: now, UpdatedAt: now}
	transaction.ID = r.s.nextTransactionID
	r.s.nextTransactionID++
	r.s.transactions[transaction.ID] = transaction
	return transaction, nil
}

func (r *transactionRepo) GetTransactionByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, transaction := range r.s.transactions {
		if transaction.TransactionID == transactionID {
			return transaction, nil
		}
	}
	return models.Transaction{}, apperrors.ErrTransactionNotFound
}
