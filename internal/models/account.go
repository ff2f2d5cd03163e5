package models

import (
	"time"

	"github.com/vpopov/accountbook/internal/apperrors"
)

const (
	AccountStatusInUse        = "IN_USE"
	AccountStatusUnregistered = "UNREGISTERED"
)

// Account is a balance-bearing ledger owned by exactly one AccountUser.
// Balance is kept in the smallest currency unit and never goes negative.
type Account struct {
	Meta

	ID             int64
	UserID         int64
	AccountNumber  string
	Status         string
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time

	// Version supports optimistic concurrency on balance updates. The
	// repository bumps it on every persisted write and refuses to apply a
	// write whose version does not match the stored row. The services
	// themselves take no locks.
	Version int64
}

// UseBalance debits amount from the account. The caller is expected to have
// validated that amount is a positive debit request.
func (a *Account) UseBalance(amount int64) error {
	if amount > a.Balance {
		return apperrors.ErrAmountExceedsBalance
	}

	a.Balance -= amount
	return nil
}

// CancelBalance credits amount back to the account.
func (a *Account) CancelBalance(amount int64) error {
	if amount < 0 {
		return apperrors.ErrInvalidRequest
	}

	a.Balance += amount
	return nil
}

// Unregister marks the account closed. Fails if it still holds funds or is
// closed already.
func (a *Account) Unregister(now time.Time) error {
	if a.Status == AccountStatusUnregistered {
		return apperrors.ErrAccountAlreadyUnregistered
	}
	if a.Balance > 0 {
		return apperrors.ErrBalanceNotEmpty
	}

	a.Status = AccountStatusUnregistered
	a.UnregisteredAt = &now
	return nil
}
