package models

import "time"

const (
	TransactionTypeUse    = "USE"
	TransactionTypeCancel = "CANCEL"
)

const (
	TransactionResultSuccess = "SUCCESS"
	TransactionResultFail    = "FAIL"
)

// Transaction is an append-only audit record of one attempted operation
// against one account. Rows are never updated or deleted once written.
//
// BalanceSnapshot is the account balance right after the attempted mutation,
// or the untouched balance when the row records a failure.
type Transaction struct {
	Meta

	ID              int64
	TransactionID   string
	AccountID       int64
	Type            string
	Result          string
	Amount          int64
	BalanceSnapshot int64
	TransactedAt    time.Time
}
