package apperrors

// Error is a member of the closed set of failure kinds the services may
// return. Every kind has a stable code and a fixed user-facing message, so
// handlers can map errors to responses without string matching.
//
// Match with errors.Is against the exported values below.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUserNotFound               = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrAccountNotFound            = &Error{Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
	ErrAccountAlreadyUnregistered = &Error{Code: "ACCOUNT_ALREADY_UNREGISTERED", Message: "account is already unregistered"}
	ErrUserAccountMismatch        = &Error{Code: "USER_ACCOUNT_MISMATCH", Message: "account is owned by different user"}
	ErrAmountExceedsBalance       = &Error{Code: "AMOUNT_EXCEEDS_BALANCE", Message: "amount exceeds account balance"}
	ErrInvalidRequest             = &Error{Code: "INVALID_REQUEST", Message: "invalid request"}

	ErrTransactionNotFound        = &Error{Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found"}
	ErrTransactionAccountMismatch = &Error{Code: "TRANSACTION_ACCOUNT_MISMATCH", Message: "transaction belongs to different account"}
	ErrCancelAmountMismatch       = &Error{Code: "CANCEL_AMOUNT_MISMATCH", Message: "cancel amount must equal the original transaction amount"}
	ErrTransactionTooOld          = &Error{Code: "TRANSACTION_TOO_OLD_TO_CANCEL", Message: "transactions older than one year cannot be cancelled"}

	ErrMaxAccountsPerUser = &Error{Code: "MAX_ACCOUNTS_PER_USER", Message: "user already has the maximum number of accounts"}
	ErrBalanceNotEmpty    = &Error{Code: "BALANCE_NOT_EMPTY", Message: "account balance must be empty to unregister"}
)
