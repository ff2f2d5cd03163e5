package handlers

import (
	"errors"
	"net/http"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/handlers/render"
)

// statusOf maps the error taxonomy to HTTP statuses. Unknown codes fall
// back to 400 so a future taxonomy member never turns into a 500 silently.
func statusOf(appErr *apperrors.Error) int {
	switch appErr {
	case apperrors.ErrUserNotFound,
		apperrors.ErrAccountNotFound,
		apperrors.ErrTransactionNotFound:
		return http.StatusNotFound
	case apperrors.ErrAmountExceedsBalance:
		return http.StatusPaymentRequired
	case apperrors.ErrAccountAlreadyUnregistered,
		apperrors.ErrBalanceNotEmpty,
		apperrors.ErrMaxAccountsPerUser:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// renderError writes a taxonomy error with its mapped status and reports
// whether err actually was one.
func renderError(w http.ResponseWriter, err error) bool {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return false
	}

	render.AccountError(w, appErr, statusOf(appErr))
	return true
}
