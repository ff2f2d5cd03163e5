package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vpopov/accountbook/internal/handlers/render"
	"github.com/vpopov/accountbook/internal/logger"
	"github.com/vpopov/accountbook/internal/service/transaction"
)

type transactionService interface {
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (transaction.Result, error)
	SaveFailedUseTransaction(ctx context.Context, accountNumber string, amount int64) error
	CancelBalance(ctx context.Context, transactionID string, accountNumber string, amount int64) (transaction.Result, error)
	QueryTransaction(ctx context.Context, transactionID string) (transaction.Result, error)
}

type TransactionHandler struct {
	service transactionService
	logger  logger.Logger
}

func NewTransaction(service transactionService, l logger.Logger) *TransactionHandler {
	return &TransactionHandler{service: service, logger: l}
}

func (h *TransactionHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /use", h.use)
	mux.HandleFunc("POST /cancel", h.cancel)
	mux.HandleFunc("GET /{transactionId}", h.query)

	return mux
}

// TransactionResponse is the wire shape of a debit or cancel outcome.
type TransactionResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
}

func (h *TransactionHandler) use(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID        int64  `json:"userId" validate:"required,min=1"`
		AccountNumber string `json:"accountNumber" validate:"required,len=10"`
		Amount        int64  `json:"amount" validate:"required,min=1"`
	}

	req, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	result, err := h.service.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)

	switch {
	case err == nil:
		render.JSON(w, TransactionResponse{
			AccountNumber:     result.AccountNumber,
			TransactionResult: result.Result,
			TransactionID:     result.TransactionID,
			Amount:            result.Amount,
			TransactedAt:      result.TransactedAt,
		})
	case renderError(w, err):
		// precondition rejection, nothing was attempted so nothing to record
	default:
		// The debit itself failed. Leave a FAIL row so the attempt stays
		// auditable, then report the failure.
		h.logger.Error("Debit failed", "accountNumber", req.AccountNumber, "error", err)

		if saveErr := h.service.SaveFailedUseTransaction(r.Context(), req.AccountNumber, req.Amount); saveErr != nil {
			h.logger.Error("Failed to record failed debit", "accountNumber", req.AccountNumber, "error", saveErr)
		}

		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TransactionHandler) cancel(w http.ResponseWriter, r *http.Request) {
	type request struct {
		TransactionID string `json:"transactionId" validate:"required"`
		AccountNumber string `json:"accountNumber" validate:"required,len=10"`
		Amount        int64  `json:"amount" validate:"required,min=1"`
	}

	req, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	result, err := h.service.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)

	switch {
	case err == nil:
		render.JSON(w, TransactionResponse{
			AccountNumber:     result.AccountNumber,
			TransactionResult: result.Result,
			TransactionID:     result.TransactionID,
			Amount:            result.Amount,
			TransactedAt:      result.TransactedAt,
		})
	case renderError(w, err):
	default:
		h.logger.Error("Cancel failed", "transactionId", req.TransactionID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TransactionHandler) query(w http.ResponseWriter, r *http.Request) {
	type response struct {
		AccountNumber     string    `json:"accountNumber"`
		TransactionType   string    `json:"transactionType"`
		TransactionResult string    `json:"transactionResult"`
		TransactionID     string    `json:"transactionId"`
		Amount            int64     `json:"amount"`
		TransactedAt      time.Time `json:"transactedAt"`
	}

	result, err := h.service.QueryTransaction(r.Context(), r.PathValue("transactionId"))

	switch {
	case err == nil:
		render.JSON(w, response{
			AccountNumber:     result.AccountNumber,
			TransactionType:   result.TransactionType,
			TransactionResult: result.Result,
			TransactionID:     result.TransactionID,
			Amount:            result.Amount,
			TransactedAt:      result.TransactedAt,
		})
	case renderError(w, err):
	default:
		h.logger.Error("Transaction query failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
