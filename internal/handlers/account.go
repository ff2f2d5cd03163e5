package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/vpopov/accountbook/internal/handlers/render"
	"github.com/vpopov/accountbook/internal/logger"
	"github.com/vpopov/accountbook/internal/models"
)

type accountService interface {
	CreateAccount(ctx context.Context, userID int64, initialBalance int64) (models.Account, error)
	UnregisterAccount(ctx context.Context, userID int64, accountNumber string) (models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
}

type AccountHandler struct {
	service accountService
	logger  logger.Logger
}

func NewAccount(service accountService, l logger.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: l}
}

func (h *AccountHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /account", h.create)
	mux.HandleFunc("DELETE /account", h.unregister)
	mux.HandleFunc("GET /account", h.list)

	return mux
}

func (h *AccountHandler) create(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID         int64 `json:"userId" validate:"required,min=1"`
		InitialBalance int64 `json:"initialBalance" validate:"min=0"`
	}

	type response struct {
		UserID        int64     `json:"userId"`
		AccountNumber string    `json:"accountNumber"`
		RegisteredAt  time.Time `json:"registeredAt"`
	}

	req, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req.UserID, req.InitialBalance)

	switch {
	case err == nil:
		render.JSON(w, response{
			UserID:        account.UserID,
			AccountNumber: account.AccountNumber,
			RegisteredAt:  account.RegisteredAt,
		})
	case renderError(w, err):
	default:
		h.logger.Error("Failed to create account", "userId", req.UserID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *AccountHandler) unregister(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID        int64  `json:"userId" validate:"required,min=1"`
		AccountNumber string `json:"accountNumber" validate:"required,len=10"`
	}

	type response struct {
		UserID         int64      `json:"userId"`
		AccountNumber  string     `json:"accountNumber"`
		UnregisteredAt *time.Time `json:"unregisteredAt"`
	}

	req, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	account, err := h.service.UnregisterAccount(r.Context(), req.UserID, req.AccountNumber)

	switch {
	case err == nil:
		render.JSON(w, response{
			UserID:         account.UserID,
			AccountNumber:  account.AccountNumber,
			UnregisteredAt: account.UnregisteredAt,
		})
	case renderError(w, err):
	default:
		h.logger.Error("Failed to unregister account", "accountNumber", req.AccountNumber, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *AccountHandler) list(w http.ResponseWriter, r *http.Request) {
	type accountInfo struct {
		AccountNumber string `json:"accountNumber"`
		Balance       int64  `json:"balance"`
		Status        string `json:"status"`
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		render.ServiceError(w, "Query parameter 'user_id' must be a positive integer", http.StatusBadRequest)
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)

	switch {
	case err == nil:
		infos := make([]accountInfo, 0, len(accounts))
		for _, a := range accounts {
			infos = append(infos, accountInfo{
				AccountNumber: a.AccountNumber,
				Balance:       a.Balance,
				Status:        a.Status,
			})
		}
		render.JSON(w, infos)
	case renderError(w, err):
	default:
		h.logger.Error("Failed to list accounts", "userId", userID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
