package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vpopov/accountbook/internal/logger"
	"github.com/vpopov/accountbook/internal/models"
	"github.com/vpopov/accountbook/internal/repository/memory"
	"github.com/vpopov/accountbook/internal/service/account"
)

func Test_AccountHandler(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T) (string, *memory.Storage) {
		t.Helper()

		storage := memory.NewStorage()
		h := NewAccount(account.NewService(storage), logger.NewNoOp())
		srv := httptest.NewServer(h.Handler())
		t.Cleanup(srv.Close)

		return srv.URL, storage
	}

	request := func(t *testing.T, method string, url string, body string) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequest(method, url, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		return resp, string(raw)
	}

	t.Run("create account ok", func(t *testing.T) {
		url, storage := serve(t)
		user, err := storage.User().CreateUser(t.Context(), "Pobi")
		require.NoError(t, err)

		body := fmt.Sprintf(`{"userId": %d, "initialBalance": 10000}`, user.ID)
		resp, raw := request(t, http.MethodPost, url+"/account", body)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", raw)
		require.Contains(t, raw, `"accountNumber"`)
		require.Contains(t, raw, fmt.Sprintf(`"userId":%d`, user.ID))

		accounts, err := storage.Account().ListAccountsByUserID(t.Context(), user.ID)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		require.Equal(t, int64(10000), accounts[0].Balance)
	})

	t.Run("create account unknown user", func(t *testing.T) {
		url, _ := serve(t)

		resp, raw := request(t, http.MethodPost, url+"/account", `{"userId": 42, "initialBalance": 0}`)

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Contains(t, raw, `"code":"USER_NOT_FOUND"`)
	})

	t.Run("unregister account ok", func(t *testing.T) {
		url, storage := serve(t)
		user, err := storage.User().CreateUser(t.Context(), "Pobi")
		require.NoError(t, err)
		created, err := storage.Account().CreateAccount(t.Context(), models.Account{
			UserID:        user.ID,
			AccountNumber: "1000000000",
			Status:        models.AccountStatusInUse,
			Balance:       0,
		})
		require.NoError(t, err)

		body := fmt.Sprintf(`{"userId": %d, "accountNumber": %q}`, user.ID, created.AccountNumber)
		resp, raw := request(t, http.MethodDelete, url+"/account", body)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", raw)
		require.Contains(t, raw, `"unregisteredAt"`)
	})

	t.Run("unregister account with funds", func(t *testing.T) {
		url, storage := serve(t)
		user, err := storage.User().CreateUser(t.Context(), "Pobi")
		require.NoError(t, err)
		_, err = storage.Account().CreateAccount(t.Context(), models.Account{
			UserID:        user.ID,
			AccountNumber: "1000000000",
			Status:        models.AccountStatusInUse,
			Balance:       100,
		})
		require.NoError(t, err)

		body := fmt.Sprintf(`{"userId": %d, "accountNumber": "1000000000"}`, user.ID)
		resp, raw := request(t, http.MethodDelete, url+"/account", body)

		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Contains(t, raw, `"code":"BALANCE_NOT_EMPTY"`)
	})

	t.Run("list accounts ok", func(t *testing.T) {
		url, storage := serve(t)
		user, err := storage.User().CreateUser(t.Context(), "Pobi")
		require.NoError(t, err)
		for i := range 2 {
			_, err = storage.Account().CreateAccount(t.Context(), models.Account{
				UserID:        user.ID,
				AccountNumber: fmt.Sprintf("100000000%d", i),
				Status:        models.AccountStatusInUse,
				Balance:       int64(i) * 100,
			})
			require.NoError(t, err)
		}

		resp, raw := request(t, http.MethodGet, fmt.Sprintf("%s/account?user_id=%d", url, user.ID), "")

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", raw)
		require.Contains(t, raw, `"accountNumber":"1000000000"`)
		require.Contains(t, raw, `"accountNumber":"1000000001"`)
	})

	t.Run("list accounts skips unregistered", func(t *testing.T) {
		url, storage := serve(t)
		user, err := storage.User().CreateUser(t.Context(), "Pobi")
		require.NoError(t, err)
		_, err = storage.Account().CreateAccount(t.Context(), models.Account{
			UserID:        user.ID,
			AccountNumber: "1000000000",
			Status:        models.AccountStatusUnregistered,
			Balance:       0,
		})
		require.NoError(t, err)
		_, err = storage.Account().CreateAccount(t.Context(), models.Account{
			UserID:        user.ID,
			AccountNumber: "1000000001",
			Status:        models.AccountStatusInUse,
			Balance:       10000,
		})
		require.NoError(t, err)

		resp, raw := request(t, http.MethodGet, fmt.Sprintf("%s/account?user_id=%d", url, user.ID), "")

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", raw)
		require.Contains(t, raw, `"accountNumber":"1000000001"`)
		require.NotContains(t, raw, `"accountNumber":"1000000000"`, "closed account must not be listed")
	})

	t.Run("list accounts bad user id", func(t *testing.T) {
		url, _ := serve(t)

		resp, _ := request(t, http.MethodGet, url+"/account?user_id=abc", "")

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
