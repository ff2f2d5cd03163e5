package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	transactionHandler *TransactionHandler,
	accountHandler *AccountHandler,
	middlewares ...func(next http.Handler) http.Handler,
) http.Handler {
	root := http.NewServeMux()

	root.Handle("/transaction/", http.StripPrefix("/transaction", transactionHandler.Handler()))
	root.Handle("/account", accountHandler.Handler())
	root.Handle("GET /metrics", promhttp.Handler())
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return chain(root, middlewares...)
}
