package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"spendwise-server/src/gateway"
	"spendwise-server/src/middleware"
)

func GetCategories(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := gw.ListCategories(r.Context())
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to get categories")
			writeFailure(w, err, "failed to get categories")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, categories)
	}
}

func GetAccounts(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := gw.ListAccounts(r.Context())
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to get accounts")
			writeFailure(w, err, "failed to get accounts")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, accounts)
	}
}
