package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"spendwise-server/src/middleware"
	"spendwise-server/src/views"
)

func GetSelection(reg *views.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		st, err := reg.For(userID).Selection(r.Context())
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to read selection")
			writeFailure(w, err, "failed to read selection")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, st)
	}
}

func ToggleSelection(reg *views.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		expenseID := chi.URLParam(r, "expense_id")
		st, err := reg.For(userID).Toggle(r.Context(), expenseID)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("expense_id", expenseID).Msg("Failed to toggle selection")
			writeFailure(w, err, "failed to toggle selection")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, st)
	}
}

func SelectAll(reg *views.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		st, err := reg.For(userID).SelectAll(r.Context())
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to select all")
			writeFailure(w, err, "failed to select all")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, st)
	}
}
