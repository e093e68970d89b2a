package handlers

import (
	"errors"
	"net/http"

	"spendwise-server/src/gateway"
	"spendwise-server/src/identity"
	"spendwise-server/src/middleware"
	"spendwise-server/src/views"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, views.ErrInvalidExpense):
		return http.StatusBadRequest
	case errors.Is(err, views.ErrUnknownExpense), errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrNoUser):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeFailure sends err to the client. Server errors get a generic message.
func writeFailure(w http.ResponseWriter, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		middleware.WriteError(w, status, message)
		return
	}
	middleware.WriteError(w, status, err.Error())
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := identity.UserID(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}
