package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spendwise-server/src/middleware"
	"spendwise-server/src/models"
	"spendwise-server/src/views"
)

type createExpenseRequest struct {
	Date          string               `json:"date"`
	Description   string               `json:"description"`
	Amount        decimal.Decimal      `json:"amount"`
	CategoryID    *string              `json:"category_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Tags          []string             `json:"tags"`
	AccountID     *string              `json:"account_id"`
}

type deleteExpenseResponse struct {
	ID         string   `json:"id"`
	States     []string `json:"states"`
	AccountID  *string  `json:"account_id,omitempty"`
	Adjustment *string  `json:"adjustment,omitempty"`
	Balance    *string  `json:"balance,omitempty"`
}

func GetExpenses(reg *views.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		snap, err := reg.For(userID).Snapshot(r.Context())
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to load expenses")
			writeFailure(w, err, "failed to load expenses")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, snap)
	}
}

func CreateExpense(reg *views.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req createExpenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn().Err(err).Msg("Failed to decode create expense request body")
			middleware.WriteError(w, http.StatusBadRequest, "invalid request")
			return
		}
		date, err := time.Parse(models.DateLayout, req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		created, err := reg.For(userID).Create(r.Context(), models.NewExpense{
			Date:          date,
			Description:   req.Description,
			Amount:        req.Amount,
			CategoryID:    req.CategoryID,
			PaymentMethod: req.PaymentMethod,
			Tags:          req.Tags,
			AccountID:     req.AccountID,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create expense")
			writeFailure(w, err, "failed to create expense")
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, created)
	}
}

func DeleteExpense(reg *views.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		expenseID := chi.URLParam(r, "expense_id")

		out, err := reg.For(userID).Delete(r.Context(), expenseID)
		if err != nil {
			log.Error().Err(err).Str("expense_id", expenseID).Msg("Failed to delete expense")
			writeFailure(w, err, "failed to delete expense")
			return
		}

		resp := deleteExpenseResponse{ID: expenseID}
		for _, s := range out.States {
			resp.States = append(resp.States, s.String())
		}
		if out.Account != nil {
			adj := out.Adjustment.StringFixed(2)
			bal := out.NewBalance.StringFixed(2)
			resp.AccountID = &out.Account.ID
			resp.Adjustment = &adj
			resp.Balance = &bal
		}
		middleware.WriteJSON(w, http.StatusOK, resp)
	}
}
