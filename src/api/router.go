package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"spendwise-server/src/gateway"
	"spendwise-server/src/handlers"
	"spendwise-server/src/middleware"
	"spendwise-server/src/views"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	DemoMode       bool
}

func NewRouter(gw gateway.Gateway, reg *views.Registry, log zerolog.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	r.Use(middleware.DemoModeMiddleware(opts.DemoMode))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// Protected routes
		r.With(middleware.JWTAuthMiddleware(opts.JWTSecret)).Group(func(r chi.Router) {
			// Expenses
			r.Get("/expenses", handlers.GetExpenses(reg))
			r.Post("/expenses", handlers.CreateExpense(reg))
			r.Delete("/expenses/{expense_id}", handlers.DeleteExpense(reg))

			// Selection
			r.Get("/expenses/selection", handlers.GetSelection(reg))
			r.Post("/expenses/selection/all", handlers.SelectAll(reg))
			r.Post("/expenses/selection/{expense_id}/toggle", handlers.ToggleSelection(reg))

			// Reports
			r.Get("/expenses/export/pdf", handlers.ExportPDF(reg))
			r.Get("/expenses/export/xlsx", handlers.ExportXLSX(reg))

			r.Get("/categories", handlers.GetCategories(gw))
			r.Get("/accounts", handlers.GetAccounts(gw))
		})
	})

	return r
}
