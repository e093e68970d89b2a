package middleware

import (
	"net/http"
	"strings"
)

// DemoModeMiddleware makes the API read-only in demo mode. Selection changes
// only touch in-memory state, so they stay allowed.
func DemoModeMiddleware(isDemo bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isDemo && r.Method != http.MethodGet {
				if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/expenses/selection/") {
					next.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusForbidden, "Demo mode: only GET requests are allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
