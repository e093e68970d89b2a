package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"spendwise-server/src/identity"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.UserID(r.Context())
	w.Write([]byte(id))
}

func TestJWTAuthMiddleware(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing token", "", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + signed(t, jwt.MapClaims{"user_id": "u1", "exp": exp}, "other"), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signed(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret), http.StatusUnauthorized, ""},
		{"no user claim", "Bearer " + signed(t, jwt.MapClaims{"exp": exp}, testSecret), http.StatusUnauthorized, ""},
		{"string user id", "Bearer " + signed(t, jwt.MapClaims{"user_id": "u1", "exp": exp}, testSecret), http.StatusOK, "u1"},
		{"numeric user id", "Bearer " + signed(t, jwt.MapClaims{"user_id": 42, "exp": exp}, testSecret), http.StatusOK, "42"},
		{"subject claim", "Bearer " + signed(t, jwt.MapClaims{"sub": "u9", "exp": exp}, testSecret), http.StatusOK, "u9"},
	}

	h := JWTAuthMiddleware(testSecret)(http.HandlerFunc(echoUser))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unknown origin allowed: %q", got)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("request was not passed through")
	}
}

func TestDemoModeMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		method, path string
		demo         bool
		want         int
	}{
		{http.MethodGet, "/api/expenses", true, http.StatusOK},
		{http.MethodDelete, "/api/expenses/e1", true, http.StatusForbidden},
		{http.MethodPost, "/api/expenses", true, http.StatusForbidden},
		{http.MethodPost, "/api/expenses/selection/all", true, http.StatusOK},
		{http.MethodDelete, "/api/expenses/e1", false, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			DemoModeMiddleware(tt.demo)(ok).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	h := RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-1" {
		t.Errorf("X-Request-ID = %q, want req-1", got)
	}
	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"status":201`, `"method":"POST"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %s does not contain %s", out, want)
		}
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %s, want JSON error", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Error("panic was not logged")
	}
}

func TestContextLoggerCarriesRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	token := signed(t, jwt.MapClaims{"user_id": "u7", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Warn().Msg("from handler")
	})
	h := RequestID(Logger(zerolog.New(&buf))(JWTAuthMiddleware(testSecret)(inner)))

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("X-Request-ID", "req-7")
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "from handler") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("handler log line missing from %s", buf.String())
	}
	for _, want := range []string{`"request_id":"req-7"`, `"user_id":"u7"`, `"level":"warn"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %s does not contain %s", line, want)
		}
	}
}
