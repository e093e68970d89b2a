package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spendwise-server/src/events"
	"spendwise-server/src/export"
	"spendwise-server/src/gateway/inmemory"
	"spendwise-server/src/models"
	"spendwise-server/src/views"
)

const secret = "router-test"

type testServer struct {
	t       *testing.T
	store   *inmemory.Store
	handler http.Handler
	token   string
	account models.Account
	food    models.Category
}

func newTestServer(t *testing.T, demo bool) *testServer {
	t.Helper()
	s := inmemory.NewStore()
	ts := &testServer{t: t, store: s}

	ts.account = s.AddAccount(models.Account{UserID: "u1", Name: "Checking", Balance: decimal.NewFromInt(200)})
	ts.food = s.AddCategory(models.Category{UserID: "u1", Name: "Food", Type: models.CategoryExpense})
	s.AddExpense(models.Expense{ID: "e1", UserID: "u1", Date: time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC),
		Description: "Groceries", Amount: decimal.NewFromInt(50), CategoryID: &ts.food.ID, AccountID: &ts.account.ID})
	s.AddExpense(models.Expense{ID: "e2", UserID: "u1", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Description: "Coffee", Amount: decimal.RequireFromString("3.5")})

	reg := views.NewRegistry(s, events.NewBus(), zerolog.Nop())
	t.Cleanup(reg.Close)
	ts.handler = NewRouter(s, reg, zerolog.Nop(), Options{JWTSecret: secret, DemoMode: demo})

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	ts.token = tok
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestExpenses_RequireToken(t *testing.T) {
	ts := newTestServer(t, false)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGetExpenses(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodGet, "/api/expenses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var snap views.Snapshot
	decode(t, rec, &snap)
	if len(snap.Expenses) != 2 || snap.Expenses[0].ID != "e1" {
		t.Errorf("expenses = %+v", snap.Expenses)
	}
	if snap.Expenses[0].Categories == nil || snap.Expenses[0].Categories.Name != "Food" {
		t.Errorf("category not joined: %+v", snap.Expenses[0])
	}
	if snap.Label != "Select all" {
		t.Errorf("label = %q", snap.Label)
	}
}

func TestSelectionRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodPost, "/api/expenses/selection/e2/toggle", "")
	var st views.SelectionState
	decode(t, rec, &st)
	if rec.Code != http.StatusOK || st.Label != "Selected 1 of 2" {
		t.Errorf("toggle = %d %+v", rec.Code, st)
	}

	rec = ts.do(http.MethodPost, "/api/expenses/selection/all", "")
	decode(t, rec, &st)
	if !st.AllSelected {
		t.Errorf("select all = %+v", st)
	}

	rec = ts.do(http.MethodGet, "/api/expenses/selection", "")
	decode(t, rec, &st)
	if len(st.Selected) != 2 {
		t.Errorf("selection = %+v", st)
	}

	if rec := ts.do(http.MethodPost, "/api/expenses/selection/nope/toggle", ""); rec.Code != http.StatusNotFound {
		t.Errorf("toggle unknown = %d, want 404", rec.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodDelete, "/api/expenses/e1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		States  []string `json:"states"`
		Balance string   `json:"balance"`
	}
	decode(t, rec, &resp)
	if resp.Balance != "250.00" {
		t.Errorf("balance = %q, want 250.00", resp.Balance)
	}
	if len(resp.States) == 0 || resp.States[len(resp.States)-1] != "done" {
		t.Errorf("states = %v", resp.States)
	}

	if rec := ts.do(http.MethodDelete, "/api/expenses/e1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestDeleteExpense_StoreFailureIs500(t *testing.T) {
	ts := newTestServer(t, false)
	ts.store.FailOn("accounts.update", errBoom{})

	rec := ts.do(http.MethodDelete, "/api/expenses/e1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if a, _ := ts.store.Account(ts.account.ID); !a.Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("balance = %s, want 200", a.Balance)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestCreateExpense(t *testing.T) {
	ts := newTestServer(t, false)

	body := `{"date":"2024-04-20","description":"Dinner","amount":"20.25","category_id":"` + ts.food.ID +
		`","payment_method":"cash","account_id":"` + ts.account.ID + `"}`
	rec := ts.do(http.MethodPost, "/api/expenses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Expense
	decode(t, rec, &created)
	if created.Description != "Dinner" || !created.Amount.Equal(decimal.RequireFromString("20.25")) {
		t.Errorf("created = %+v", created)
	}
	if !strings.Contains(rec.Body.String(), `"date":"2024-04-20"`) {
		t.Errorf("date does not round-trip in the posted form: %s", rec.Body.String())
	}
	if a, _ := ts.store.Account(ts.account.ID); !a.Balance.Equal(decimal.RequireFromString("179.75")) {
		t.Errorf("balance = %s, want 179.75", a.Balance)
	}

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"bad date", `{"date":"20/04/2024","description":"x","amount":"1"}`},
		{"invalid amount", `{"date":"2024-04-20","description":"x","amount":"0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(http.MethodPost, "/api/expenses", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestExportRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		path, contentType, filename string
		magic                       []byte
	}{
		{"/api/expenses/export/pdf", export.PDFContentType, export.PDFFilename, []byte("%PDF-")},
		{"/api/expenses/export/xlsx", export.XLSXContentType, export.XLSXFilename, []byte("PK")},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, tt.filename) {
				t.Errorf("Content-Disposition = %q", got)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tt.magic) {
				t.Errorf("body does not start with %q", tt.magic)
			}
		})
	}
}

func TestCategoriesAndAccounts(t *testing.T) {
	ts := newTestServer(t, false)

	var cats []models.Category
	decode(t, ts.do(http.MethodGet, "/api/categories", ""), &cats)
	if len(cats) != 1 || cats[0].Name != "Food" {
		t.Errorf("categories = %+v", cats)
	}

	var accts []models.Account
	decode(t, ts.do(http.MethodGet, "/api/accounts", ""), &accts)
	if len(accts) != 1 || !accts[0].Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("accounts = %+v", accts)
	}
}

func TestDemoModeBlocksWrites(t *testing.T) {
	ts := newTestServer(t, true)

	if rec := ts.do(http.MethodDelete, "/api/expenses/e1", ""); rec.Code != http.StatusForbidden {
		t.Errorf("delete in demo mode = %d, want 403", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/api/expenses/selection/all", ""); rec.Code != http.StatusOK {
		t.Errorf("select all in demo mode = %d, want 200", rec.Code)
	}
}
