package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quaderno/internal/core"
	"quaderno/internal/services"
	"quaderno/internal/store"
	"quaderno/internal/store/memory"
)

var testNow = time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, slot store.Slot, health func(context.Context) error) *Server {
	t.Helper()
	locale := core.Locale{Location: time.UTC, Layout: core.DefaultDisplayLayout}
	ledger := services.NewLedger(store.NewRecordStore(slot, "", locale, nil), locale, nil)
	svc := services.NewExpenseService(ledger, nil, nil)
	svc.SetClock(func() time.Time { return testNow })
	svc.Start(context.Background())

	srv, err := NewServer(":0", svc, Options{Health: health, Clock: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	return do(t, srv, http.MethodPost, path, "application/x-www-form-urlencoded", body)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing request id", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s missing security headers", path)
		}
	}
}

func TestReadyReportsBackendFailure(t *testing.T) {
	srv := newTestServer(t, memory.New(0), func(context.Context) error { return errors.New("db gone") })

	rr := do(t, srv, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	if body := decode[map[string]any](t, rr); body["error"] != "db gone" {
		t.Fatalf("body=%v", body)
	}
}

func TestCreateExpense(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"form", "application/x-www-form-urlencoded", "amount=12,50&note=coffee", http.StatusCreated},
		{"json", "application/json", `{"amount": 3, "note": "bus"}`, http.StatusCreated},
		{"zero", "application/x-www-form-urlencoded", "amount=0&note=free", http.StatusCreated},
		{"invalid amount", "application/x-www-form-urlencoded", "amount=abc&note=x", http.StatusUnprocessableEntity},
		{"negative", "application/json", `{"amount": "-3"}`, http.StatusUnprocessableEntity},
		{"missing amount", "application/x-www-form-urlencoded", "note=x", http.StatusUnprocessableEntity},
		{"broken json", "application/json", `{"amount":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/expenses", tt.contentType, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}

	if n := srv.svc.Ledger().Len(); n != 3 {
		t.Fatalf("ledger has %d records, want 3", n)
	}

	rr := do(t, srv, http.MethodGet, "/expenses", "", "")
	list := decode[struct {
		Expenses []expenseJSON `json:"expenses"`
	}](t, rr)
	if len(list.Expenses) != 3 || list.Expenses[0].Amount != "12.50" || list.Expenses[0].Category != "coffee" {
		t.Fatalf("expenses=%+v", list.Expenses)
	}
}

func TestCreateExpenseStorageFailure(t *testing.T) {
	srv := newTestServer(t, memory.New(8), nil)

	rr := postForm(t, srv, "/expenses", "amount=5&note=food")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	resp := decode[createResponse](t, rr)
	if resp.Persisted || !resp.Pending || resp.Expense.AmountCents != 500 {
		t.Fatalf("resp=%+v", resp)
	}

	rr = do(t, srv, http.MethodPost, "/sync", "", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("sync status=%d", rr.Code)
	}
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)
	for _, body := range []string{"amount=50&note=food", "amount=30&note=food", "amount=20&note=transport"} {
		if rr := postForm(t, srv, "/expenses", body); rr.Code != http.StatusCreated {
			t.Fatalf("create %s status=%d", body, rr.Code)
		}
	}

	rr := do(t, srv, http.MethodGet, "/summary", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	sum := decode[summaryResponse](t, rr)
	if sum.Date != "2025-06-07" || sum.DailyTotalCents != 10000 || sum.AllTimeCents != 10000 {
		t.Fatalf("summary=%+v", sum)
	}
	if len(sum.Series) != 1 || sum.Series[0].Date != "2025-06-07" {
		t.Fatalf("series=%+v", sum.Series)
	}
	if len(sum.Categories) != 2 || sum.Categories[0].Name != "food" || sum.Categories[0].Percentage != 80 {
		t.Fatalf("categories=%+v", sum.Categories)
	}

	rr = do(t, srv, http.MethodGet, "/summary?date=2025-06-06", "", "")
	other := decode[summaryResponse](t, rr)
	if other.DailyTotalCents != 0 || other.AllTimeCents != 10000 {
		t.Fatalf("summary for other day=%+v", other)
	}

	if rr := do(t, srv, http.MethodGet, "/summary?date=06/07/2025", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date status=%d", rr.Code)
	}
}

func TestSummaryCacheFollowsLedger(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)

	first := decode[summaryResponse](t, do(t, srv, http.MethodGet, "/summary", "", ""))
	_ = do(t, srv, http.MethodGet, "/summary", "", "")
	if srv.summaryCache.Size() != 1 {
		t.Fatalf("cache size=%d, want 1", srv.summaryCache.Size())
	}

	postForm(t, srv, "/expenses", "amount=4&note=tea")
	second := decode[summaryResponse](t, do(t, srv, http.MethodGet, "/summary", "", ""))
	if first.AllTimeCents != 0 || second.AllTimeCents != 400 {
		t.Fatalf("stale summary: first=%d second=%d", first.AllTimeCents, second.AllTimeCents)
	}
}

func TestReset(t *testing.T) {
	slot := memory.New(0)
	srv := newTestServer(t, slot, nil)
	postForm(t, srv, "/expenses", "amount=9&note=x")

	if rr := postForm(t, srv, "/reset", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed reset status=%d", rr.Code)
	}
	if srv.svc.Ledger().Len() != 1 {
		t.Fatal("unconfirmed reset cleared the ledger")
	}

	if rr := postForm(t, srv, "/reset", "confirm=true"); rr.Code != http.StatusOK {
		t.Fatalf("reset status=%d", rr.Code)
	}
	if srv.svc.Ledger().Len() != 0 {
		t.Fatal("ledger not cleared")
	}
	if _, ok, _ := slot.ReadSlot(context.Background(), store.DefaultSlot); ok {
		t.Fatal("slot still present after reset")
	}

	if rr := do(t, srv, http.MethodGet, "/reset", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /reset status=%d", rr.Code)
	}
}

func TestSyncWithoutPending(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)
	rr := do(t, srv, http.MethodPost, "/sync", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if body := decode[map[string]any](t, rr); body["pending"] != false {
		t.Fatalf("body=%v", body)
	}
}

func TestExportWorkbook(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)
	postForm(t, srv, "/expenses", "amount=2&note=pen")

	rr := do(t, srv, http.MethodGet, "/export.xlsx", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("content type=%q", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "PK") {
		t.Fatal("body is not a zip archive")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(0), nil)
	postForm(t, srv, "/expenses", "amount=1")

	rr := do(t, srv, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "quaderno_ledger_appends_total") {
		t.Fatalf("metrics status=%d", rr.Code)
	}
}
