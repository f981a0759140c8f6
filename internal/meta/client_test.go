package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	c := NewClient(Config{
		AccessToken: "test-token",
		APIVersion:  "v19.0",
		BaseURL:     srvURL,
		HTTPTimeout: 2 * time.Second,
	}, NewLimiter(), nil)
	// No real sleeps in tests.
	c.sleep = func(_ context.Context, _ time.Duration) error { return nil }
	return c
}

func insightPage(rows []map[string]any, next string) map[string]any {
	page := map[string]any{"data": rows}
	if next != "" {
		page["paging"] = map[string]any{"next": next}
	}
	return page
}

func TestFetchAllPages_WalksEveryPageInOrder(t *testing.T) {
	var calls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var body map[string]any
		switch r.URL.Query().Get("page") {
		case "2":
			body = insightPage([]map[string]any{{"date_start": "2025-08-02", "spend": "2"}}, srv.URL+"/next?page=3")
		case "3":
			body = insightPage([]map[string]any{{"date_start": "2025-08-03", "spend": "3"}}, "")
		default:
			body = insightPage([]map[string]any{{"date_start": "2025-08-01", "spend": "1"}}, srv.URL+"/next?page=2")
		}
		_ = n
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	rows, err := c.AccountOverview(context.Background(), "act_123", "2025-08-01", "2025-08-03")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 http calls for 3 pages, got %d", calls)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"2025-08-01", "2025-08-02", "2025-08-03"} {
		if rows[i].Date != want {
			t.Fatalf("row %d out of page order: got %s want %s", i, rows[i].Date, want)
		}
	}
}

func TestFetchAllPages_RetriesSamePageOnRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "too many calls", "code": 32, "fbtrace_id": "tr-1"},
			})
			return
		}
		json.NewEncoder(w).Encode(insightPage([]map[string]any{{"date_start": "2025-08-01", "spend": "9"}}, ""))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	rows, err := c.AccountOverview(context.Background(), "act_123", "2025-08-01", "2025-08-01")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 1 || rows[0].Spend != 9 {
		t.Fatalf("unexpected rows after retry: %+v", rows)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected same page refetched: 3 calls, got %d", calls)
	}
	if len(delays) != 2 || delays[0] != 5*time.Second || delays[1] != 10*time.Second {
		t.Fatalf("expected linear 5s/10s backoff, got %v", delays)
	}
}

func TestFetchAllPages_GivesUpAfterMaxRetriesWithoutPartialData(t *testing.T) {
	var calls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			// First page succeeds; second page rate-limits forever.
			json.NewEncoder(w).Encode(insightPage([]map[string]any{{"date_start": "2025-08-01", "spend": "1"}}, srv.URL+"/next?page=2"))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "too many calls", "code": 4},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	rows, err := c.AccountOverview(context.Background(), "act_123", "2025-08-01", "2025-08-02")
	if err == nil {
		t.Fatalf("expected terminal rate-limit error")
	}
	if rows != nil {
		t.Fatalf("expected no partial rows, got %d", len(rows))
	}
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.IsRateLimited() {
		t.Fatalf("expected classified rate-limit error, got %v", err)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d retries, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("retry %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestFetchAllPages_ClassifiesTokenAndPermissionErrors(t *testing.T) {
	cases := []struct {
		code       int
		rateLimit  bool
		expired    bool
		permission bool
	}{
		{code: 190, expired: true},
		{code: 10, permission: true},
		{code: 200, permission: true},
		{code: 32, rateLimit: true},
		{code: 4, rateLimit: true},
		{code: 1, /* unknown */},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "boom", "code": tc.code, "error_subcode": 463},
			})
		}))

		c := testClient(t, srv.URL)
		c.retry.MaxRetries = 0 // classify without retrying

		_, err := c.AccountOverview(context.Background(), "act_1", "2025-08-01", "2025-08-01")
		srv.Close()
		if err == nil {
			t.Fatalf("code %d: expected error", tc.code)
		}
		apiErr, ok := AsAPIError(err)
		if !ok {
			t.Fatalf("code %d: expected APIError, got %v", tc.code, err)
		}
		if apiErr.IsRateLimited() != tc.rateLimit || apiErr.IsTokenExpired() != tc.expired || apiErr.IsPermissionError() != tc.permission {
			t.Fatalf("code %d: wrong classification: %+v", tc.code, apiErr)
		}
		if apiErr.Subcode != 463 {
			t.Fatalf("code %d: expected subcode preserved, got %d", tc.code, apiErr.Subcode)
		}
	}
}

func TestFetchAllPages_TransportErrorsSurfaceGenerically(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.AccountOverview(context.Background(), "act_1", "2025-08-01", "2025-08-01")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if _, ok := AsAPIError(err); ok {
		t.Fatalf("transport failure must not classify as APIError: %v", err)
	}
}
