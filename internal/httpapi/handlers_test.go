package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"adsync-platform/internal/adsync"
	"adsync-platform/internal/audit"
	"adsync-platform/internal/meta"
	"adsync-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

type fakeInsightsAPI struct {
	overview []meta.DailyMetric
	err      error
}

func (f *fakeInsightsAPI) AccountOverview(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error) {
	return f.overview, f.err
}

func (f *fakeInsightsAPI) CampaignBreakdown(ctx context.Context, accountID, since, until string) ([]meta.CampaignInsight, error) {
	return nil, f.err
}

func (f *fakeInsightsAPI) AdSetBreakdown(ctx context.Context, accountID, since, until string) ([]meta.AdSetInsight, error) {
	return nil, f.err
}

func (f *fakeInsightsAPI) DemographicBreakdown(ctx context.Context, accountID, since, until string) ([]meta.DemographicInsight, error) {
	return nil, f.err
}

func (f *fakeInsightsAPI) PlatformBreakdown(ctx context.Context, accountID, since, until string) ([]meta.PlatformInsight, error) {
	return nil, f.err
}

func (f *fakeInsightsAPI) TokenStatus(ctx context.Context) (meta.TokenStatus, error) {
	return meta.TokenStatus{IsValid: true}, f.err
}

func testRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/sync/meta", h.TriggerSync)
	r.GET("/v1/insights/account-overview", h.AccountOverview)
	r.GET("/v1/insights/campaigns", h.CampaignInsights)
	r.GET("/v1/meta/token-status", h.TokenStatus)
	r.GET("/v1/reports/summary", h.ReportSummary)
	r.GET("/v1/reports/daily", h.ReportDaily)
	return r
}

func syncHandlers(fetcher adsync.InsightsFetcher) Handlers {
	store := adsync.NewMemoryStore()
	refs := adsync.NewMemoryRefs()
	campID := "camp-1"
	refs.Campaigns = []adsync.SyncReference{
		{ClientID: "client-a", CampaignID: &campID, AdAccountID: "111"},
	}
	svc := adsync.NewService(store, refs, fetcher, audit.NewService(audit.NewMemoryRepo()), nil)
	return Handlers{Sync: svc}
}

type fetcherFunc func(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error)

func (f fetcherFunc) AccountOverview(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error) {
	return f(ctx, accountID, since, until)
}

func TestTriggerSync_ReturnsSummary(t *testing.T) {
	h := syncHandlers(fetcherFunc(func(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error) {
		return []meta.DailyMetric{{Date: since, Spend: 12}}, nil
	}))
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/meta", strings.NewReader(`{"since":"2025-08-01","until":"2025-08-01"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data adsync.RunSummary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Results) != 1 || body.Data.Results[0].Rows != 1 {
		t.Fatalf("unexpected summary: %+v", body.Data)
	}
}

func TestTriggerSync_BadDatesRejected(t *testing.T) {
	h := syncHandlers(fetcherFunc(func(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error) {
		return nil, nil
	}))
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/meta", strings.NewReader(`{"since":"01-08-2025"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestInsightErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &meta.ValidationError{Field: "ad_account_id", Reason: "bad"}, http.StatusBadRequest},
		{"token expired", &meta.APIError{Message: "expired", Code: 190}, http.StatusUnauthorized},
		{"permission", &meta.APIError{Message: "denied", Code: 10}, http.StatusForbidden},
		{"rate limited", &meta.APIError{Message: "limit", Code: 32}, http.StatusTooManyRequests},
		{"other api error", &meta.APIError{Message: "boom", Code: 1}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		h := Handlers{Insights: &fakeInsightsAPI{err: tc.err}}
		r := testRouter(h)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/insights/account-overview?ad_account_id=act_1&since=2025-08-01&until=2025-08-01", nil)
		r.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}

func TestAccountOverview_EmptyDataIsNotNull(t *testing.T) {
	h := Handlers{Insights: &fakeInsightsAPI{}}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/insights/account-overview?ad_account_id=act_1&since=2025-08-01&until=2025-08-01", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty array, got %s", w.Body.String())
	}
}

func TestReportSummary_RequiresClientAndRange(t *testing.T) {
	h := Handlers{Reporting: reporting.NewService(reporting.NewMemoryRepo())}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/summary?since=2025-08-01&until=2025-08-02", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReportSummary_ReturnsAggregates(t *testing.T) {
	repo := reporting.NewMemoryRepo()
	repo.Rows = []adsync.StoredMetricRow{{
		ClientID: "client-a",
		Platform: adsync.PlatformMeta,
		DailyMetric: meta.DailyMetric{
			Date: "2025-08-01", Spend: 100, Impressions: 10000, Clicks: 200,
		},
	}}
	h := Handlers{Reporting: reporting.NewService(repo)}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/summary?client_id=client-a&since=2025-08-01&until=2025-08-01", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data reporting.Summary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Spend != 100 || body.Data.Clicks != 200 {
		t.Fatalf("unexpected summary: %+v", body.Data)
	}
}

func TestTokenStatus(t *testing.T) {
	h := Handlers{Insights: &fakeInsightsAPI{}}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/meta/token-status", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"is_valid":true`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
