package httpx

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/finsnap/internal/config"
	"github.com/AngelCh415/finsnap/internal/ingest"
	"github.com/AngelCh415/finsnap/internal/metrics"
	"github.com/AngelCh415/finsnap/internal/models"
	"github.com/AngelCh415/finsnap/internal/store"
	"github.com/AngelCh415/finsnap/internal/telemetry"
)

const salesCSV = "order_date,gross_amount,kiwify_fee,affiliate_commission,status\n" +
	"2024-01-05,\"100,00\",\"10,00\",\"5,00\",paid\n" +
	"2024-01-10,50.00,5.00,,refunded\n"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sales" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(salesCSV))
	}))
	t.Cleanup(src.Close)

	sources := []config.Source{
		{ID: models.SourceSales, Name: "Kiwify", URL: src.URL + "/sales", Format: "csv"},
		{ID: models.SourceSubscriptions, Name: "Stripe", URL: src.URL + "/subs", Format: "csv", Epoch: true},
		{ID: models.SourceAds, Name: "Meta Ads", URL: src.URL + "/ads", Format: "csv"},
		{ID: models.SourceExpenses, Name: "Despesas", URL: "", Format: "csv"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm := telemetry.New(prometheus.NewRegistry())
	f := ingest.NewFetcher(ingest.NewHTTPClient(2*time.Second), 0)
	loader := ingest.NewLoader(f, store.NewMemoryStore(), log, tm, sources)
	return NewRouter(log, loader, metrics.NewService(loader, tm), tm)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := do(h, http.MethodGet, "/healthz")
	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestReport(t *testing.T) {
	h := newTestServer(t)
	rec := do(h, http.MethodGet, "/report?period=30d")
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Label   string             `json:"label"`
		Metrics map[string]float64 `json:"metrics"`
		Rows    map[string]int     `json:"rows"`
		Status  map[string]string  `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Label != "30d" {
		t.Fatalf("label = %q", body.Label)
	}
	if body.Metrics["sales_count"] != 1 || body.Metrics["net_revenue"] != 85 || body.Metrics["ad_spend"] != 0 {
		t.Fatalf("unexpected metrics: %v", body.Metrics)
	}
	if body.Rows["sales"] != 2 || body.Status["sales"] != ingest.StatusOK {
		t.Fatalf("unexpected rows/status: %v %v", body.Rows, body.Status)
	}
	if !strings.HasPrefix(body.Status["ads"], "fetch Meta Ads") || !strings.HasPrefix(body.Status["expenses"], "fetch Despesas") {
		t.Fatalf("absent sources should explain themselves: %v", body.Status)
	}
}

func TestReportBadPeriod(t *testing.T) {
	h := newTestServer(t)
	for _, q := range []string{"period=45d", "period=custom&start=2024-02-01&end=2024-01-01"} {
		if rec := do(h, http.MethodGet, "/report?"+q); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestBreakdowns(t *testing.T) {
	h := newTestServer(t)
	rec := do(h, http.MethodGet, "/report/breakdowns?period=custom&start=2024-01-01&end=2024-01-31")
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Timeline struct {
			Granularity string `json:"granularity"`
			Points      []any  `json:"points"`
		} `json:"timeline"`
		SalesStatus []map[string]any `json:"sales_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Timeline.Granularity != "daily" || len(body.Timeline.Points) != 6 {
		t.Fatalf("unexpected timeline: %+v", body.Timeline)
	}
	if len(body.SalesStatus) != 2 {
		t.Fatalf("unexpected status counts: %v", body.SalesStatus)
	}
}

func TestSourcesAndRefresh(t *testing.T) {
	h := newTestServer(t)
	do(h, http.MethodGet, "/report")

	var views []sourceView
	rec := do(h, http.MethodGet, "/sources")
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(views))
	}

	rec = do(h, http.MethodPost, "/refresh")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var ref struct {
		Generation uint64 `json:"generation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ref); err != nil || ref.Generation != 2 {
		t.Fatalf("refresh body %s (%v)", rec.Body.String(), err)
	}

	rec = do(h, http.MethodGet, "/sources")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("sources after refresh = %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(h, http.MethodGet, "/report")
	rec := do(h, http.MethodGet, "/metrics")
	body := rec.Body.String()
	if rec.Code != 200 || !strings.Contains(body, "finsnap_reports_total 1") ||
		!strings.Contains(body, `finsnap_date_strategy_rows_total{source="sales",strategy="direct"} 2`) {
		t.Fatalf("metrics endpoint: %d\n%s", rec.Code, body)
	}
}
