package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"mergebox/backend/domain"
	"mergebox/backend/service/merge"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedFetcher struct {
	records []domain.NodeRecord
}

func (f fixedFetcher) Fetch(_ context.Context, _ domain.HopSource) ([]domain.NodeRecord, error) {
	return f.records, nil
}

type noopStore struct{}

func (noopStore) Save(*domain.RoutingDocument) error { return nil }

func testEngine(t *testing.T) (*gin.Engine, *merge.Runner) {
	t.Helper()

	doc := &domain.RoutingDocument{
		Outbounds: []*domain.Outbound{
			{Type: domain.TypeSelector, Tag: "Auto"},
			{Type: domain.TypeDirect, Tag: "direct"},
		},
	}
	fetcher := fixedFetcher{records: []domain.NodeRecord{
		{Hop: "main", Outbound: &domain.Outbound{Type: "vless", Tag: "HK 01"}},
	}}
	hops := []domain.HopSource{
		{Name: "main", URL: "https://sub.example.com", Rules: "Auto", Enabled: true},
	}
	runner := merge.NewRunner(doc, fetcher, noopStore{}, hops, nil, nil)
	return NewRouter(runner, nil), runner
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	engine, _ := testEngine(t)

	w := doRequest(t, engine, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s, want status ok", w.Body.String())
	}
}

func TestSummaryBeforeAnyRun(t *testing.T) {
	engine, _ := testEngine(t)

	w := doRequest(t, engine, http.MethodGet, "/summary")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before first run", w.Code)
	}
}

func TestSyncThenSummaryAndDocument(t *testing.T) {
	engine, _ := testEngine(t)

	w := doRequest(t, engine, http.MethodPost, "/sync")
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}
	var summary domain.MergeSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("summary has no run id")
	}
	if len(summary.Hops) != 1 || summary.Hops[0].Inserted != 1 {
		t.Fatalf("hop stats = %v, want one hop with one inserted node", summary.Hops)
	}

	w = doRequest(t, engine, http.MethodGet, "/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d after a run", w.Code)
	}

	w = doRequest(t, engine, http.MethodGet, "/document")
	if w.Code != http.StatusOK {
		t.Fatalf("document status = %d", w.Code)
	}
	var doc domain.RoutingDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if _, ok := doc.TagIndex()["HK 01"]; !ok {
		t.Fatal("merged document does not contain the inserted node")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine, _ := testEngine(t)

	w := doRequest(t, engine, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "mergebox_") {
		t.Fatal("metrics output does not expose mergebox collectors")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine, _ := testEngine(t)

	w := doRequest(t, engine, http.MethodOptions, "/sync")
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q, want *", got)
	}
}
