package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/reelworth/reelworth_api/shared"
)

// fakeQuota records limiter traffic for assertions.
type fakeQuota struct {
	mu       sync.Mutex
	allow    bool
	recorded []string
}

func (f *fakeQuota) CanMakeRequest(endpoint string, isBatch bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allow
}

func (f *fakeQuota) RecordRequest(endpoint string, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, endpoint)
}

func newGoCollectTestClient(t *testing.T, quota QuotaLimiter, handler http.Handler) *GoCollectClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGoCollectClient(GoCollectConfig{Token: "tok", BaseURL: srv.URL}, quota, srv.Client())
}

func TestGoCollectSearch(t *testing.T) {
	quota := &fakeQuota{allow: true}
	client := newGoCollectTestClient(t, quota, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q", auth)
		}
		q := r.URL.Query()
		if q.Get("cam") != "video-games" || q.Get("limit") != "100" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`[{"item_id": 42, "name": "Jurassic Park VHS", "cam": "video-games", "year": 1993, "image": "https://gocollect.example/jp.jpg"}]`))
	}))

	items, err := client.Search(context.Background(), Query{Term: "jurassic", Market: "video-games", Limit: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].SourceID != "42" || items[0].Format != FormatVHS {
		t.Fatalf("items = %+v", items)
	}
	if len(quota.recorded) != 1 || quota.recorded[0] != gocollectSearchEndpoint {
		t.Errorf("recorded = %v", quota.recorded)
	}
}

func TestGoCollectQuotaExhausted(t *testing.T) {
	quota := &fakeQuota{allow: false}
	client := newGoCollectTestClient(t, quota, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call may happen once the quota refuses")
	}))

	items, err := client.Search(context.Background(), Query{Term: "x"})
	if err != nil {
		t.Fatalf("quota exhaustion is silence, not an error: %v", err)
	}
	if items != nil {
		t.Fatalf("expected no items, got %v", items)
	}
	if len(quota.recorded) != 0 {
		t.Errorf("a refused call must not be recorded: %v", quota.recorded)
	}
}

func TestGoCollectUnsupportedMarket(t *testing.T) {
	quota := &fakeQuota{allow: true}
	client := newGoCollectTestClient(t, quota, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := client.Search(context.Background(), Query{Term: "x", Market: "stamps"})
	if shared.Kind(err) != shared.KindBadRequest {
		t.Fatalf("expected a bad request error, got %v", err)
	}
}

func TestGoCollectInsights(t *testing.T) {
	quota := &fakeQuota{allow: true}
	client := newGoCollectTestClient(t, quota, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/insights/v1/item/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("grade") != "9.8" {
			t.Errorf("grade = %q", r.URL.Query().Get("grade"))
		}
		w.Write([]byte(`{"item_id":"42","title":"Amazing Fantasy #15","grade":"9.8","company":"CGC",
			"metrics":{"30":{"sold_count":3,"low_price":100,"high_price":250,"average_price":180},
			           "365":{"sold_count":40,"low_price":80,"high_price":300,"average_price":170}}}`))
	}))

	insights, err := client.Insights(context.Background(), "42", "9.8", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if insights.Metrics30 == nil || insights.Metrics30.AveragePrice != 180 {
		t.Errorf("Metrics30 = %+v", insights.Metrics30)
	}
	if insights.Metrics365 == nil || insights.Metrics365.SoldCount != 40 {
		t.Errorf("Metrics365 = %+v", insights.Metrics365)
	}
	if insights.Metrics90 != nil {
		t.Errorf("Metrics90 = %+v, want nil", insights.Metrics90)
	}
}

func TestGoCollectNoContent(t *testing.T) {
	quota := &fakeQuota{allow: true}
	client := newGoCollectTestClient(t, quota, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	insights, err := client.Insights(context.Background(), "42", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if insights != nil {
		t.Fatalf("204 means no data, got %+v", insights)
	}
	// The call still consumed quota.
	if len(quota.recorded) != 1 {
		t.Errorf("recorded = %v", quota.recorded)
	}
}

func TestGoCollectRateLimited(t *testing.T) {
	quota := &fakeQuota{allow: true}
	client := newGoCollectTestClient(t, quota, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.Search(context.Background(), Query{Term: "x"})
	if shared.Kind(err) != shared.KindRateLimit {
		t.Fatalf("expected a rate limit error, got %v", err)
	}
	// Failed calls are recorded too: the upstream counted them.
	if len(quota.recorded) != 1 {
		t.Errorf("recorded = %v", quota.recorded)
	}
}
