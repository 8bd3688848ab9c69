package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reelworth/reelworth_api/limiter"
)

const ebaySearchFixture = `{
  "total": 2,
  "itemSales": [
    {
      "itemId": "v1|123|0",
      "title": "Jurassic Park VHS 1993 Sealed",
      "conditionId": "1000",
      "lastSoldPrice": {"value": "24.99", "currency": "USD"},
      "lastSoldDate": "2026-08-01T12:00:00.000Z",
      "seller": {"username": "tapes4days", "feedbackScore": 1200, "feedbackPercentage": "99.5"},
      "image": {"imageUrl": "https://i.ebayimg.com/images/jp.jpg"}
    },
    {
      "title": "Listing without an item id"
    }
  ]
}`

func newEbayTestClient(t *testing.T, handler http.HandlerFunc) (*EbayClient, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"app-token","token_type":"Bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/buy/marketplace_insights/v1_beta/item_sales/search", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := EbayConfig{AppID: "app", CertID: "cert", BaseURL: srv.URL}
	tokens := NewTokenCache(cfg.AppID, cfg.CertID, EbayTokenURL(srv.URL))
	client := NewEbayClient(cfg, tokens, limiter.NewInterval(time.Millisecond), srv.Client())
	return client, srv
}

func TestEbaySearchNormalizes(t *testing.T) {
	var gotQuery map[string]string
	client, _ := newEbayTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":           q.Get("q"),
			"limit":       q.Get("limit"),
			"fieldgroups": q.Get("fieldgroups"),
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer app-token" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		if mkt := r.Header.Get("X-EBAY-C-MARKETPLACE-ID"); mkt != "EBAY_US" {
			t.Errorf("unexpected marketplace header %q", mkt)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ebaySearchFixture))
	})

	items, err := client.Search(context.Background(), Query{Term: "jurassic park", Limit: 500})
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery["q"] != "jurassic park" {
		t.Errorf("query term not forwarded: %v", gotQuery)
	}
	if gotQuery["limit"] != "200" {
		t.Errorf("limit not clamped to 200: %v", gotQuery)
	}
	if gotQuery["fieldgroups"] != "MATCHING_ITEMS,EXTENDED" {
		t.Errorf("missing fieldgroups: %v", gotQuery)
	}

	// The entry without an itemId is dropped, not fatal.
	if len(items) != 1 {
		t.Fatalf("expected 1 normalized item, got %d", len(items))
	}
	item := items[0]
	if item.SourceID != "v1|123|0" {
		t.Errorf("SourceID = %q", item.SourceID)
	}
	if item.Format != FormatVHS {
		t.Errorf("Format = %v, want VHS", item.Format)
	}
	if item.Condition != "New" {
		t.Errorf("Condition = %q, want New", item.Condition)
	}
	if item.Price == nil || item.Price.Amount != 24.99 || item.Price.Bucket != BucketMedium {
		t.Errorf("Price = %+v", item.Price)
	}
	if item.Seller == nil || item.Seller.Reputation != "Excellent" {
		t.Errorf("Seller = %+v", item.Seller)
	}
	if item.SaleDate == nil {
		t.Error("SaleDate missing")
	}
	if item.Completeness != 100 {
		t.Errorf("Completeness = %v, want 100", item.Completeness)
	}
}

func TestEbayDetailsByItemID(t *testing.T) {
	client, _ := newEbayTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if filter := r.URL.Query().Get("filter"); filter != "itemIds:{v1|123|0}" {
			t.Errorf("filter = %q", filter)
		}
		w.Write([]byte(ebaySearchFixture))
	})

	item, err := client.Details(context.Background(), "v1|123|0")
	if err != nil {
		t.Fatal(err)
	}
	if item == nil || item.SourceID != "v1|123|0" {
		t.Fatalf("item = %+v", item)
	}
}

func TestEbayDetailsNotFound(t *testing.T) {
	client, _ := newEbayTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0, "itemSales": []}`))
	})

	item, err := client.Details(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if item != nil {
		t.Fatalf("expected nil item, got %+v", item)
	}
}

func TestEbayServerError(t *testing.T) {
	client, _ := newEbayTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Search(context.Background(), Query{Term: "x"}); err == nil {
		t.Fatal("expected an error on HTTP 500")
	}
	if client.HealthCheck(context.Background()) {
		t.Error("health check should fail against a broken upstream")
	}
}
