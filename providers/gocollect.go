package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/shared"
)

const (
	gocollectMaxLimit     = 100
	gocollectDefaultLimit = 20

	gocollectSearchEndpoint   = "item_search"
	gocollectInsightsEndpoint = "item_insights"
)

// gocollectMarkets whitelists the collectible markets the API understands.
var gocollectMarkets = map[string]bool{
	"comics":          true,
	"video-games":     true,
	"concert-posters": true,
	"trading-cards":   true,
	"sports-cards":    true,
	"magazines":       true,
}

type GoCollectConfig struct {
	Token   string
	BaseURL string // e.g. https://gocollect.com
}

// GoCollectClient queries collectible market values from GoCollect. Every
// call first asks the quota limiter for permission; a refusal surfaces as an
// empty result rather than an error, so aggregation degrades instead of
// failing once the daily allowance runs out.
type GoCollectClient struct {
	cfg   GoCollectConfig
	quota QuotaLimiter
	httpc *http.Client
	log   *log.Entry
}

func NewGoCollectClient(cfg GoCollectConfig, quota QuotaLimiter, httpc *http.Client) *GoCollectClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoCollectClient{
		cfg:   cfg,
		quota: quota,
		httpc: httpc,
		log:   log.WithField("provider", shared.ProviderGoCollect),
	}
}

func (c *GoCollectClient) Name() string { return shared.ProviderGoCollect }

// ==================== API CALLS ====================

func (c *GoCollectClient) Search(ctx context.Context, q Query) ([]NormalizedItem, error) {
	if !c.quota.CanMakeRequest(gocollectSearchEndpoint, q.Batch) {
		c.log.WithField("endpoint", gocollectSearchEndpoint).Warn("Daily quota exhausted, skipping call")
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", q.Term)
	if q.Market != "" {
		if !gocollectMarkets[q.Market] {
			return nil, shared.NewBadRequestError(q.Market, "unsupported collectible market")
		}
		params.Set("cam", q.Market)
	}
	params.Set("limit", strconv.Itoa(clampLimit(q.Limit, gocollectDefaultLimit, gocollectMaxLimit)))

	var raw []gocollectItem
	err := c.get(ctx, "/api/collectibles/v1/item/search", params, &raw)
	c.quota.RecordRequest(gocollectSearchEndpoint, err == nil)
	if err != nil {
		return nil, err
	}

	items := make([]NormalizedItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, *normalizeGoCollectItem(r))
	}
	return items, nil
}

// Details fetches pricing insights for a single item. Like Search, quota
// exhaustion yields no data rather than an error.
func (c *GoCollectClient) Details(ctx context.Context, id string) (*NormalizedItem, error) {
	insights, err := c.Insights(ctx, id, "", "", "")
	if err != nil || insights == nil {
		return nil, err
	}
	item := &NormalizedItem{
		Source:    shared.ProviderGoCollect,
		SourceID:  id,
		Title:     insights.Title,
		Format:    FormatUnknown,
		Condition: insights.Grade,
	}
	if insights.Metrics30 != nil && insights.Metrics30.AveragePrice > 0 {
		item.Price = &Price{
			Amount:   insights.Metrics30.AveragePrice,
			Currency: "USD",
			Bucket:   PriceBucket(insights.Metrics30.AveragePrice),
		}
	}
	item.Completeness = completeness(
		item.Title != "",
		item.Condition != "",
		item.Price != nil,
	)
	return item, nil
}

// GoCollectInsights carries sold-price metrics for one graded collectible.
type GoCollectInsights struct {
	ItemID     string                  `json:"item_id"`
	Title      string                  `json:"title"`
	Grade      string                  `json:"grade,omitempty"`
	Company    string                  `json:"company,omitempty"`
	Label      string                  `json:"label,omitempty"`
	Metrics30  *GoCollectPeriodMetrics `json:"metrics_30d,omitempty"`
	Metrics90  *GoCollectPeriodMetrics `json:"metrics_90d,omitempty"`
	Metrics365 *GoCollectPeriodMetrics `json:"metrics_365d,omitempty"`
}

type GoCollectPeriodMetrics struct {
	SoldCount    int     `json:"sold_count"`
	LowPrice     float64 `json:"low_price"`
	HighPrice    float64 `json:"high_price"`
	AveragePrice float64 `json:"average_price"`
}

// Insights hits the pricing insights endpoint with optional grade, grading
// company and label filters.
func (c *GoCollectClient) Insights(ctx context.Context, id, grade, company, label string) (*GoCollectInsights, error) {
	if !c.quota.CanMakeRequest(gocollectInsightsEndpoint, false) {
		c.log.WithField("endpoint", gocollectInsightsEndpoint).Warn("Daily quota exhausted, skipping call")
		return nil, nil
	}

	params := url.Values{}
	if grade != "" {
		params.Set("grade", grade)
	}
	if company != "" {
		params.Set("company", company)
	}
	if label != "" {
		params.Set("label", label)
	}

	var raw gocollectInsightsResponse
	err := c.get(ctx, "/api/insights/v1/item/"+url.PathEscape(id), params, &raw)
	c.quota.RecordRequest(gocollectInsightsEndpoint, err == nil)
	if err != nil {
		return nil, err
	}
	if raw.ItemID == "" && raw.Title == "" {
		return nil, nil
	}
	return rawInsights(id, raw), nil
}

func (c *GoCollectClient) HealthCheck(ctx context.Context) bool {
	// No free ping exists; report whether the quota would admit a call.
	return c.cfg.Token != "" && c.quota.CanMakeRequest(gocollectSearchEndpoint, false)
}

func (c *GoCollectClient) Usage() map[string]interface{} {
	usage := map[string]interface{}{
		"endpoints": []string{gocollectSearchEndpoint, gocollectInsightsEndpoint},
	}
	if reporter, ok := c.quota.(UsageReporter); ok {
		for k, v := range reporter.Usage() {
			usage[k] = v
		}
	}
	return usage
}

func (c *GoCollectClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "building GoCollect request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "GoCollect request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.NewAuthError(nil, "GoCollect rejected the API token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return shared.NewRateLimitError(nil, "GoCollect rate limit exceeded")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return shared.NewProviderUnavailableError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), "GoCollect returned an error status")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shared.NewNormalizationError(err, "decoding GoCollect response failed")
	}
	return nil
}

// ==================== NORMALIZATION ====================

type gocollectItem struct {
	ItemID int    `json:"item_id"`
	Name   string `json:"name"`
	Cam    string `json:"cam"`
	Year   int    `json:"year"`
	Image  string `json:"image"`
}

type gocollectInsightsResponse struct {
	ItemID  string `json:"item_id"`
	Title   string `json:"title"`
	Grade   string `json:"grade"`
	Company string `json:"company"`
	Label   string `json:"label"`
	Metrics map[string]struct {
		SoldCount    int     `json:"sold_count"`
		LowPrice     float64 `json:"low_price"`
		HighPrice    float64 `json:"high_price"`
		AveragePrice float64 `json:"average_price"`
	} `json:"metrics"`
}

func normalizeGoCollectItem(raw gocollectItem) *NormalizedItem {
	item := &NormalizedItem{
		Source:   shared.ProviderGoCollect,
		SourceID: strconv.Itoa(raw.ItemID),
		Title:    raw.Name,
		Format:   DetectFormat(raw.Name),
		Year:     raw.Year,
	}
	if raw.Image != "" {
		item.ImageURLs = []string{raw.Image}
	}
	item.Completeness = completeness(
		item.Title != "",
		item.Year > 0,
		len(item.ImageURLs) > 0,
	)
	return item
}

func rawInsights(id string, raw gocollectInsightsResponse) *GoCollectInsights {
	out := &GoCollectInsights{
		ItemID:  raw.ItemID,
		Title:   raw.Title,
		Grade:   raw.Grade,
		Company: raw.Company,
		Label:   raw.Label,
	}
	if out.ItemID == "" {
		out.ItemID = id
	}
	for period, m := range raw.Metrics {
		pm := &GoCollectPeriodMetrics{
			SoldCount:    m.SoldCount,
			LowPrice:     m.LowPrice,
			HighPrice:    m.HighPrice,
			AveragePrice: m.AveragePrice,
		}
		switch period {
		case "30":
			out.Metrics30 = pm
		case "90":
			out.Metrics90 = pm
		case "365":
			out.Metrics365 = pm
		}
	}
	return out
}
