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

	"github.com/reelworth/reelworth_api/limiter"
	"github.com/reelworth/reelworth_api/shared"
)

const (
	ebayMaxLimit     = 200
	ebayDefaultLimit = 50
)

// ebayConditionNames maps eBay condition IDs onto canonical condition names.
// Unknown codes map to Unknown, never an error.
var ebayConditionNames = map[string]string{
	"1000": "New",
	"1500": "New Other",
	"2000": "Manufacturer Refurbished",
	"2500": "Seller Refurbished",
	"2750": "Like New",
	"3000": "Used",
	"4000": "Very Good",
	"5000": "Good",
	"6000": "Acceptable",
	"7000": "For Parts or Not Working",
}

// EbayCategory is a movie-relevant eBay category.
type EbayCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EbayCategories lists the marketplace categories the guide searches.
var EbayCategories = map[string]EbayCategory{
	"vhs":         {ID: "309", Name: "VHS Movies"},
	"dvd":         {ID: "617", Name: "DVD Movies"},
	"bluray":      {ID: "2649", Name: "Blu-ray Movies"},
	"memorabilia": {ID: "11232", Name: "Movie Memorabilia"},
}

type EbayConfig struct {
	AppID       string
	CertID      string
	BaseURL     string // e.g. https://api.ebay.com
	Marketplace string // e.g. EBAY_US
}

// EbayClient queries the eBay Marketplace Insights API for sold-item data.
// OAuth failures are fatal to the individual call only.
type EbayClient struct {
	cfg    EbayConfig
	tokens *TokenCache
	limit  *limiter.Interval
	httpc  *http.Client
	log    *log.Entry
}

func NewEbayClient(cfg EbayConfig, tokens *TokenCache, lim *limiter.Interval, httpc *http.Client) *EbayClient {
	if cfg.Marketplace == "" {
		cfg.Marketplace = "EBAY_US"
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &EbayClient{
		cfg:    cfg,
		tokens: tokens,
		limit:  lim,
		httpc:  httpc,
		log:    log.WithField("provider", shared.ProviderEbay),
	}
}

// EbayTokenURL returns the OAuth token endpoint for a base URL.
func EbayTokenURL(baseURL string) string {
	return baseURL + "/identity/v1/oauth2/token"
}

func (c *EbayClient) Name() string { return shared.ProviderEbay }

// ==================== API CALLS ====================

func (c *EbayClient) Search(ctx context.Context, q Query) ([]NormalizedItem, error) {
	params := url.Values{}
	if q.Term != "" {
		params.Set("q", q.Term)
	}
	if q.CategoryIDs != "" {
		params.Set("category_ids", q.CategoryIDs)
	}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	params.Set("limit", strconv.Itoa(clampLimit(q.Limit, ebayDefaultLimit, ebayMaxLimit)))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("fieldgroups", "MATCHING_ITEMS,EXTENDED")

	var resp ebaySearchResponse
	if err := c.get(ctx, "/buy/marketplace_insights/v1_beta/item_sales/search", params, &resp); err != nil {
		return nil, err
	}

	items := make([]NormalizedItem, 0, len(resp.ItemSales))
	for _, raw := range resp.ItemSales {
		item, err := c.normalize(raw)
		if err != nil {
			c.log.WithError(err).Warn("Dropping unnormalizable item sale")
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

func (c *EbayClient) Details(ctx context.Context, id string) (*NormalizedItem, error) {
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("itemIds:{%s}", id))
	params.Set("limit", "1")
	params.Set("fieldgroups", "MATCHING_ITEMS,EXTENDED")

	var resp ebaySearchResponse
	if err := c.get(ctx, "/buy/marketplace_insights/v1_beta/item_sales/search", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.ItemSales) == 0 {
		return nil, nil
	}
	item, err := c.normalize(resp.ItemSales[0])
	if err != nil {
		return nil, shared.NewNormalizationError(err, "item sale could not be normalized")
	}
	return item, nil
}

// HealthCheck issues the cheapest real search; it counts against quota and
// never raises.
func (c *EbayClient) HealthCheck(ctx context.Context) bool {
	_, err := c.Search(ctx, Query{Term: "test", CategoryIDs: EbayCategories["dvd"].ID, Limit: 1})
	if err != nil {
		c.log.WithError(err).Warn("Health check failed")
		return false
	}
	return true
}

func (c *EbayClient) Usage() map[string]interface{} {
	return map[string]interface{}{
		"rate_limit_per_second": 1,
		"marketplace":           c.cfg.Marketplace,
	}
}

func (c *EbayClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limit.Admit(ctx); err != nil {
		return shared.NewRateLimitError(err, "request canceled while rate limited")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "building eBay request failed")
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.cfg.Marketplace)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "eBay request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return shared.NewRateLimitError(nil, "eBay rate limit exceeded")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return shared.NewProviderUnavailableError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), "eBay returned an error status")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shared.NewNormalizationError(err, "decoding eBay response failed")
	}
	return nil
}

// ==================== NORMALIZATION ====================

type ebaySearchResponse struct {
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
	ItemSales []ebayItemSale `json:"itemSales"`
}

type ebayItemSale struct {
	ItemID        string      `json:"itemId"`
	Title         string      `json:"title"`
	ConditionID   string      `json:"conditionId"`
	LastSoldPrice *ebayAmount `json:"lastSoldPrice"`
	LastSoldDate  string      `json:"lastSoldDate"`
	Seller        *ebaySeller `json:"seller"`
	Image         *ebayImage  `json:"image"`
	Images        []ebayImage `json:"additionalImages"`
}

type ebayAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebaySeller struct {
	Username           string `json:"username"`
	FeedbackScore      int    `json:"feedbackScore"`
	FeedbackPercentage string `json:"feedbackPercentage"`
}

type ebayImage struct {
	ImageURL string `json:"imageUrl"`
}

func (c *EbayClient) normalize(raw ebayItemSale) (*NormalizedItem, error) {
	if raw.ItemID == "" {
		return nil, fmt.Errorf("item sale missing itemId")
	}

	item := &NormalizedItem{
		Source:    shared.ProviderEbay,
		SourceID:  raw.ItemID,
		Title:     raw.Title,
		Format:    DetectFormat(raw.Title),
		Condition: mapEbayCondition(raw.ConditionID),
	}

	if raw.LastSoldPrice != nil {
		amount := safeFloat(raw.LastSoldPrice.Value)
		currency := raw.LastSoldPrice.Currency
		if currency == "" {
			currency = "USD"
		}
		item.Price = &Price{Amount: amount, Currency: currency, Bucket: PriceBucket(amount)}
	}

	if raw.LastSoldDate != "" {
		if ts, err := time.Parse(time.RFC3339, raw.LastSoldDate); err == nil {
			item.SaleDate = &ts
		}
	}

	if raw.Seller != nil {
		pct := safeFloat(raw.Seller.FeedbackPercentage)
		item.Seller = &SellerSummary{
			Username:        raw.Seller.Username,
			FeedbackScore:   raw.Seller.FeedbackScore,
			FeedbackPercent: pct,
			Reputation:      SellerReputation(raw.Seller.FeedbackScore, pct),
		}
	}

	if raw.Image != nil && raw.Image.ImageURL != "" {
		item.ImageURLs = append(item.ImageURLs, raw.Image.ImageURL)
	}
	for _, img := range raw.Images {
		if img.ImageURL != "" {
			item.ImageURLs = append(item.ImageURLs, img.ImageURL)
		}
	}

	item.Completeness = completeness(
		item.Title != "",
		item.Format != FormatUnknown,
		item.Condition != "Unknown",
		item.Price != nil,
		item.SaleDate != nil,
		item.Seller != nil,
		len(item.ImageURLs) > 0,
	)
	return item, nil
}

func mapEbayCondition(conditionID string) string {
	if name, ok := ebayConditionNames[conditionID]; ok {
		return name
	}
	return "Unknown"
}
