package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/limiter"
	"github.com/reelworth/reelworth_api/shared"
)

const (
	omdbFreeDailyLimit = 1000
	omdbPaidDailyLimit = 100000
	omdbMinInterval    = 100 * time.Millisecond
)

type OmdbConfig struct {
	APIKey  string
	BaseURL string // e.g. https://www.omdbapi.com
	Paid    bool
}

// OmdbClient fetches IMDb-sourced metadata from the OMDb API. The free tier
// allows one thousand requests per day, tracked in memory with a UTC
// midnight rollover.
type OmdbClient struct {
	cfg   OmdbConfig
	limit *limiter.Interval
	httpc *http.Client
	log   *log.Entry
	now   func() time.Time

	mu        sync.Mutex
	usageDate string
	usedToday int
}

func NewOmdbClient(cfg OmdbConfig, httpc *http.Client) *OmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &OmdbClient{
		cfg:   cfg,
		limit: limiter.NewInterval(omdbMinInterval),
		httpc: httpc,
		log:   log.WithField("provider", shared.ProviderOmdb),
		now:   time.Now,
	}
}

func (c *OmdbClient) Name() string { return shared.ProviderOmdb }

func (c *OmdbClient) dailyLimit() int {
	if c.cfg.Paid {
		return omdbPaidDailyLimit
	}
	return omdbFreeDailyLimit
}

// consumeQuota reserves one request out of the daily allowance, resetting the
// counter at UTC midnight.
func (c *OmdbClient) consumeQuota() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.now().UTC().Format("2006-01-02")
	if c.usageDate != today {
		c.usageDate = today
		c.usedToday = 0
	}
	if c.usedToday >= c.dailyLimit() {
		return shared.NewRateLimitError(nil, "OMDb daily request limit reached")
	}
	c.usedToday++
	return nil
}

// ==================== API CALLS ====================

func (c *OmdbClient) Search(ctx context.Context, q Query) ([]NormalizedItem, error) {
	params := url.Values{}
	params.Set("s", q.Term)
	params.Set("type", "movie")
	if q.Year > 0 {
		params.Set("y", strconv.Itoa(q.Year))
	}
	if q.Offset > 0 {
		params.Set("page", strconv.Itoa(q.Offset))
	}

	var resp omdbSearchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if strings.EqualFold(resp.Response, "False") {
		// "Movie not found!" is an empty result, not a failure.
		return []NormalizedItem{}, nil
	}

	items := make([]NormalizedItem, 0, len(resp.Search))
	for _, raw := range resp.Search {
		items = append(items, *normalizeOmdbSummary(raw))
	}
	return items, nil
}

// Details looks an item up by IMDb ID (tt-prefixed) or by exact title.
func (c *OmdbClient) Details(ctx context.Context, id string) (*NormalizedItem, error) {
	params := url.Values{}
	if strings.HasPrefix(id, "tt") {
		params.Set("i", id)
	} else {
		params.Set("t", id)
	}
	params.Set("plot", "full")

	var raw omdbMovie
	if err := c.get(ctx, params, &raw); err != nil {
		return nil, err
	}
	if strings.EqualFold(raw.Response, "False") {
		return nil, nil
	}
	return normalizeOmdbMovie(raw), nil
}

func (c *OmdbClient) HealthCheck(ctx context.Context) bool {
	item, err := c.Details(ctx, "tt0133093")
	if err != nil {
		c.log.WithError(err).Warn("Health check failed")
		return false
	}
	return item != nil
}

func (c *OmdbClient) Usage() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]interface{}{
		"daily_limit": c.dailyLimit(),
		"used_today":  c.usedToday,
		"remaining":   c.dailyLimit() - c.usedToday,
		"usage_date":  c.usageDate,
	}
}

func (c *OmdbClient) get(ctx context.Context, params url.Values, out interface{}) error {
	if err := c.consumeQuota(); err != nil {
		return err
	}
	if err := c.limit.Admit(ctx); err != nil {
		return shared.NewRateLimitError(err, "request canceled while rate limited")
	}

	params.Set("apikey", c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "building OMDb request failed")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "OMDb request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.NewAuthError(nil, "OMDb rejected the API key")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return shared.NewProviderUnavailableError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), "OMDb returned an error status")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shared.NewNormalizationError(err, "decoding OMDb response failed")
	}
	return nil
}

// ==================== NORMALIZATION ====================

type omdbSearchResponse struct {
	Response string        `json:"Response"`
	Error    string        `json:"Error"`
	Search   []omdbSummary `json:"Search"`
	Total    string        `json:"totalResults"`
}

type omdbSummary struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Poster string `json:"Poster"`
}

type omdbMovie struct {
	Response string `json:"Response"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Runtime  string `json:"Runtime"`
	Genre    string `json:"Genre"`
	Plot     string `json:"Plot"`
	Poster   string `json:"Poster"`
	IMDbID   string `json:"imdbID"`
	Ratings  []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
	IMDbRating string `json:"imdbRating"`
	Metascore  string `json:"Metascore"`
}

func normalizeOmdbSummary(raw omdbSummary) *NormalizedItem {
	item := &NormalizedItem{
		Source:   shared.ProviderOmdb,
		SourceID: raw.IMDbID,
		Title:    raw.Title,
		Format:   FormatUnknown,
		Year:     safeInt(raw.Year),
	}
	if raw.Poster != "" && raw.Poster != "N/A" {
		item.ImageURLs = []string{raw.Poster}
	}
	item.Completeness = completeness(
		item.Title != "",
		item.Year > 0,
		len(item.ImageURLs) > 0,
	)
	return item
}

func normalizeOmdbMovie(raw omdbMovie) *NormalizedItem {
	item := &NormalizedItem{
		Source:   shared.ProviderOmdb,
		SourceID: raw.IMDbID,
		Title:    raw.Title,
		Format:   FormatUnknown,
		Year:     safeInt(raw.Year),
		Runtime:  parseRuntime(raw.Runtime),
		Rating:   safeFloat(raw.IMDbRating),
	}
	if raw.Plot != "" && raw.Plot != "N/A" {
		item.Overview = raw.Plot
	}
	if raw.Poster != "" && raw.Poster != "N/A" {
		item.ImageURLs = []string{raw.Poster}
	}
	if raw.Genre != "" && raw.Genre != "N/A" {
		for _, g := range strings.Split(raw.Genre, ",") {
			item.Genres = append(item.Genres, strings.TrimSpace(g))
		}
	}

	ratings := map[string]string{}
	for _, r := range raw.Ratings {
		switch r.Source {
		case "Internet Movie Database":
			ratings["imdb"] = r.Value
		case "Rotten Tomatoes":
			ratings["rotten_tomatoes"] = r.Value
		case "Metacritic":
			ratings["metacritic"] = r.Value
		}
	}
	if _, ok := ratings["imdb"]; !ok && raw.IMDbRating != "" && raw.IMDbRating != "N/A" {
		ratings["imdb"] = raw.IMDbRating
	}
	if _, ok := ratings["metacritic"]; !ok && raw.Metascore != "" && raw.Metascore != "N/A" {
		ratings["metacritic"] = raw.Metascore
	}
	if len(ratings) > 0 {
		item.Ratings = ratings
	}

	item.Completeness = completeness(
		item.Title != "",
		item.Year > 0,
		item.Overview != "",
		item.Runtime > 0,
		len(item.Genres) > 0,
		len(item.ImageURLs) > 0,
		len(item.Ratings) > 0,
	)
	return item
}

// parseRuntime extracts minutes from strings like "136 min"; "N/A" yields 0.
func parseRuntime(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	return safeInt(fields[0])
}
