package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/limiter"
	"github.com/reelworth/reelworth_api/shared"
)

const (
	tmdbWindowMax      = 40
	tmdbWindow         = 10 * time.Second
	tmdbImageConfigTTL = 24 * time.Hour

	// Used whenever the configuration endpoint is unreachable.
	tmdbDefaultImageBase = "https://image.tmdb.org/t/p/"
)

type TmdbConfig struct {
	APIKey  string // v4 read access token, sent as a Bearer header
	BaseURL string // e.g. https://api.themoviedb.org/3
}

// TmdbClient fetches movie metadata from The Movie Database.
type TmdbClient struct {
	cfg    TmdbConfig
	limit  *limiter.Window
	httpc  *http.Client
	log    *log.Entry
	images imageConfigCache
	now    func() time.Time
}

// imageConfigCache holds the TMDb image base configuration for 24h. The
// mutex guards only the cached fields; the refresh call runs outside it.
type imageConfigCache struct {
	mu        sync.Mutex
	baseURL   string
	expiresAt time.Time
	inflight  bool
}

func NewTmdbClient(cfg TmdbConfig, lim *limiter.Window, httpc *http.Client) *TmdbClient {
	if lim == nil {
		lim = limiter.NewWindow(tmdbWindowMax, tmdbWindow)
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &TmdbClient{
		cfg:   cfg,
		limit: lim,
		httpc: httpc,
		log:   log.WithField("provider", shared.ProviderTmdb),
		now:   time.Now,
	}
}

func (c *TmdbClient) Name() string { return shared.ProviderTmdb }

// ==================== API CALLS ====================

func (c *TmdbClient) Search(ctx context.Context, q Query) ([]NormalizedItem, error) {
	params := url.Values{}
	params.Set("query", q.Term)
	params.Set("include_adult", "false")
	if q.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(q.Year))
	}
	if q.Offset > 0 {
		params.Set("page", strconv.Itoa(q.Offset))
	}

	var resp tmdbSearchResponse
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, err
	}

	base := c.imageBase(ctx)
	items := make([]NormalizedItem, 0, len(resp.Results))
	for _, raw := range resp.Results {
		items = append(items, *c.normalize(raw, base))
	}
	return items, nil
}

func (c *TmdbClient) Details(ctx context.Context, id string) (*NormalizedItem, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits,videos,images,release_dates")

	var raw tmdbMovie
	if err := c.get(ctx, "/movie/"+url.PathEscape(id), params, &raw); err != nil {
		return nil, err
	}
	item := c.normalize(raw, c.imageBase(ctx))
	return item, nil
}

func (c *TmdbClient) HealthCheck(ctx context.Context) bool {
	var out map[string]interface{}
	if err := c.get(ctx, "/configuration", nil, &out); err != nil {
		c.log.WithError(err).Warn("Health check failed")
		return false
	}
	return true
}

func (c *TmdbClient) Usage() map[string]interface{} {
	return map[string]interface{}{
		"window_max":     tmdbWindowMax,
		"window_seconds": int(tmdbWindow.Seconds()),
		"in_flight":      c.limit.InFlight(),
		"remaining":      c.limit.Remaining(),
	}
}

func (c *TmdbClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limit.Admit(ctx); err != nil {
		return shared.NewRateLimitError(err, "request canceled while rate limited")
	}

	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "building TMDb request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return shared.NewProviderUnavailableError(err, "TMDb request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.NewAuthError(nil, "TMDb rejected the API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return shared.NewRateLimitError(nil, "TMDb rate limit exceeded")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return shared.NewProviderUnavailableError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), "TMDb returned an error status")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shared.NewNormalizationError(err, "decoding TMDb response failed")
	}
	return nil
}

// ==================== IMAGE CONFIGURATION ====================

// imageBase returns the cached image base URL, refreshing it at most once per
// 24h. Staleness is checked under the lock, the fetch runs with the lock
// released, and callers who arrive while a refresh is in flight use the
// previous value (or the default) instead of queueing behind the network
// call.
func (c *TmdbClient) imageBase(ctx context.Context) string {
	c.images.mu.Lock()
	if c.images.baseURL != "" && c.now().Before(c.images.expiresAt) {
		base := c.images.baseURL
		c.images.mu.Unlock()
		return base
	}
	if c.images.inflight {
		base := c.images.baseURL
		c.images.mu.Unlock()
		if base == "" {
			return tmdbDefaultImageBase
		}
		return base
	}
	c.images.inflight = true
	c.images.mu.Unlock()

	base := c.fetchImageBase(ctx)

	c.images.mu.Lock()
	c.images.baseURL = base
	c.images.expiresAt = c.now().Add(tmdbImageConfigTTL)
	c.images.inflight = false
	c.images.mu.Unlock()
	return base
}

// fetchImageBase asks /configuration for the secure base URL. A failed
// refresh falls back to the documented default so poster URLs can always be
// built.
func (c *TmdbClient) fetchImageBase(ctx context.Context) string {
	var cfg struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}
	if err := c.get(ctx, "/configuration", nil, &cfg); err != nil || cfg.Images.SecureBaseURL == "" {
		if err != nil {
			c.log.WithError(err).Warn("Image configuration refresh failed, using default base")
		}
		return tmdbDefaultImageBase
	}
	return cfg.Images.SecureBaseURL
}

func imageURL(base, size, path string) string {
	if path == "" {
		return ""
	}
	return base + size + path
}

// ==================== NORMALIZATION ====================

type tmdbSearchResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []tmdbMovie `json:"results"`
}

type tmdbMovie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	Runtime      int     `json:"runtime"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ProductionCompanies []struct {
		Name string `json:"name"`
	} `json:"production_companies"`
}

func (c *TmdbClient) normalize(raw tmdbMovie, imgBase string) *NormalizedItem {
	item := &NormalizedItem{
		Source:   shared.ProviderTmdb,
		SourceID: strconv.Itoa(raw.ID),
		Title:    raw.Title,
		Format:   FormatUnknown,
		Year:     yearOf(raw.ReleaseDate),
		Overview: raw.Overview,
	}

	poster := imageURL(imgBase, "w500", raw.PosterPath)
	if poster != "" {
		item.ImageURLs = append(item.ImageURLs, poster)
	}
	if backdrop := imageURL(imgBase, "w780", raw.BackdropPath); backdrop != "" {
		item.ImageURLs = append(item.ImageURLs, backdrop)
	}

	for _, g := range raw.Genres {
		item.Genres = append(item.Genres, g.Name)
	}
	item.Runtime = raw.Runtime
	item.Rating = raw.VoteAverage

	item.Completeness = completeness(
		raw.Title != "",
		raw.Overview != "",
		raw.ReleaseDate != "",
		raw.Runtime > 0,
		len(raw.Genres) > 0,
		poster != "",
		raw.VoteAverage > 0,
		len(raw.ProductionCompanies) > 0,
	)
	return item
}
