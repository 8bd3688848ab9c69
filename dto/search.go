package dto

import (
	"time"

	"github.com/reelworth/reelworth_api/providers"
)

type SearchRequest struct {
	Query   string   `json:"query" validate:"required,min=2,max=200"`
	Year    int      `json:"year" validate:"omitempty,gte=1880,lte=2100"`
	Format  string   `json:"format" validate:"media_format"`
	Market  string   `json:"market" validate:"collectible_market"`
	Sources []string `json:"sources" validate:"omitempty,dive,oneof=ebay tmdb omdb gocollect"`
	Limit   int      `json:"limit" validate:"omitempty,gte=1,lte=200"`
	Page    int      `json:"page" validate:"omitempty,gte=1"`
}

func (r SearchRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ProviderResult is one provider's slice of an aggregated response. Status is
// always set; Items may be empty even on ok when the provider had nothing.
type ProviderResult struct {
	Status     string                     `json:"status"`
	Items      []providers.NormalizedItem `json:"items"`
	Error      string                     `json:"error,omitempty"`
	DurationMs int64                      `json:"duration_ms"`
}

type AggregatedSearchResponse struct {
	Query      string                    `json:"query"`
	Year       int                       `json:"year,omitempty"`
	Results    map[string]ProviderResult `json:"results"`
	TotalItems int                       `json:"total_items"`
	Timestamp  time.Time                 `json:"timestamp"`
}

type TrendingEntry struct {
	Query string  `json:"query"`
	Score float64 `json:"score"`
}

type TrendingResponse struct {
	Window  string          `json:"window"`
	Entries []TrendingEntry `json:"entries"`
}
