// Package providers contains the external-API client layer: one client per
// third-party source (eBay marketplace insights, TMDb, OMDb, GoCollect), each
// composing its own rate limiter, credential handling and response
// normalization into the common NormalizedItem shape.
package providers

import (
	"context"
	"time"
)

// MediaFormat is a closed enum of physical movie formats.
type MediaFormat string

const (
	FormatVHS       MediaFormat = "VHS"
	FormatDVD       MediaFormat = "DVD"
	FormatBluRay    MediaFormat = "Blu-ray"
	Format4K        MediaFormat = "4K UHD"
	FormatLaserDisc MediaFormat = "LaserDisc"
	FormatUnknown   MediaFormat = "Unknown"
)

// Price is a normalized price observation with its display bucket.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Bucket   string  `json:"bucket"`
}

// SellerSummary condenses marketplace seller feedback into a reputation tier.
type SellerSummary struct {
	Username        string  `json:"username,omitempty"`
	FeedbackScore   int     `json:"feedback_score"`
	FeedbackPercent float64 `json:"feedback_percent"`
	Reputation      string  `json:"reputation"`
}

// NormalizedItem is the common shape every provider response is translated
// into. It is derived data: regenerated on every response, never hand-edited.
type NormalizedItem struct {
	Source       string         `json:"source"`
	SourceID     string         `json:"source_id"`
	Title        string         `json:"title"`
	Format       MediaFormat    `json:"format"`
	Condition    string         `json:"condition"`
	Year         int            `json:"year,omitempty"`
	Price        *Price         `json:"price,omitempty"`
	SaleDate     *time.Time     `json:"sale_date,omitempty"`
	Seller       *SellerSummary `json:"seller,omitempty"`
	ImageURLs    []string       `json:"image_urls,omitempty"`
	Overview     string         `json:"overview,omitempty"`
	Genres       []string       `json:"genres,omitempty"`
	Runtime      int            `json:"runtime_minutes,omitempty"`
	Rating       float64        `json:"rating,omitempty"`

	// Ratings holds per-aggregator review scores keyed by source
	// (imdb, rotten_tomatoes, metacritic).
	Ratings      map[string]string `json:"ratings,omitempty"`
	Completeness float64           `json:"completeness"`
}

// Query carries a logical search across providers; each client uses the
// fields its upstream API understands and clamps limits to its documented
// maximum.
type Query struct {
	Term        string
	CategoryIDs string
	Filter      string
	Market      string
	Year        int
	Limit       int
	Offset      int
	Sort        string
	Batch       bool
}

// Client is the contract every provider client satisfies.
type Client interface {
	Name() string
	Search(ctx context.Context, q Query) ([]NormalizedItem, error)
	Details(ctx context.Context, id string) (*NormalizedItem, error)
	HealthCheck(ctx context.Context) bool
}

// UsageReporter is implemented by clients that can report their current quota
// consumption.
type UsageReporter interface {
	Usage() map[string]interface{}
}

// QuotaLimiter is the persistent daily-quota collaborator used by the
// strict-quota collectibles client. The check is advisory and read-only; every
// call that actually reaches the network must be recorded, success or not,
// because the upstream charges failed calls against the quota too.
type QuotaLimiter interface {
	CanMakeRequest(endpoint string, isBatch bool) bool
	RecordRequest(endpoint string, success bool)
}
