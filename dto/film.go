package dto

import (
	"time"

	"github.com/reelworth/reelworth_api/model"
)

type FilmResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Year         int       `json:"year,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	RuntimeMins  int       `json:"runtime_minutes,omitempty"`
	Genres       []string  `json:"genres,omitempty"`
	PosterURL    string    `json:"poster_url,omitempty"`
	TmdbID       string    `json:"tmdb_id,omitempty"`
	ImdbID       string    `json:"imdb_id,omitempty"`
	Rating       float64   `json:"rating,omitempty"`
	Completeness float64   `json:"completeness"`
	CreatedAt    time.Time `json:"created_at"`
}

type FilmCollectionResponse struct {
	Films []FilmResponse `json:"films"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// PriceStats summarizes observed sales for one film and format.
type PriceStats struct {
	Format       string     `json:"format,omitempty"`
	SampleSize   int        `json:"sample_size"`
	MinPrice     float64    `json:"min_price"`
	MaxPrice     float64    `json:"max_price"`
	AveragePrice float64    `json:"average_price"`
	LatestSale   *time.Time `json:"latest_sale,omitempty"`
}

type FilmDetailResponse struct {
	Film       FilmResponse         `json:"film"`
	PriceStats map[string]PriceStats `json:"price_stats,omitempty"`
}

type PriceHistoryResponse struct {
	FilmID       string               `json:"film_id"`
	Observations []model.PriceHistory `json:"observations"`
	Total        int64                `json:"total"`
}
