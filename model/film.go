package model

import (
	"encoding/json"
	"time"
)

// Film is a catalog record merged from the metadata providers.
type Film struct {
	ID           string          `json:"id" gorm:"primaryKey"`
	Title        string          `json:"title" gorm:"not null;index"`
	Year         int             `json:"year" gorm:"index"`
	Overview     string          `json:"overview" gorm:"type:text"`
	RuntimeMins  int             `json:"runtime_minutes"`
	Genres       json.RawMessage `json:"genres" gorm:"type:text"` // JSON array of genre names
	PosterURL    string          `json:"poster_url"`
	TmdbID       string          `json:"tmdb_id" gorm:"index"`
	ImdbID       string          `json:"imdb_id" gorm:"index"`
	Rating       float64         `json:"rating"`
	Ratings      json.RawMessage `json:"ratings" gorm:"type:text"` // per-aggregator review scores
	Completeness float64         `json:"completeness"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PriceHistory is one observed sale of a physical copy.
type PriceHistory struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	FilmID        string     `json:"film_id" gorm:"index"`
	Source        string     `json:"source" gorm:"not null;size:50;index"`
	SourceItemID  string     `json:"source_item_id" gorm:"not null;index"`
	Title         string     `json:"title" gorm:"not null"`
	Format        string     `json:"format" gorm:"size:20;index"`
	Condition     string     `json:"condition" gorm:"size:50"`
	Price         float64    `json:"price" gorm:"not null"`
	Currency      string     `json:"currency" gorm:"size:3;default:USD"`
	PriceBucket   string     `json:"price_bucket" gorm:"size:20"`
	SaleDate      *time.Time `json:"sale_date,omitempty" gorm:"index"`
	SellerRating  string     `json:"seller_rating" gorm:"size:20"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Watchlist ties a user to a film they track, with an optional price alert.
type Watchlist struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"not null;index"`
	FilmID       string    `json:"film_id" gorm:"not null;index"`
	TargetFormat string    `json:"target_format" gorm:"size:20"`
	MaxPrice     float64   `json:"max_price"`
	Notes        string    `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationship
	Film Film `json:"film" gorm:"foreignKey:FilmID"`
}
