package dto

import "github.com/reelworth/reelworth_api/model"

type AddWatchlistRequest struct {
	FilmID       string  `json:"film_id" validate:"required"`
	TargetFormat string  `json:"target_format" validate:"media_format"`
	MaxPrice     float64 `json:"max_price" validate:"omitempty,gte=0"`
	Notes        string  `json:"notes" validate:"omitempty,max=500"`
}

func (r AddWatchlistRequest) Validate() error {
	return GetValidator().Struct(r)
}

type WatchlistResponse struct {
	Entries []model.Watchlist `json:"entries"`
	Total   int64             `json:"total"`
}
