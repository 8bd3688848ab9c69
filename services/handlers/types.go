package handlers

import (
	"context"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/model"
	"github.com/reelworth/reelworth_api/providers"
)

type AggregatorServiceInterface interface {
	Search(ctx context.Context, req dto.SearchRequest) (*dto.AggregatedSearchResponse, error)
	Details(ctx context.Context, provider, id string) (*providers.NormalizedItem, error)
}

type FilmServiceInterface interface {
	GetFilm(id string) (*dto.FilmDetailResponse, error)
	SearchCatalog(title string, page, limit int) (*dto.FilmCollectionResponse, error)
	GetPriceHistory(filmID string, limit int) (*dto.PriceHistoryResponse, error)
}

type TrendingServiceInterface interface {
	Top(ctx context.Context, limit int) (*dto.TrendingResponse, error)
}

type ProviderServiceInterface interface {
	Clients() map[string]providers.Client
	Health(ctx context.Context) map[string]bool
	Usage() map[string]map[string]interface{}
}

type QuotaServiceInterface interface {
	Usage() map[string]interface{}
	History(days int) ([]model.ProviderAPIUsage, error)
	Reset(endpoint string) error
}

type WatchlistServiceInterface interface {
	Add(userID string, req dto.AddWatchlistRequest) (*model.Watchlist, error)
	Remove(userID, entryID string) error
	List(userID string) (*dto.WatchlistResponse, error)
}

type WebhookServiceInterface interface {
	Configured() bool
	ChallengeResponse(challengeCode string) string
	VerifyNotification(ctx context.Context, header string, body []byte) error
	ProcessDeletion(body []byte) error
}
