package services

import (
	stdcontext "context"
	"encoding/json"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/model"
	"github.com/reelworth/reelworth_api/providers"
	"github.com/reelworth/reelworth_api/services/repositories"
	"github.com/reelworth/reelworth_api/shared"
)

// FilmService maintains the local catalog built from provider responses:
// metadata goes into films, marketplace sales into price history.
type FilmService struct {
	context.DefaultService

	filmRepo  *repositories.FilmRepository
	priceRepo *repositories.PriceRepository

	sqlSvc   *SqliteService
	mediaSvc *MediaService
}

const FILM_SVC = "film_svc"

func (svc FilmService) Id() string {
	return FILM_SVC
}

func (svc *FilmService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.mediaSvc = svc.Service(MEDIA_SVC).(*MediaService)
	svc.filmRepo = repositories.NewFilmRepository(svc.sqlSvc.Db())
	svc.priceRepo = repositories.NewPriceRepository(svc.sqlSvc.Db())
	return nil
}

func (svc *FilmService) Shutdown() {
}

// ==================== CATALOG QUERIES ====================

func (svc *FilmService) GetFilm(id string) (*dto.FilmDetailResponse, error) {
	film, err := svc.filmRepo.GetByID(id)
	if err != nil {
		return nil, shared.NewNotFoundError("film not found")
	}

	stats, err := svc.priceRepo.StatsByFormat(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resp := &dto.FilmDetailResponse{Film: toFilmResponse(*film)}
	if mirrored, err := svc.mediaSvc.PosterURL(stdcontext.Background(), film.ID); err == nil && mirrored != "" {
		resp.Film.PosterURL = mirrored
	}
	if len(stats) > 0 {
		resp.PriceStats = make(map[string]dto.PriceStats, len(stats))
		for _, s := range stats {
			resp.PriceStats[s.Format] = dto.PriceStats{
				Format:       s.Format,
				SampleSize:   s.SampleSize,
				MinPrice:     s.MinPrice,
				MaxPrice:     s.MaxPrice,
				AveragePrice: s.AvgPrice,
				LatestSale:   s.LatestSale,
			}
		}
	}
	return resp, nil
}

func (svc *FilmService) SearchCatalog(title string, page, limit int) (*dto.FilmCollectionResponse, error) {
	films, total, err := svc.filmRepo.SearchByTitle(title, page, limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resp := &dto.FilmCollectionResponse{
		Films: make([]dto.FilmResponse, 0, len(films)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, film := range films {
		resp.Films = append(resp.Films, toFilmResponse(film))
	}
	return resp, nil
}

func (svc *FilmService) GetPriceHistory(filmID string, limit int) (*dto.PriceHistoryResponse, error) {
	if _, err := svc.filmRepo.GetByID(filmID); err != nil {
		return nil, shared.NewNotFoundError("film not found")
	}

	rows, total, err := svc.priceRepo.ForFilm(filmID, limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return &dto.PriceHistoryResponse{
		FilmID:       filmID,
		Observations: rows,
		Total:        total,
	}, nil
}

// ==================== INGESTION ====================

// StoreResults persists an aggregated response in the background. Search
// latency never waits on catalog writes.
func (svc *FilmService) StoreResults(resp *dto.AggregatedSearchResponse) {
	go func() {
		for provider, result := range resp.Results {
			if result.Status != shared.StatusOK {
				continue
			}
			for i := range result.Items {
				if err := svc.storeItem(&result.Items[i]); err != nil {
					log.WithError(err).WithField("provider", provider).Warn("Failed to store search result")
				}
			}
		}
	}()
}

func (svc *FilmService) storeItem(item *providers.NormalizedItem) error {
	switch item.Source {
	case shared.ProviderTmdb, shared.ProviderOmdb:
		return svc.saveMetadata(item)
	case shared.ProviderEbay:
		if item.Price == nil {
			return nil
		}
		filmID, err := svc.resolveFilmForSale(item)
		if err != nil {
			return err
		}
		return svc.savePriceObservation(item, filmID)
	default:
		// Collectible listings carry no film linkage worth keeping.
		return nil
	}
}

func (svc *FilmService) saveMetadata(item *providers.NormalizedItem) error {
	film := model.Film{
		ID:           uuid.NewString(),
		Title:        item.Title,
		Year:         item.Year,
		Overview:     item.Overview,
		RuntimeMins:  item.Runtime,
		Rating:       item.Rating,
		Completeness: item.Completeness,
	}
	if item.Source == shared.ProviderTmdb {
		film.TmdbID = item.SourceID
	} else {
		film.ImdbID = item.SourceID
	}
	if len(item.ImageURLs) > 0 {
		film.PosterURL = item.ImageURLs[0]
	}
	if len(item.Genres) > 0 {
		if data, err := json.Marshal(item.Genres); err == nil {
			film.Genres = data
		}
	}
	if len(item.Ratings) > 0 {
		if data, err := json.Marshal(item.Ratings); err == nil {
			film.Ratings = data
		}
	}

	// Reuse an existing row when the external id is already known.
	if existing, err := svc.filmRepo.FindByExternalID(film.TmdbID, film.ImdbID); err == nil {
		film.ID = existing.ID
		film.CreatedAt = existing.CreatedAt
		if film.TmdbID == "" {
			film.TmdbID = existing.TmdbID
		}
		if film.ImdbID == "" {
			film.ImdbID = existing.ImdbID
		}
	}

	if err := svc.filmRepo.Save(&film); err != nil {
		return err
	}

	if film.PosterURL != "" {
		svc.mediaSvc.MirrorPoster(film.ID, film.PosterURL)
	}
	return nil
}

// resolveFilmForSale links a marketplace sale to its catalog film so the
// price-history and statistics queries can find it. Unknown titles get a stub
// catalog entry; later metadata passes enrich it.
func (svc *FilmService) resolveFilmForSale(item *providers.NormalizedItem) (string, error) {
	if item.Title == "" {
		return "", nil
	}
	if film, err := svc.filmRepo.FindByTitleYear(item.Title, item.Year); err == nil {
		return film.ID, nil
	}

	film := model.Film{
		ID:    uuid.NewString(),
		Title: item.Title,
		Year:  item.Year,
	}
	if err := svc.filmRepo.Save(&film); err != nil {
		return "", err
	}
	return film.ID, nil
}

func (svc *FilmService) savePriceObservation(item *providers.NormalizedItem, filmID string) error {
	if item.Price == nil {
		return nil
	}
	obs := model.PriceHistory{
		ID:           uuid.NewString(),
		FilmID:       filmID,
		Source:       item.Source,
		SourceItemID: item.SourceID,
		Title:        item.Title,
		Format:       string(item.Format),
		Condition:    item.Condition,
		Price:        item.Price.Amount,
		Currency:     item.Price.Currency,
		PriceBucket:  item.Price.Bucket,
		SaleDate:     item.SaleDate,
	}
	if item.Seller != nil {
		obs.SellerRating = item.Seller.Reputation
	}
	return svc.priceRepo.SaveIfNew(&obs)
}

func toFilmResponse(film model.Film) dto.FilmResponse {
	resp := dto.FilmResponse{
		ID:           film.ID,
		Title:        film.Title,
		Year:         film.Year,
		Overview:     film.Overview,
		RuntimeMins:  film.RuntimeMins,
		PosterURL:    film.PosterURL,
		TmdbID:       film.TmdbID,
		ImdbID:       film.ImdbID,
		Rating:       film.Rating,
		Completeness: film.Completeness,
		CreatedAt:    film.CreatedAt,
	}
	if len(film.Genres) > 0 {
		_ = json.Unmarshal(film.Genres, &resp.Genres)
	}
	return resp
}
