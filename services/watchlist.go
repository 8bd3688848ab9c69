package services

import (
	"github.com/alphabatem/common/context"
	"github.com/google/uuid"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/model"
	"github.com/reelworth/reelworth_api/services/repositories"
	"github.com/reelworth/reelworth_api/shared"
)

// WatchlistService tracks films a user wants priced.
type WatchlistService struct {
	context.DefaultService

	watchRepo *repositories.WatchlistRepository
	filmRepo  *repositories.FilmRepository

	sqlSvc *SqliteService
}

const WATCHLIST_SVC = "watchlist_svc"

func (svc WatchlistService) Id() string {
	return WATCHLIST_SVC
}

func (svc *WatchlistService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.watchRepo = repositories.NewWatchlistRepository(svc.sqlSvc.Db())
	svc.filmRepo = repositories.NewFilmRepository(svc.sqlSvc.Db())
	return nil
}

func (svc *WatchlistService) Shutdown() {
}

func (svc *WatchlistService) Add(userID string, req dto.AddWatchlistRequest) (*model.Watchlist, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(dto.FormatValidationErrors(err), "invalid watchlist request")
	}

	if _, err := svc.filmRepo.GetByID(req.FilmID); err != nil {
		return nil, shared.NewNotFoundError("film not found")
	}

	exists, err := svc.watchRepo.Exists(userID, req.FilmID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if exists {
		return nil, shared.NewBadRequestError(nil, "film already on watchlist")
	}

	entry := model.Watchlist{
		ID:           uuid.NewString(),
		UserID:       userID,
		FilmID:       req.FilmID,
		TargetFormat: req.TargetFormat,
		MaxPrice:     req.MaxPrice,
		Notes:        req.Notes,
	}
	if err := svc.watchRepo.Add(&entry); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return &entry, nil
}

func (svc *WatchlistService) Remove(userID, entryID string) error {
	if err := svc.watchRepo.Remove(userID, entryID); err != nil {
		return shared.NewNotFoundError("watchlist entry not found")
	}
	return nil
}

func (svc *WatchlistService) List(userID string) (*dto.WatchlistResponse, error) {
	entries, total, err := svc.watchRepo.ForUser(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return &dto.WatchlistResponse{Entries: entries, Total: total}, nil
}
