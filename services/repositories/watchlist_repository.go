package repositories

import (
	"gorm.io/gorm"

	"github.com/reelworth/reelworth_api/model"
)

type WatchlistRepository struct {
	BaseRepository
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *WatchlistRepository) Add(entry *model.Watchlist) error {
	return r.db.Create(entry).Error
}

func (r *WatchlistRepository) Remove(userID, entryID string) error {
	result := r.db.Where("id = ? AND user_id = ?", entryID, userID).Delete(&model.Watchlist{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *WatchlistRepository) ForUser(userID string) ([]model.Watchlist, int64, error) {
	var entries []model.Watchlist
	err := r.db.Preload("Film").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, int64(len(entries)), nil
}

func (r *WatchlistRepository) Exists(userID, filmID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Watchlist{}).
		Where("user_id = ? AND film_id = ?", userID, filmID).
		Count(&count).Error
	return count > 0, err
}
