package repositories

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/reelworth/reelworth_api/model"
)

type FilmRepository struct {
	BaseRepository
}

func NewFilmRepository(db *gorm.DB) *FilmRepository {
	return &FilmRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *FilmRepository) GetByID(id string) (*model.Film, error) {
	var film model.Film
	if err := r.db.First(&film, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &film, nil
}

// FindByExternalID matches a film on its TMDb or IMDb identifier.
func (r *FilmRepository) FindByExternalID(tmdbID, imdbID string) (*model.Film, error) {
	q := r.db
	switch {
	case tmdbID != "" && imdbID != "":
		q = q.Where("tmdb_id = ? OR imdb_id = ?", tmdbID, imdbID)
	case tmdbID != "":
		q = q.Where("tmdb_id = ?", tmdbID)
	case imdbID != "":
		q = q.Where("imdb_id = ?", imdbID)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var film model.Film
	if err := q.First(&film).Error; err != nil {
		return nil, err
	}
	return &film, nil
}

func (r *FilmRepository) Save(film *model.Film) error {
	return r.db.Save(film).Error
}

// FindByTitleYear matches a film on exact title, preferring the matching
// release year when one is known.
func (r *FilmRepository) FindByTitleYear(title string, year int) (*model.Film, error) {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var film model.Film
	if year > 0 {
		if err := r.db.Where("LOWER(title) = ? AND year = ?", t, year).First(&film).Error; err == nil {
			return &film, nil
		}
	}
	if err := r.db.Where("LOWER(title) = ?", t).First(&film).Error; err != nil {
		return nil, err
	}
	return &film, nil
}

func (r *FilmRepository) SearchByTitle(title string, page, limit int) ([]model.Film, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := r.db.Model(&model.Film{})
	if title != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var films []model.Film
	err := q.Order("title ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&films).Error
	return films, total, err
}

// ==================== PRICE HISTORY ====================

type PriceRepository struct {
	BaseRepository
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *PriceRepository) Save(obs *model.PriceHistory) error {
	return r.db.Save(obs).Error
}

// SaveIfNew stores an observation unless the same source item sale is already
// recorded.
func (r *PriceRepository) SaveIfNew(obs *model.PriceHistory) error {
	var count int64
	err := r.db.Model(&model.PriceHistory{}).
		Where("source = ? AND source_item_id = ?", obs.Source, obs.SourceItemID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.Create(obs).Error
}

func (r *PriceRepository) ForFilm(filmID string, limit int) ([]model.PriceHistory, int64, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var total int64
	q := r.db.Model(&model.PriceHistory{}).Where("film_id = ?", filmID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PriceHistory
	err := q.Order("sale_date DESC").Limit(limit).Find(&rows).Error
	return rows, total, err
}

// FormatStats holds aggregate sale numbers for one film and format.
type FormatStats struct {
	Format     string
	SampleSize int
	MinPrice   float64
	MaxPrice   float64
	AvgPrice   float64
	LatestSale *time.Time
}

// StatsByFormat aggregates sale prices per physical format.
func (r *PriceRepository) StatsByFormat(filmID string) ([]FormatStats, error) {
	var rows []struct {
		Format     string
		SampleSize int
		MinPrice   float64
		MaxPrice   float64
		AvgPrice   float64
		LatestSale *time.Time
	}
	err := r.db.Model(&model.PriceHistory{}).
		Select("format, COUNT(*) AS sample_size, MIN(price) AS min_price, MAX(price) AS max_price, AVG(price) AS avg_price, MAX(sale_date) AS latest_sale").
		Where("film_id = ?", filmID).
		Group("format").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]FormatStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, FormatStats(row))
	}
	return stats, nil
}
