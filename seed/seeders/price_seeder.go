package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reelworth/reelworth_api/model"
)

// PriceSeeder attaches sample sale observations to the starter catalog
type PriceSeeder struct {
	db *gorm.DB
}

func NewPriceSeeder(db *gorm.DB) *PriceSeeder {
	return &PriceSeeder{db: db}
}

type seedSale struct {
	TmdbID    string
	Format    string
	Condition string
	Price     float64
	Bucket    string
	DaysAgo   int
}

var starterSales = []seedSale{
	{TmdbID: "329", Format: "VHS", Condition: "New", Price: 89.99, Bucket: "High", DaysAgo: 3},
	{TmdbID: "329", Format: "VHS", Condition: "Used", Price: 12.50, Bucket: "Low", DaysAgo: 9},
	{TmdbID: "329", Format: "DVD", Condition: "Used", Price: 6.99, Bucket: "Low", DaysAgo: 15},
	{TmdbID: "603", Format: "DVD", Condition: "Used", Price: 4.25, Bucket: "Budget", DaysAgo: 5},
	{TmdbID: "603", Format: "4K UHD", Condition: "New", Price: 24.99, Bucket: "Medium", DaysAgo: 2},
	{TmdbID: "78", Format: "LaserDisc", Condition: "Very Good", Price: 145.00, Bucket: "Premium", DaysAgo: 20},
	{TmdbID: "149", Format: "LaserDisc", Condition: "Good", Price: 110.00, Bucket: "Premium", DaysAgo: 30},
	{TmdbID: "948", Format: "VHS", Condition: "Acceptable", Price: 18.00, Bucket: "Medium", DaysAgo: 12},
}

// SeedPrices inserts sample sales for any seeded film that has none yet
func (s *PriceSeeder) SeedPrices() error {
	seeded := 0
	for _, sale := range starterSales {
		var film model.Film
		if err := s.db.Where("tmdb_id = ?", sale.TmdbID).First(&film).Error; err != nil {
			// Film not seeded; skip its sales.
			continue
		}

		sourceItemID := "seed|" + sale.TmdbID + "|" + sale.Format
		var count int64
		if err := s.db.Model(&model.PriceHistory{}).
			Where("source = ? AND source_item_id = ? AND price = ?", "seed", sourceItemID, sale.Price).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		saleDate := time.Now().UTC().AddDate(0, 0, -sale.DaysAgo)
		obs := model.PriceHistory{
			ID:           uuid.NewString(),
			FilmID:       film.ID,
			Source:       "seed",
			SourceItemID: sourceItemID,
			Title:        film.Title + " " + sale.Format,
			Format:       sale.Format,
			Condition:    sale.Condition,
			Price:        sale.Price,
			Currency:     "USD",
			PriceBucket:  sale.Bucket,
			SaleDate:     &saleDate,
		}
		if err := s.db.Create(&obs).Error; err != nil {
			return err
		}
		seeded++
	}

	log.Printf("Seeded %d price observations", seeded)
	return nil
}
