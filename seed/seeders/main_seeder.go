package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// 1. Seed films first (no dependencies)
	filmSeeder := NewFilmSeeder(s.db)
	if err := filmSeeder.SeedFilms(); err != nil {
		log.Printf("Film seeding failed: %v", err)
		return err
	}

	// 2. Seed price history (depends on films)
	priceSeeder := NewPriceSeeder(s.db)
	if err := priceSeeder.SeedPrices(); err != nil {
		log.Printf("Price seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedFilmsOnly seeds only the film catalog
func (s *MainSeeder) SeedFilmsOnly() error {
	filmSeeder := NewFilmSeeder(s.db)
	return filmSeeder.SeedFilms()
}

// SeedPricesOnly seeds only price history
func (s *MainSeeder) SeedPricesOnly() error {
	priceSeeder := NewPriceSeeder(s.db)
	return priceSeeder.SeedPrices()
}
