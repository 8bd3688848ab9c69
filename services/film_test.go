package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelworth/reelworth_api/model"
	"github.com/reelworth/reelworth_api/providers"
	"github.com/reelworth/reelworth_api/services/repositories"
	"github.com/reelworth/reelworth_api/shared"
)

func newFilmTestService(t *testing.T) *FilmService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&model.Film{}, &model.PriceHistory{}); err != nil {
		t.Fatal(err)
	}
	return &FilmService{
		sqlSvc:    &SqliteService{db: db},
		mediaSvc:  &MediaService{jobs: make(chan mirrorJob, 8)},
		filmRepo:  repositories.NewFilmRepository(db),
		priceRepo: repositories.NewPriceRepository(db),
	}
}

func TestSaveMetadataDeduplicatesOnExternalID(t *testing.T) {
	svc := newFilmTestService(t)

	meta := providers.NormalizedItem{
		Source:   shared.ProviderTmdb,
		SourceID: "603",
		Title:    "The Matrix",
		Year:     1999,
		Overview: "A computer hacker learns the truth.",
	}
	if err := svc.storeItem(&meta); err != nil {
		t.Fatal(err)
	}
	// Second pass with richer data updates the same row.
	meta.Runtime = 136
	if err := svc.storeItem(&meta); err != nil {
		t.Fatal(err)
	}

	var count int64
	svc.sqlSvc.Db().Model(&model.Film{}).Count(&count)
	if count != 1 {
		t.Fatalf("films = %d, want 1", count)
	}

	var film model.Film
	if err := svc.sqlSvc.Db().First(&film).Error; err != nil {
		t.Fatal(err)
	}
	if film.RuntimeMins != 136 {
		t.Errorf("RuntimeMins = %d, want 136", film.RuntimeMins)
	}
}

func TestSavePriceObservationDeduplicatesSales(t *testing.T) {
	svc := newFilmTestService(t)

	sale := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	obs := providers.NormalizedItem{
		Source:   shared.ProviderEbay,
		SourceID: "v1|123|0",
		Title:    "Jurassic Park VHS",
		Format:   providers.FormatVHS,
		Price:    &providers.Price{Amount: 24.99, Currency: "USD", Bucket: "Medium"},
		SaleDate: &sale,
	}
	if err := svc.storeItem(&obs); err != nil {
		t.Fatal(err)
	}
	if err := svc.storeItem(&obs); err != nil {
		t.Fatal(err)
	}

	var count int64
	svc.sqlSvc.Db().Model(&model.PriceHistory{}).Count(&count)
	if count != 1 {
		t.Fatalf("observations = %d, want 1", count)
	}
}

func TestStoreItemLinksSaleToCatalogFilm(t *testing.T) {
	svc := newFilmTestService(t)

	film := model.Film{ID: "f1", Title: "Jurassic Park", Year: 1993}
	if err := svc.filmRepo.Save(&film); err != nil {
		t.Fatal(err)
	}

	sale := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	obs := providers.NormalizedItem{
		Source:   shared.ProviderEbay,
		SourceID: "v1|456|0",
		Title:    "jurassic park",
		Year:     1993,
		Format:   providers.FormatVHS,
		Price:    &providers.Price{Amount: 19.99, Currency: "USD", Bucket: "Medium"},
		SaleDate: &sale,
	}
	if err := svc.storeItem(&obs); err != nil {
		t.Fatal(err)
	}

	hist, err := svc.GetPriceHistory("f1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if hist.Total != 1 {
		t.Fatalf("observations for f1 = %d, want 1", hist.Total)
	}
	if hist.Observations[0].FilmID != "f1" {
		t.Errorf("FilmID = %q, want f1", hist.Observations[0].FilmID)
	}
}

func TestStoreItemCreatesStubFilmForUnknownSale(t *testing.T) {
	svc := newFilmTestService(t)

	sale := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	obs := providers.NormalizedItem{
		Source:   shared.ProviderEbay,
		SourceID: "v1|789|0",
		Title:    "Akira",
		Year:     1988,
		Format:   providers.FormatLaserDisc,
		Price:    &providers.Price{Amount: 120, Currency: "USD", Bucket: "Premium"},
		SaleDate: &sale,
	}
	if err := svc.storeItem(&obs); err != nil {
		t.Fatal(err)
	}

	film, err := svc.filmRepo.FindByTitleYear("Akira", 1988)
	if err != nil {
		t.Fatalf("no stub film created: %v", err)
	}

	resp, err := svc.GetFilm(film.ID)
	if err != nil {
		t.Fatal(err)
	}
	stats, ok := resp.PriceStats["LaserDisc"]
	if !ok {
		t.Fatalf("no LaserDisc stats in %+v", resp.PriceStats)
	}
	if stats.SampleSize != 1 || stats.MinPrice != 120 {
		t.Errorf("stats = %+v", stats)
	}

	// A second sale of the same title reuses the stub.
	obs.SourceID = "v1|790|0"
	if err := svc.storeItem(&obs); err != nil {
		t.Fatal(err)
	}
	var films int64
	svc.sqlSvc.Db().Model(&model.Film{}).Count(&films)
	if films != 1 {
		t.Fatalf("films = %d, want 1", films)
	}
}

func TestPriceStatsByFormat(t *testing.T) {
	svc := newFilmTestService(t)

	film := model.Film{ID: "f1", Title: "Jurassic Park", Year: 1993}
	if err := svc.filmRepo.Save(&film); err != nil {
		t.Fatal(err)
	}

	prices := []float64{10, 20, 30}
	for i, p := range prices {
		sale := time.Date(2026, 8, i+1, 0, 0, 0, 0, time.UTC)
		err := svc.priceRepo.Save(&model.PriceHistory{
			ID:           "p" + string(rune('0'+i)),
			FilmID:       "f1",
			Source:       shared.ProviderEbay,
			SourceItemID: "item" + string(rune('0'+i)),
			Title:        "Jurassic Park VHS",
			Format:       "VHS",
			Price:        p,
			SaleDate:     &sale,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	resp, err := svc.GetFilm("f1")
	if err != nil {
		t.Fatal(err)
	}
	stats, ok := resp.PriceStats["VHS"]
	if !ok {
		t.Fatalf("no VHS stats in %+v", resp.PriceStats)
	}
	if stats.SampleSize != 3 || stats.MinPrice != 10 || stats.MaxPrice != 30 || stats.AveragePrice != 20 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetFilmNotFound(t *testing.T) {
	svc := newFilmTestService(t)

	_, err := svc.GetFilm("missing")
	if shared.Kind(err) != shared.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
