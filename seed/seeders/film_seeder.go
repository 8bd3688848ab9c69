package seeders

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reelworth/reelworth_api/model"
)

// FilmSeeder loads a starter catalog of collectible-era films
type FilmSeeder struct {
	db *gorm.DB
}

func NewFilmSeeder(db *gorm.DB) *FilmSeeder {
	return &FilmSeeder{db: db}
}

type seedFilm struct {
	Title    string
	Year     int
	Overview string
	Runtime  int
	Genres   []string
	TmdbID   string
	ImdbID   string
	Rating   float64
}

var starterFilms = []seedFilm{
	{
		Title:    "Jurassic Park",
		Year:     1993,
		Overview: "A wealthy entrepreneur secretly creates a theme park featuring living dinosaurs drawn from prehistoric DNA.",
		Runtime:  127,
		Genres:   []string{"Adventure", "Science Fiction"},
		TmdbID:   "329",
		ImdbID:   "tt0107290",
		Rating:   7.9,
	},
	{
		Title:    "The Matrix",
		Year:     1999,
		Overview: "A computer hacker learns from mysterious rebels about the true nature of his reality.",
		Runtime:  136,
		Genres:   []string{"Action", "Science Fiction"},
		TmdbID:   "603",
		ImdbID:   "tt0133093",
		Rating:   8.2,
	},
	{
		Title:    "Blade Runner",
		Year:     1982,
		Overview: "A blade runner must pursue and terminate four replicants who stole a ship in space.",
		Runtime:  117,
		Genres:   []string{"Science Fiction", "Drama"},
		TmdbID:   "78",
		ImdbID:   "tt0083658",
		Rating:   7.9,
	},
	{
		Title:    "Akira",
		Year:     1988,
		Overview: "A secret military project endangers Neo-Tokyo when it turns a biker gang member into a rampaging psychic psychopath.",
		Runtime:  124,
		Genres:   []string{"Animation", "Science Fiction"},
		TmdbID:   "149",
		ImdbID:   "tt0094625",
		Rating:   8.0,
	},
	{
		Title:    "Halloween",
		Year:     1978,
		Overview: "Fifteen years after murdering his sister, Michael Myers escapes and returns to his hometown.",
		Runtime:  91,
		Genres:   []string{"Horror", "Thriller"},
		TmdbID:   "948",
		ImdbID:   "tt0077651",
		Rating:   7.6,
	},
}

// SeedFilms inserts the starter catalog, skipping titles already present
func (s *FilmSeeder) SeedFilms() error {
	seeded := 0
	for _, f := range starterFilms {
		var count int64
		if err := s.db.Model(&model.Film{}).Where("tmdb_id = ?", f.TmdbID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		genres, err := json.Marshal(f.Genres)
		if err != nil {
			return err
		}

		film := model.Film{
			ID:          uuid.NewString(),
			Title:       f.Title,
			Year:        f.Year,
			Overview:    f.Overview,
			RuntimeMins: f.Runtime,
			Genres:      genres,
			TmdbID:      f.TmdbID,
			ImdbID:      f.ImdbID,
			Rating:      f.Rating,
		}
		if err := s.db.Create(&film).Error; err != nil {
			return err
		}
		seeded++
	}

	log.Printf("Seeded %d films (%d already present)", seeded, len(starterFilms)-seeded)
	return nil
}
