package main

import (
	"github.com/reelworth/reelworth_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.SqliteService{},
		&services.RedisService{},
		&services.MinIOService{},
		&services.MonitoringService{},

		&services.QuotaService{},
		&services.ProviderService{},
		&services.MediaService{},
		&services.FilmService{},
		&services.TrendingService{},
		&services.WatchlistService{},
		&services.AggregatorService{},
		&services.WebhookService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
