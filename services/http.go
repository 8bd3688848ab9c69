package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/services/handlers"
	"github.com/reelworth/reelworth_api/shared"
)

type HttpService struct {
	context.DefaultService

	aggregatorSvc *AggregatorService
	filmSvc       *FilmService
	trendingSvc   *TrendingService
	providerSvc   *ProviderService
	quotaSvc      *QuotaService
	watchlistSvc  *WatchlistService
	webhookSvc    *WebhookService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.aggregatorSvc = svc.Service(AGGREGATOR_SVC).(*AggregatorService)
	svc.filmSvc = svc.Service(FILM_SVC).(*FilmService)
	svc.trendingSvc = svc.Service(TRENDING_SVC).(*TrendingService)
	svc.providerSvc = svc.Service(PROVIDER_SVC).(*ProviderService)
	svc.quotaSvc = svc.Service(QUOTA_SVC).(*QuotaService)
	svc.watchlistSvc = svc.Service(WATCHLIST_SVC).(*WatchlistService)
	svc.webhookSvc = svc.Service(WEBHOOK_SVC).(*WebhookService)

	app := fiber.New(fiber.Config{
		AppName:      "reelworth_api",
		JSONEncoder:  shared.JSONEncoder,
		JSONDecoder:  shared.JSONDecoder,
		ErrorHandler: svc.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
	}))

	svc.registerRoutes(app)

	svc.server = app
	log.WithField("port", svc.port).Info("HTTP server starting")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	searchHandler := handlers.NewSearchHandler(svc.aggregatorSvc, svc.trendingSvc)
	filmHandler := handlers.NewFilmHandler(svc.filmSvc)
	providerHandler := handlers.NewProviderHandler(svc.providerSvc, svc.quotaSvc)
	watchlistHandler := handlers.NewWatchlistHandler(svc.watchlistSvc)
	webhookHandler := handlers.NewWebhookHandler(svc.webhookSvc)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Get("/search", searchHandler.Search)
	v1.Get("/search/trending", searchHandler.Trending)
	v1.Get("/search/:provider/:itemId", searchHandler.Details)

	v1.Get("/films", filmHandler.List)
	v1.Get("/films/:filmId", filmHandler.Get)
	v1.Get("/films/:filmId/prices", filmHandler.PriceHistory)

	v1.Get("/providers/health", providerHandler.Health)
	v1.Get("/providers/usage", providerHandler.Usage)
	v1.Get("/providers/quota/history", providerHandler.QuotaHistory)
	v1.Post("/providers/quota/reset", providerHandler.QuotaReset)

	v1.Get("/watchlist", watchlistHandler.List)
	v1.Post("/watchlist", watchlistHandler.Add)
	v1.Delete("/watchlist/:entryId", watchlistHandler.Remove)

	app.Get("/api/ebay/deletion/notifications", webhookHandler.Challenge)
	app.Post("/api/ebay/deletion/notifications", webhookHandler.Notification)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError("page not found")
	})
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	return shared.ResponseInternalError(c, err)
}
