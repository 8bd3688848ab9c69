package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/reelworth/reelworth_api/shared"
)

type FilmHandler struct {
	filmSvc FilmServiceInterface
}

func NewFilmHandler(filmSvc FilmServiceInterface) *FilmHandler {
	return &FilmHandler{
		filmSvc: filmSvc,
	}
}

// @Summary Browse Catalog
// @Description List films in the local catalog
// @Tags films
// @Accept json
// @Produce json
// @Param title query string false "Title filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} shared.Response{data=dto.FilmCollectionResponse}
// @Router /api/v1/films [get]
func (h *FilmHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	resp, err := h.filmSvc.SearchCatalog(c.Query("title"), page, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Get Film
// @Description Film details with per-format price statistics
// @Tags films
// @Accept json
// @Produce json
// @Param filmId path string true "Film ID"
// @Success 200 {object} shared.Response{data=dto.FilmDetailResponse}
// @Router /api/v1/films/{filmId} [get]
func (h *FilmHandler) Get(c *fiber.Ctx) error {
	resp, err := h.filmSvc.GetFilm(c.Params("filmId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Film Price History
// @Description Observed sales for a film, newest first
// @Tags films
// @Accept json
// @Produce json
// @Param filmId path string true "Film ID"
// @Param limit query int false "Max observations"
// @Success 200 {object} shared.Response{data=dto.PriceHistoryResponse}
// @Router /api/v1/films/{filmId}/prices [get]
func (h *FilmHandler) PriceHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	resp, err := h.filmSvc.GetPriceHistory(c.Params("filmId"), limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
