package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/shared"
)

type WatchlistHandler struct {
	watchlistSvc WatchlistServiceInterface
}

func NewWatchlistHandler(watchlistSvc WatchlistServiceInterface) *WatchlistHandler {
	return &WatchlistHandler{
		watchlistSvc: watchlistSvc,
	}
}

// userID resolves the acting user. Auth is out of scope here; clients pass an
// X-User-ID header and anonymous traffic shares one bucket.
func userID(c *fiber.Ctx) string {
	if id := c.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

// @Summary List Watchlist
// @Description Films the user tracks, with catalog data preloaded
// @Tags watchlist
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.WatchlistResponse}
// @Router /api/v1/watchlist [get]
func (h *WatchlistHandler) List(c *fiber.Ctx) error {
	resp, err := h.watchlistSvc.List(userID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Add To Watchlist
// @Description Track a catalog film, optionally with a target price
// @Tags watchlist
// @Accept json
// @Produce json
// @Param request body dto.AddWatchlistRequest true "Watchlist entry"
// @Success 201 {object} shared.Response{data=model.Watchlist}
// @Router /api/v1/watchlist [post]
func (h *WatchlistHandler) Add(c *fiber.Ctx) error {
	var req dto.AddWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(nil, "invalid request body")
	}

	entry, err := h.watchlistSvc.Add(userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Success", entry)
}

// @Summary Remove From Watchlist
// @Description Stop tracking a film
// @Tags watchlist
// @Accept json
// @Produce json
// @Param entryId path string true "Watchlist entry ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/watchlist/{entryId} [delete]
func (h *WatchlistHandler) Remove(c *fiber.Ctx) error {
	if err := h.watchlistSvc.Remove(userID(c), c.Params("entryId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", nil)
}
