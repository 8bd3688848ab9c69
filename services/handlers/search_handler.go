package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/shared"
)

type SearchHandler struct {
	aggregatorSvc AggregatorServiceInterface
	trendingSvc   TrendingServiceInterface
}

func NewSearchHandler(aggregatorSvc AggregatorServiceInterface, trendingSvc TrendingServiceInterface) *SearchHandler {
	return &SearchHandler{
		aggregatorSvc: aggregatorSvc,
		trendingSvc:   trendingSvc,
	}
}

// @Summary Aggregated Search
// @Description Search all configured pricing and metadata providers at once
// @Tags search
// @Accept json
// @Produce json
// @Param q query string true "Search term"
// @Param year query int false "Release year"
// @Param format query string false "Physical format filter"
// @Param market query string false "Collectible market"
// @Param sources query string false "Comma-separated provider names"
// @Param limit query int false "Max results per provider"
// @Param page query int false "Result page"
// @Success 200 {object} shared.Response{data=dto.AggregatedSearchResponse}
// @Router /api/v1/search [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	req := dto.SearchRequest{
		Query:  c.Query("q"),
		Format: c.Query("format"),
		Market: c.Query("market"),
	}
	if year := c.Query("year"); year != "" {
		req.Year, _ = strconv.Atoi(year)
	}
	if limit := c.Query("limit"); limit != "" {
		req.Limit, _ = strconv.Atoi(limit)
	}
	if page := c.Query("page"); page != "" {
		req.Page, _ = strconv.Atoi(page)
	}
	if sources := c.Query("sources"); sources != "" {
		req.Sources = splitCSV(sources)
	}

	resp, err := h.aggregatorSvc.Search(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Provider Item Details
// @Description Fetch one item from a single provider
// @Tags search
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Param itemId path string true "Provider item ID"
// @Success 200 {object} shared.Response{data=providers.NormalizedItem}
// @Router /api/v1/search/{provider}/{itemId} [get]
func (h *SearchHandler) Details(c *fiber.Ctx) error {
	item, err := h.aggregatorSvc.Details(c.Context(), c.Params("provider"), c.Params("itemId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", item)
}

// @Summary Trending Searches
// @Description Most searched terms today
// @Tags search
// @Accept json
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} shared.Response{data=dto.TrendingResponse}
// @Router /api/v1/search/trending [get]
func (h *SearchHandler) Trending(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	resp, err := h.trendingSvc.Top(c.Context(), limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
