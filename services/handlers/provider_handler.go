package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/shared"
)

type ProviderHandler struct {
	providerSvc ProviderServiceInterface
	quotaSvc    QuotaServiceInterface
}

func NewProviderHandler(providerSvc ProviderServiceInterface, quotaSvc QuotaServiceInterface) *ProviderHandler {
	return &ProviderHandler{
		providerSvc: providerSvc,
		quotaSvc:    quotaSvc,
	}
}

// @Summary Provider Health
// @Description Probe every configured provider
// @Tags providers
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.ProviderHealthResponse}
// @Router /api/v1/providers/health [get]
func (h *ProviderHandler) Health(c *fiber.Ctx) error {
	configured := h.providerSvc.Clients()
	health := h.providerSvc.Health(c.Context())

	resp := dto.ProviderHealthResponse{
		Providers: make([]dto.ProviderHealth, 0, len(shared.ProviderPriority)),
		Timestamp: time.Now().UTC(),
	}
	for _, name := range shared.ProviderPriority {
		_, ok := configured[name]
		resp.Providers = append(resp.Providers, dto.ProviderHealth{
			Name:       name,
			Configured: ok,
			Healthy:    health[name],
		})
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Provider Usage
// @Description Per-provider usage counters and quota state
// @Tags providers
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.ProviderUsageResponse}
// @Router /api/v1/providers/usage [get]
func (h *ProviderHandler) Usage(c *fiber.Ctx) error {
	usage := h.providerSvc.Usage()
	usage["quota"] = h.quotaSvc.Usage()

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", dto.ProviderUsageResponse{
		Usage:     usage,
		Timestamp: time.Now().UTC(),
	})
}

// @Summary Quota History
// @Description Recent daily quota rows
// @Tags providers
// @Accept json
// @Produce json
// @Param days query int false "Days back"
// @Success 200 {object} shared.Response{data=[]model.ProviderAPIUsage}
// @Router /api/v1/providers/quota/history [get]
func (h *ProviderHandler) QuotaHistory(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "7"))

	rows, err := h.quotaSvc.History(days)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", rows)
}

// @Summary Reset Quota
// @Description Clear today's quota counters, optionally for one endpoint
// @Tags providers
// @Accept json
// @Produce json
// @Param endpoint query string false "Endpoint name"
// @Success 200 {object} shared.Response
// @Router /api/v1/providers/quota/reset [post]
func (h *ProviderHandler) QuotaReset(c *fiber.Ctx) error {
	if err := h.quotaSvc.Reset(c.Query("endpoint")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Quota reset", nil)
}
