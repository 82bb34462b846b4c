package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/analytics"
	"github.com/shop-agent/backend/pkg/logger"
)

type AnalyticsHandler struct {
	store *analytics.Store
}

func NewAnalyticsHandler(store *analytics.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

func (h *AnalyticsHandler) HandleOverview(c *fiber.Ctx) error {
	overview, err := h.store.Overview(c.Context())
	if err != nil {
		logger.Error("analytics overview failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}
	return c.JSON(overview)
}

func (h *AnalyticsHandler) HandleDaily(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "7"))

	stats, err := h.store.DailyStats(c.Context(), days)
	if err != nil {
		logger.Error("analytics daily stats failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}
	return c.JSON(fiber.Map{"daily": stats})
}

func (h *AnalyticsHandler) HandleTopics(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	topics, err := h.store.TopTopics(c.Context(), limit)
	if err != nil {
		logger.Error("analytics topics failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}
	return c.JSON(fiber.Map{"topics": topics})
}
