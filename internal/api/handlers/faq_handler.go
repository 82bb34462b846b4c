package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/ingestion"
	"github.com/shop-agent/backend/internal/metrics"
	"github.com/shop-agent/backend/pkg/logger"
)

type FAQHandler struct {
	ingestor *ingestion.Ingestor
}

func NewFAQHandler(ingestor *ingestion.Ingestor) *FAQHandler {
	return &FAQHandler{ingestor: ingestor}
}

// HandleUpload ingests an FAQ document into the vector store, replacing any
// prior content under the same source ID.
func (h *FAQHandler) HandleUpload(c *fiber.Ctx) error {
	var req struct {
		SourceID    string `json:"sourceId"`
		Content     string `json:"content"`
		ContentType string `json:"contentType"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.SourceID == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sourceId and content are required",
		})
	}

	var (
		chunks int
		err    error
	)
	if req.ContentType == "html" {
		chunks, err = h.ingestor.IngestHTML(c.Context(), req.SourceID, req.Content)
	} else {
		chunks, err = h.ingestor.Ingest(c.Context(), req.SourceID, req.Content)
	}
	if err != nil {
		logger.Error("document ingestion failed",
			zap.String("source_id", req.SourceID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest document",
		})
	}

	metrics.DocumentsIngested.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sourceId": req.SourceID,
		"chunks":   chunks,
	})
}

// HandleDelete removes every chunk stored under the source ID.
func (h *FAQHandler) HandleDelete(c *fiber.Ctx) error {
	sourceID := c.Params("sourceId")
	if sourceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sourceId is required",
		})
	}

	if err := h.ingestor.Remove(c.Context(), sourceID); err != nil {
		logger.Error("document deletion failed",
			zap.String("source_id", sourceID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}

	return c.JSON(fiber.Map{
		"sourceId": sourceID,
		"deleted":  true,
	})
}
