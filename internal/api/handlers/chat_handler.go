package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/analytics"
	"github.com/shop-agent/backend/internal/chat"
	"github.com/shop-agent/backend/pkg/logger"
)

// Resolver is the chat pipeline surface the HTTP and WebSocket handlers
// consume.
type Resolver interface {
	Resolve(ctx context.Context, sessionID, message string) (*chat.Result, error)
}

// Recorder receives completed chat transactions, fire-and-forget.
type Recorder interface {
	Record(rec analytics.Record)
}

type ChatHandler struct {
	resolver Resolver
	recorder Recorder
}

func NewChatHandler(resolver Resolver, recorder Recorder) *ChatHandler {
	return &ChatHandler{
		resolver: resolver,
		recorder: recorder,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	result, err := h.resolver.Resolve(c.Context(), sessionID, req.Message)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is required",
			})
		}

		logger.Error("chat resolution failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		h.record(sessionID, req.Message, "", nil, elapsed, false)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	h.record(sessionID, req.Message, result.Answer, result.Sources, elapsed, true)

	return c.JSON(fiber.Map{
		"sessionId":     sessionID,
		"answer":        result.Answer,
		"sources":       result.Sources,
		"clarification": result.Clarification,
	})
}

func (h *ChatHandler) record(sessionID, message, answer string, sources []string, elapsed time.Duration, success bool) {
	if h.recorder == nil {
		return
	}
	h.recorder.Record(analyticsRecord(sessionID, message, answer, sources, elapsed, success))
}

func analyticsRecord(sessionID, message, answer string, sources []string, elapsed time.Duration, success bool) analytics.Record {
	return analytics.Record{
		SessionID:      sessionID,
		Timestamp:      time.Now(),
		UserMessage:    message,
		BotResponse:    answer,
		Sources:        sources,
		ResponseTimeMs: elapsed.Milliseconds(),
		Success:        success,
	}
}
