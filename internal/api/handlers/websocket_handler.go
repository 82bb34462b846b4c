package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/pkg/logger"
)

// WebSocketHandler streams chat answers word by word over a persistent
// connection. The session ID is fixed at connect time so every message on
// the socket shares one transcript.
type WebSocketHandler struct {
	resolver Resolver
	recorder Recorder
}

func NewWebSocketHandler(resolver Resolver, recorder Recorder) *WebSocketHandler {
	return &WebSocketHandler{
		resolver: resolver,
		recorder: recorder,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	logger.Info("websocket session opened", zap.String("session_id", sessionID))
	defer func() {
		c.Close()
		logger.Info("websocket session closed", zap.String("session_id", sessionID))
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := c.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type != "chat" {
			continue
		}

		if err := h.streamAnswer(c, sessionID, msg.Message); err != nil {
			logger.Error("websocket stream failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			h.sendError(c, "Failed to process message")
		}
	}
}

func (h *WebSocketHandler) streamAnswer(c *websocket.Conn, sessionID, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	result, err := h.resolver.Resolve(ctx, sessionID, message)
	elapsed := time.Since(start)

	if err != nil {
		h.record(sessionID, message, "", nil, elapsed, false)
		return err
	}
	h.record(sessionID, message, result.Answer, result.Sources, elapsed, true)

	words := strings.Fields(result.Answer)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := c.WriteJSON(map[string]interface{}{
			"type":    "chunk",
			"content": chunk,
		}); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":          "complete",
		"sessionId":     sessionID,
		"sources":       result.Sources,
		"clarification": result.Clarification,
		"latencyMs":     elapsed.Milliseconds(),
	})
}

func (h *WebSocketHandler) record(sessionID, message, answer string, sources []string, elapsed time.Duration, success bool) {
	if h.recorder == nil {
		return
	}
	h.recorder.Record(analyticsRecord(sessionID, message, answer, sources, elapsed, success))
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
