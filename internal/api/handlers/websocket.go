package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"chat-realtime/internal/models"
	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

type WSHandler struct {
	gate     *websocket.Gate
	hub      *websocket.Hub
	frames   websocket.MessageHandler
	upgrader gorilla.Upgrader
	opts     websocket.ClientOptions
	logger   *slog.Logger
}

func NewWSHandler(gate *websocket.Gate, hub *websocket.Hub, frames websocket.MessageHandler, upgrader gorilla.Upgrader, opts websocket.ClientOptions, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		gate:     gate,
		hub:      hub,
		frames:   frames,
		upgrader: upgrader,
		opts:     opts,
		logger:   logger,
	}
}

// HandleWebSocket authenticates the request and only then upgrades it.
// A rejected attempt gets a plain 401 and never reaches the hub.
//
//	GET /ws?token=<jwt>
//	GET /ws  (Authorization: Bearer <jwt>)
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	identity, err := h.gate.Connect(c.Request.Context(), websocket.ParamsFromRequest(c.Request))
	if errors.Is(err, websocket.ErrRejected) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    response.ErrCodeUnauthorized,
			Message: response.Msg(response.ErrCodeUnauthorized),
		})
		return
	}
	if err != nil {
		h.logger.Error("Connection gate failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    response.ErrCodeInternal,
			Message: response.Msg(response.ErrCodeInternal),
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("WebSocket upgrade failed", "userID", identity.ID, "error", err)
		return
	}

	websocket.ServeClient(h.hub, conn, identity, h.frames, h.opts, h.logger)
}
