package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/models"
	"chat-realtime/internal/services"
	"chat-realtime/internal/utils"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageSender interface {
	Send(ctx context.Context, conversationID, senderID uint, body string) (*models.Message, error)
}

type MessageHandler struct {
	chat MessageSender
}

func NewMessageHandler(chat MessageSender) *MessageHandler {
	return &MessageHandler{chat: chat}
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}

type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversationId"`
	SenderID       uint      `json:"senderId"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SendMessage stores a message from the authenticated user and queues the
// recipient's push notification.
//
//	POST /api/v1/conversations/:id/messages {"body": "..."}
func (h *MessageHandler) SendMessage(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    response.ErrCodeUnauthorized,
			Message: response.Msg(response.ErrCodeUnauthorized),
		})
		return
	}

	conversationID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    response.ErrCodeParamInvalid,
			Message: response.Msg(response.ErrCodeParamInvalid),
			Details: err.Error(),
		})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    response.ErrCodeParamInvalid,
			Message: response.Msg(response.ErrCodeParamInvalid),
			Details: err.Error(),
		})
		return
	}

	message, err := h.chat.Send(c.Request.Context(), conversationID, identity.ID, req.Body)
	if err != nil {
		status, code := sendErrorStatus(err)
		c.JSON(status, models.ErrorResponse{Code: code, Message: response.Msg(code)})
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Body:           message.Body,
		CreatedAt:      message.CreatedAt,
	})
}

// Outsiders get the same answer as for a missing conversation.
func sendErrorStatus(err error) (int, int) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest, response.ErrCodeParamInvalid
	case errors.Is(err, services.ErrConversationNotFound), errors.Is(err, services.ErrNotParticipant):
		return http.StatusNotFound, response.ErrCodeNotFound
	default:
		return http.StatusInternalServerError, response.ErrCodeInternal
	}
}
