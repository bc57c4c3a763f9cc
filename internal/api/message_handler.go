package api

import (
	"alcyxob/coach-tracker/internal/service"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageHandler exposes the coach/client conversation.
type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type SendMessageRequest struct {
	CounterpartID string `json:"counterpartId" binding:"required"`
	Body          string `json:"body" binding:"required"`
}

// Send godoc
// @Summary Send a message to the caller's coach or client
// @Tags Messages
// @Accept json
// @Produce json
// @Param message body SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} gin.H "Empty or oversized message"
// @Failure 403 {object} gin.H "Not a coach/client pair"
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	counterpartID, err := primitive.ObjectIDFromHex(req.CounterpartID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid counterpartId format.")
		return
	}
	sender, err := getUserFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), sender, counterpartID, req.Body)
	if err != nil {
		respondWithServiceError(c, err, "Failed to send message.")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Thread returns the conversation with counterpartId, oldest first, and
// marks the counterpart's messages read.
func (h *MessageHandler) Thread(c *gin.Context) {
	counterpartID, ok := objectIDParam(c, "counterpartId")
	if !ok {
		return
	}
	reader, err := getUserFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	limit := int64(service.DefaultThreadLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit parameter.")
			return
		}
		limit = n
	}

	msgs, err := h.messageService.Thread(c.Request.Context(), reader, counterpartID, limit)
	if err != nil {
		respondWithServiceError(c, err, "Failed to load messages.")
		return
	}
	c.JSON(http.StatusOK, msgs)
}
