package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/app/services"
	"github.com/doubtmate/doubtmate/internal/middleware"
)

// ChatController handles the persisted chat endpoints
type ChatController struct {
	chatService *services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chatService *services.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// SendMessage godoc
// @Summary Send a chat message
// @Description Persists a message about a doubt and relays it to the conversation room on a best-effort basis
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendMessageRequest true "Message data"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Receiver or doubt not found"
// @Router /chat/send [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}

	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	message, err := c.chatService.SendMessage(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(message))
}

// GetConversation godoc
// @Summary Get a conversation
// @Description Returns the most recent messages between the caller and another user about one doubt, oldest first, and marks those addressed to the caller as read
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param doubtId path int true "Doubt ID"
// @Param otherUserId path int true "Other participant's user ID"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse}
// @Router /chat/{doubtId}/{otherUserId} [get]
func (c *ChatController) GetConversation(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	doubtID, ok := pathID(ctx, "doubtId")
	if !ok {
		return
	}
	otherID, ok := pathID(ctx, "otherUserId")
	if !ok {
		return
	}

	conversation, err := c.chatService.GetConversation(ctx.Request.Context(), userID, otherID, doubtID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conversation))
}

// MarkRead godoc
// @Summary Mark a message as read
// @Description Receiver only; repeating the call changes nothing
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param messageId path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 401 {object} dto.ErrorResponse "Only the receiver can mark a message read"
// @Failure 404 {object} dto.ErrorResponse
// @Router /chat/{messageId}/read [put]
func (c *ChatController) MarkRead(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}
	messageID, ok := pathID(ctx, "messageId")
	if !ok {
		return
	}

	message, err := c.chatService.MarkRead(ctx.Request.Context(), messageID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(message))
}

// CountUnread godoc
// @Summary Count unread messages
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UnreadCountResponse}
// @Router /chat/unread/count [get]
func (c *ChatController) CountUnread(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondNoUser(ctx)
		return
	}

	count, err := c.chatService.CountUnread(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(count))
}
