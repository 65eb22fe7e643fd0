package handler

import (
	"net/http"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/services"
	"producer-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type InboxHandler struct {
	inbox *services.InboxService
}

func NewInboxHandler(inbox *services.InboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

// ListConversations always answers 200 with a list; backend trouble shows up
// as an empty inbox, not an error page.
func (h *InboxHandler) ListConversations(c *gin.Context) {
	userID, _ := services.UserIDFromContext(c.Request.Context())
	conversations := h.inbox.ListConversations(c.Request.Context(), userID)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[[]chat.Conversation](conversations))
}
