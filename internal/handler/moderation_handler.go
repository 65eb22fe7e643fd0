package handler

import (
	"net/http"

	"producer-chat/internal/domain/moderation"
	"producer-chat/internal/services"
	"producer-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ModerationHandler struct {
	moderation *services.ModerationService
}

func NewModerationHandler(m *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: m}
}

// BlockUser records the block and acknowledges immediately. The caller gets
// a 202 whether or not the record landed.
func (h *ModerationHandler) BlockUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req httpdto.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_INPUT"))
		return
	}
	blockedID, err := uuid.Parse(req.BlockedID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid blocked_id", "INVALID_INPUT"))
		return
	}

	h.moderation.BlockUser(c.Request.Context(), userID, blockedID)
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(gin.H{"blocked": true}))
}

// ReportUser files the report and acknowledges immediately.
func (h *ModerationHandler) ReportUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req httpdto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_INPUT"))
		return
	}
	reportedID, err := uuid.Parse(req.ReportedUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid reported_user_id", "INVALID_INPUT"))
		return
	}

	h.moderation.ReportUser(c.Request.Context(), services.ReportInput{
		ReporterID:     userID,
		ReportedUserID: reportedID,
		ConversationID: req.ConversationID,
		Reason:         moderation.ReportReason(req.Reason),
		Note:           req.Note,
	})
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(gin.H{"reported": true}))
}
