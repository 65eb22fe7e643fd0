package handler

import (
	"context"
	"net/http"

	"producer-chat/internal/redisx"
	"producer-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// QuotaStatus reads the messaging cap without consuming from it.
type QuotaStatus interface {
	Status(ctx context.Context, userID string) (*redisx.QuotaResult, error)
}

type QuotaHandler struct {
	quota QuotaStatus
}

func NewQuotaHandler(quota QuotaStatus) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// GetStatus reports how much of the caller's messaging window is left.
func (h *QuotaHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.quota.Status(c.Request.Context(), userID.String())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("quota status unavailable", "QUOTA_UNAVAILABLE"))
		return
	}

	resp := httpdto.QuotaStatusResponse{
		Unlimited:    status.Limit <= 0,
		Limit:        status.Limit,
		Remaining:    status.Remaining,
		ResetSeconds: int64(status.ResetIn.Seconds()),
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
