package handlers

import (
	"context"
	"net/http"
	"strconv"

	"salonbook/models"
	"salonbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecordLister reads finished flows of a user.
type RecordLister interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.FlowRecord, error)
}

// HistoryHandler serves the caller's booking history.
type HistoryHandler struct {
	Records RecordLister
	Logger  *zap.Logger
}

func NewHistoryHandler(records RecordLister, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{Records: records, Logger: logger}
}

// ListMine handles GET /api/me/bookings?limit=N.
func (h *HistoryHandler) ListMine(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid limit", c.Query("limit"))
		return
	}
	records, err := h.Records.ListByUser(c.Request.Context(), sess.UserID, limit)
	if err != nil {
		h.Logger.Error("ListMine: failed to load records", zap.String("userId", sess.UserID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to load booking history", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": records})
}
